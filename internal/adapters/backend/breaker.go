package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

// Backend is everything the console consumes from the scheduling backend
type Backend interface {
	providers.ScheduleBackend
	providers.PatientBackend
}

// BreakerConfig tunes the circuit breaker
type BreakerConfig struct {
	Name string
	// ConsecutiveFailures opens the breaker
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration
	// HalfOpenRequests is how many probes pass while half-open
	HalfOpenRequests uint32
}

// DefaultBreakerConfig is used by the console server
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "scheduling-backend",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
	}
}

// BreakerBackend fails fast while the backend is down. It never retries:
// each call reaches the backend at most once.
type BreakerBackend struct {
	inner   Backend
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerBackend wraps inner with a circuit breaker
func NewBreakerBackend(inner Backend, cfg BreakerConfig) *BreakerBackend {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("backend circuit breaker state changed")
		},
		IsSuccessful: countsAsHealthy,
	}
	return &BreakerBackend{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// State reports the breaker state for health checks
func (b *BreakerBackend) State() string {
	return b.breaker.State().String()
}

// countsAsHealthy treats client-side rejections (4xx) as a healthy backend
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		return false
	}
	switch appErr.Type {
	case apperrors.ErrorTypeExternal:
		return appErr.Status < http.StatusInternalServerError
	case apperrors.ErrorTypeTransport, apperrors.ErrorTypeInternal:
		return false
	default:
		return true
	}
}

func execute[T any](b *BreakerBackend, fn func() (T, error)) (T, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, apperrors.NewTransportError("scheduling backend temporarily unavailable", err)
		}
		return zero, err
	}
	return out.(T), nil
}

func (b *BreakerBackend) FetchSchedule(ctx context.Context, q entities.ScheduleQuery) (*entities.Snapshot, error) {
	return execute(b, func() (*entities.Snapshot, error) { return b.inner.FetchSchedule(ctx, q) })
}

func (b *BreakerBackend) UpsertWindow(ctx context.Context, upsert entities.WindowUpsert) (*entities.WindowUpsertResult, error) {
	return execute(b, func() (*entities.WindowUpsertResult, error) { return b.inner.UpsertWindow(ctx, upsert) })
}

func (b *BreakerBackend) DeleteWindow(ctx context.Context, windowID int64) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.inner.DeleteWindow(ctx, windowID) })
	return err
}

func (b *BreakerBackend) BulkAdjust(ctx context.Context, req entities.BulkAdjustRequest) (*entities.BulkAdjustResult, error) {
	return execute(b, func() (*entities.BulkAdjustResult, error) { return b.inner.BulkAdjust(ctx, req) })
}

func (b *BreakerBackend) LookupAppointment(ctx context.Context, doctorID int64, start entities.LocalTime) (*entities.AppointmentLookup, error) {
	return execute(b, func() (*entities.AppointmentLookup, error) { return b.inner.LookupAppointment(ctx, doctorID, start) })
}

func (b *BreakerBackend) LookupUser(ctx context.Context, req entities.LoginRequest) (*entities.PatientProfile, error) {
	return execute(b, func() (*entities.PatientProfile, error) { return b.inner.LookupUser(ctx, req) })
}

func (b *BreakerBackend) Upcoming(ctx context.Context, userID string) ([]entities.UpcomingAppointment, error) {
	return execute(b, func() ([]entities.UpcomingAppointment, error) { return b.inner.Upcoming(ctx, userID) })
}

func (b *BreakerBackend) Bookings(ctx context.Context, userID string) ([]entities.Booking, error) {
	return execute(b, func() ([]entities.Booking, error) { return b.inner.Bookings(ctx, userID) })
}

func (b *BreakerBackend) Booking(ctx context.Context, bookingID int64) (*entities.Booking, error) {
	return execute(b, func() (*entities.Booking, error) { return b.inner.Booking(ctx, bookingID) })
}

func (b *BreakerBackend) HospitalUsers(ctx context.Context, hospitalID *int64) (*entities.HospitalUsersResponse, error) {
	return execute(b, func() (*entities.HospitalUsersResponse, error) { return b.inner.HospitalUsers(ctx, hospitalID) })
}

func (b *BreakerBackend) HospitalUserProfile(ctx context.Context, hospitalID int64, userID string) (*entities.HospitalUserProfile, error) {
	return execute(b, func() (*entities.HospitalUserProfile, error) {
		return b.inner.HospitalUserProfile(ctx, hospitalID, userID)
	})
}

func (b *BreakerBackend) UpcomingByHospital(ctx context.Context) (*entities.UpcomingByHospitalResponse, error) {
	return execute(b, func() (*entities.UpcomingByHospitalResponse, error) { return b.inner.UpcomingByHospital(ctx) })
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

// DefaultUserRecordTTL is how long a session's login record is kept
const DefaultUserRecordTTL = 30 * 24 * time.Hour

// PatientService serves the read-only patient history views and keeps the
// single logged-in user record of each console session.
type PatientService struct {
	backend providers.PatientBackend
	cache   providers.CacheProvider
	ttl     time.Duration
}

// NewPatientService creates a new patient service
func NewPatientService(backend providers.PatientBackend, cache providers.CacheProvider, userTTL time.Duration) *PatientService {
	if userTTL <= 0 {
		userTTL = DefaultUserRecordTTL
	}
	return &PatientService{
		backend: backend,
		cache:   cache,
		ttl:     userTTL,
	}
}

// Login finds or creates the user by name and phone and remembers it for the session
func (s *PatientService) Login(ctx context.Context, sessionID string, req entities.LoginRequest) (*entities.PatientProfile, error) {
	req = req.Normalize()
	if req.Name == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if req.Phone == "" {
		return nil, apperrors.NewValidationError("phone is required")
	}

	user, err := s.backend.LookupUser(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode user record", err)
	}
	if err := s.cache.Set(ctx, providers.SessionUserKey(sessionID), data, int(s.ttl.Seconds())); err != nil {
		return nil, apperrors.NewInternalError("failed to store user record", err)
	}

	observability.LoggerFromContext(ctx).Info().Str("user_id", user.ID).Msg("console user logged in")
	return user, nil
}

// CurrentUser returns the session's logged-in user
func (s *PatientService) CurrentUser(ctx context.Context, sessionID string) (*entities.PatientProfile, error) {
	data, err := s.cache.Get(ctx, providers.SessionUserKey(sessionID))
	if err != nil {
		if errors.Is(err, providers.ErrCacheMiss) {
			return nil, apperrors.NewNotFoundError("no user logged in")
		}
		return nil, apperrors.NewInternalError("failed to read user record", err)
	}

	var user entities.PatientProfile
	if err := json.Unmarshal(data, &user); err != nil {
		// a corrupt record is treated as logged out
		_ = s.cache.Delete(ctx, providers.SessionUserKey(sessionID))
		return nil, apperrors.NewNotFoundError("no user logged in")
	}
	return &user, nil
}

// Logout forgets the session's user record
func (s *PatientService) Logout(ctx context.Context, sessionID string) error {
	if err := s.cache.Delete(ctx, providers.SessionUserKey(sessionID)); err != nil {
		return apperrors.NewInternalError("failed to clear user record", err)
	}
	return nil
}

// Upcoming lists upcoming appointments; userID defaults to the session user
func (s *PatientService) Upcoming(ctx context.Context, sessionID, userID string) ([]entities.UpcomingAppointment, error) {
	return s.backend.Upcoming(ctx, s.resolveUser(ctx, sessionID, userID))
}

// Bookings lists booking slips; userID defaults to the session user
func (s *PatientService) Bookings(ctx context.Context, sessionID, userID string) ([]entities.Booking, error) {
	return s.backend.Bookings(ctx, s.resolveUser(ctx, sessionID, userID))
}

func (s *PatientService) Booking(ctx context.Context, bookingID int64) (*entities.Booking, error) {
	if bookingID <= 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid booking id %d", bookingID))
	}
	return s.backend.Booking(ctx, bookingID)
}

func (s *PatientService) HospitalUsers(ctx context.Context, hospitalID *int64) (*entities.HospitalUsersResponse, error) {
	return s.backend.HospitalUsers(ctx, hospitalID)
}

func (s *PatientService) HospitalUserProfile(ctx context.Context, hospitalID int64, userID string) (*entities.HospitalUserProfile, error) {
	if hospitalID <= 0 || userID == "" {
		return nil, apperrors.NewValidationError("hospital_id and user_id are required")
	}
	return s.backend.HospitalUserProfile(ctx, hospitalID, userID)
}

func (s *PatientService) UpcomingByHospital(ctx context.Context) (*entities.UpcomingByHospitalResponse, error) {
	return s.backend.UpcomingByHospital(ctx)
}

func (s *PatientService) resolveUser(ctx context.Context, sessionID, userID string) string {
	if userID != "" || sessionID == "" {
		return userID
	}
	user, err := s.CurrentUser(ctx, sessionID)
	if err != nil {
		return ""
	}
	return user.ID
}

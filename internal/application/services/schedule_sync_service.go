package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

// LoadMode tells a blocking user-triggered load apart from a silent refresh
type LoadMode string

const (
	LoadForeground LoadMode = "foreground"
	LoadBackground LoadMode = "background"
)

// DefaultRefreshInterval is the background refresh period
const DefaultRefreshInterval = 5 * time.Minute

// SyncState is an immutable view of the synchronizer. A new value is swapped
// in whole on every change.
type SyncState struct {
	Query      entities.ScheduleQuery `json:"-"`
	Snapshot   *entities.Snapshot     `json:"snapshot"`
	Version    uint64                 `json:"version"`
	Loading    bool                   `json:"loading"`
	Refreshing bool                   `json:"refreshing"`
	Error      string                 `json:"error,omitempty"`
	LoadedAt   time.Time              `json:"loadedAt,omitempty"`
}

// SyncOption customizes a ScheduleSyncService
type SyncOption func(*ScheduleSyncService)

// WithSyncEvents publishes lifecycle events on the session channel
func WithSyncEvents(bus providers.EventBus) SyncOption {
	return func(s *ScheduleSyncService) { s.events = bus }
}

// WithSyncMetrics records load outcomes
func WithSyncMetrics(m *observability.Metrics) SyncOption {
	return func(s *ScheduleSyncService) { s.metrics = m }
}

// WithRefreshInterval overrides the background refresh period
func WithRefreshInterval(d time.Duration) SyncOption {
	return func(s *ScheduleSyncService) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithStrictOrdering discards responses to requests older than the latest
// applied one. Without it the last response to arrive wins.
func WithStrictOrdering(strict bool) SyncOption {
	return func(s *ScheduleSyncService) { s.strict = strict }
}

// WithOnApply is called after every applied load, successful or not
func WithOnApply(fn func(SyncState)) SyncOption {
	return func(s *ScheduleSyncService) { s.onApply = fn }
}

// ScheduleSyncService loads schedule snapshots for one console session and
// keeps them fresh with a periodic background refresh.
type ScheduleSyncService struct {
	backend   providers.ScheduleBackend
	events    providers.EventBus
	metrics   *observability.Metrics
	sessionID string
	interval  time.Duration
	strict    bool
	onApply   func(SyncState)

	state atomic.Pointer[SyncState]

	mu         sync.Mutex
	query      entities.ScheduleQuery
	seq        uint64
	appliedSeq uint64
	foreground int
	background int
	stop       context.CancelFunc
}

// NewScheduleSyncService creates a synchronizer with an empty snapshot
func NewScheduleSyncService(backend providers.ScheduleBackend, sessionID string, opts ...SyncOption) *ScheduleSyncService {
	s := &ScheduleSyncService{
		backend:   backend,
		sessionID: sessionID,
		interval:  DefaultRefreshInterval,
		query:     entities.ScheduleQuery{Range: entities.ScheduleRangeDay},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(&SyncState{Query: s.query, Snapshot: entities.EmptySnapshot()})
	return s
}

// State returns the current state; the snapshot must be treated as read-only
func (s *ScheduleSyncService) State() SyncState {
	return *s.state.Load()
}

// Query returns the query the next load will use
func (s *ScheduleSyncService) Query() entities.ScheduleQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetQuery changes the date/range/hospital filter and loads it in the foreground
func (s *ScheduleSyncService) SetQuery(ctx context.Context, q entities.ScheduleQuery) (SyncState, error) {
	if err := s.UseQuery(q); err != nil {
		return s.State(), err
	}
	return s.Load(ctx, LoadForeground)
}

// UseQuery changes the query without loading it
func (s *ScheduleSyncService) UseQuery(q entities.ScheduleQuery) error {
	if q.Range == "" {
		q.Range = entities.ScheduleRangeDay
	}
	if err := q.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	return nil
}

// Load fetches the snapshot for the current query. Failures clear the
// visible schedule and are recorded in the state for both modes.
func (s *ScheduleSyncService) Load(ctx context.Context, mode LoadMode) (SyncState, error) {
	ctx, span := observability.StartSpan(ctx, "schedule.sync.load")
	defer span.End()

	s.mu.Lock()
	q := s.query
	if q.Date == "" {
		s.mu.Unlock()
		return s.State(), apperrors.NewValidationError("no schedule date selected")
	}
	s.seq++
	seq := s.seq
	s.track(mode, 1)
	started := s.swapLocked(func(st *SyncState) {})
	s.mu.Unlock()

	eventType := entities.SyncEventLoading
	if mode == LoadBackground {
		eventType = entities.SyncEventRefreshing
	}
	s.publish(ctx, entities.NewSyncEvent(s.sessionID, eventType, q, started.Version))

	snap, err := s.backend.FetchSchedule(ctx, q)
	if err == nil && snap == nil {
		snap = entities.EmptySnapshot()
	}

	s.mu.Lock()
	s.track(mode, -1)
	if s.strict && seq < s.appliedSeq {
		current := s.swapLocked(func(st *SyncState) {})
		applied := s.appliedSeq
		s.mu.Unlock()
		observability.LoggerFromContext(ctx).Debug().
			Uint64("seq", seq).
			Uint64("applied_seq", applied).
			Msg("discarding out-of-order schedule response")
		return current, nil
	}
	s.appliedSeq = seq

	var next SyncState
	if err != nil {
		next = s.swapLocked(func(st *SyncState) {
			st.Query = q
			st.Snapshot = entities.EmptySnapshot()
			st.Error = apperrors.UserMessage(err)
		})
	} else {
		next = s.swapLocked(func(st *SyncState) {
			st.Query = q
			st.Snapshot = snap
			st.Version++
			st.Error = ""
			st.LoadedAt = time.Now()
		})
	}
	onApply := s.onApply
	s.mu.Unlock()

	logger := observability.LoggerFromContext(ctx)
	observability.RecordSyncLoad(ctx, s.metrics, string(mode), err == nil)
	if onApply != nil {
		onApply(next)
	}

	if err != nil {
		observability.RecordError(span, err)
		logger.Error().Err(err).
			Str("mode", string(mode)).
			Str("date", q.Date).
			Str("range", string(q.Range)).
			Msg("schedule load failed")
		event := entities.NewSyncEvent(s.sessionID, entities.SyncEventFailed, q, next.Version)
		event.Error = next.Error
		s.publish(ctx, event)
		return next, err
	}

	logger.Debug().
		Str("mode", string(mode)).
		Str("date", q.Date).
		Uint64("version", next.Version).
		Int("hospitals", len(snap.Hospitals)).
		Msg("schedule loaded")
	s.publish(ctx, entities.NewSyncEvent(s.sessionID, entities.SyncEventLoaded, q, next.Version))
	return next, nil
}

// Start runs the periodic background refresh until ctx is done or Stop is
// called. It does not load immediately.
func (s *ScheduleSyncService) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.stop != nil {
		s.stop()
	}
	s.stop = cancel
	interval := s.interval
	s.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.Query().Date == "" {
					continue
				}
				if _, err := s.Load(ctx, LoadBackground); err != nil {
					observability.LoggerFromContext(ctx).Warn().Err(err).Msg("background schedule refresh failed")
				}
			}
		}
	}()
	observability.LoggerFromContext(ctx).Debug().Dur("interval", interval).Msg("started background schedule refresh")
}

// Stop ends the background refresh
func (s *ScheduleSyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *ScheduleSyncService) track(mode LoadMode, delta int) {
	if mode == LoadBackground {
		s.background += delta
	} else {
		s.foreground += delta
	}
}

// swapLocked copies the current state, applies fn, refreshes the in-flight
// flags and stores the result. s.mu must be held.
func (s *ScheduleSyncService) swapLocked(fn func(*SyncState)) SyncState {
	next := *s.state.Load()
	fn(&next)
	next.Loading = s.foreground > 0
	next.Refreshing = s.background > 0
	s.state.Store(&next)
	return next
}

func (s *ScheduleSyncService) publish(ctx context.Context, event *entities.SyncEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, providers.GetSessionChannel(s.sessionID), event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("event_type", string(event.EventType)).
			Msg("failed to publish sync event")
	}
}

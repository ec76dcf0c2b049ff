package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	"github.com/medly/scheduleconsole/internal/grid"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

// DefaultSessionTTL is how long an idle console session is kept
const DefaultSessionTTL = 2 * time.Hour

// ConsoleConfig holds per-session grid and sync settings
type ConsoleConfig struct {
	PixelsPerHour   float64
	RefreshInterval time.Duration
	StrictOrdering  bool
	SessionTTL      time.Duration
	Location        *time.Location
}

// ConsoleService owns the console sessions. Each session is one grid view
// instance with its own selection, drag state and synchronizer.
type ConsoleService struct {
	backend providers.ScheduleBackend
	bulk    *BulkAdjustService
	cache   providers.CacheProvider
	events  providers.EventBus
	metrics *observability.Metrics
	cfg     ConsoleConfig
	now     func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*ConsoleSession
}

// NewConsoleService creates a new console service. events and metrics may be nil.
func NewConsoleService(
	backend providers.ScheduleBackend,
	bulk *BulkAdjustService,
	cache providers.CacheProvider,
	events providers.EventBus,
	metrics *observability.Metrics,
	cfg ConsoleConfig,
) *ConsoleService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ConsoleService{
		backend:  backend,
		bulk:     bulk,
		cache:    cache,
		events:   events,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
		baseCtx:  ctx,
		cancel:   cancel,
		sessions: make(map[string]*ConsoleSession),
	}
}

// OpenSession returns the session with id, creating it when id is unknown
// or not a UUID. A new session restores the last query saved under its id.
func (s *ConsoleService) OpenSession(ctx context.Context, id string) *ConsoleSession {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok {
		sess.touch(s.now())
		s.mu.Unlock()
		return sess
	}
	sess := s.newSession(id)
	s.sessions[id] = sess
	s.mu.Unlock()

	sess.restorePrefs(ctx)
	sess.syncer.Start(observability.WithSessionID(s.baseCtx, id))
	observability.LoggerFromContext(ctx).Debug().Str("session_id", id).Msg("console session opened")
	return sess
}

// Session returns an existing session
func (s *ConsoleService) Session(id string) (*ConsoleSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// SessionCount returns the number of live sessions
func (s *ConsoleService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Reap closes sessions idle for longer than the TTL at now and returns how many
func (s *ConsoleService) Reap(now time.Time) int {
	cutoff := now.Add(-s.cfg.SessionTTL)

	s.mu.Lock()
	var expired []*ConsoleSession
	for id, sess := range s.sessions {
		if sess.lastSeenAt().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}

// StartReaper periodically expires idle sessions until ctx is done
func (s *ConsoleService) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Reap(s.now()); n > 0 {
					observability.LoggerFromContext(ctx).Info().Int("expired", n).Msg("expired idle console sessions")
				}
			}
		}
	}()
}

// Close stops every session's background refresh
func (s *ConsoleService) Close() {
	s.cancel()

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*ConsoleSession)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

func (s *ConsoleService) newSession(id string) *ConsoleSession {
	sess := &ConsoleSession{
		id:        id,
		svc:       s,
		selection: grid.NewSelectionModel(),
		quantizer: grid.NewQuantizer(s.cfg.PixelsPerHour),
		rows:      map[int64]*grid.RowController{},
		lastSeen:  s.now(),
	}
	sess.syncer = NewScheduleSyncService(s.backend, id,
		WithSyncEvents(s.events),
		WithSyncMetrics(s.metrics),
		WithRefreshInterval(s.cfg.RefreshInterval),
		WithStrictOrdering(s.cfg.StrictOrdering),
		WithOnApply(sess.rebuild),
	)
	return sess
}

func (s *ConsoleService) today() string {
	return s.now().In(s.cfg.Location).Format(entities.DateLayout)
}

type sessionPrefs struct {
	Date       string                 `json:"date"`
	Range      entities.ScheduleRange `json:"range"`
	HospitalID *int64                 `json:"hospitalId,omitempty"`
}

type pendingPrefill struct {
	span     grid.SelectedSpan
	kind     entities.WindowKind
	doctorID int64
}

// ViewStatus is the sync status shown above both grids
type ViewStatus struct {
	Date            string                    `json:"date"`
	Range           entities.ScheduleRange    `json:"range"`
	HospitalID      *int64                    `json:"hospitalId,omitempty"`
	Version         uint64                    `json:"version"`
	Loading         bool                      `json:"loading"`
	Refreshing      bool                      `json:"refreshing"`
	Error           string                    `json:"error,omitempty"`
	LoadedAt        time.Time                 `json:"loadedAt,omitempty"`
	HospitalOptions []entities.HospitalOption `json:"hospitalOptions"`
}

// DayViewResponse is the day grid plus its status
type DayViewResponse struct {
	Status ViewStatus   `json:"status"`
	View   grid.DayView `json:"view"`
}

// WeekViewResponse is the week grid plus its status
type WeekViewResponse struct {
	Status ViewStatus    `json:"status"`
	View   grid.WeekView `json:"view"`
}

// DragRequest is a completed pointer gesture on a row
type DragRequest struct {
	Mode          grid.DragMode   `json:"mode"`
	Target        grid.TargetKind `json:"target"`
	WindowID      *int64          `json:"windowId,omitempty"`
	OwnerDoctorID int64           `json:"ownerDoctorId"`
	OriginPixel   float64         `json:"originPixel"`
	CurrentPixel  float64         `json:"currentPixel"`
}

type sessionKey struct{}

// WithSession attaches a console session to ctx
func WithSession(ctx context.Context, sess *ConsoleSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session attached by WithSession
func SessionFromContext(ctx context.Context) (*ConsoleSession, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*ConsoleSession)
	return sess, ok && sess != nil
}

// ConsoleSession is one console view. It is safe for concurrent use.
type ConsoleSession struct {
	id        string
	svc       *ConsoleService
	syncer    *ScheduleSyncService
	selection *grid.SelectionModel
	quantizer grid.Quantizer

	mu         sync.Mutex
	rows       map[int64]*grid.RowController
	prefill    *pendingPrefill
	weekFilter grid.WeekFilter
	lastSeen   time.Time
}

func (c *ConsoleSession) ID() string {
	return c.id
}

// Sync exposes the session's synchronizer
func (c *ConsoleSession) Sync() *ScheduleSyncService {
	return c.syncer
}

// EnsureLoaded loads today's schedule the first time a view is requested
func (c *ConsoleSession) EnsureLoaded(ctx context.Context) (SyncState, error) {
	st := c.syncer.State()
	if st.Version > 0 || st.Error != "" || st.Loading {
		return st, nil
	}
	if c.syncer.Query().Date == "" {
		q := c.syncer.Query()
		q.Date = c.svc.today()
		if err := c.syncer.UseQuery(q); err != nil {
			return st, err
		}
	}
	return c.syncer.Load(ctx, LoadForeground)
}

// SetQuery switches date, range or hospital filter and loads in the foreground
func (c *ConsoleSession) SetQuery(ctx context.Context, q entities.ScheduleQuery) (SyncState, error) {
	prev := c.syncer.Query()
	st, err := c.syncer.SetQuery(ctx, q)
	if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		return st, err
	}
	if prev.Date != q.Date {
		c.DiscardPrefill()
	}
	c.savePrefs(ctx)
	return st, err
}

// Reload refreshes the current query in the foreground
func (c *ConsoleSession) Reload(ctx context.Context) (SyncState, error) {
	if c.syncer.Query().Date == "" {
		return c.EnsureLoaded(ctx)
	}
	return c.syncer.Load(ctx, LoadForeground)
}

// Status summarizes the sync state
func (c *ConsoleSession) Status() ViewStatus {
	st := c.syncer.State()
	q := c.syncer.Query()
	return ViewStatus{
		Date:            q.Date,
		Range:           q.Range,
		HospitalID:      q.HospitalID,
		Version:         st.Version,
		Loading:         st.Loading,
		Refreshing:      st.Refreshing,
		Error:           st.Error,
		LoadedAt:        st.LoadedAt,
		HospitalOptions: st.Snapshot.HospitalOptions(),
	}
}

// DayView renders the interactive day grid
func (c *ConsoleSession) DayView() (*DayViewResponse, error) {
	st := c.syncer.State()
	rows := c.rowSource()
	view, err := grid.BuildDayView(st.Snapshot, c.syncer.Query().Date, st.Version, c.quantizer, c.selection.Snapshot(), rows)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return &DayViewResponse{Status: c.Status(), View: view}, nil
}

// WeekView renders the busy-slot week grid and remembers filter
func (c *ConsoleSession) WeekView(filter grid.WeekFilter) *WeekViewResponse {
	c.mu.Lock()
	c.weekFilter = filter
	c.mu.Unlock()

	st := c.syncer.State()
	return &WeekViewResponse{Status: c.Status(), View: grid.BuildWeekView(st.Snapshot, st.Version, filter)}
}

// WeekFilter returns the last week filter used
func (c *ConsoleSession) WeekFilter() grid.WeekFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weekFilter
}

// Lookup resolves the booking behind a busy slot for the popover
func (c *ConsoleSession) Lookup(ctx context.Context, doctorID int64, start entities.LocalTime) grid.Popover {
	var slot *grid.SlotRef
	if _, _, doc, ok := c.syncer.State().Snapshot.FindDoctor(doctorID); ok {
		for _, b := range doc.Busy {
			if b.Start.Equal(start.Time) {
				slot = &grid.SlotRef{DoctorName: doc.Name, Start: b.Start, End: b.End}
				break
			}
		}
	}
	lookup, err := c.svc.backend.LookupAppointment(ctx, doctorID, start)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Int64("doctor_id", doctorID).Msg("appointment lookup failed")
	}
	return grid.BuildPopover(slot, lookup, err)
}

// CreateWindow creates a window on a row, then reloads
func (c *ConsoleSession) CreateWindow(ctx context.Context, doctorID int64, quarter int, kind entities.WindowKind, durationMinutes int) (*entities.TimeWindow, error) {
	row, err := c.row(doctorID)
	if err != nil {
		return nil, err
	}
	window, err := row.CreateAt(ctx, quarter, kind, durationMinutes)
	if err != nil {
		return nil, err
	}
	c.reloadAfterMutation(ctx)
	return window, nil
}

// DoubleClick creates a one-hour available window at pixelOffset, then reloads
func (c *ConsoleSession) DoubleClick(ctx context.Context, doctorID int64, pixelOffset float64) (*entities.TimeWindow, error) {
	row, err := c.row(doctorID)
	if err != nil {
		return nil, err
	}
	window, err := row.OnDoubleClick(ctx, pixelOffset)
	if err != nil {
		return nil, err
	}
	c.reloadAfterMutation(ctx)
	return window, nil
}

// Drag replays a completed move or resize gesture and persists it
func (c *ConsoleSession) Drag(ctx context.Context, doctorID int64, req DragRequest) (*grid.DragResult, error) {
	row, err := c.row(doctorID)
	if err != nil {
		return nil, err
	}
	target := grid.BlockTarget{Kind: req.Target, WindowID: req.WindowID, OwnerDoctorID: req.OwnerDoctorID}
	if target.Kind == "" {
		target.Kind = grid.TargetWindow
	}

	state, release, err := row.BeginDrag(target, req.Mode, req.OriginPixel)
	if err != nil {
		return nil, gestureError(err)
	}
	defer release()

	if err := row.UpdateDrag(state, req.CurrentPixel); err != nil {
		return nil, gestureError(err)
	}
	result, err := row.OnDragEnd(ctx, state)
	if err != nil {
		return nil, gestureError(err)
	}
	c.reloadAfterMutation(ctx)
	return result, nil
}

// SelectSpan turns an empty-space drag into a doctor selection and a
// prefilled bulk-adjust form. Nothing is persisted.
func (c *ConsoleSession) SelectSpan(ctx context.Context, doctorID int64, startPx, endPx float64, kind entities.WindowKind) (*BulkAdjustForm, error) {
	row, err := c.row(doctorID)
	if err != nil {
		return nil, err
	}
	ref, _, err := c.doctorRef(doctorID)
	if err != nil {
		return nil, err
	}
	if !kind.Valid() {
		kind = entities.WindowKindAvailable
	}

	span := row.OnPointerDragSelect(startPx, endPx)
	c.selection.SelectSpanOwner(ref)

	c.mu.Lock()
	c.prefill = &pendingPrefill{span: span, kind: kind, doctorID: doctorID}
	c.mu.Unlock()

	observability.LoggerFromContext(ctx).Debug().
		Int64("doctor_id", doctorID).
		Str("start", span.Start.String()).
		Str("end", span.End.String()).
		Msg("span selected")
	form := PrefillForm(c.selection.Target(), span, kind)
	return &form, nil
}

// Click applies a doctor-label click with modifiers
func (c *ConsoleSession) Click(doctorID int64, mods grid.Modifiers) (grid.SelectionSnapshot, error) {
	ref, departmentDoctors, err := c.doctorRef(doctorID)
	if err != nil {
		return grid.SelectionSnapshot{}, err
	}
	c.selection.Click(ref, mods, departmentDoctors)
	return c.selection.Snapshot(), nil
}

// SelectScope toggles a hospital, department or doctor scope
func (c *ConsoleSession) SelectScope(kind entities.ScopeKind, id int64) (grid.SelectionSnapshot, error) {
	snap := c.syncer.State().Snapshot
	var name string
	switch kind {
	case entities.ScopeKindHospital:
		for _, h := range snap.Hospitals {
			if h.ID == id {
				name = h.Name
			}
		}
	case entities.ScopeKindDepartment:
		if h, d, ok := snap.FindDepartment(id); ok {
			name = fmt.Sprintf("%s • %s", h.Name, d.Name)
		}
	case entities.ScopeKindDoctor:
		if h, d, doc, ok := snap.FindDoctor(id); ok {
			name = grid.ScopeName(*h, *d, *doc)
		}
	default:
		return grid.SelectionSnapshot{}, apperrors.NewValidationError(fmt.Sprintf("invalid scope kind %q", kind))
	}
	if name == "" {
		return grid.SelectionSnapshot{}, apperrors.NewNotFoundError(fmt.Sprintf("%s %d not found", kind, id))
	}

	c.selection.SelectScope(grid.Scope{Kind: kind, ID: id, Name: name})
	return c.selection.Snapshot(), nil
}

// ClearSelection drops every selection and any pending prefill
func (c *ConsoleSession) ClearSelection() grid.SelectionSnapshot {
	c.selection.Clear()
	c.DiscardPrefill()
	return c.selection.Snapshot()
}

// Selection returns the current selection
func (c *ConsoleSession) Selection() grid.SelectionSnapshot {
	return c.selection.Snapshot()
}

// BulkForm opens the bulk-adjust dialog for the current target. A pending
// span prefill is used while its doctor is still the target.
func (c *ConsoleSession) BulkForm() BulkAdjustForm {
	target := c.selection.Target()
	if p := c.matchingPrefill(target); p != nil {
		return PrefillForm(target, p.span, p.kind)
	}
	return DefaultForm(target, c.currentDay())
}

// DiscardPrefill forgets a pending span prefill, e.g. when the dialog closes
func (c *ConsoleSession) DiscardPrefill() {
	c.mu.Lock()
	c.prefill = nil
	c.mu.Unlock()
}

// SubmitBulk submits the dialog against the session's current target. With
// a pending prefill the dates and the rule come from the selected span and
// only the kind is taken from form.
func (c *ConsoleSession) SubmitBulk(ctx context.Context, form BulkAdjustForm) (*BulkAdjustOutcome, error) {
	if err := c.requireDayRange(); err != nil {
		return nil, err
	}
	target := c.selection.Target()
	if p := c.matchingPrefill(target); p != nil {
		kind := form.LockedKind
		if !kind.Valid() {
			kind = p.kind
		}
		form = PrefillForm(target, p.span, kind)
	} else {
		form.Target = target
		form.Prefilled = false
	}

	outcome, err := c.svc.bulk.Submit(ctx, form)
	if err != nil {
		return nil, err
	}
	c.DiscardPrefill()
	c.reloadAfterMutation(ctx)
	return outcome, nil
}

// ClearDay removes every window of the current target on the current day
func (c *ConsoleSession) ClearDay(ctx context.Context) (*BulkAdjustOutcome, error) {
	if err := c.requireDayRange(); err != nil {
		return nil, err
	}
	outcome, err := c.svc.bulk.ClearDay(ctx, c.selection.Target(), c.currentDay())
	if err != nil {
		return nil, err
	}
	c.reloadAfterMutation(ctx)
	return outcome, nil
}

// rebuild replaces the row controllers after every applied load. Rows are
// never reused across snapshot versions.
func (c *ConsoleSession) rebuild(SyncState) {
	st := c.syncer.State()
	doctors := map[int64]bool{}
	rows := map[int64]*grid.RowController{}
	day, dayErr := entities.ParseDay(st.Snapshot.FirstDay(st.Query.Date))
	editable := dayErr == nil && st.Query.Range != entities.ScheduleRangeWeek
	for _, h := range st.Snapshot.Hospitals {
		for _, d := range h.Departments {
			for _, doc := range d.Doctors {
				doctors[doc.ID] = true
				if editable {
					rows[doc.ID] = grid.NewRowController(doc, day, c.quantizer, c.svc.backend, grid.WithRowMetrics(c.svc.metrics))
				}
			}
		}
	}

	c.mu.Lock()
	c.rows = rows
	c.mu.Unlock()

	if st.Error == "" {
		c.selection.Prune(func(id int64) bool {
			return doctors[id]
		})
	}
}

// requireDayRange rejects edits while the week view is loaded
func (c *ConsoleSession) requireDayRange() error {
	if c.syncer.Query().Range == entities.ScheduleRangeWeek {
		return apperrors.NewValidationError("the week view is read-only; switch to the day view to edit")
	}
	return nil
}

func (c *ConsoleSession) rowSource() grid.RowSource {
	c.mu.Lock()
	rows := c.rows
	c.mu.Unlock()
	return func(doctorID int64) (*grid.RowController, bool) {
		row, ok := rows[doctorID]
		return row, ok
	}
}

func (c *ConsoleSession) row(doctorID int64) (*grid.RowController, error) {
	if err := c.requireDayRange(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[doctorID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor %d is not on the current schedule", doctorID))
	}
	return row, nil
}

func (c *ConsoleSession) doctorRef(doctorID int64) (grid.DoctorRef, []int64, error) {
	h, d, doc, ok := c.syncer.State().Snapshot.FindDoctor(doctorID)
	if !ok {
		return grid.DoctorRef{}, nil, apperrors.NewNotFoundError(fmt.Sprintf("doctor %d is not on the current schedule", doctorID))
	}
	ids := make([]int64, 0, len(d.Doctors))
	index := 0
	for i, other := range d.Doctors {
		if other.ID == doctorID {
			index = i
		}
		ids = append(ids, other.ID)
	}
	return grid.DoctorRef{
		DoctorID:     doctorID,
		DepartmentID: d.ID,
		Index:        index,
		ScopeName:    grid.ScopeName(*h, *d, *doc),
	}, ids, nil
}

func (c *ConsoleSession) matchingPrefill(target grid.Target) *pendingPrefill {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.prefill
	if p == nil {
		return nil
	}
	if target.Scope == nil || target.Scope.Kind != entities.ScopeKindDoctor || target.Scope.ID != p.doctorID {
		return nil
	}
	return p
}

func (c *ConsoleSession) currentDay() string {
	st := c.syncer.State()
	day := c.syncer.Query().Date
	if day == "" {
		day = c.svc.today()
	}
	return st.Snapshot.FirstDay(day)
}

func (c *ConsoleSession) reloadAfterMutation(ctx context.Context) {
	if _, err := c.syncer.Load(ctx, LoadForeground); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("reload after change failed")
	}
}

func (c *ConsoleSession) savePrefs(ctx context.Context) {
	if c.svc.cache == nil {
		return
	}
	q := c.syncer.Query()
	data, err := json.Marshal(sessionPrefs{Date: q.Date, Range: q.Range, HospitalID: q.HospitalID})
	if err != nil {
		return
	}
	ttl := int(c.svc.cfg.SessionTTL.Seconds())
	if err := c.svc.cache.Set(ctx, providers.SessionPrefsKey(c.id), data, ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to save session preferences")
	}
}

func (c *ConsoleSession) restorePrefs(ctx context.Context) {
	if c.svc.cache == nil {
		return
	}
	data, err := c.svc.cache.Get(ctx, providers.SessionPrefsKey(c.id))
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to read session preferences")
		}
		return
	}
	logger := observability.LoggerFromContext(ctx)
	var prefs sessionPrefs
	if err := json.Unmarshal(data, &prefs); err != nil {
		logger.Warn().Err(err).Msg("discarding unreadable session preferences")
		return
	}
	if err := c.syncer.UseQuery(entities.ScheduleQuery{Date: prefs.Date, Range: prefs.Range, HospitalID: prefs.HospitalID}); err != nil {
		logger.Warn().Err(err).Str("date", prefs.Date).Str("range", string(prefs.Range)).Msg("discarding invalid session preferences")
	}
}

func (c *ConsoleSession) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *ConsoleSession) lastSeenAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *ConsoleSession) close() {
	c.syncer.Stop()
}

// gestureError maps grid gesture errors to application errors
func gestureError(err error) error {
	switch {
	case errors.Is(err, grid.ErrGestureActive), errors.Is(err, grid.ErrStaleGesture):
		return apperrors.NewConflictError(err.Error())
	case errors.Is(err, grid.ErrBusySlot),
		errors.Is(err, grid.ErrForeignBlock),
		errors.Is(err, grid.ErrInvalidMode),
		errors.Is(err, grid.ErrUnknownWindow):
		return apperrors.NewValidationError(err.Error())
	}
	return err
}

package grid

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

// WindowStore is the part of the scheduling backend a row writes to
type WindowStore interface {
	UpsertWindow(ctx context.Context, upsert entities.WindowUpsert) (*entities.WindowUpsertResult, error)
	DeleteWindow(ctx context.Context, windowID int64) error
}

// DragResult describes a persisted drag. StaleWindowID is set when the
// replaced window could not be deleted and still exists on the backend.
type DragResult struct {
	Window        entities.TimeWindow `json:"window"`
	Span          QuarterSpan         `json:"span"`
	ReplacedID    *int64              `json:"replacedId,omitempty"`
	StaleWindowID *int64              `json:"staleWindowId,omitempty"`
	DeleteError   string              `json:"deleteError,omitempty"`
}

// SelectedSpan is an empty-space drag selection. It is never persisted.
type SelectedSpan struct {
	DoctorID int64              `json:"doctorId"`
	Day      string             `json:"day"`
	Span     QuarterSpan        `json:"span"`
	Start    entities.LocalTime `json:"start"`
	End      entities.LocalTime `json:"end"`
}

// RowController binds pointer gestures on one doctor's day track to window
// create/replace operations. One controller exists per row per snapshot version.
type RowController struct {
	doctorID  int64
	day       entities.LocalTime
	quantizer Quantizer
	store     WindowStore
	metrics   *observability.Metrics

	mu      sync.Mutex
	windows []entities.TimeWindow
	busy    []entities.BusySlot
	active  *DragState
	serial  uint64
}

// RowOption customizes a RowController
type RowOption func(*RowController)

// WithRowMetrics records mutation outcomes
func WithRowMetrics(m *observability.Metrics) RowOption {
	return func(c *RowController) { c.metrics = m }
}

// NewRowController copies the doctor's windows and busy slots for day
func NewRowController(doctor entities.Doctor, day entities.LocalTime, q Quantizer, store WindowStore, opts ...RowOption) *RowController {
	c := &RowController{
		doctorID:  doctor.ID,
		day:       AtMinutes(day, 0),
		quantizer: q,
		store:     store,
		windows:   append([]entities.TimeWindow(nil), doctor.Windows...),
		busy:      append([]entities.BusySlot(nil), doctor.Busy...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RowController) DoctorID() int64 {
	return c.doctorID
}

func (c *RowController) Day() entities.LocalTime {
	return c.day
}

// Windows returns a copy of the row's current windows
func (c *RowController) Windows() []entities.TimeWindow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entities.TimeWindow(nil), c.windows...)
}

// Busy returns a copy of the row's busy slots
func (c *RowController) Busy() []entities.BusySlot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entities.BusySlot(nil), c.busy...)
}

// ActiveDrag returns a copy of the gesture in progress, if any
func (c *RowController) ActiveDrag() *DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	state := *c.active
	return &state
}

// CreateAt creates a window starting at quarter. The row only changes once
// the backend confirms the window's identity.
func (c *RowController) CreateAt(ctx context.Context, quarter int, kind entities.WindowKind, durationMinutes int) (*entities.TimeWindow, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid window kind %q", kind))
	}
	if quarter < 0 || quarter >= QuartersPerDay {
		return nil, apperrors.NewValidationError(fmt.Sprintf("quarter %d outside the day", quarter))
	}
	if durationMinutes < QuantumMinutes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("duration must be at least %d minutes", QuantumMinutes))
	}

	// a block that would cross midnight is shifted back, never shortened
	span := Fit(quarter, (durationMinutes+QuantumMinutes-1)/QuantumMinutes)
	startMins := span.Start * QuantumMinutes
	endMins := startMins + span.Duration*QuantumMinutes
	window, err := c.persist(ctx, "create", AtMinutes(c.day, startMins), AtMinutes(c.day, endMins), kind)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.windows = replaceWindow(c.windows, nil, window)
	c.mu.Unlock()
	return &window, nil
}

// OnDoubleClick creates a one-hour available window at the quantized offset
func (c *RowController) OnDoubleClick(ctx context.Context, pixelOffset float64) (*entities.TimeWindow, error) {
	span := c.quantizer.DoubleClickSpan(pixelOffset)
	return c.CreateAt(ctx, span.Start, entities.WindowKindAvailable, span.Duration*QuantumMinutes)
}

// BeginDrag starts a gesture on target. The returned release func must be
// deferred; it detaches the gesture even when the drag is abandoned.
func (c *RowController) BeginDrag(target BlockTarget, mode DragMode, originPx float64) (*DragState, func(), error) {
	if target.Kind == TargetBusy {
		return nil, nil, ErrBusySlot
	}
	if target.OwnerDoctorID != c.doctorID {
		return nil, nil, ErrForeignBlock
	}
	if !mode.Valid() {
		return nil, nil, ErrInvalidMode
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, nil, ErrGestureActive
	}

	state := DragState{
		Mode:         mode,
		DoctorID:     c.doctorID,
		OriginPixel:  originPx,
		CurrentPixel: originPx,
	}

	switch {
	case mode == DragSelect:
		if target.Kind != TargetTrack {
			return nil, nil, ErrInvalidMode
		}
		clamped := clampFloat(sanitize(originPx), 0, c.quantizer.TrackWidth())
		state.OriginPixel, state.CurrentPixel = clamped, clamped
	case target.Kind == TargetWindow && target.WindowID != nil:
		window, ok := findWindow(c.windows, *target.WindowID)
		if !ok {
			return nil, nil, ErrUnknownWindow
		}
		block, visible := c.blockFor(window.Start, window.End)
		if !visible {
			return nil, nil, ErrUnknownWindow
		}
		id := *window.ID
		state.WindowID = &id
		state.Kind = window.Kind
		state.Origin = Geometry{LeftPx: block.LeftPx, WidthPx: block.WidthPx}
	default:
		return nil, nil, ErrInvalidMode
	}

	c.serial++
	state.gestureSerial = c.serial
	c.active = &state

	var once sync.Once
	release := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.active != nil && c.active.gestureSerial == state.gestureSerial {
				c.active = nil
			}
		})
	}

	out := state
	return &out, release, nil
}

// UpdateDrag moves the pointer of an active gesture
func (c *RowController) UpdateDrag(state *DragState, currentPx float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isActive(state) {
		return ErrStaleGesture
	}
	if state.Mode == DragSelect {
		currentPx = clampFloat(sanitize(currentPx), 0, c.quantizer.TrackWidth())
	}
	c.active.CurrentPixel = currentPx
	state.CurrentPixel = currentPx
	return nil
}

// OnDragEnd persists a move or resize: the new window is created first and
// the previous one deleted afterwards. A failed create leaves the row as it
// was; a failed delete is logged and reported, never rolled back.
func (c *RowController) OnDragEnd(ctx context.Context, state *DragState) (*DragResult, error) {
	c.mu.Lock()
	if !c.isActive(state) {
		c.mu.Unlock()
		return nil, ErrStaleGesture
	}
	if state.Mode == DragSelect {
		c.mu.Unlock()
		return nil, ErrInvalidMode
	}
	final := *c.active
	c.mu.Unlock()

	span := final.Preview(c.quantizer)
	window, err := c.persist(ctx, "replace", AtMinutes(c.day, span.StartMinutes()), AtMinutes(c.day, span.EndMinutes()), final.Kind)
	if err != nil {
		return nil, err
	}

	result := &DragResult{Window: window, Span: span}
	if old := final.WindowID; old != nil && *old != *window.ID {
		oldID := *old
		result.ReplacedID = &oldID
		if err := c.store.DeleteWindow(ctx, oldID); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Int64("doctor_id", c.doctorID).
				Int64("window_id", oldID).
				Int64("replacement_id", *window.ID).
				Msg("failed to delete replaced window")
			observability.RecordWindowMutation(ctx, c.metrics, "delete", false)
			result.StaleWindowID = &oldID
			result.DeleteError = apperrors.UserMessage(err)
		} else {
			observability.RecordWindowMutation(ctx, c.metrics, "delete", true)
		}
	}

	c.mu.Lock()
	c.windows = replaceWindow(c.windows, final.WindowID, window)
	c.mu.Unlock()
	return result, nil
}

// OnSelectEnd finishes an empty-space drag selection
func (c *RowController) OnSelectEnd(state *DragState) (*SelectedSpan, error) {
	c.mu.Lock()
	if !c.isActive(state) || state.Mode != DragSelect {
		c.mu.Unlock()
		return nil, ErrStaleGesture
	}
	final := *c.active
	c.mu.Unlock()

	span := c.OnPointerDragSelect(final.OriginPixel, final.CurrentPixel)
	return &span, nil
}

// OnPointerDragSelect quantizes an empty-space drag into a span of at least
// one quarter. Nothing is persisted.
func (c *RowController) OnPointerDragSelect(startPx, endPx float64) SelectedSpan {
	span := c.quantizer.SelectSpan(startPx, endPx)
	return SelectedSpan{
		DoctorID: c.doctorID,
		Day:      c.day.DayKey(),
		Span:     span,
		Start:    AtMinutes(c.day, span.StartMinutes()),
		End:      AtMinutes(c.day, span.EndMinutes()),
	}
}

// blockFor returns the rendered extent of [start, end) on this row's day
func (c *RowController) blockFor(start, end entities.LocalTime) (Block, bool) {
	return layoutBlock(c.quantizer, c.day, start, end)
}

func (c *RowController) isActive(state *DragState) bool {
	return state != nil && c.active != nil && c.active.gestureSerial == state.gestureSerial
}

func (c *RowController) persist(ctx context.Context, operation string, start, end entities.LocalTime, kind entities.WindowKind) (entities.TimeWindow, error) {
	ctx, span := observability.StartSpan(ctx, "grid.row."+operation)
	defer span.End()

	started := time.Now()
	res, err := c.store.UpsertWindow(ctx, entities.WindowUpsert{
		DoctorID: c.doctorID,
		Start:    start,
		End:      end,
		Kind:     kind,
	})
	logger := observability.LoggerFromContext(ctx)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordWindowMutation(ctx, c.metrics, operation, false)
		logger.Error().Err(err).Int64("doctor_id", c.doctorID).Str("start", start.String()).Msg("window upsert failed")
		return entities.TimeWindow{}, err
	}
	observability.RecordWindowMutation(ctx, c.metrics, operation, true)
	logger.Debug().
		Int64("doctor_id", c.doctorID).
		Int64("window_id", res.ID).
		Bool("skipped", res.Skipped).
		Dur("took", time.Since(started)).
		Msg("window upserted")

	id := res.ID
	return entities.TimeWindow{ID: &id, Start: start, End: end, Kind: kind}, nil
}

func findWindow(windows []entities.TimeWindow, id int64) (entities.TimeWindow, bool) {
	for _, w := range windows {
		if w.ID != nil && *w.ID == id {
			return w, true
		}
	}
	return entities.TimeWindow{}, false
}

// replaceWindow swaps the window with id old for next (in place), drops any
// other copy of next's identity, and appends when old is absent.
func replaceWindow(windows []entities.TimeWindow, old *int64, next entities.TimeWindow) []entities.TimeWindow {
	out := make([]entities.TimeWindow, 0, len(windows)+1)
	placed := false
	for _, w := range windows {
		switch {
		case old != nil && w.ID != nil && *w.ID == *old:
			if !placed {
				out = append(out, next)
				placed = true
			}
		case w.ID != nil && next.ID != nil && *w.ID == *next.ID:
			if !placed {
				out = append(out, next)
				placed = true
			}
		default:
			out = append(out, w)
		}
	}
	if !placed {
		out = append(out, next)
	}
	return out
}

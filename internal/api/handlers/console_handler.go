package handlers

import (
	"net/http"

	"github.com/medly/scheduleconsole/internal/application/services"
	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/grid"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

// ConsoleHandler serves the schedule grid of the caller's console session
type ConsoleHandler struct{}

// NewConsoleHandler creates a new console handler
func NewConsoleHandler() *ConsoleHandler {
	return &ConsoleHandler{}
}

type createWindowRequest struct {
	Quarter         int                 `json:"quarter"`
	Kind            entities.WindowKind `json:"kind"`
	DurationMinutes int                 `json:"durationMinutes"`
}

type doubleClickRequest struct {
	PixelOffset float64 `json:"pixelOffset"`
}

type selectSpanRequest struct {
	StartPixel float64             `json:"startPixel"`
	EndPixel   float64             `json:"endPixel"`
	Kind       entities.WindowKind `json:"kind"`
}

type clickRequest struct {
	DoctorID int64 `json:"doctorId"`
	Ctrl     bool  `json:"ctrl"`
	Meta     bool  `json:"meta"`
	Shift    bool  `json:"shift"`
}

type scopeRequest struct {
	Kind entities.ScopeKind `json:"kind"`
	ID   int64              `json:"id"`
}

// GetSchedule handles GET /console/schedule. Without a date it loads today
// on first use; load failures are reported in the view status.
func (h *ConsoleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	hospitalID, err := optionalInt64(r, "hospital_id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if date := query.Get("date"); date != "" {
		q := entities.ScheduleQuery{
			Date:       date,
			Range:      entities.ScheduleRange(query.Get("range")),
			HospitalID: hospitalID,
		}
		_, err = sess.SetQuery(r.Context(), q)
	} else {
		_, err = sess.EnsureLoaded(r.Context())
	}
	if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		respondWithAppError(w, r, err)
		return
	}

	h.respondWithView(w, r, sess)
}

// Reload handles POST /console/schedule/reload
func (h *ConsoleHandler) Reload(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	if _, err := sess.Reload(r.Context()); apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		respondWithAppError(w, r, err)
		return
	}
	h.respondWithView(w, r, sess)
}

// DayView handles GET /console/view/day
func (h *ConsoleHandler) DayView(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	view, err := sess.DayView()
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// WeekView handles GET /console/view/week
func (h *ConsoleHandler) WeekView(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	departmentID, err := optionalInt64(r, "department_id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	doctorID, err := optionalInt64(r, "doctor_id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sess.WeekView(grid.WeekFilter{DepartmentID: departmentID, DoctorID: doctorID}))
}

// Lookup handles GET /console/view/week/lookup
func (h *ConsoleHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	doctorID, err := optionalInt64(r, "doctor_id")
	if err != nil || doctorID == nil {
		respondWithError(w, http.StatusBadRequest, "doctor_id is required")
		return
	}
	start, err := entities.ParseLocalTime(r.URL.Query().Get("start"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, sess.Lookup(r.Context(), *doctorID, start))
}

// CreateWindow handles POST /console/rows/{doctorId}/windows
func (h *ConsoleHandler) CreateWindow(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	doctorID, err := pathInt64(r, "doctorId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req createWindowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	window, err := sess.CreateWindow(r.Context(), doctorID, req.Quarter, req.Kind, req.DurationMinutes)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, window)
}

// DoubleClick handles POST /console/rows/{doctorId}/double-click
func (h *ConsoleHandler) DoubleClick(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	doctorID, err := pathInt64(r, "doctorId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req doubleClickRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	window, err := sess.DoubleClick(r.Context(), doctorID, req.PixelOffset)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, window)
}

// Drag handles POST /console/rows/{doctorId}/drag
func (h *ConsoleHandler) Drag(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	doctorID, err := pathInt64(r, "doctorId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req services.DragRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := sess.Drag(r.Context(), doctorID, req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// SelectSpan handles POST /console/rows/{doctorId}/select-span
func (h *ConsoleHandler) SelectSpan(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	doctorID, err := pathInt64(r, "doctorId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var req selectSpanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	form, err := sess.SelectSpan(r.Context(), doctorID, req.StartPixel, req.EndPixel, req.Kind)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, form)
}

// Click handles POST /console/selection/click
func (h *ConsoleHandler) Click(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	var req clickRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	selection, err := sess.Click(req.DoctorID, grid.Modifiers{Ctrl: req.Ctrl, Meta: req.Meta, Shift: req.Shift})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, selection)
}

// SelectScope handles POST /console/selection/scope
func (h *ConsoleHandler) SelectScope(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	var req scopeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	selection, err := sess.SelectScope(req.Kind, req.ID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, selection)
}

// GetSelection handles GET /console/selection
func (h *ConsoleHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, sess.Selection())
}

// ClearSelection handles DELETE /console/selection
func (h *ConsoleHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, sess.ClearSelection())
}

// BulkForm handles GET /console/bulk-adjust/form
func (h *ConsoleHandler) BulkForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, sess.BulkForm())
}

// DiscardBulkForm handles DELETE /console/bulk-adjust/form
func (h *ConsoleHandler) DiscardBulkForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	sess.DiscardPrefill()
	w.WriteHeader(http.StatusNoContent)
}

// SubmitBulk handles POST /console/bulk-adjust. Partial multi-doctor
// failures are a 200 with ok=false and a failure count.
func (h *ConsoleHandler) SubmitBulk(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	var form services.BulkAdjustForm
	if !decodeJSON(w, r, &form) {
		return
	}

	outcome, err := sess.SubmitBulk(r.Context(), form)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, outcome)
}

// ClearDay handles POST /console/bulk-adjust/clear-day
func (h *ConsoleHandler) ClearDay(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	outcome, err := sess.ClearDay(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, outcome)
}

func (h *ConsoleHandler) respondWithView(w http.ResponseWriter, r *http.Request, sess *services.ConsoleSession) {
	if sess.Sync().Query().Range == entities.ScheduleRangeWeek {
		respondWithJSON(w, http.StatusOK, sess.WeekView(sess.WeekFilter()))
		return
	}
	view, err := sess.DayView()
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

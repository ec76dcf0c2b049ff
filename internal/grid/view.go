package grid

import (
	"fmt"
	"time"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

// MinBlockWidthPx keeps very short blocks visible and grabbable
const MinBlockWidthPx = 8.0

// BlockKind is the visual kind of a block on a day track
type BlockKind string

const (
	BlockAvailable BlockKind = "available"
	BlockOOO       BlockKind = "ooo"
	BlockBusy      BlockKind = "busy"
)

// Block is a window or busy slot laid out on a doctor's day track
type Block struct {
	ID             *int64    `json:"id,omitempty"`
	Kind           BlockKind `json:"kind"`
	OwnerDoctorID  int64     `json:"ownerDoctorId"`
	LeftPx         float64   `json:"left"`
	WidthPx        float64   `json:"width"`
	StartLabel     string    `json:"startLabel"`
	EndLabel       string    `json:"endLabel"`
	TruncatedStart bool      `json:"truncatedStart,omitempty"`
	TruncatedEnd   bool      `json:"truncatedEnd,omitempty"`
	Draggable      bool      `json:"draggable"`
}

// layoutBlock clamps [start, end) to [day 00:00, day 23:59:59] and maps it to
// pixels. ok is false when nothing of the interval falls on day.
func layoutBlock(q Quantizer, day, start, end entities.LocalTime) (Block, bool) {
	dayStart := AtMinutes(day, 0).Time
	dayEnd := dayStart.Add(24*time.Hour - time.Second)

	s, e := start.Time, end.Time
	var b Block
	if s.Before(dayStart) {
		s = dayStart
		b.TruncatedStart = true
	}
	if e.After(dayEnd) {
		e = dayEnd
		b.TruncatedEnd = true
	}
	if !e.After(s) {
		return Block{}, false
	}

	b.LeftPx = q.MinutesToPixel(s.Sub(dayStart).Minutes())
	b.WidthPx = maxFloat(MinBlockWidthPx, q.MinutesToPixel(e.Sub(s).Minutes()))
	b.StartLabel = s.Format("15:04")
	b.EndLabel = e.Format("15:04")
	if b.TruncatedEnd {
		b.EndLabel = "24:00"
	}
	return b, true
}

// HourLabel is one tick of the time axis
type HourLabel struct {
	Label  string  `json:"label"`
	LeftPx float64 `json:"left"`
}

// DragPreview is the live geometry of a gesture in progress on a row
type DragPreview struct {
	Mode       DragMode    `json:"mode"`
	WindowID   *int64      `json:"windowId,omitempty"`
	Geometry   Geometry    `json:"geometry"`
	Span       QuarterSpan `json:"span"`
	StartLabel string      `json:"startLabel"`
	EndLabel   string      `json:"endLabel"`
}

// RowView is one doctor row of the day grid
type RowView struct {
	DoctorID    int64        `json:"doctorId"`
	Name        string       `json:"name"`
	ScopeName   string       `json:"scopeName"`
	Index       int          `json:"index"`
	Selected    bool         `json:"selected"`
	MultiMember bool         `json:"multiMember"`
	Windows     []Block      `json:"windows"`
	Busy        []Block      `json:"busy"`
	Drag        *DragPreview `json:"drag,omitempty"`
}

// DepartmentSection groups rows of one department
type DepartmentSection struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Selected bool      `json:"selected"`
	Rows     []RowView `json:"rows"`
}

// HospitalSection groups departments of one hospital
type HospitalSection struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Selected    bool                `json:"selected"`
	Departments []DepartmentSection `json:"departments"`
}

// ActionBar drives the adjust/clear buttons
type ActionBar struct {
	Visible     bool   `json:"visible"`
	Label       string `json:"label"`
	TargetCount int    `json:"targetCount"`
}

// DayView is the full view model of the interactive day grid. Version is
// the snapshot version; clients remount the grid when it changes.
type DayView struct {
	Day           string            `json:"day"`
	Version       uint64            `json:"version"`
	PixelsPerHour float64           `json:"pixelsPerHour"`
	TrackWidth    float64           `json:"trackWidth"`
	Hours         []HourLabel       `json:"hours"`
	Hospitals     []HospitalSection `json:"hospitals"`
	Selection     SelectionSnapshot `json:"selection"`
	ActionBar     ActionBar         `json:"actionBar"`
}

// RowSource returns the live controller of a doctor row, if one exists
type RowSource func(doctorID int64) (*RowController, bool)

// ScopeName is the display name of a doctor scope
func ScopeName(h entities.Hospital, d entities.Department, doc entities.Doctor) string {
	return fmt.Sprintf("%s • %s • %s", h.Name, d.Name, doc.Name)
}

// BuildDayView derives the day grid from a snapshot, the selection, and the
// live row controllers (which carry unsaved drags and confirmed edits).
func BuildDayView(snap *entities.Snapshot, day string, version uint64, q Quantizer, sel SelectionSnapshot, rows RowSource) (DayView, error) {
	dayTime, err := entities.ParseDay(snap.FirstDay(day))
	if err != nil {
		return DayView{}, err
	}

	view := DayView{
		Day:           dayTime.DayKey(),
		Version:       version,
		PixelsPerHour: q.PixelsPerHour(),
		TrackWidth:    q.TrackWidth(),
		Hours:         hourLabels(q),
		Hospitals:     []HospitalSection{},
		Selection:     sel,
		ActionBar: ActionBar{
			Visible: !sel.Target.Empty(),
			Label:   sel.Target.Label(),
		},
	}
	switch {
	case len(sel.Target.DoctorIDs) > 0:
		view.ActionBar.TargetCount = len(sel.Target.DoctorIDs)
	case sel.Target.Scope != nil:
		view.ActionBar.TargetCount = 1
	}

	if snap == nil {
		return view, nil
	}
	for _, h := range snap.Hospitals {
		hs := HospitalSection{
			ID:          h.ID,
			Name:        h.Name,
			Selected:    sel.Matches(entities.ScopeKindHospital, h.ID),
			Departments: make([]DepartmentSection, 0, len(h.Departments)),
		}
		for _, d := range h.Departments {
			ds := DepartmentSection{
				ID:       d.ID,
				Name:     d.Name,
				Selected: sel.Matches(entities.ScopeKindDepartment, d.ID),
				Rows:     make([]RowView, 0, len(d.Doctors)),
			}
			for i, doc := range d.Doctors {
				ds.Rows = append(ds.Rows, buildRow(q, dayTime, h, d, doc, i, sel, hs.Selected || ds.Selected, rows))
			}
			hs.Departments = append(hs.Departments, ds)
		}
		view.Hospitals = append(view.Hospitals, hs)
	}
	return view, nil
}

func buildRow(q Quantizer, day entities.LocalTime, h entities.Hospital, d entities.Department, doc entities.Doctor, index int, sel SelectionSnapshot, parentSelected bool, rows RowSource) RowView {
	row := RowView{
		DoctorID:    doc.ID,
		Name:        doc.Name,
		ScopeName:   ScopeName(h, d, doc),
		Index:       index,
		MultiMember: sel.Contains(doc.ID),
		Windows:     []Block{},
		Busy:        []Block{},
	}
	row.Selected = parentSelected || row.MultiMember || sel.Matches(entities.ScopeKindDoctor, doc.ID)

	windows, busy := doc.Windows, doc.Busy
	var active *DragState
	if rows != nil {
		if ctrl, ok := rows(doc.ID); ok {
			windows, busy = ctrl.Windows(), ctrl.Busy()
			active = ctrl.ActiveDrag()
		}
	}

	for _, w := range windows {
		b, ok := layoutBlock(q, day, w.Start, w.End)
		if !ok {
			continue
		}
		b.ID = w.ID
		b.Kind = BlockKind(w.Kind)
		b.OwnerDoctorID = doc.ID
		b.Draggable = w.Persisted()
		row.Windows = append(row.Windows, b)
	}
	for _, s := range busy {
		b, ok := layoutBlock(q, day, s.Start, s.End)
		if !ok {
			continue
		}
		b.ID = s.ID
		b.Kind = BlockBusy
		b.OwnerDoctorID = doc.ID
		row.Busy = append(row.Busy, b)
	}

	if active != nil {
		span := active.Preview(q)
		row.Drag = &DragPreview{
			Mode:       active.Mode,
			WindowID:   active.WindowID,
			Geometry:   active.Geometry(),
			Span:       span,
			StartLabel: QuarterClock(span.Start),
			EndLabel:   QuarterClock(span.End()),
		}
	}
	return row
}

func hourLabels(q Quantizer) []HourLabel {
	labels := make([]HourLabel, 0, 24)
	for h := 0; h < 24; h++ {
		labels = append(labels, HourLabel{
			Label:  fmt.Sprintf("%02d:00", h),
			LeftPx: q.QuarterToPixel(h * QuartersPerHour),
		})
	}
	return labels
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

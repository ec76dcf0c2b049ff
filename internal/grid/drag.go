package grid

import (
	"errors"
	"math"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

// DragMode is the kind of pointer gesture in progress
type DragMode string

const (
	DragMove        DragMode = "move"
	DragResizeLeft  DragMode = "resize-left"
	DragResizeRight DragMode = "resize-right"
	DragSelect      DragMode = "select"
)

// Valid reports whether m is a known mode
func (m DragMode) Valid() bool {
	switch m {
	case DragMove, DragResizeLeft, DragResizeRight, DragSelect:
		return true
	}
	return false
}

// TargetKind is what the pointer went down on
type TargetKind string

const (
	TargetWindow TargetKind = "window"
	TargetBusy   TargetKind = "busy"
	TargetTrack  TargetKind = "track"
)

// BlockTarget identifies the element a gesture started on. OwnerDoctorID is
// the doctor tag carried by the element.
type BlockTarget struct {
	Kind          TargetKind `json:"kind"`
	WindowID      *int64     `json:"windowId,omitempty"`
	OwnerDoctorID int64      `json:"ownerDoctorId"`
}

var (
	ErrBusySlot      = errors.New("busy slots cannot be edited")
	ErrForeignBlock  = errors.New("block belongs to another row")
	ErrGestureActive = errors.New("another gesture is active on this row")
	ErrUnknownWindow = errors.New("window not found in row")
	ErrInvalidMode   = errors.New("invalid drag mode for target")
	ErrStaleGesture  = errors.New("gesture is no longer active")
)

// Geometry is a block's horizontal extent on the day track
type Geometry struct {
	LeftPx  float64 `json:"left"`
	WidthPx float64 `json:"width"`
}

// DragState is the transient state of one pointer gesture. Block geometry
// during the drag is derived from the origin geometry and the pointer delta;
// nothing is mutated in place.
type DragState struct {
	Mode          DragMode            `json:"mode"`
	DoctorID      int64               `json:"doctorId"`
	WindowID      *int64              `json:"windowId,omitempty"`
	Kind          entities.WindowKind `json:"kind,omitempty"`
	Origin        Geometry            `json:"origin"`
	OriginPixel   float64             `json:"originPixel"`
	CurrentPixel  float64             `json:"currentPixel"`
	gestureSerial uint64
}

// Delta is the pointer displacement since the gesture started
func (d DragState) Delta() float64 {
	return d.CurrentPixel - d.OriginPixel
}

// Geometry returns the block's extent for the current pointer position
func (d DragState) Geometry() Geometry {
	delta := d.Delta()
	switch d.Mode {
	case DragMove:
		return Geometry{LeftPx: d.Origin.LeftPx + delta, WidthPx: d.Origin.WidthPx}
	case DragResizeLeft:
		return Geometry{LeftPx: d.Origin.LeftPx + delta, WidthPx: d.Origin.WidthPx - delta}
	case DragResizeRight:
		return Geometry{LeftPx: d.Origin.LeftPx, WidthPx: d.Origin.WidthPx + delta}
	case DragSelect:
		return Geometry{LeftPx: math.Min(d.OriginPixel, d.CurrentPixel), WidthPx: math.Abs(delta)}
	}
	return d.Origin
}

// Preview is the quantized span the block would be saved as if released now
func (d DragState) Preview(q Quantizer) QuarterSpan {
	if d.Mode == DragSelect {
		return q.SelectSpan(d.OriginPixel, d.CurrentPixel)
	}
	g := d.Geometry()
	return q.SpanFromGeometry(g.LeftPx, g.WidthPx)
}

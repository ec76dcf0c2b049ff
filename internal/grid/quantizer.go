// Package grid holds the interaction model of the scheduling grid: pixel to
// quarter-hour mapping, drag gestures, per-row controllers, selection and the
// day/week view models derived from a snapshot.
package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

const (
	QuantumMinutes  = 15
	QuartersPerHour = 60 / QuantumMinutes
	QuartersPerDay  = 24 * QuartersPerHour
	MinutesPerDay   = 24 * 60

	// DefaultPixelsPerHour is the day-track scale (18 px per quarter).
	DefaultPixelsPerHour = 72.0
)

// Quantizer maps horizontal day-track pixels to quarter indexes and back
type Quantizer struct {
	pixelsPerHour float64
}

// NewQuantizer returns a quantizer; non-positive scales use the default
func NewQuantizer(pixelsPerHour float64) Quantizer {
	if pixelsPerHour <= 0 || math.IsNaN(pixelsPerHour) || math.IsInf(pixelsPerHour, 0) {
		pixelsPerHour = DefaultPixelsPerHour
	}
	return Quantizer{pixelsPerHour: pixelsPerHour}
}

func (q Quantizer) PixelsPerHour() float64 {
	return q.pixelsPerHour
}

func (q Quantizer) PixelsPerQuarter() float64 {
	return q.pixelsPerHour / QuartersPerHour
}

// TrackWidth is the width of a full day track
func (q Quantizer) TrackWidth() float64 {
	return QuartersPerDay * q.PixelsPerQuarter()
}

// PixelToQuarter rounds to the nearest quarter, then clamps to [0, 95]
func (q Quantizer) PixelToQuarter(px float64) int {
	return clampInt(roundQuarters(px, q.PixelsPerQuarter()), 0, QuartersPerDay-1)
}

// QuarterToPixel is the left edge of quarter
func (q Quantizer) QuarterToPixel(quarter int) float64 {
	return float64(quarter) * q.PixelsPerQuarter()
}

// DurationQuarters rounds a width to the nearest quarter with a minimum of one
func (q Quantizer) DurationQuarters(widthPx float64) int {
	return maxInt(1, roundQuarters(widthPx, q.PixelsPerQuarter()))
}

// MinutesToPixel converts minutes from midnight to a track offset
func (q Quantizer) MinutesToPixel(minutes float64) float64 {
	return minutes / 60 * q.pixelsPerHour
}

// QuarterSpan is a half-open range of quarters within one day
type QuarterSpan struct {
	Start    int `json:"startQuarter"`
	Duration int `json:"durationQuarters"`
}

// End is the exclusive end quarter; 96 means midnight of the next day
func (s QuarterSpan) End() int {
	return s.Start + s.Duration
}

// StartMinutes is the span start in minutes from midnight
func (s QuarterSpan) StartMinutes() int {
	return s.Start * QuantumMinutes
}

// EndMinutes is the span end in minutes from midnight, at most 1440
func (s QuarterSpan) EndMinutes() int {
	return minInt(MinutesPerDay, s.End()*QuantumMinutes)
}

// Fit shifts a block backwards so it ends no later than quarter 96.
// Blocks are never truncated; duration is capped at a full day.
func Fit(start, duration int) QuarterSpan {
	duration = clampInt(duration, 1, QuartersPerDay)
	if start < 0 {
		start = 0
	}
	if start+duration > QuartersPerDay {
		start = maxInt(0, QuartersPerDay-duration)
	}
	return QuarterSpan{Start: start, Duration: duration}
}

// SpanFromGeometry quantizes a block's final left offset and width.
// Left is clamped to the track, width to [1, W-left], then the span is fitted.
func (q Quantizer) SpanFromGeometry(leftPx, widthPx float64) QuarterSpan {
	w := q.TrackWidth()
	leftPx = clampFloat(sanitize(leftPx), 0, w)
	widthPx = math.Max(1, math.Min(w-leftPx, sanitize(widthPx)))

	start := maxInt(0, roundQuarters(leftPx, q.PixelsPerQuarter()))
	return Fit(start, q.DurationQuarters(widthPx))
}

// SelectSpan quantizes an empty-space drag between two pointer offsets.
// The result covers at least one quarter and lies within the day.
func (q Quantizer) SelectSpan(startPx, endPx float64) QuarterSpan {
	w := q.TrackWidth()
	startPx = clampFloat(sanitize(startPx), 0, w)
	endPx = clampFloat(sanitize(endPx), 0, w)

	ppq := q.PixelsPerQuarter()
	startQ := roundQuarters(math.Min(startPx, endPx), ppq)
	endQ := roundQuarters(math.Max(startPx, endPx), ppq)
	if endQ <= startQ {
		endQ = startQ + 1
	}
	startQ = clampInt(startQ, 0, QuartersPerDay-1)
	endQ = clampInt(endQ, 1, QuartersPerDay)
	return QuarterSpan{Start: startQ, Duration: endQ - startQ}
}

// DoubleClickSpan is the one-hour block created by a double click at px
func (q Quantizer) DoubleClickSpan(px float64) QuarterSpan {
	return Fit(q.PixelToQuarter(px), 60/QuantumMinutes)
}

// QuarterClock formats a quarter boundary as HH:MM; 96 is "24:00"
func QuarterClock(quarter int) string {
	quarter = clampInt(quarter, 0, QuartersPerDay)
	minutes := quarter * QuantumMinutes
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// RuleClock formats a quarter boundary for a bulk-adjust rule. Rules are
// wall-clock times within one day, so the end-of-day boundary is 23:59.
func RuleClock(quarter int) string {
	if quarter >= QuartersPerDay {
		return "23:59"
	}
	return QuarterClock(quarter)
}

// AtMinutes returns day midnight plus minutes; 1440 is the next midnight
func AtMinutes(day entities.LocalTime, minutes int) entities.LocalTime {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return entities.LocalTime{Time: midnight.Add(time.Duration(minutes) * time.Minute)}
}

// MinuteOfDay returns the minutes since midnight of t
func MinuteOfDay(t entities.LocalTime) float64 {
	return float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60
}

// ParseClock parses HH:MM into minutes from midnight
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

func roundQuarters(px, pixelsPerQuarter float64) int {
	return int(math.Round(sanitize(px) / pixelsPerQuarter))
}

// sanitize keeps NaN, infinities and huge offsets out of integer conversions
func sanitize(v float64) float64 {
	const limit = 1 << 30
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-limit, math.Min(limit, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

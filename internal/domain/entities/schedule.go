package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NaiveLayout is the backend's local-naive timestamp format (no zone suffix).
const NaiveLayout = "2006-01-02T15:04:05"

// DateLayout is the day key used by schedule snapshots.
const DateLayout = "2006-01-02"

// WindowKind tells available time apart from out-of-office time
type WindowKind string

const (
	WindowKindAvailable   WindowKind = "available"
	WindowKindOutOfOffice WindowKind = "ooo"
)

// Valid reports whether k is a kind the backend accepts
func (k WindowKind) Valid() bool {
	return k == WindowKindAvailable || k == WindowKindOutOfOffice
}

// ScheduleRange selects a one-day or seven-day snapshot
type ScheduleRange string

const (
	ScheduleRangeDay  ScheduleRange = "day"
	ScheduleRangeWeek ScheduleRange = "week"
)

// Valid reports whether r is a supported range
func (r ScheduleRange) Valid() bool {
	return r == ScheduleRangeDay || r == ScheduleRangeWeek
}

// LocalTime is a wall-clock timestamp without a zone. It is stored as a
// time.Time in UTC whose fields are the wall-clock fields.
type LocalTime struct {
	time.Time
}

// NewLocalTime builds a LocalTime from wall-clock fields
func NewLocalTime(year int, month time.Month, day, hour, minute, sec int) LocalTime {
	return LocalTime{time.Date(year, month, day, hour, minute, sec, 0, time.UTC)}
}

// ParseLocalTime accepts the naive layout, minute precision, and RFC3339.
// Zoned inputs keep the wall clock as written.
func ParseLocalTime(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{NaiveLayout, "2006-01-02T15:04", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return LocalTime{t}, nil
		}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return LocalTime{}, fmt.Errorf("invalid local timestamp %q", s)
	}
	return NewLocalTime(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()), nil
}

// ParseDay parses a YYYY-MM-DD day key into its midnight
func ParseDay(s string) (LocalTime, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return LocalTime{}, fmt.Errorf("invalid date %q", s)
	}
	return LocalTime{t}, nil
}

// String formats t in the naive layout
func (t LocalTime) String() string {
	return t.Time.Format(NaiveLayout)
}

// DayKey returns the YYYY-MM-DD key of t
func (t LocalTime) DayKey() string {
	return t.Time.Format(DateLayout)
}

// HHMM returns the wall-clock hour and minute of t
func (t LocalTime) HHMM() string {
	return t.Time.Format("15:04")
}

// MarshalJSON writes the naive layout
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON reads any layout ParseLocalTime accepts
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = LocalTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeWindow is a doctor-declared available or out-of-office interval.
// ID is nil for windows that were never persisted.
type TimeWindow struct {
	ID    *int64     `json:"id,omitempty"`
	Start LocalTime  `json:"start"`
	End   LocalTime  `json:"end"`
	Kind  WindowKind `json:"kind"`
}

// Persisted reports whether the backend assigned an identity
func (w TimeWindow) Persisted() bool {
	return w.ID != nil
}

// BusySlot is a booked appointment interval; read-only for the console
type BusySlot struct {
	ID    *int64    `json:"id,omitempty"`
	Start LocalTime `json:"start"`
	End   LocalTime `json:"end"`
}

// Doctor is one row of the scheduling grid
type Doctor struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Windows []TimeWindow `json:"windows"`
	Busy    []BusySlot   `json:"busy"`
}

// Department groups doctors
type Department struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Doctors []Doctor `json:"doctors"`
}

// Hospital is the top-level grouping
type Hospital struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Departments []Department `json:"departments"`
}

// Snapshot is the complete payload for one date/range query
type Snapshot struct {
	Range     ScheduleRange `json:"range,omitempty"`
	Hospitals []Hospital    `json:"hospitals"`
	Days      []string      `json:"days"`
}

// EmptySnapshot is what the console shows after a failed load
func EmptySnapshot() *Snapshot {
	return &Snapshot{Hospitals: []Hospital{}, Days: []string{}}
}

// FirstDay returns the snapshot's first day, or fallback when it has none
func (s *Snapshot) FirstDay(fallback string) string {
	if s != nil && len(s.Days) > 0 {
		return s.Days[0]
	}
	return fallback
}

// FindDoctor locates a doctor together with its department and hospital
func (s *Snapshot) FindDoctor(doctorID int64) (*Hospital, *Department, *Doctor, bool) {
	if s == nil {
		return nil, nil, nil, false
	}
	for hi := range s.Hospitals {
		h := &s.Hospitals[hi]
		for di := range h.Departments {
			d := &h.Departments[di]
			for ri := range d.Doctors {
				if d.Doctors[ri].ID == doctorID {
					return h, d, &d.Doctors[ri], true
				}
			}
		}
	}
	return nil, nil, nil, false
}

// FindDepartment locates a department together with its hospital
func (s *Snapshot) FindDepartment(departmentID int64) (*Hospital, *Department, bool) {
	if s == nil {
		return nil, nil, false
	}
	for hi := range s.Hospitals {
		h := &s.Hospitals[hi]
		for di := range h.Departments {
			if h.Departments[di].ID == departmentID {
				return h, &h.Departments[di], true
			}
		}
	}
	return nil, nil, false
}

// HospitalOptions lists the hospitals of the snapshot for the filter dropdown
func (s *Snapshot) HospitalOptions() []HospitalOption {
	if s == nil {
		return nil
	}
	out := make([]HospitalOption, 0, len(s.Hospitals))
	for _, h := range s.Hospitals {
		out = append(out, HospitalOption{ID: h.ID, Name: h.Name})
	}
	return out
}

// HospitalOption is an id/name pair for filters
type HospitalOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ScheduleQuery identifies a snapshot
type ScheduleQuery struct {
	Date       string
	Range      ScheduleRange
	HospitalID *int64
}

// Validate checks the query before it reaches the backend
func (q ScheduleQuery) Validate() error {
	if _, err := ParseDay(q.Date); err != nil {
		return err
	}
	if !q.Range.Valid() {
		return fmt.Errorf("invalid range %q", q.Range)
	}
	return nil
}

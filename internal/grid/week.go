package grid

import (
	"fmt"
	"strings"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

const (
	// WeekRowHeightPx is the height of one hour in the week view
	WeekRowHeightPx = 36.0
	// MinSlotHeightPx keeps short bookings visible
	MinSlotHeightPx = 8.0
)

// WeekFilter narrows the week view to one department and/or doctor
type WeekFilter struct {
	DepartmentID *int64 `json:"departmentId,omitempty"`
	DoctorID     *int64 `json:"doctorId,omitempty"`
}

func (f WeekFilter) allows(departmentID, doctorID int64) bool {
	if f.DepartmentID != nil && *f.DepartmentID != departmentID {
		return false
	}
	if f.DoctorID != nil && *f.DoctorID != doctorID {
		return false
	}
	return true
}

// DayHeader is one column header of the week view
type DayHeader struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

// WeekSlot is a busy slot positioned in a day column
type WeekSlot struct {
	ID         *int64             `json:"id,omitempty"`
	DoctorID   int64              `json:"doctorId"`
	DoctorName string             `json:"doctorName"`
	Start      entities.LocalTime `json:"start"`
	End        entities.LocalTime `json:"end"`
	TopPx      float64            `json:"top"`
	HeightPx   float64            `json:"height"`
	Label      string             `json:"label"`
}

// WeekColumn holds the slots of one day
type WeekColumn struct {
	Date  string     `json:"date"`
	Slots []WeekSlot `json:"slots"`
}

// WeekHospital is one hospital's week grid plus its filter options
type WeekHospital struct {
	ID          int64                     `json:"id"`
	Name        string                    `json:"name"`
	Departments []entities.HospitalOption `json:"departments"`
	Doctors     []entities.HospitalOption `json:"doctors"`
	Columns     []WeekColumn              `json:"columns"`
}

// WeekView is the read-only week-at-a-glance grid of busy slots
type WeekView struct {
	Version       uint64         `json:"version"`
	RowHeightPx   float64        `json:"rowHeight"`
	TotalHeightPx float64        `json:"totalHeight"`
	Hours         []string       `json:"hours"`
	Days          []DayHeader    `json:"days"`
	Filter        WeekFilter     `json:"filter"`
	Hospitals     []WeekHospital `json:"hospitals"`
}

// BuildWeekView lays out the busy slots of every doctor passing filter
func BuildWeekView(snap *entities.Snapshot, version uint64, filter WeekFilter) WeekView {
	view := WeekView{
		Version:       version,
		RowHeightPx:   WeekRowHeightPx,
		TotalHeightPx: WeekRowHeightPx * 24,
		Hours:         make([]string, 0, 24),
		Days:          []DayHeader{},
		Filter:        filter,
		Hospitals:     []WeekHospital{},
	}
	for h := 0; h < 24; h++ {
		view.Hours = append(view.Hours, fmt.Sprintf("%02d:00", h))
	}
	if snap == nil {
		return view
	}

	for _, d := range snap.Days {
		view.Days = append(view.Days, DayHeader{Date: d, Label: dayLabel(d)})
	}

	for _, h := range snap.Hospitals {
		wh := WeekHospital{
			ID:          h.ID,
			Name:        h.Name,
			Departments: make([]entities.HospitalOption, 0, len(h.Departments)),
			Doctors:     []entities.HospitalOption{},
			Columns:     make([]WeekColumn, 0, len(snap.Days)),
		}
		for _, d := range h.Departments {
			wh.Departments = append(wh.Departments, entities.HospitalOption{ID: d.ID, Name: d.Name})
			if filter.DepartmentID != nil && *filter.DepartmentID != d.ID {
				continue
			}
			for _, doc := range d.Doctors {
				wh.Doctors = append(wh.Doctors, entities.HospitalOption{ID: doc.ID, Name: doc.Name})
			}
		}

		for _, day := range snap.Days {
			col := WeekColumn{Date: day, Slots: []WeekSlot{}}
			for _, d := range h.Departments {
				for _, doc := range d.Doctors {
					if !filter.allows(d.ID, doc.ID) {
						continue
					}
					for _, b := range doc.Busy {
						if b.Start.DayKey() != day {
							continue
						}
						col.Slots = append(col.Slots, layoutWeekSlot(doc, b))
					}
				}
			}
			wh.Columns = append(wh.Columns, col)
		}
		view.Hospitals = append(view.Hospitals, wh)
	}
	return view
}

func layoutWeekSlot(doc entities.Doctor, b entities.BusySlot) WeekSlot {
	startMin := MinuteOfDay(b.Start)
	endMin := MinuteOfDay(b.End)
	if b.End.DayKey() != b.Start.DayKey() {
		endMin = MinutesPerDay
	}
	return WeekSlot{
		ID:         b.ID,
		DoctorID:   doc.ID,
		DoctorName: doc.Name,
		Start:      b.Start,
		End:        b.End,
		TopPx:      startMin / 60 * WeekRowHeightPx,
		HeightPx:   maxFloat(MinSlotHeightPx, (endMin-startMin)/60*WeekRowHeightPx),
		Label:      fmt.Sprintf("%s • %s–%s", doc.Name, b.Start.HHMM(), b.End.HHMM()),
	}
}

func dayLabel(day string) string {
	t, err := entities.ParseDay(day)
	if err != nil {
		return day
	}
	return t.Format("Mon 02/01")
}

// Popover is the booking detail shown for a clicked week slot
type Popover struct {
	Found      bool     `json:"found"`
	Error      string   `json:"error,omitempty"`
	Patient    string   `json:"patient,omitempty"`
	Hospital   string   `json:"hospital,omitempty"`
	Department string   `json:"department,omitempty"`
	Doctor     string   `json:"doctor,omitempty"`
	Time       string   `json:"time,omitempty"`
	Room       string   `json:"room,omitempty"`
	Symptoms   []string `json:"symptoms,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// SlotRef is what the popover falls back to when no booking is found
type SlotRef struct {
	DoctorName string
	Start      entities.LocalTime
	End        entities.LocalTime
}

// BuildPopover renders a lookup outcome. A failed lookup yields an error
// entry; a missing appointment falls back to the slot's doctor and time.
func BuildPopover(slot *SlotRef, lookup *entities.AppointmentLookup, lookupErr error) Popover {
	if lookupErr != nil {
		return Popover{Error: apperrors.UserMessage(lookupErr)}
	}
	if lookup == nil || lookup.Appointment == nil {
		if slot != nil {
			return Popover{
				Doctor: slot.DoctorName,
				Time:   fmt.Sprintf("%s - %s", slot.Start.HHMM(), slot.End.HHMM()),
			}
		}
		return Popover{Message: "no booking found for this slot"}
	}

	ap := lookup.Appointment
	c := ap.Content
	p := Popover{
		Found:      true,
		Patient:    firstNonEmpty(c.PatientName, personName(ap.User), "Patient"),
		Hospital:   firstNonEmpty(c.Hospital, ap.Hospital, "-"),
		Department: firstNonEmpty(c.DepartmentName, ap.Department, "-"),
		Doctor:     firstNonEmpty(c.DoctorName, personName(ap.Doctor), "-"),
		Time:       clockOf(firstNonEmpty(c.TimeSlot, ap.When)),
		Room:       c.RoomCode,
		Symptoms:   c.Symptoms,
	}
	if ap.User != nil {
		p.Phone = ap.User.Phone
	}
	return p
}

func personName(p *entities.PersonRef) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func clockOf(raw string) string {
	if t, err := entities.ParseLocalTime(raw); err == nil {
		return t.HHMM()
	}
	return strings.TrimSpace(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package entities

// BookingContent is the snapshot the backend stores on each appointment
type BookingContent struct {
	Hospital       string   `json:"hospital,omitempty"`
	PatientName    string   `json:"patient_name,omitempty"`
	PhoneNumber    string   `json:"phone_number,omitempty"`
	DoctorName     string   `json:"doctor_name,omitempty"`
	DepartmentName string   `json:"department_name,omitempty"`
	RoomCode       string   `json:"room_code,omitempty"`
	TimeSlot       string   `json:"time_slot,omitempty"`
	Symptoms       []string `json:"symptoms,omitempty"`
}

// PersonRef is a short id/name/phone triple
type PersonRef struct {
	ID    FlexibleID `json:"id"`
	Name  string     `json:"name"`
	Phone string     `json:"phone,omitempty"`
}

// AppointmentDetail is the enriched appointment behind a busy slot
type AppointmentDetail struct {
	ID         int64          `json:"id"`
	When       string         `json:"when"`
	STT        *int           `json:"stt,omitempty"`
	User       *PersonRef     `json:"user,omitempty"`
	Doctor     *PersonRef     `json:"doctor,omitempty"`
	Department string         `json:"department,omitempty"`
	Hospital   string         `json:"hospital,omitempty"`
	Content    BookingContent `json:"content"`
}

// AppointmentLookup is the answer of GET /api/appointments/lookup.
// Appointment is nil when no booking starts in the slot's quarter.
type AppointmentLookup struct {
	Appointment *AppointmentDetail `json:"appointment"`
}

package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexibleID accepts both numeric and string ids; the backend is not
// consistent between endpoints.
type FlexibleID string

// UnmarshalJSON accepts a JSON number or string
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

// Int64 converts the id to an integer when it is numeric
func (id FlexibleID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// PatientProfile is the single logged-in user record
type PatientProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// LoginRequest is the login-lite lookup payload
type LoginRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Normalize trims the name and keeps only the digits of the phone
func (r LoginRequest) Normalize() LoginRequest {
	var digits strings.Builder
	for _, ch := range r.Phone {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	return LoginRequest{Name: strings.TrimSpace(r.Name), Phone: digits.String()}
}

// UpcomingAppointment is one row of a user's upcoming list
type UpcomingAppointment struct {
	ID           FlexibleID `json:"id"`
	When         string     `json:"when"`
	STT          *int       `json:"stt,omitempty"`
	HospitalName string     `json:"hospitalName"`
	DoctorName   string     `json:"doctorName"`
	Department   string     `json:"department"`
}

// Booking is a read-only booking slip
type Booking struct {
	ID        int64          `json:"id"`
	CreatedAt string         `json:"created_at"`
	STT       *int           `json:"stt,omitempty"`
	Content   BookingContent `json:"content"`
}

// HospitalUser is a patient seen at a hospital
type HospitalUser struct {
	ID           FlexibleID `json:"id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	CCCD         *string    `json:"cccd,omitempty"`
	Appointments int        `json:"appointments"`
	LastWhen     *string    `json:"last_when,omitempty"`
}

// HospitalUsers groups patients per hospital
type HospitalUsers struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Users []HospitalUser `json:"users"`
}

// HospitalUsersResponse is the answer of GET /api/hospital-users
type HospitalUsersResponse struct {
	Hospitals []HospitalUsers `json:"hospitals"`
}

// HospitalUserProfile is the answer of GET /api/hospital-user-profile
type HospitalUserProfile struct {
	Hospital HospitalOption `json:"hospital"`
	User     struct {
		ID    FlexibleID `json:"id"`
		Name  string     `json:"name"`
		Phone string     `json:"phone"`
		CCCD  *string    `json:"cccd,omitempty"`
		BHYT  *string    `json:"bhyt,omitempty"`
	} `json:"user"`
	Appointments []struct {
		ID         int64          `json:"id"`
		When       string         `json:"when"`
		STT        *int           `json:"stt,omitempty"`
		DoctorName string         `json:"doctorName"`
		Department string         `json:"department"`
		Content    BookingContent `json:"content"`
	} `json:"appointments"`
}

// HospitalUpcoming groups upcoming appointments per hospital
type HospitalUpcoming struct {
	ID           int64 `json:"id"`
	Name         string `json:"name"`
	Appointments []struct {
		ID         FlexibleID `json:"id"`
		When       string     `json:"when"`
		STT        *int       `json:"stt,omitempty"`
		User       PersonRef  `json:"user"`
		Department string     `json:"department"`
		DoctorName string     `json:"doctorName"`
	} `json:"appointments"`
}

// UpcomingByHospitalResponse is the answer of GET /api/hospitals/upcoming
type UpcomingByHospitalResponse struct {
	Hospitals []HospitalUpcoming `json:"hospitals"`
}

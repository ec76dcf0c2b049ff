package providers

import (
	"context"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

// PatientBackend serves the read-only patient and booking views
type PatientBackend interface {
	LookupUser(ctx context.Context, req entities.LoginRequest) (*entities.PatientProfile, error)
	Upcoming(ctx context.Context, userID string) ([]entities.UpcomingAppointment, error)
	Bookings(ctx context.Context, userID string) ([]entities.Booking, error)
	Booking(ctx context.Context, bookingID int64) (*entities.Booking, error)
	HospitalUsers(ctx context.Context, hospitalID *int64) (*entities.HospitalUsersResponse, error)
	HospitalUserProfile(ctx context.Context, hospitalID int64, userID string) (*entities.HospitalUserProfile, error)
	UpcomingByHospital(ctx context.Context) (*entities.UpcomingByHospitalResponse, error)
}

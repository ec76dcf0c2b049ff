package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

// Mocks

type MockScheduleBackend struct {
	mock.Mock
}

func (m *MockScheduleBackend) FetchSchedule(ctx context.Context, q entities.ScheduleQuery) (*entities.Snapshot, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Snapshot), args.Error(1)
}

func (m *MockScheduleBackend) UpsertWindow(ctx context.Context, upsert entities.WindowUpsert) (*entities.WindowUpsertResult, error) {
	args := m.Called(ctx, upsert)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WindowUpsertResult), args.Error(1)
}

func (m *MockScheduleBackend) DeleteWindow(ctx context.Context, windowID int64) error {
	args := m.Called(ctx, windowID)
	return args.Error(0)
}

func (m *MockScheduleBackend) BulkAdjust(ctx context.Context, req entities.BulkAdjustRequest) (*entities.BulkAdjustResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BulkAdjustResult), args.Error(1)
}

func (m *MockScheduleBackend) LookupAppointment(ctx context.Context, doctorID int64, start entities.LocalTime) (*entities.AppointmentLookup, error) {
	args := m.Called(ctx, doctorID, start)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AppointmentLookup), args.Error(1)
}

type MockPatientBackend struct {
	mock.Mock
}

func (m *MockPatientBackend) LookupUser(ctx context.Context, req entities.LoginRequest) (*entities.PatientProfile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PatientProfile), args.Error(1)
}

func (m *MockPatientBackend) Upcoming(ctx context.Context, userID string) ([]entities.UpcomingAppointment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.UpcomingAppointment), args.Error(1)
}

func (m *MockPatientBackend) Bookings(ctx context.Context, userID string) ([]entities.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Booking), args.Error(1)
}

func (m *MockPatientBackend) Booking(ctx context.Context, bookingID int64) (*entities.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockPatientBackend) HospitalUsers(ctx context.Context, hospitalID *int64) (*entities.HospitalUsersResponse, error) {
	args := m.Called(ctx, hospitalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.HospitalUsersResponse), args.Error(1)
}

func (m *MockPatientBackend) HospitalUserProfile(ctx context.Context, hospitalID int64, userID string) (*entities.HospitalUserProfile, error) {
	args := m.Called(ctx, hospitalID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.HospitalUserProfile), args.Error(1)
}

func (m *MockPatientBackend) UpcomingByHospital(ctx context.Context) (*entities.UpcomingByHospitalResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UpcomingByHospitalResponse), args.Error(1)
}

// Fixtures

func id64(v int64) *int64 { return &v }

// oneDoctorSnapshot is General > Cardiology > Dr. An (7) with an 08-12
// window, plus Dr. Binh (8) and Dr. Chi (9) without windows.
func oneDoctorSnapshot(day string) *entities.Snapshot {
	d, _ := entities.ParseDay(day)
	at := func(h int) entities.LocalTime {
		return entities.NewLocalTime(d.Year(), d.Month(), d.Day(), h, 0, 0)
	}
	return &entities.Snapshot{
		Range: entities.ScheduleRangeDay,
		Days:  []string{day},
		Hospitals: []entities.Hospital{{
			ID:   1,
			Name: "General",
			Departments: []entities.Department{{
				ID:   3,
				Name: "Cardiology",
				Doctors: []entities.Doctor{
					{
						ID:      7,
						Name:    "Dr. An",
						Windows: []entities.TimeWindow{{ID: id64(100), Start: at(8), End: at(12), Kind: entities.WindowKindAvailable}},
						Busy:    []entities.BusySlot{{ID: id64(900), Start: at(14), End: entities.NewLocalTime(d.Year(), d.Month(), d.Day(), 14, 30, 0)}},
					},
					{ID: 8, Name: "Dr. Binh"},
					{ID: 9, Name: "Dr. Chi"},
				},
			}},
		}},
	}
}

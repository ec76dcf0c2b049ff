package providers

import (
	"context"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

// ScheduleBackend is the external scheduling backend the console edits
type ScheduleBackend interface {
	// FetchSchedule loads the snapshot for a date, range and optional hospital
	FetchSchedule(ctx context.Context, query entities.ScheduleQuery) (*entities.Snapshot, error)

	// UpsertWindow creates a window; an exact duplicate returns the existing id
	UpsertWindow(ctx context.Context, upsert entities.WindowUpsert) (*entities.WindowUpsertResult, error)

	// DeleteWindow removes a persisted window
	DeleteWindow(ctx context.Context, windowID int64) error

	// BulkAdjust replaces or appends daily rules across a scope and date range
	BulkAdjust(ctx context.Context, req entities.BulkAdjustRequest) (*entities.BulkAdjustResult, error)

	// LookupAppointment finds the booking starting in the quarter of start
	LookupAppointment(ctx context.Context, doctorID int64, start entities.LocalTime) (*entities.AppointmentLookup, error)
}

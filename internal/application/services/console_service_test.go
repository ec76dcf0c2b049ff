package services_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medly/scheduleconsole/internal/adapters/cache"
	"github.com/medly/scheduleconsole/internal/application/services"
	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	"github.com/medly/scheduleconsole/internal/grid"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

const consoleDay = "2025-08-31"

func newConsole(t *testing.T, backend *MockScheduleBackend) *services.ConsoleService {
	t.Helper()
	svc := services.NewConsoleService(backend, services.NewBulkAdjustService(backend, nil), nil, nil, nil, services.ConsoleConfig{Location: time.UTC})
	t.Cleanup(svc.Close)
	return svc
}

// loadedSession opens a session and loads consoleDay
func loadedSession(t *testing.T, backend *MockScheduleBackend) *services.ConsoleSession {
	t.Helper()
	backend.On("FetchSchedule", mock.Anything, mock.Anything).Return(oneDoctorSnapshot(consoleDay), nil)

	sess := newConsole(t, backend).OpenSession(context.Background(), "")
	_, err := sess.SetQuery(context.Background(), entities.ScheduleQuery{Date: consoleDay})
	require.NoError(t, err)
	return sess
}

func upsertAt(doctorID int64, start, end string, kind entities.WindowKind) interface{} {
	return mock.MatchedBy(func(u entities.WindowUpsert) bool {
		return u.DoctorID == doctorID && u.Start.HHMM() == start && u.End.HHMM() == end && u.Kind == kind
	})
}

func TestConsoleService_OpenSession(t *testing.T) {
	svc := newConsole(t, new(MockScheduleBackend))

	a := svc.OpenSession(context.Background(), "not-a-uuid")
	_, err := uuid.Parse(a.ID())
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", a.ID())

	b := svc.OpenSession(context.Background(), a.ID())
	assert.Same(t, a, b)
	assert.Equal(t, 1, svc.SessionCount())

	got, ok := svc.Session(a.ID())
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestConsoleService_Reap(t *testing.T) {
	svc := newConsole(t, new(MockScheduleBackend))
	svc.OpenSession(context.Background(), "")
	svc.OpenSession(context.Background(), "")

	assert.Equal(t, 0, svc.Reap(time.Now().Add(time.Hour)))
	assert.Equal(t, 2, svc.Reap(time.Now().Add(3*time.Hour)))
	assert.Equal(t, 0, svc.SessionCount())
}

func TestConsoleSession_DayView(t *testing.T) {
	backend := new(MockScheduleBackend)
	sess := loadedSession(t, backend)

	resp, err := sess.DayView()

	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.Status.Version)
	assert.Equal(t, consoleDay, resp.View.Day)
	require.Len(t, resp.View.Hospitals, 1)
	rows := resp.View.Hospitals[0].Departments[0].Rows
	require.Len(t, rows, 3)
	require.Len(t, rows[0].Windows, 1)
	assert.InDelta(t, 576.0, rows[0].Windows[0].LeftPx, 0.001)
	assert.InDelta(t, 288.0, rows[0].Windows[0].WidthPx, 0.001)
	assert.Equal(t, "08:00", rows[0].Windows[0].StartLabel)
	require.Len(t, rows[0].Busy, 1)
	assert.Equal(t, []entities.HospitalOption{{ID: 1, Name: "General"}}, resp.Status.HospitalOptions)
}

func TestConsoleSession_Selection(t *testing.T) {
	backend := new(MockScheduleBackend)
	sess := loadedSession(t, backend)

	snap, err := sess.Click(7, grid.Modifiers{})
	require.NoError(t, err)
	require.NotNil(t, snap.Target.Scope)
	assert.Equal(t, "General • Cardiology • Dr. An", snap.Target.Scope.Name)

	snap, err = sess.Click(9, grid.Modifiers{Shift: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8, 9}, snap.Target.DoctorIDs)
	assert.Equal(t, 3, len(sess.BulkForm().Target.DoctorIDs))

	snap, err = sess.SelectScope(entities.ScopeKindDepartment, 3)
	require.NoError(t, err)
	assert.Equal(t, "General • Cardiology", snap.Target.Scope.Name)

	_, err = sess.SelectScope(entities.ScopeKindHospital, 99)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = sess.SelectScope("ward", 3)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = sess.Click(42, grid.Modifiers{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	assert.True(t, sess.ClearSelection().Target.Empty())
}

func TestConsoleSession_DoubleClick(t *testing.T) {
	backend := new(MockScheduleBackend)
	sess := loadedSession(t, backend)
	backend.On("UpsertWindow", mock.Anything, upsertAt(7, "10:00", "11:00", entities.WindowKindAvailable)).
		Return(&entities.WindowUpsertResult{ID: 101}, nil).Once()

	window, err := sess.DoubleClick(context.Background(), 7, 724)

	require.NoError(t, err)
	assert.Equal(t, int64(101), *window.ID)
	assert.Equal(t, uint64(2), sess.Status().Version)
	backend.AssertNumberOfCalls(t, "FetchSchedule", 2)

	_, err = sess.DoubleClick(context.Background(), 42, 724)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestConsoleSession_WeekRangeIsReadOnly(t *testing.T) {
	backend := new(MockScheduleBackend)
	sess := loadedSession(t, backend)
	ctx := context.Background()

	_, err := sess.SetQuery(ctx, entities.ScheduleQuery{Date: consoleDay, Range: entities.ScheduleRangeWeek})
	require.NoError(t, err)

	_, err = sess.DoubleClick(ctx, 7, 724)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = sess.CreateWindow(ctx, 7, 40, entities.WindowKindAvailable, 60)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = sess.Drag(ctx, 7, services.DragRequest{Mode: grid.DragMove, WindowID: id64(100), OwnerDoctorID: 7, OriginPixel: 600, CurrentPixel: 672})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = sess.SelectSpan(ctx, 7, 720, 792, entities.WindowKindAvailable)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = sess.SubmitBulk(ctx, sess.BulkForm())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = sess.ClearDay(ctx)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	// selection still works and survives the switch back to the day view
	_, err = sess.Click(7, grid.Modifiers{})
	require.NoError(t, err)

	backend.AssertNotCalled(t, "UpsertWindow", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "DeleteWindow", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "BulkAdjust", mock.Anything, mock.Anything)

	backend.On("UpsertWindow", mock.Anything, upsertAt(7, "10:00", "11:00", entities.WindowKindAvailable)).
		Return(&entities.WindowUpsertResult{ID: 101}, nil).Once()
	_, err = sess.SetQuery(ctx, entities.ScheduleQuery{Date: consoleDay, Range: entities.ScheduleRangeDay})
	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.Selection().Target.Scope.ID)

	_, err = sess.DoubleClick(ctx, 7, 724)
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestConsoleSession_Drag(t *testing.T) {
	t.Run("move replaces the window", func(t *testing.T) {
		backend := new(MockScheduleBackend)
		sess := loadedSession(t, backend)
		backend.On("UpsertWindow", mock.Anything, upsertAt(7, "09:00", "13:00", entities.WindowKindAvailable)).
			Return(&entities.WindowUpsertResult{ID: 101}, nil).Once()
		backend.On("DeleteWindow", mock.Anything, int64(100)).Return(nil).Once()

		result, err := sess.Drag(context.Background(), 7, services.DragRequest{
			Mode:          grid.DragMove,
			WindowID:      id64(100),
			OwnerDoctorID: 7,
			OriginPixel:   600,
			CurrentPixel:  672,
		})

		require.NoError(t, err)
		assert.Nil(t, result.StaleWindowID)
		backend.AssertExpectations(t)
	})

	t.Run("busy slots are read-only", func(t *testing.T) {
		backend := new(MockScheduleBackend)
		sess := loadedSession(t, backend)

		_, err := sess.Drag(context.Background(), 7, services.DragRequest{
			Mode:          grid.DragMove,
			Target:        grid.TargetBusy,
			WindowID:      id64(900),
			OwnerDoctorID: 7,
			OriginPixel:   1010,
			CurrentPixel:  1100,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		backend.AssertNotCalled(t, "UpsertWindow", mock.Anything, mock.Anything)
	})

	t.Run("block of another row", func(t *testing.T) {
		backend := new(MockScheduleBackend)
		sess := loadedSession(t, backend)

		_, err := sess.Drag(context.Background(), 8, services.DragRequest{
			Mode:          grid.DragMove,
			WindowID:      id64(100),
			OwnerDoctorID: 7,
			OriginPixel:   600,
			CurrentPixel:  672,
		})

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestConsoleSession_SelectSpanAndSubmit(t *testing.T) {
	backend := new(MockScheduleBackend)
	sess := loadedSession(t, backend)

	form, err := sess.SelectSpan(context.Background(), 7, 792, 720, entities.WindowKindOutOfOffice)
	require.NoError(t, err)
	assert.True(t, form.Prefilled)
	assert.Equal(t, []entities.Rule{{Start: "10:00", End: "11:00"}}, form.OOO)
	assert.Equal(t, int64(7), sess.Selection().Target.Scope.ID)
	assert.True(t, sess.BulkForm().Prefilled)

	want := entities.BulkAdjustRequest{
		ScopeKind: entities.ScopeKindDoctor,
		ScopeID:   7,
		DateStart: consoleDay,
		DateEnd:   consoleDay,
		Available: []entities.Rule{{Start: "10:00", End: "11:00"}},
		OOO:       []entities.Rule{},
		Overwrite: true,
	}
	backend.On("BulkAdjust", mock.Anything, want).Return(&entities.BulkAdjustResult{OK: true, Inserted: 1}, nil).Once()

	// the client may only switch the kind; edited dates and rules are ignored
	submitted := *form
	submitted.LockedKind = entities.WindowKindAvailable
	submitted.DateEnd = "2025-09-30"
	submitted.OOO = []entities.Rule{{Start: "00:00", End: "23:59"}}

	out, err := sess.SubmitBulk(context.Background(), submitted)

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.False(t, sess.BulkForm().Prefilled)
	backend.AssertExpectations(t)
}

func TestConsoleSession_PrefillDroppedOnDateChange(t *testing.T) {
	backend := new(MockScheduleBackend)
	sess := loadedSession(t, backend)

	_, err := sess.SelectSpan(context.Background(), 7, 720, 792, entities.WindowKindAvailable)
	require.NoError(t, err)

	_, err = sess.SetQuery(context.Background(), entities.ScheduleQuery{Date: "2025-09-01"})
	require.NoError(t, err)

	assert.False(t, sess.BulkForm().Prefilled)
}

func TestConsoleSession_Lookup(t *testing.T) {
	backend := new(MockScheduleBackend)
	sess := loadedSession(t, backend)
	start := entities.NewLocalTime(2025, time.August, 31, 14, 0, 0)
	backend.On("LookupAppointment", mock.Anything, int64(7), start).Return(&entities.AppointmentLookup{}, nil).Once()

	pop := sess.Lookup(context.Background(), 7, start)

	assert.False(t, pop.Found)
	assert.Equal(t, "Dr. An", pop.Doctor)
	assert.Equal(t, "14:00 - 14:30", pop.Time)
}

func TestConsoleService_RestoresPrefs(t *testing.T) {
	store, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	backend := new(MockScheduleBackend)
	backend.On("FetchSchedule", mock.Anything, mock.Anything).Return(oneDoctorSnapshot(consoleDay), nil)

	id := uuid.NewString()
	q := entities.ScheduleQuery{Date: consoleDay, Range: entities.ScheduleRangeWeek, HospitalID: id64(1)}

	first := services.NewConsoleService(backend, nil, store, nil, nil, services.ConsoleConfig{})
	defer first.Close()
	_, err = first.OpenSession(context.Background(), id).SetQuery(context.Background(), q)
	require.NoError(t, err)

	second := services.NewConsoleService(backend, nil, store, nil, nil, services.ConsoleConfig{})
	defer second.Close()
	assert.Equal(t, q, second.OpenSession(context.Background(), id).Sync().Query())
}

func TestConsoleService_DiscardsInvalidPrefs(t *testing.T) {
	var logs bytes.Buffer
	observability.InitLoggerTo(&logs, "scheduleconsole-test", "production")
	t.Cleanup(func() { observability.InitLoggerTo(io.Discard, "scheduleconsole-test", "production") })

	store, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	id := uuid.NewString()
	require.NoError(t, store.Set(context.Background(), providers.SessionPrefsKey(id), []byte(`{"date":"31/08/2025","range":"month"}`), 0))

	svc := services.NewConsoleService(new(MockScheduleBackend), nil, store, nil, nil, services.ConsoleConfig{})
	defer svc.Close()
	sess := svc.OpenSession(context.Background(), id)

	assert.Empty(t, sess.Sync().Query().Date)
	assert.Contains(t, logs.String(), "discarding invalid session preferences")
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medly/scheduleconsole/internal/application/services"
	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
)

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
	return m.Called(ctx, windowID).Error(0)
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

func id64(v int64) *int64 { return &v }

// snapshot is General > Cardiology > Dr. An (7) with an 08-12 window and a
// 14:00-14:30 booking
func snapshot() *entities.Snapshot {
	at := func(h, m int) entities.LocalTime { return entities.NewLocalTime(2025, time.August, 31, h, m, 0) }
	return &entities.Snapshot{
		Range: entities.ScheduleRangeDay,
		Days:  []string{"2025-08-31"},
		Hospitals: []entities.Hospital{{
			ID:   1,
			Name: "General",
			Departments: []entities.Department{{
				ID:   3,
				Name: "Cardiology",
				Doctors: []entities.Doctor{{
					ID:      7,
					Name:    "Dr. An",
					Windows: []entities.TimeWindow{{ID: id64(100), Start: at(8, 0), End: at(12, 0), Kind: entities.WindowKindAvailable}},
					Busy:    []entities.BusySlot{{ID: id64(900), Start: at(14, 0), End: at(14, 30)}},
				}},
			}},
		}},
	}
}

type fixture struct {
	backend *MockScheduleBackend
	console *services.ConsoleService
	session *services.ConsoleSession
}

func newFixture(t *testing.T, bus providers.EventBus) *fixture {
	t.Helper()
	backend := new(MockScheduleBackend)
	console := services.NewConsoleService(backend, services.NewBulkAdjustService(backend, nil), nil, bus, nil, services.ConsoleConfig{Location: time.UTC})
	t.Cleanup(console.Close)
	return &fixture{
		backend: backend,
		console: console,
		session: console.OpenSession(context.Background(), ""),
	}
}

// loaded returns a fixture whose session shows 2025-08-31
func loaded(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, nil)
	f.backend.On("FetchSchedule", mock.Anything, mock.Anything).Return(snapshot(), nil)
	_, err := f.session.SetQuery(context.Background(), entities.ScheduleQuery{Date: "2025-08-31"})
	require.NoError(t, err)
	return f
}

func (f *fixture) request(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	return req.WithContext(services.WithSession(req.Context(), f.session))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func assertJSONContains(t *testing.T, w *httptest.ResponseRecorder, fragment string) {
	t.Helper()
	assert.True(t, strings.Contains(w.Body.String(), fragment), "body %s does not contain %s", w.Body.String(), fragment)
}

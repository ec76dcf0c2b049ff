package backendapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second)
}

func TestFetchSchedule_RequestsExactQuery(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{
			"range": "day",
			"days": ["2025-08-31"],
			"hospitals": [{"id": 7, "name": "Central", "departments": [{"id": 3, "name": "Cardio", "doctors": [
				{"id": 11, "name": "Dr. A", "busy": [], "windows": [
					{"id": 100, "start": "2025-08-31T08:00:00", "end": "2025-08-31T12:00:00", "kind": "available"}
				]}
			]}]}]
		}`)
	})

	hospitalID := int64(7)
	snap, err := client.FetchSchedule(context.Background(), entities.ScheduleQuery{
		Date: "2025-08-31", Range: entities.ScheduleRangeDay, HospitalID: &hospitalID,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/dev/schedule", gotPath)
	assert.Equal(t, "date_str=2025-08-31&hospital_id=7&range=day", gotQuery)

	require.Len(t, snap.Hospitals, 1)
	win := snap.Hospitals[0].Departments[0].Doctors[0].Windows[0]
	require.NotNil(t, win.ID)
	assert.Equal(t, int64(100), *win.ID)
	assert.Equal(t, 8, win.Start.Hour())
	assert.Equal(t, 12, win.End.Hour())
	assert.Equal(t, entities.WindowKindAvailable, win.Kind)
}

func TestFetchSchedule_OmitsHospitalWhenUnset(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{"days": [], "hospitals": []}`)
	})

	snap, err := client.FetchSchedule(context.Background(), entities.ScheduleQuery{Date: "2025-09-01", Range: entities.ScheduleRangeWeek})
	require.NoError(t, err)
	assert.Equal(t, "date_str=2025-09-01&range=week", gotQuery)
	assert.Equal(t, entities.ScheduleRangeWeek, snap.Range)
	assert.NotNil(t, snap.Hospitals)
}

func TestUpsertWindow_SendsLocalNaiveTimestamps(t *testing.T) {
	var body map[string]interface{}
	var method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id": 55}`)
	})

	res, err := client.UpsertWindow(context.Background(), entities.WindowUpsert{
		DoctorID: 11,
		Start:    entities.NewLocalTime(2025, 8, 31, 10, 0, 0),
		End:      entities.NewLocalTime(2025, 8, 31, 11, 0, 0),
		Kind:     entities.WindowKindAvailable,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, float64(11), body["doctorId"])
	assert.Equal(t, "2025-08-31T10:00:00", body["start"])
	assert.Equal(t, "2025-08-31T11:00:00", body["end"])
	assert.Equal(t, "available", body["kind"])
	assert.Equal(t, int64(55), res.ID)
}

func TestDeleteWindow_UsesPathID(t *testing.T) {
	var method, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteWindow(context.Background(), 42))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/dev/windows/42", path)
}

func TestBulkAdjust_SendsEmptyListsNotNull(t *testing.T) {
	var raw map[string]json.RawMessage
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dev/windows/bulk-adjust", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = io.WriteString(w, `{"ok": true, "inserted": 0, "deleted": 4, "doctors": 2, "days": 1}`)
	})

	res, err := client.BulkAdjust(context.Background(), entities.BulkAdjustRequest{
		ScopeKind: entities.ScopeKindDepartment, ScopeID: 3,
		DateStart: "2025-08-31", DateEnd: "2025-08-31", Overwrite: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw["available"]))
	assert.JSONEq(t, `[]`, string(raw["ooo"]))
	assert.JSONEq(t, `"department"`, string(raw["scopeKind"]))
	assert.Equal(t, 4, res.Deleted)
}

func TestLookupAppointment_NullAppointment(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{"appointment": null}`)
	})

	res, err := client.LookupAppointment(context.Background(), 11, entities.NewLocalTime(2025, 8, 31, 9, 15, 0))
	require.NoError(t, err)
	assert.Nil(t, res.Appointment)
	assert.Equal(t, "doctor_id=11&start=2025-08-31T09%3A15%3A00", gotQuery)
}

func TestErrors_SurfaceServerDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail": "end must be after start"}`)
	})

	_, err := client.UpsertWindow(context.Background(), entities.WindowUpsert{DoctorID: 1, Kind: entities.WindowKindOutOfOffice})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "end must be after start", apperrors.UserMessage(err))
}

func TestErrors_FallBackToRawText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	err := client.DeleteWindow(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "upstream exploded", apperrors.UserMessage(err))
}

func TestErrors_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(srv.URL, time.Second)
	srv.Close()

	_, err := client.FetchSchedule(context.Background(), entities.ScheduleQuery{Date: "2025-08-31", Range: entities.ScheduleRangeDay})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
}

func TestLookupUser_NormalizesPayload(t *testing.T) {
	var body entities.LoginRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id": "9", "name": "An", "phone": "0901234567"}`)
	})

	user, err := client.LookupUser(context.Background(), entities.LoginRequest{Name: "  An ", Phone: "090-123 4567"})
	require.NoError(t, err)
	assert.Equal(t, "An", body.Name)
	assert.Equal(t, "0901234567", body.Phone)
	assert.Equal(t, "9", user.ID)
}

func TestUpcoming_UserIDOptional(t *testing.T) {
	var queries []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		_, _ = io.WriteString(w, `[{"id": 5, "when": "2025-09-01T09:00:00", "hospitalName": "H", "doctorName": "D", "department": "X"}]`)
	})

	list, err := client.Upcoming(context.Background(), "")
	require.NoError(t, err)
	_, err = client.Upcoming(context.Background(), "12")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "userId=12"}, queries)
	require.Len(t, list, 1)
	assert.Equal(t, entities.FlexibleID("5"), list[0].ID)
}

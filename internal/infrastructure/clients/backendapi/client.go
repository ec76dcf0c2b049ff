package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

// maxErrorBody bounds how much of a failed response is read for its message
const maxErrorBody = 64 << 10

// HTTPClient talks JSON to the scheduling backend. It implements both
// providers.ScheduleBackend and providers.PatientBackend.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
}

// Option customizes an HTTPClient
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithMetrics records per-call duration and errors
func WithMetrics(m *observability.Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend origin the client calls
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) FetchSchedule(ctx context.Context, q entities.ScheduleQuery) (*entities.Snapshot, error) {
	query := url.Values{}
	query.Set("date_str", q.Date)
	query.Set("range", string(q.Range))
	if q.HospitalID != nil {
		query.Set("hospital_id", strconv.FormatInt(*q.HospitalID, 10))
	}

	out := &entities.Snapshot{}
	if err := c.doJSON(ctx, "fetch_schedule", http.MethodGet, c.endpoint("/api/dev/schedule", query), nil, out); err != nil {
		return nil, err
	}
	if out.Range == "" {
		out.Range = q.Range
	}
	if out.Hospitals == nil {
		out.Hospitals = []entities.Hospital{}
	}
	if out.Days == nil {
		out.Days = []string{}
	}
	return out, nil
}

func (c *HTTPClient) UpsertWindow(ctx context.Context, upsert entities.WindowUpsert) (*entities.WindowUpsertResult, error) {
	out := &entities.WindowUpsertResult{}
	if err := c.doJSON(ctx, "upsert_window", http.MethodPut, c.endpoint("/api/dev/windows", nil), upsert, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) DeleteWindow(ctx context.Context, windowID int64) error {
	endpoint := c.endpoint("/api/dev/windows/"+strconv.FormatInt(windowID, 10), nil)
	return c.doJSON(ctx, "delete_window", http.MethodDelete, endpoint, nil, nil)
}

func (c *HTTPClient) BulkAdjust(ctx context.Context, req entities.BulkAdjustRequest) (*entities.BulkAdjustResult, error) {
	if req.Available == nil {
		req.Available = []entities.Rule{}
	}
	if req.OOO == nil {
		req.OOO = []entities.Rule{}
	}
	out := &entities.BulkAdjustResult{}
	if err := c.doJSON(ctx, "bulk_adjust", http.MethodPost, c.endpoint("/api/dev/windows/bulk-adjust", nil), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) LookupAppointment(ctx context.Context, doctorID int64, start entities.LocalTime) (*entities.AppointmentLookup, error) {
	query := url.Values{}
	query.Set("doctor_id", strconv.FormatInt(doctorID, 10))
	query.Set("start", start.String())

	out := &entities.AppointmentLookup{}
	if err := c.doJSON(ctx, "lookup_appointment", http.MethodGet, c.endpoint("/api/appointments/lookup", query), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) LookupUser(ctx context.Context, req entities.LoginRequest) (*entities.PatientProfile, error) {
	out := &entities.PatientProfile{}
	if err := c.doJSON(ctx, "lookup_user", http.MethodPost, c.endpoint("/api/users", nil), req.Normalize(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Upcoming(ctx context.Context, userID string) ([]entities.UpcomingAppointment, error) {
	var out []entities.UpcomingAppointment
	if err := c.doJSON(ctx, "upcoming", http.MethodGet, c.endpoint("/api/upcoming", userQuery(userID)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Bookings(ctx context.Context, userID string) ([]entities.Booking, error) {
	var out []entities.Booking
	if err := c.doJSON(ctx, "bookings", http.MethodGet, c.endpoint("/api/bookings", userQuery(userID)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Booking(ctx context.Context, bookingID int64) (*entities.Booking, error) {
	out := &entities.Booking{}
	endpoint := c.endpoint("/api/bookings/"+strconv.FormatInt(bookingID, 10), nil)
	if err := c.doJSON(ctx, "booking", http.MethodGet, endpoint, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) HospitalUsers(ctx context.Context, hospitalID *int64) (*entities.HospitalUsersResponse, error) {
	query := url.Values{}
	if hospitalID != nil {
		query.Set("hospitalId", strconv.FormatInt(*hospitalID, 10))
	}
	out := &entities.HospitalUsersResponse{}
	if err := c.doJSON(ctx, "hospital_users", http.MethodGet, c.endpoint("/api/hospital-users", query), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) HospitalUserProfile(ctx context.Context, hospitalID int64, userID string) (*entities.HospitalUserProfile, error) {
	query := url.Values{}
	query.Set("hospitalId", strconv.FormatInt(hospitalID, 10))
	query.Set("userId", userID)
	out := &entities.HospitalUserProfile{}
	if err := c.doJSON(ctx, "hospital_user_profile", http.MethodGet, c.endpoint("/api/hospital-user-profile", query), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) UpcomingByHospital(ctx context.Context) (*entities.UpcomingByHospitalResponse, error) {
	out := &entities.UpcomingByHospitalResponse{}
	if err := c.doJSON(ctx, "upcoming_by_hospital", http.MethodGet, c.endpoint("/api/hospitals/upcoming", nil), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func userQuery(userID string) url.Values {
	query := url.Values{}
	if strings.TrimSpace(userID) != "" {
		query.Set("userId", userID)
	}
	return query
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

func (c *HTTPClient) doJSON(ctx context.Context, operation, method, endpoint string, body interface{}, out interface{}) (err error) {
	ctx, span := observability.StartSpan(ctx, "backend."+operation)
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("http.method", method),
		attribute.String("backend.operation", operation),
	)

	started := time.Now()
	defer func() {
		observability.RecordError(span, err)
		observability.RecordBackendCall(ctx, c.metrics, operation, time.Since(started), err)
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apperrors.NewTransportError(fmt.Sprintf("backend unreachable: %s %s", method, operation), err)
	}
	defer resp.Body.Close()

	observability.SetSpanAttributes(span, attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.NewExternalError(resp.StatusCode, errorMessage(resp.StatusCode, raw))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError("failed to read backend response", err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("invalid backend response for %s", operation), err)
	}
	return nil
}

// errorMessage prefers the FastAPI "detail" field and falls back to the raw text.
func errorMessage(status int, raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil {
			if text != "" {
				return text
			}
		} else {
			return string(envelope.Detail)
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fmt.Sprintf("backend returned status %d", status)
}

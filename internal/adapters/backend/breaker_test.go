package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

type stubBackend struct {
	Backend
	calls  int
	err    error
	result *entities.Snapshot
}

func (s *stubBackend) FetchSchedule(context.Context, entities.ScheduleQuery) (*entities.Snapshot, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubBackend) DeleteWindow(context.Context, int64) error {
	s.calls++
	return s.err
}

var dayQuery = entities.ScheduleQuery{Date: "2025-08-31", Range: entities.ScheduleRangeDay}

func TestBreaker_PassesThroughResults(t *testing.T) {
	stub := &stubBackend{result: &entities.Snapshot{Days: []string{"2025-08-31"}}}
	b := NewBreakerBackend(stub, DefaultBreakerConfig())

	snap, err := b.FetchSchedule(context.Background(), dayQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-08-31"}, snap.Days)
	assert.Equal(t, 1, stub.calls)
}

func TestBreaker_OpensAfterTransportFailures(t *testing.T) {
	stub := &stubBackend{err: apperrors.NewTransportError("down", errors.New("refused"))}
	b := NewBreakerBackend(stub, BreakerConfig{Name: "t", ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := b.FetchSchedule(context.Background(), dayQuery)
		require.Error(t, err)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.FetchSchedule(context.Background(), dayQuery)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
	assert.Equal(t, 2, stub.calls, "open breaker must not reach the backend")
}

func TestBreaker_ClientErrorsKeepBreakerClosed(t *testing.T) {
	stub := &stubBackend{err: apperrors.NewExternalError(400, "bad window")}
	b := NewBreakerBackend(stub, BreakerConfig{Name: "t", ConsecutiveFailures: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		err := b.DeleteWindow(context.Background(), 1)
		require.Error(t, err)
		assert.Equal(t, "bad window", apperrors.UserMessage(err))
	}
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, 3, stub.calls)
}

func TestBreaker_ServerErrorsCountAsFailures(t *testing.T) {
	assert.False(t, countsAsHealthy(apperrors.NewExternalError(503, "unavailable")))
	assert.True(t, countsAsHealthy(apperrors.NewExternalError(409, "conflict")))
	assert.True(t, countsAsHealthy(nil))
	assert.True(t, countsAsHealthy(context.Canceled))
	assert.False(t, countsAsHealthy(errors.New("boom")))
}

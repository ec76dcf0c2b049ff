package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

func TestLocalTime_DayKeyAndCalendarDay(t *testing.T) {
	ts := entities.NewLocalTime(2025, time.August, 31, 17, 45, 0)

	assert.Equal(t, "2025-08-31", ts.DayKey())
	assert.Equal(t, 31, ts.Day())
	assert.Equal(t, "17:45", ts.HHMM())

	next := entities.NewLocalTime(ts.Year(), ts.Month(), ts.Day()+1, 0, 0, 0)
	assert.Equal(t, "2025-09-01T00:00:00", next.String())
}

func TestParseLocalTime_KeepsWallClock(t *testing.T) {
	ts, err := entities.ParseLocalTime("2025-08-31T10:15:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-31T10:15:00", ts.String())

	_, err = entities.ParseLocalTime("tomorrow")
	assert.Error(t, err)
}

func TestTimeWindow_Persisted(t *testing.T) {
	id := int64(4)
	assert.True(t, entities.TimeWindow{ID: &id}.Persisted())
	assert.False(t, entities.TimeWindow{}.Persisted())
}

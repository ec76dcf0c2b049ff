package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

func TestQuantizer_Defaults(t *testing.T) {
	q := NewQuantizer(0)
	assert.Equal(t, DefaultPixelsPerHour, q.PixelsPerHour())
	assert.Equal(t, 18.0, q.PixelsPerQuarter())
	assert.Equal(t, 1728.0, q.TrackWidth())
}

func TestPixelToQuarter_ClampsEveryInput(t *testing.T) {
	q := NewQuantizer(72)
	inputs := []float64{-1e12, -100, -9, 0, 8.9, 9, 720, 1700, 1719, 1728, 5000, 1e300, math.Inf(1), math.Inf(-1), math.NaN()}
	for _, px := range inputs {
		got := q.PixelToQuarter(px)
		assert.GreaterOrEqual(t, got, 0, "px=%v", px)
		assert.LessOrEqual(t, got, QuartersPerDay-1, "px=%v", px)
	}

	assert.Equal(t, 0, q.PixelToQuarter(-100))
	assert.Equal(t, 0, q.PixelToQuarter(8.9))
	assert.Equal(t, 1, q.PixelToQuarter(9))
	assert.Equal(t, 40, q.PixelToQuarter(720))
	assert.Equal(t, 95, q.PixelToQuarter(1728))
	assert.Equal(t, 95, q.PixelToQuarter(1e300))
}

func TestPixelToQuarter_RoundTripWithinOneQuarter(t *testing.T) {
	for _, pph := range []float64{72, 48, 100} {
		q := NewQuantizer(pph)
		for px := 0.0; px <= q.TrackWidth(); px += 0.5 {
			back := q.QuarterToPixel(q.PixelToQuarter(px))
			assert.LessOrEqual(t, math.Abs(back-px), q.PixelsPerQuarter(), "pph=%v px=%v", pph, px)
		}
	}
}

func TestDurationQuarters_MinimumOne(t *testing.T) {
	q := NewQuantizer(72)
	assert.Equal(t, 1, q.DurationQuarters(0))
	assert.Equal(t, 1, q.DurationQuarters(-50))
	assert.Equal(t, 1, q.DurationQuarters(8))
	assert.Equal(t, 4, q.DurationQuarters(72))
	assert.Equal(t, 5, q.DurationQuarters(81))
}

func TestFit_ShiftsBlocksBackIntoTheDay(t *testing.T) {
	tests := []struct {
		name          string
		start, dur    int
		expectedStart int
		expectedDur   int
	}{
		{"inside", 10, 4, 10, 4},
		{"touching end", 92, 4, 92, 4},
		{"overflowing", 94, 4, 92, 4},
		{"last quarter", 95, 1, 95, 1},
		{"start at 96", 96, 1, 95, 1},
		{"full day", 3, 96, 0, 96},
		{"longer than a day", 0, 120, 0, 96},
		{"negative start", -3, 4, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span := Fit(tt.start, tt.dur)
			assert.Equal(t, tt.expectedStart, span.Start)
			assert.Equal(t, tt.expectedDur, span.Duration)
			assert.LessOrEqual(t, span.End(), QuartersPerDay)
		})
	}
}

func TestFit_OverflowLandsExactlyOnMidnight(t *testing.T) {
	for start := 0; start < QuartersPerDay+4; start++ {
		for dur := 1; dur <= QuartersPerDay; dur++ {
			span := Fit(start, dur)
			if start+dur > QuartersPerDay {
				require.Equal(t, QuartersPerDay, span.End(), "start=%d dur=%d", start, dur)
			}
		}
	}
}

func TestSpanFromGeometry(t *testing.T) {
	q := NewQuantizer(72)

	assert.Equal(t, QuarterSpan{Start: 32, Duration: 16}, q.SpanFromGeometry(576, 288))
	assert.Equal(t, QuarterSpan{Start: 94, Duration: 2}, q.SpanFromGeometry(1700, 100))
	// width is clamped to the track remainder, then start shifted back
	assert.Equal(t, QuarterSpan{Start: 95, Duration: 1}, q.SpanFromGeometry(1720, 72))
	assert.Equal(t, QuarterSpan{Start: 95, Duration: 1}, q.SpanFromGeometry(1728, 50))
	assert.Equal(t, QuarterSpan{Start: 0, Duration: 2}, q.SpanFromGeometry(-40, 36))
	assert.Equal(t, QuarterSpan{Start: 0, Duration: 1}, q.SpanFromGeometry(0, -10))
}

func TestSelectSpan(t *testing.T) {
	q := NewQuantizer(72)

	assert.Equal(t, QuarterSpan{Start: 2, Duration: 4}, q.SelectSpan(100, 40))
	assert.Equal(t, QuarterSpan{Start: 3, Duration: 1}, q.SelectSpan(50, 52))
	assert.Equal(t, QuarterSpan{Start: 95, Duration: 1}, q.SelectSpan(1728, 1728))
	assert.Equal(t, QuarterSpan{Start: 0, Duration: 96}, q.SelectSpan(-50, 9000))
}

func TestDoubleClickSpan(t *testing.T) {
	q := NewQuantizer(72)
	assert.Equal(t, QuarterSpan{Start: 40, Duration: 4}, q.DoubleClickSpan(40*18))
	assert.Equal(t, QuarterSpan{Start: 92, Duration: 4}, q.DoubleClickSpan(95*18))
	assert.Equal(t, QuarterSpan{Start: 0, Duration: 4}, q.DoubleClickSpan(-30))
}

func TestClockHelpers(t *testing.T) {
	assert.Equal(t, "00:00", QuarterClock(0))
	assert.Equal(t, "10:00", QuarterClock(40))
	assert.Equal(t, "10:15", QuarterClock(41))
	assert.Equal(t, "24:00", QuarterClock(96))
	assert.Equal(t, "23:59", RuleClock(96))
	assert.Equal(t, "10:15", RuleClock(41))

	mins, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 510, mins)

	for _, bad := range []string{"8:30", "24:00", "12:60", "ab:cd", "", "12:00:00"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestAtMinutes(t *testing.T) {
	day, err := entities.ParseDay("2025-08-31")
	require.NoError(t, err)

	assert.Equal(t, "2025-08-31T10:00:00", AtMinutes(day, 600).String())
	assert.Equal(t, "2025-09-01T00:00:00", AtMinutes(day, MinutesPerDay).String())
	assert.Equal(t, "2025-08-31T00:00:00", AtMinutes(entities.NewLocalTime(2025, 8, 31, 17, 45, 0), 0).String())
}

package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeSpan(t *testing.T) {
	start := NewDate(2021, time.March, 10)
	midnight := time.Date(2021, time.March, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		days     int64
		wantLow  time.Time
		wantHigh time.Time
	}{
		{"one day forward", 1, midnight, midnight.Add(24 * time.Hour)},
		{"one day back", -1, midnight.Add(-24 * time.Hour), midnight},
		{"week back", -7, midnight.Add(-7 * 24 * time.Hour), midnight},
		{"zero days", 0, midnight, midnight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span := NewTimeSpan(start, tt.days)
			assert.Equal(t, tt.wantLow, span.Low)
			assert.Equal(t, tt.wantHigh, span.High)
			assert.False(t, span.High.Before(span.Low))
		})
	}
}

func TestNewTimeSpan_LargeDayCounts(t *testing.T) {
	start := NewDate(2021, time.January, 1)
	midnight := start.UTC()

	for _, days := range []int64{106752, 110000, 200000, MaxSpanDays} {
		forward := NewTimeSpan(start, days)
		back := NewTimeSpan(start, -days)

		assert.Equal(t, midnight, forward.Low)
		assert.True(t, forward.High.After(midnight))
		assert.Equal(t, midnight, back.High)
		assert.True(t, back.Low.Before(midnight))
		assert.Equal(t, midnight, forward.High.AddDate(0, 0, -int(days)))
		assert.Equal(t, midnight, back.Low.AddDate(0, 0, int(days)))
	}

	assert.Equal(t, time.Date(2322, time.March, 5, 0, 0, 0, 0, time.UTC), NewTimeSpan(start, 110000).High)
}

func TestValidateDays(t *testing.T) {
	for _, days := range []int64{0, 1, -1, MaxSpanDays, -MaxSpanDays} {
		assert.NoError(t, ValidateDays(days))
	}
	for _, days := range []int64{MaxSpanDays + 1, -MaxSpanDays - 1, 1 << 62} {
		assert.ErrorIs(t, ValidateDays(days), ErrInvalidDays)
	}
}

func TestNewTimeSpan_MirrorsAroundStart(t *testing.T) {
	start := NewDate(2022, time.December, 31)
	for _, days := range []int64{1, 2, 30, 365} {
		forward := NewTimeSpan(start, days)
		backward := NewTimeSpan(start, -days)

		assert.Equal(t, start.UTC(), forward.Low)
		assert.Equal(t, start.UTC(), backward.High)
		assert.Equal(t, forward.High.Sub(forward.Low), backward.High.Sub(backward.Low))
	}
}

func TestTimeSpanForRange_OrderIndependent(t *testing.T) {
	a := NewDate(2021, time.January, 1)
	b := time.Date(2020, time.June, 15, 12, 30, 0, 0, time.UTC)

	assert.Equal(t, TimeSpanForRange(a, b), TimeSpanForRange(b, a))
	span := TimeSpanForRange(a, b)
	assert.Equal(t, b, span.Low)
	assert.Equal(t, a.UTC(), span.High)
}

func TestTimeSpanForRange_ConvertsToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2021, time.May, 1, 2, 0, 0, 0, zone)

	span := TimeSpanForRange(local, local)
	assert.Equal(t, time.UTC, span.Low.Location())
	assert.Equal(t, time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC), span.Low)
}

func TestBlockSpan_IsEmpty(t *testing.T) {
	assert.False(t, BlockSpan{Low: 1, High: 1}.IsEmpty())
	assert.False(t, BlockSpan{Low: 1, High: 9}.IsEmpty())
	assert.True(t, BlockSpan{Low: 10, High: 9}.IsEmpty())
}

func TestSpanReport_JSON(t *testing.T) {
	report := SpanReport{
		BlockSpan: BlockSpan{Low: 5, High: 10},
		TimeSpan:  NewTimeSpan(NewDate(2021, time.January, 1), 1),
	}

	out, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"blockspan": {"low": 5, "high": 10},
		"timespan": {"low": "2021-01-01T00:00:00Z", "high": "2021-01-02T00:00:00Z"}
	}`, string(out))
}

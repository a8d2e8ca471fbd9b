package domain

import (
	"errors"
	"fmt"
	"time"
)

// MaxSpanDays bounds day counts accepted from callers, keeping every span
// well inside the representable time range.
const MaxSpanDays = 1_000_000

var ErrInvalidDays = errors.New("invalid day count")

// ValidateDays rejects day counts beyond MaxSpanDays in either direction.
func ValidateDays(days int64) error {
	if days > MaxSpanDays || days < -MaxSpanDays {
		return fmt.Errorf("%w %d: must be within ±%d", ErrInvalidDays, days, MaxSpanDays)
	}
	return nil
}

// TimeSpan is an ordered pair of instants. Low is never after High.
type TimeSpan struct {
	Low  time.Time `json:"low"`
	High time.Time `json:"high"`
}

// NewTimeSpan builds the span between start and start+days. A negative
// day count produces a span ending at start.
func NewTimeSpan(start DateLike, days int64) TimeSpan {
	from := start.UTC()
	to := from.AddDate(0, 0, int(days))
	return TimeSpanForRange(from, to)
}

// TimeSpanForRange orders two endpoints into a span.
func TimeSpanForRange(a, b DateLike) TimeSpan {
	x, y := a.UTC(), b.UTC()
	if y.Before(x) {
		x, y = y, x
	}
	return TimeSpan{Low: x, High: y}
}

// TodaySpan covers the current UTC day.
func TodaySpan() TimeSpan {
	return NewTimeSpan(Today(), 1)
}

// BlockSpan is the block height range bracketing a TimeSpan. Low may exceed
// High when no block was produced inside the span.
type BlockSpan struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// IsEmpty reports whether the range contains no heights.
func (b BlockSpan) IsEmpty() bool {
	return b.Low > b.High
}

// SpanReport pairs a resolved block range with the time span it came from.
type SpanReport struct {
	BlockSpan BlockSpan `json:"blockspan"`
	TimeSpan  TimeSpan  `json:"timespan"`
}

package domain

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// DateLike is anything that can be pinned to an instant in UTC.
// time.Time satisfies it directly.
type DateLike interface {
	UTC() time.Time
}

// Date is a calendar day without a zone. It converts to midnight UTC.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Epoch is the first day of the Unix epoch, used as the open start of
// "everything up to" reports.
var Epoch = Date{Year: 1970, Month: time.January, Day: 1}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the UTC calendar day containing t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current UTC date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// ParseDates parses every value, failing on the first malformed one.
func ParseDates(values []string) ([]Date, error) {
	dates := make([]Date, 0, len(values))
	for _, v := range values {
		d, err := ParseDate(v)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (d Date) UTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(days int) Date {
	return DateOf(d.UTC().AddDate(0, 0, days))
}

func (d Date) String() string {
	return d.UTC().Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalCSV renders the date in CSV output.
func (d Date) MarshalCSV() (string, error) {
	return d.String(), nil
}

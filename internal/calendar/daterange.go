// Package calendar holds the date arithmetic of the absence domain: calendar
// dates, inclusive date ranges and ISO-8601 weeks. Everything here is pure.
package calendar

import (
	"fmt"
	"time"

	"absence-assistant/internal/apperr"
)

// DateLayout is the wire format of every calendar date (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// DefaultMaxSpanDays bounds the cost of a range query.
const DefaultMaxSpanDays = 365

// Day truncates t to its calendar date, expressed at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, apperr.Validation(field, "date is required")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation(field, "invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateRange is an inclusive [Start, End] interval of calendar dates.
// The zero value is not a valid range; use NewDateRange.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange builds a range, failing when start is after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return DateRange{}, apperr.Validation("range",
			"start %s is after end %s", FormatDate(start), FormatDate(end))
	}
	return DateRange{start: start, end: end}, nil
}

// SingleDay is the one-day range [d, d].
func SingleDay(d time.Time) DateRange {
	d = Day(d)
	return DateRange{start: d, end: d}
}

// ParseDateRange parses two YYYY-MM-DD strings into a range.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate("start_date", start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate("end_date", end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

func (r DateRange) Start() time.Time { return r.start }
func (r DateRange) End() time.Time   { return r.end }

// Days is the number of calendar days covered, bounds included.
func (r DateRange) Days() int {
	return r.SpanDays() + 1
}

// SpanDays is end - start in days.
func (r DateRange) SpanDays() int {
	return int(r.end.Sub(r.start).Hours() / 24)
}

// Contains reports whether the calendar date of t lies in the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.start) && !d.After(r.end)
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", FormatDate(r.start), FormatDate(r.end))
}

// Policy is the optional validation applied on top of start <= end.
type Policy struct {
	// AllowFuture lets either bound lie after today.
	AllowFuture bool
	// MaxSpanDays caps end - start. Zero or less disables the cap.
	MaxSpanDays int
}

// Validate checks r against p, with today taken from the caller's clock.
func (r DateRange) Validate(today time.Time, p Policy) error {
	today = Day(today)
	if !p.AllowFuture {
		if r.start.After(today) {
			return apperr.Validation("start_date", "%s is in the future", FormatDate(r.start))
		}
		if r.end.After(today) {
			return apperr.Validation("end_date", "%s is in the future", FormatDate(r.end))
		}
	}
	if p.MaxSpanDays > 0 && r.SpanDays() > p.MaxSpanDays {
		return apperr.Validation("range", "%s spans %d days, limit is %d", r, r.SpanDays(), p.MaxSpanDays)
	}
	return nil
}

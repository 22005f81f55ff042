package calendar

import (
	"time"

	"absence-assistant/internal/apperr"
)

// WeeksInYear returns 52 or 53, the number of ISO weeks in year.
// December 28th always falls in the last ISO week of its year.
func WeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// ResolveISOWeek returns the Monday..Sunday range of ISO week weekNo of year.
// Week 1 is the week holding the year's first Thursday, equivalently the week
// holding January 4th. Week 53 is rejected for 52-week years.
func ResolveISOWeek(year, weekNo int) (DateRange, error) {
	if year < 1 || year > 9999 {
		return DateRange{}, apperr.Validation("year", "year %d is out of range", year)
	}
	if weekNo < 1 || weekNo > 53 {
		return DateRange{}, apperr.Validation("week_no", "week %d is outside [1, 53]", weekNo)
	}
	if weekNo == 53 && WeeksInYear(year) == 52 {
		return DateRange{}, apperr.Validation("week_no", "%d has only 52 ISO weeks", year)
	}

	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	// days since Monday, with Monday = 0 and Sunday = 6
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+7*(weekNo-1))

	return DateRange{start: monday, end: monday.AddDate(0, 0, 6)}, nil
}

// ISOWeekOf returns the ISO (year, week) holding t.
func ISOWeekOf(t time.Time) (int, int) {
	return Day(t).ISOWeek()
}

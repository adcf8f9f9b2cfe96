package models

import "time"

// Period selects the recency window of a trend
type Period string

const (
	PeriodOneMonth    Period = "1m"
	PeriodSixMonths   Period = "6m"
	PeriodTwelveMonth Period = "12m"
	PeriodAll         Period = "all"
)

// ParsePeriod maps a query value to a Period; unknown values mean all
func ParsePeriod(raw string) Period {
	switch Period(raw) {
	case PeriodOneMonth, PeriodSixMonths, PeriodTwelveMonth:
		return Period(raw)
	default:
		return PeriodAll
	}
}

// Months returns the window length in calendar months, 0 for all
func (p Period) Months() int {
	switch p {
	case PeriodOneMonth:
		return 1
	case PeriodSixMonths:
		return 6
	case PeriodTwelveMonth:
		return 12
	default:
		return 0
	}
}

// Cutoff returns the earliest creation time inside the window ending at now.
// The day is clamped to the end of the target month, so one month before
// March 31 is the last day of February. ok is false when the period applies
// no date filter.
func (p Period) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	months := p.Months()
	if months == 0 {
		return time.Time{}, false
	}
	return SubtractMonths(now, months), true
}

// SubtractMonths moves t back by n calendar months, keeping the time of day
func SubtractMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// CalendarDate formats t as a UTC calendar day
func CalendarDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

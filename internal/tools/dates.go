package tools

import (
	"strings"
	"time"
)

// dateRange turns a natural-language date expression into a UTC
// [from, to] window. Supported forms: "" or "today", "tomorrow",
// "weekend"/"this weekend", "this month", "end of month", a weekday
// name, and YYYY-MM-DD.
func dateRange(now time.Time, expr string) (time.Time, time.Time, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	day := func(d time.Time) (time.Time, time.Time) {
		return d, d.Add(24*time.Hour - time.Second)
	}

	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "", "today":
		from, to := day(today)
		return from, to, nil

	case "tomorrow":
		from, to := day(today.AddDate(0, 0, 1))
		return from, to, nil

	case "weekend", "this weekend":
		// Saturday through Sunday; mid-weekend "now" keeps the rest of it.
		sat := nextWeekday(today, time.Saturday)
		if today.Weekday() == time.Sunday {
			sat = today.AddDate(0, 0, -1)
		}
		from := sat
		if from.Before(today) {
			from = today
		}
		_, to := day(sat.AddDate(0, 0, 1))
		return from, to, nil

	case "this month":
		monthEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 1, 0).Add(-time.Second)
		return today, monthEnd, nil

	case "end of month":
		// The closing week of the month, clamped to today.
		monthEnd := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 1, 0).Add(-time.Second)
		from := time.Date(monthEnd.Year(), monthEnd.Month(), monthEnd.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, -6)
		if from.Before(today) {
			from = today
		}
		return from, monthEnd, nil
	}

	if wd, ok := weekdayByName(expr); ok {
		from, to := day(nextWeekday(today, wd))
		return from, to, nil
	}

	d, err := time.Parse("2006-01-02", strings.TrimSpace(expr))
	if err != nil {
		return time.Time{}, time.Time{}, Errf(CodeInvalidArguments,
			"unrecognized date %q: use today, tomorrow, weekend, this month, end of month, a weekday, or YYYY-MM-DD", expr)
	}
	from, to := day(d)
	return from, to, nil
}

// nextWeekday returns the next occurrence of wd on or after today.
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	diff := (int(wd) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, diff)
}

func weekdayByName(s string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday":
		return time.Sunday, true
	case "monday":
		return time.Monday, true
	case "tuesday":
		return time.Tuesday, true
	case "wednesday":
		return time.Wednesday, true
	case "thursday":
		return time.Thursday, true
	case "friday":
		return time.Friday, true
	case "saturday":
		return time.Saturday, true
	}
	return 0, false
}

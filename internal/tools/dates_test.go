package tools

import (
	"errors"
	"testing"
	"time"
)

func TestDateRange(t *testing.T) {
	// A Wednesday, mid-day.
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	day := func(y int, m time.Month, d int) (time.Time, time.Time) {
		from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return from, from.Add(24*time.Hour - time.Second)
	}

	tests := []struct {
		expr     string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{expr: ""},
		{expr: "today"},
		{expr: "Today"},
		{expr: "tomorrow"},
		{expr: "weekend"},
		{expr: "this weekend"},
		{expr: "this month"},
		{expr: "end of month"},
		{expr: "saturday"},
		{expr: "Friday"},
		{expr: "2026-09-01"},
	}
	tests[0].wantFrom, tests[0].wantTo = day(2026, 8, 26)
	tests[1].wantFrom, tests[1].wantTo = day(2026, 8, 26)
	tests[2].wantFrom, tests[2].wantTo = day(2026, 8, 26)
	tests[3].wantFrom, tests[3].wantTo = day(2026, 8, 27)
	tests[4].wantFrom, _ = day(2026, 8, 29)
	_, tests[4].wantTo = day(2026, 8, 30)
	tests[5].wantFrom, tests[5].wantTo = tests[4].wantFrom, tests[4].wantTo
	tests[6].wantFrom, _ = day(2026, 8, 26)
	_, tests[6].wantTo = day(2026, 8, 31)
	// The closing week starts Aug 25 but today clamps it forward.
	tests[7].wantFrom, _ = day(2026, 8, 26)
	_, tests[7].wantTo = day(2026, 8, 31)
	tests[8].wantFrom, tests[8].wantTo = day(2026, 8, 29)
	tests[9].wantFrom, tests[9].wantTo = day(2026, 8, 28)
	tests[10].wantFrom, tests[10].wantTo = day(2026, 9, 1)

	for _, tt := range tests {
		from, to, err := dateRange(now, tt.expr)
		if err != nil {
			t.Errorf("dateRange(%q) failed: %v", tt.expr, err)
			continue
		}
		if !from.Equal(tt.wantFrom) || !to.Equal(tt.wantTo) {
			t.Errorf("dateRange(%q) = [%v, %v], want [%v, %v]",
				tt.expr, from, to, tt.wantFrom, tt.wantTo)
		}
	}
}

func TestDateRangeMidWeekend(t *testing.T) {
	// On Sunday the weekend window starts today, not yesterday.
	sunday := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	from, to, err := dateRange(sunday, "weekend")
	if err != nil {
		t.Fatalf("dateRange failed: %v", err)
	}
	wantFrom := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)
	if !from.Equal(wantFrom) || !to.Equal(wantTo) {
		t.Errorf("weekend on Sunday = [%v, %v], want [%v, %v]", from, to, wantFrom, wantTo)
	}
}

func TestDateRangeSameWeekday(t *testing.T) {
	// Asking for the current weekday means today.
	wednesday := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	from, _, err := dateRange(wednesday, "wednesday")
	if err != nil {
		t.Fatalf("dateRange failed: %v", err)
	}
	if want := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("wednesday from = %v, want %v", from, want)
	}
}

func TestDateRangeInvalid(t *testing.T) {
	for _, expr := range []string{"someday", "next year", "26/08/2026"} {
		_, _, err := dateRange(time.Now(), expr)
		if err == nil {
			t.Errorf("dateRange(%q) should fail", expr)
			continue
		}
		var te *ToolError
		if !errors.As(err, &te) || te.Code != CodeInvalidArguments {
			t.Errorf("dateRange(%q) error = %v, want invalid_arguments", expr, err)
		}
	}
}

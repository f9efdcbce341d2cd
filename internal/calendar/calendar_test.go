package calendar

import (
	"testing"
	"time"
)

// A Wednesday.
var wednesday = time.Date(2026, time.September, 2, 14, 30, 0, 0, time.UTC)

func TestPeriodRange(t *testing.T) {
	cases := []struct {
		period    string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"today",
			time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)},
		{"tomorrow",
			time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)},
		{"this week", // Monday Aug 31 through Monday Sep 7
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)},
		{"next week",
			time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)},
		{"this month",
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"next 7 days",
			time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)},
		{"whenever", // unrecognized falls back to next 7 days
			time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.period, func(t *testing.T) {
			start, end := periodRange(tc.period, wednesday)
			if !start.Equal(tc.wantStart) || !end.Equal(tc.wantEnd) {
				t.Errorf("periodRange(%q) = [%v, %v), want [%v, %v)",
					tc.period, start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestParseISO(t *testing.T) {
	got, err := parseISO("2026-09-01T10:00:00Z")
	if err != nil {
		t.Fatalf("RFC3339: %v", err)
	}
	if !got.Equal(time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", got)
	}

	// Zone-less timestamps read as local time.
	local, err := parseISO("2026-09-01T10:00:00")
	if err != nil {
		t.Fatalf("zone-less: %v", err)
	}
	if local.Hour() != 10 {
		t.Errorf("hour = %d, want 10", local.Hour())
	}

	if _, err := parseISO("tomorrow at ten"); err == nil {
		t.Error("prose must not parse")
	}
}

func TestDescribePeriod(t *testing.T) {
	cases := map[string]string{
		"":            "over the next 7 days",
		"next 7 days": "over the next 7 days",
		"today":       "today",
		"tomorrow":    "tomorrow",
		"this week":   "for this week",
	}
	for in, want := range cases {
		if got := describePeriod(in); got != want {
			t.Errorf("describePeriod(%q) = %q, want %q", in, got, want)
		}
	}
}

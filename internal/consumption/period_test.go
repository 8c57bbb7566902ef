package consumption

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodFor_Ranges(t *testing.T) {
	// 2026-08-28 is a Friday.
	now := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)

	cases := []struct {
		kind  PeriodKind
		start time.Time
	}{
		{PeriodDaily, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)},
		{PeriodWeekly, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
		{PeriodMonthly, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		{PeriodAnnual, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		period, err := periodFor(tc.kind, now)
		if err != nil {
			t.Fatalf("periodFor(%s) returned error: %v", tc.kind, err)
		}
		if !period.Start.Equal(tc.start) {
			t.Errorf("%s: expected start %v, got %v", tc.kind, tc.start, period.Start)
		}
		if !period.End.Equal(now) {
			t.Errorf("%s: expected end %v, got %v", tc.kind, now, period.End)
		}
	}
}

func TestPeriodFor_MondayIsItsOwnWeekStart(t *testing.T) {
	// 2026-08-24 is a Monday.
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	period, err := periodFor(PeriodWeekly, now)
	if err != nil {
		t.Fatalf("periodFor returned error: %v", err)
	}

	expected := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !period.Start.Equal(expected) {
		t.Errorf("Expected start %v, got %v", expected, period.Start)
	}
}

func TestPeriodFor_UnknownKind(t *testing.T) {
	_, err := periodFor(PeriodKind("quarterly"), time.Now())
	if !errors.Is(err, ErrUnknownPeriod) {
		t.Errorf("Expected ErrUnknownPeriod, got %v", err)
	}
}

func TestParsePeriodKind(t *testing.T) {
	kind, err := ParsePeriodKind(" MONTHLY ")
	if err != nil {
		t.Fatalf("Expected monthly to parse, got error: %v", err)
	}
	if kind != PeriodMonthly {
		t.Errorf("Expected %s, got %s", PeriodMonthly, kind)
	}

	if _, err := ParsePeriodKind("fortnight"); !errors.Is(err, ErrUnknownPeriod) {
		t.Errorf("Expected ErrUnknownPeriod, got %v", err)
	}
}

func TestConsumptionOf(t *testing.T) {
	if got := consumptionOf(nil); got != 0 {
		t.Errorf("Expected 0 for no readings, got %d", got)
	}
	if got := consumptionOf([]int64{100}); got != 0 {
		t.Errorf("Expected 0 for a single reading, got %d", got)
	}
	if got := consumptionOf([]int64{100, 150, 170}); got != 70 {
		t.Errorf("Expected 70, got %d", got)
	}
}

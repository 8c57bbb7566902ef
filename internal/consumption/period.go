package consumption

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PeriodKind selects one of the supported calculation windows.
type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
	PeriodAnnual  PeriodKind = "annual"
)

// ErrUnknownPeriod is returned for a period kind outside the supported set.
var ErrUnknownPeriod = errors.New("unknown consumption period")

// Period is a computed calculation window. Never cached; always derived
// fresh relative to the query time.
type Period struct {
	Kind  PeriodKind
	Start time.Time
	End   time.Time
	Label string
}

// SupportedPeriods lists every period kind in presentation order.
func SupportedPeriods() []PeriodKind {
	return []PeriodKind{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAnnual}
}

// ParsePeriodKind converts user input into a PeriodKind.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch PeriodKind(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	case PeriodAnnual:
		return PeriodAnnual, nil
	}
	return "", fmt.Errorf("%w: %q (supported: daily, weekly, monthly, annual)", ErrUnknownPeriod, s)
}

// periodFor computes the window for a kind relative to now. The window
// always ends at now; the start depends on the kind: start of today, the
// most recent Monday, the first of the month, or January 1st.
func periodFor(kind PeriodKind, now time.Time) (Period, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch kind {
	case PeriodDaily:
		return Period{Kind: kind, Start: startOfDay, End: now, Label: "Daily"}, nil
	case PeriodWeekly:
		monday := startOfDay
		for monday.Weekday() != time.Monday {
			monday = monday.AddDate(0, 0, -1)
		}
		return Period{Kind: kind, Start: monday, End: now, Label: "Weekly"}, nil
	case PeriodMonthly:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Period{Kind: kind, Start: firstOfMonth, End: now, Label: "Monthly"}, nil
	case PeriodAnnual:
		firstOfYear := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return Period{Kind: kind, Start: firstOfYear, End: now, Label: "Annual"}, nil
	}
	return Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, kind)
}

// consumptionOf is last value minus first value, or 0 with fewer than two
// readings in range.
func consumptionOf(values []int64) int64 {
	if len(values) < 2 {
		return 0
	}
	return values[len(values)-1] - values[0]
}

package reports

import (
	"strings"
	"time"
)

type PeriodWindow string

const (
	PeriodAll        PeriodWindow = "ALL"
	PeriodToday      PeriodWindow = "TODAY"
	PeriodLast7Days  PeriodWindow = "LAST_7_DAYS"
	PeriodLast30Days PeriodWindow = "LAST_30_DAYS"
	PeriodThisMonth  PeriodWindow = "THIS_MONTH"
	PeriodLastMonth  PeriodWindow = "LAST_MONTH"
	PeriodCustom     PeriodWindow = "CUSTOM"
)

// Period is the one date-window predicate shared by every aggregate and
// list filter. Charts must not grow their own copies of this logic.
type Period struct {
	Window PeriodWindow `json:"window"`
	Start  *time.Time   `json:"start,omitempty"`
	End    *time.Time   `json:"end,omitempty"`
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ContainsAt reports whether a date falls inside the window, evaluated
// against the given "now". Day boundaries follow now's location.
func (p Period) ContainsAt(t time.Time, now time.Time) bool {
	switch p.Window {
	case PeriodToday:
		day := startOfDay(now)
		return !t.Before(day) && t.Before(day.AddDate(0, 0, 1))
	case PeriodLast7Days:
		// rolling window ending at the current moment, inclusive
		return !t.Before(now.AddDate(0, 0, -7)) && !t.After(now)
	case PeriodLast30Days:
		return !t.Before(now.AddDate(0, 0, -30)) && !t.After(now)
	case PeriodThisMonth:
		month := startOfMonth(now)
		return !t.Before(month) && t.Before(month.AddDate(0, 1, 0))
	case PeriodLastMonth:
		month := startOfMonth(now)
		return !t.Before(month.AddDate(0, -1, 0)) && t.Before(month)
	case PeriodCustom:
		// a half-specified custom range passes everything: fail open
		if p.Start == nil || p.End == nil {
			return true
		}
		from := startOfDay(*p.Start)
		// the end day counts in full, through its last instant
		until := startOfDay(*p.End).AddDate(0, 0, 1)
		return !t.Before(from) && t.Before(until)
	}
	return true
}

func (p Period) Contains(t time.Time) bool {
	return p.ContainsAt(t, time.Now())
}

// PeriodFromQuery builds a Period from query-string parameters. Unknown
// window names degrade to ALL; bad custom bounds are dropped, which makes
// the custom window fail open.
func PeriodFromQuery(window string, start string, end string) Period {
	p := Period{Window: PeriodWindow(strings.ToUpper(strings.TrimSpace(window)))}
	switch p.Window {
	case PeriodToday, PeriodLast7Days, PeriodLast30Days, PeriodThisMonth, PeriodLastMonth, PeriodCustom:
	default:
		p.Window = PeriodAll
	}
	if p.Window == PeriodCustom {
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(start)); err == nil {
			p.Start = &t
		}
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(end)); err == nil {
			p.End = &t
		}
	}
	return p
}

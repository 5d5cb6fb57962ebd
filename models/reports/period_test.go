package reports

import (
	"testing"
	"time"
)

// Periods are evaluated against a fixed "now" so these stay deterministic.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodAll(t *testing.T) {
	p := Period{Window: PeriodAll}
	if !p.ContainsAt(day(1990, 1, 1), testNow) {
		t.Error("ALL must contain everything")
	}
}

func TestPeriodToday(t *testing.T) {
	p := Period{Window: PeriodToday}
	if !p.ContainsAt(day(2025, 6, 15), testNow) {
		t.Error("midnight of today must be inside TODAY")
	}
	if !p.ContainsAt(testNow.Add(11*time.Hour), testNow) {
		t.Error("late evening of today must be inside TODAY")
	}
	if p.ContainsAt(day(2025, 6, 14), testNow) {
		t.Error("yesterday must be outside TODAY")
	}
	if p.ContainsAt(day(2025, 6, 16), testNow) {
		t.Error("tomorrow must be outside TODAY")
	}
}

func TestPeriodRollingWindows(t *testing.T) {
	last7 := Period{Window: PeriodLast7Days}
	if !last7.ContainsAt(testNow.AddDate(0, 0, -6), testNow) {
		t.Error("6 days ago must be inside LAST_7_DAYS")
	}
	if last7.ContainsAt(testNow.AddDate(0, 0, -8), testNow) {
		t.Error("8 days ago must be outside LAST_7_DAYS")
	}

	last30 := Period{Window: PeriodLast30Days}
	if !last30.ContainsAt(testNow.AddDate(0, 0, -29), testNow) {
		t.Error("29 days ago must be inside LAST_30_DAYS")
	}
	if last30.ContainsAt(testNow.AddDate(0, 0, -31), testNow) {
		t.Error("31 days ago must be outside LAST_30_DAYS")
	}
}

func TestPeriodMonths(t *testing.T) {
	thisMonth := Period{Window: PeriodThisMonth}
	if !thisMonth.ContainsAt(day(2025, 6, 1), testNow) {
		t.Error("day 1 must be inside THIS_MONTH")
	}
	if thisMonth.ContainsAt(day(2025, 5, 31), testNow) {
		t.Error("previous month must be outside THIS_MONTH")
	}

	lastMonth := Period{Window: PeriodLastMonth}
	if !lastMonth.ContainsAt(day(2025, 5, 1), testNow) {
		t.Error("first day of May must be inside LAST_MONTH")
	}
	if !lastMonth.ContainsAt(day(2025, 5, 31).Add(23*time.Hour+59*time.Minute), testNow) {
		t.Error("last instant of May must be inside LAST_MONTH")
	}
	if lastMonth.ContainsAt(day(2025, 6, 1), testNow) {
		t.Error("June must be outside LAST_MONTH")
	}
}

func TestPeriodCustomInclusiveEnds(t *testing.T) {
	start := day(2025, 3, 10)
	end := day(2025, 3, 20)
	p := Period{Window: PeriodCustom, Start: &start, End: &end}

	if !p.ContainsAt(day(2025, 3, 10), testNow) {
		t.Error("start day must be inside CUSTOM")
	}
	if !p.ContainsAt(day(2025, 3, 20).Add(18*time.Hour), testNow) {
		t.Error("the end day counts in full")
	}
	if p.ContainsAt(day(2025, 3, 21), testNow) {
		t.Error("day after end must be outside CUSTOM")
	}
	if p.ContainsAt(day(2025, 3, 9), testNow) {
		t.Error("day before start must be outside CUSTOM")
	}
}

func TestPeriodCustomFailsOpen(t *testing.T) {
	start := day(2025, 3, 10)
	for _, p := range []Period{
		{Window: PeriodCustom},
		{Window: PeriodCustom, Start: &start},
		{Window: PeriodCustom, End: &start},
	} {
		if !p.ContainsAt(day(1999, 1, 1), testNow) {
			t.Errorf("half-specified custom window %+v must pass everything", p)
		}
	}
}

func TestPeriodFromQuery(t *testing.T) {
	p := PeriodFromQuery("last_7_days", "", "")
	if p.Window != PeriodLast7Days {
		t.Errorf("window = %s, want LAST_7_DAYS", p.Window)
	}

	p = PeriodFromQuery("bogus", "", "")
	if p.Window != PeriodAll {
		t.Errorf("unknown window = %s, want ALL fallback", p.Window)
	}

	p = PeriodFromQuery("custom", "2025-01-05", "not-a-date")
	if p.Window != PeriodCustom || p.Start == nil || p.End != nil {
		t.Errorf("custom with bad end = %+v, want start set and end dropped", p)
	}
	if !p.ContainsAt(day(1970, 1, 1), testNow) {
		t.Error("custom with a dropped bound must fail open")
	}
}

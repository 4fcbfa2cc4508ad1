package uptime

import (
	"testing"
	"time"
	_ "time/tzdata"

	"StoreMonitor/internal/domain/models"
)

func clock(t *testing.T, s string) models.ClockTime {
	t.Helper()
	c, err := models.ParseClockTime(s)
	if err != nil {
		t.Fatalf("parse clock %q: %v", s, err)
	}
	return c
}

func rule(t *testing.T, dow int, start, end string) models.BusinessHourRule {
	return models.BusinessHourRule{StoreID: "s", DayOfWeek: dow, Start: clock(t, start), End: clock(t, end)}
}

func utc(s string) time.Time {
	ts, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return ts
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return loc
}

// 2024-01-08 is a Monday.

func TestOpenIntervalsWeekdayRules(t *testing.T) {
	var rules []models.BusinessHourRule
	for d := 0; d < 5; d++ {
		rules = append(rules, rule(t, d, "09:00", "17:00"))
	}
	s := Schedule{Location: time.UTC, Rules: rules}

	// Sat 2024-01-13 00:00, so the trailing week holds Mon..Fri in full.
	now := utc("2024-01-13 00:00")
	iv := OpenIntervals(s, now.Add(-7*24*time.Hour), now)

	if len(iv) != 5 {
		t.Fatalf("intervals = %d, want 5: %v", len(iv), iv)
	}
	if iv.Total() != 40*time.Hour {
		t.Fatalf("total = %v, want 40h", iv.Total())
	}
	if !iv[0].Start.Equal(utc("2024-01-08 09:00")) || !iv[4].End.Equal(utc("2024-01-12 17:00")) {
		t.Fatalf("unexpected bounds: %v .. %v", iv[0], iv[4])
	}
}

func TestOpenIntervalsOvernightMergesAcrossMidnight(t *testing.T) {
	s := Schedule{Location: time.UTC, Rules: []models.BusinessHourRule{
		rule(t, 6, "22:00", "02:00"), // Sunday night into Monday
		rule(t, 0, "00:00", "01:00"), // Monday early hours, inside the overnight span
	}}

	from, to := utc("2024-01-06 12:00"), utc("2024-01-08 12:00")
	iv := OpenIntervals(s, from, to)

	if len(iv) != 1 {
		t.Fatalf("want one merged interval, got %v", iv)
	}
	want := Interval{Start: utc("2024-01-07 22:00"), End: utc("2024-01-08 02:00")}
	if !iv[0].Start.Equal(want.Start) || !iv[0].End.Equal(want.End) {
		t.Fatalf("got %v, want %v", iv[0], want)
	}
}

func TestOpenIntervalsAdjacentPiecesMerge(t *testing.T) {
	s := Schedule{Location: time.UTC, Rules: []models.BusinessHourRule{
		rule(t, 6, "22:00", "00:00"),
		rule(t, 0, "00:00", "09:00"),
	}}
	iv := OpenIntervals(s, utc("2024-01-07 00:00"), utc("2024-01-09 00:00"))
	if len(iv) != 1 || iv.Total() != 11*time.Hour {
		t.Fatalf("got %v (total %v)", iv, iv.Total())
	}
}

func TestOpenIntervalsOvernightClippedByWindowStart(t *testing.T) {
	s := Schedule{Location: time.UTC, Rules: []models.BusinessHourRule{rule(t, 6, "22:00", "02:00")}}
	// Window opens Monday 01:00: only the last hour of Sunday's rule counts.
	iv := OpenIntervals(s, utc("2024-01-08 01:00"), utc("2024-01-08 02:00"))
	if iv.Total() != time.Hour {
		t.Fatalf("total = %v, want 1h", iv.Total())
	}
}

func TestOpenIntervalsEqualClocksSpanFullDay(t *testing.T) {
	s := Schedule{Location: time.UTC, Rules: []models.BusinessHourRule{rule(t, 0, "06:00", "06:00")}}
	iv := OpenIntervals(s, utc("2024-01-08 00:00"), utc("2024-01-10 00:00"))
	if iv.Total() != 24*time.Hour {
		t.Fatalf("total = %v, want 24h", iv.Total())
	}
}

func TestOpenIntervalsAlwaysOpenEqualsWindow(t *testing.T) {
	s := Schedule{Location: mustLoad(t, "America/Chicago"), AlwaysOpen: true}
	// The day window straddles the 2024-03-10 spring-forward transition.
	now := utc("2024-03-10 18:00")
	for _, d := range []time.Duration{time.Hour, 24 * time.Hour, 7 * 24 * time.Hour} {
		iv := OpenIntervals(s, now.Add(-d), now)
		if len(iv) != 1 || iv.Total() != d {
			t.Fatalf("window %v: got %v (total %v)", d, iv, iv.Total())
		}
	}
}

func TestOpenIntervalsDSTShortDay(t *testing.T) {
	loc := mustLoad(t, "America/Chicago")
	s := Schedule{Location: loc, Rules: []models.BusinessHourRule{rule(t, 6, "00:00", "12:00")}}
	// Sunday 2024-03-10 loses the 02:00-03:00 local hour.
	iv := OpenIntervals(s, utc("2024-03-09 00:00"), utc("2024-03-12 00:00"))
	if iv.Total() != 11*time.Hour {
		t.Fatalf("total = %v, want 11h", iv.Total())
	}
	if !iv[0].Start.Equal(utc("2024-03-10 06:00")) {
		t.Fatalf("start = %v, want 06:00 UTC", iv[0].Start)
	}
}

func TestOpenIntervalsLocalZoneShiftsRule(t *testing.T) {
	loc := mustLoad(t, "Asia/Kolkata") // UTC+05:30
	s := Schedule{Location: loc, Rules: []models.BusinessHourRule{rule(t, 0, "09:00", "17:00")}}
	iv := OpenIntervals(s, utc("2024-01-08 00:00"), utc("2024-01-09 00:00"))
	if len(iv) != 1 || !iv[0].Start.Equal(utc("2024-01-08 03:30")) || !iv[0].End.Equal(utc("2024-01-08 11:30")) {
		t.Fatalf("got %v", iv)
	}
}

func TestOpenIntervalsEmptyWindow(t *testing.T) {
	s := Schedule{Location: time.UTC, AlwaysOpen: true}
	now := utc("2024-01-08 00:00")
	if iv := OpenIntervals(s, now, now); iv != nil {
		t.Fatalf("expected nil, got %v", iv)
	}
}

func TestIntervalsContainsIsHalfOpen(t *testing.T) {
	iv := Intervals{
		{Start: utc("2024-01-08 09:00"), End: utc("2024-01-08 17:00")},
		{Start: utc("2024-01-09 09:00"), End: utc("2024-01-09 17:00")},
	}
	cases := []struct {
		at   string
		want bool
	}{
		{"2024-01-08 09:00", true},
		{"2024-01-08 16:59", true},
		{"2024-01-08 17:00", false},
		{"2024-01-08 20:00", false},
		{"2024-01-09 12:00", true},
		{"2024-01-10 12:00", false},
		{"2024-01-07 12:00", false},
	}
	for _, c := range cases {
		if got := iv.Contains(utc(c.at)); got != c.want {
			t.Errorf("Contains(%s) = %v, want %v", c.at, got, c.want)
		}
	}
}

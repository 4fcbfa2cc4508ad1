package uptime

import (
	"sort"
	"time"

	"StoreMonitor/pkg/util"
)

// Interval is a half-open UTC range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Intervals is a sorted set of disjoint, non-adjacent intervals.
type Intervals []Interval

// Total sums the interval durations.
func (iv Intervals) Total() time.Duration {
	var total time.Duration
	for _, i := range iv {
		total += i.Duration()
	}
	return total
}

// Contains reports whether t falls inside one of the intervals.
func (iv Intervals) Contains(t time.Time) bool {
	k := sort.Search(len(iv), func(n int) bool { return iv[n].End.After(t) })
	return k < len(iv) && !t.Before(iv[k].Start)
}

// OpenIntervals returns the business-open time of s inside [from, to), as
// merged UTC intervals. Local instants are built per calendar date with
// time.Date, so a DST shift changes the UTC length of that day's interval.
func OpenIntervals(s Schedule, from, to time.Time) Intervals {
	if !from.Before(to) {
		return nil
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	// The previous date may still contribute through an overnight rule.
	first := util.CivilDate(from.In(loc)).AddDate(0, 0, -1)
	last := util.CivilDate(to.In(loc))

	var pieces Intervals
	add := func(start, end time.Time) {
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		if start.Before(end) {
			pieces = append(pieces, Interval{Start: start.UTC(), End: end.UTC()})
		}
	}

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if s.AlwaysOpen {
			add(localAt(d, 0, loc), localAt(d.AddDate(0, 0, 1), 0, loc))
			continue
		}
		dow := weekday(d)
		for _, r := range s.Rules {
			if r.DayOfWeek != dow {
				continue
			}
			endDate := d
			// end < start is overnight; end == start spans a full day.
			if r.End <= r.Start {
				endDate = d.AddDate(0, 0, 1)
			}
			add(localAt(d, r.Start.Duration(), loc), localAt(endDate, r.End.Duration(), loc))
		}
	}

	return merge(pieces)
}

// weekday maps a civil date to 0 = Monday .. 6 = Sunday.
func weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// localAt builds the instant at clock offset c on civil date d in loc.
func localAt(d time.Time, c time.Duration, loc *time.Location) time.Time {
	y, m, day := d.Date()
	h := c / time.Hour
	c -= h * time.Hour
	min := c / time.Minute
	c -= min * time.Minute
	sec := c / time.Second
	c -= sec * time.Second
	return time.Date(y, m, day, int(h), int(min), int(sec), int(c), loc)
}

func merge(pieces Intervals) Intervals {
	if len(pieces) == 0 {
		return nil
	}
	sort.Slice(pieces, func(i, j int) bool { return pieces[i].Start.Before(pieces[j].Start) })

	out := Intervals{pieces[0]}
	for _, p := range pieces[1:] {
		cur := &out[len(out)-1]
		if !p.Start.After(cur.End) {
			if p.End.After(cur.End) {
				cur.End = p.End
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

package repository

import "time"

// Window is one trailing lookback period of a report.
type Window string

const (
	WindowHour Window = "hour"
	WindowDay  Window = "day"
	WindowWeek Window = "week"
)

// Windows lists the report windows in artifact column order.
func Windows() []Window { return []Window{WindowHour, WindowDay, WindowWeek} }

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	switch w {
	case WindowHour:
		return time.Hour
	case WindowDay:
		return 24 * time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Unit is the reporting unit: minutes for the hour window, hours otherwise.
func (w Window) Unit() time.Duration {
	if w == WindowHour {
		return time.Minute
	}
	return time.Hour
}

// Bounds returns the half-open range [now-d, now).
func (w Window) Bounds(now time.Time) (time.Time, time.Time) {
	return now.Add(-w.Duration()), now
}

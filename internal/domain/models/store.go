package models

import (
	"fmt"
	"time"

	"StoreMonitor/pkg/util"
)

// PollStatus is the state reported by a single status poll.
type PollStatus string

const (
	StatusActive   PollStatus = "active"
	StatusInactive PollStatus = "inactive"
)

// Valid reports whether s is one of the two known poll states.
func (s PollStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Observation is one timestamped status poll for a store.
type Observation struct {
	StoreID   string     `json:"store_id"`
	Status    PollStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp_utc"`
}

// ClockTime is a local wall-clock time of day, stored as the offset from midnight.
type ClockTime time.Duration

// ParseClockTime accepts HH:MM, HH:MM:SS and HH:MM:SS.ffffff.
func ParseClockTime(s string) (ClockTime, error) {
	d, err := util.ParseClock(s)
	if err != nil {
		return 0, err
	}
	return ClockTime(d), nil
}

// Duration returns the offset from midnight.
func (c ClockTime) Duration() time.Duration { return time.Duration(c) }

func (c ClockTime) String() string {
	d := time.Duration(c)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	if d == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%06d", h, m, s, d/time.Microsecond)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// BusinessHourRule opens a store on DayOfWeek (0 = Monday) from Start to End
// local time. End before Start runs past midnight into the next day.
type BusinessHourRule struct {
	StoreID   string    `json:"store_id"`
	DayOfWeek int       `json:"day_of_week"`
	Start     ClockTime `json:"start_time_local"`
	End       ClockTime `json:"end_time_local"`
}

// Overnight reports whether the rule crosses local midnight.
func (r BusinessHourRule) Overnight() bool {
	return r.End < r.Start
}

// Validate checks the weekday range and that both clocks fall inside one day.
func (r BusinessHourRule) Validate() error {
	if r.StoreID == "" {
		return fmt.Errorf("store_id is required")
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week %d out of range [0,6]", r.DayOfWeek)
	}
	day := ClockTime(24 * time.Hour)
	if r.Start < 0 || r.Start >= day || r.End < 0 || r.End >= day {
		return fmt.Errorf("clock out of range: %s-%s", r.Start, r.End)
	}
	return nil
}

// StoreTimezone maps a store to its IANA zone name.
type StoreTimezone struct {
	StoreID  string `json:"store_id"`
	Timezone string `json:"timezone_str"`
}

// StoreProfile is everything the resolver needs about one store, as stored.
// A nil Timezone or empty Hours means the record is absent.
type StoreProfile struct {
	StoreID  string             `json:"store_id"`
	Timezone *string            `json:"timezone,omitempty"`
	Hours    []BusinessHourRule `json:"hours,omitempty"`
}

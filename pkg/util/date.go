package util

import (
    "fmt"
    "strconv"
    "strings"
    "time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0).UTC(), true
    }
    return time.Time{}, false
}

// pollLayout matches poll exports such as "2023-01-22 12:09:39.388884 UTC".
const pollLayout = "2006-01-02 15:04:05.999999999"

// ParseUTCTimestamp parses a poll timestamp. The trailing " UTC" marker is optional,
// RFC3339 and unix seconds are accepted as fallbacks. The result is always in UTC.
func ParseUTCTimestamp(s string) (time.Time, error) {
    raw := strings.TrimSpace(s)
    trimmed := strings.TrimSpace(strings.TrimSuffix(raw, "UTC"))
    if t, err := time.ParseInLocation(pollLayout, trimmed, time.UTC); err == nil {
        return t.UTC(), nil
    }
    if t, ok := ParseTime(raw); ok {
        return t.UTC(), nil
    }
    return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParseClock parses a local wall clock value (HH:MM, HH:MM:SS or HH:MM:SS.ffffff)
// and returns the offset from midnight.
func ParseClock(s string) (time.Duration, error) {
    raw := strings.TrimSpace(s)
    for _, layout := range []string{"15:04:05.999999999", "15:04"} {
        t, err := time.Parse(layout, raw)
        if err != nil {
            continue
        }
        return time.Duration(t.Hour())*time.Hour +
            time.Duration(t.Minute())*time.Minute +
            time.Duration(t.Second())*time.Second +
            time.Duration(t.Nanosecond()), nil
    }
    return 0, fmt.Errorf("invalid clock value %q", s)
}

// CivilDate truncates t to its calendar date in t's own location and returns
// that date at midnight UTC, which keeps day arithmetic free of DST shifts.
func CivilDate(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

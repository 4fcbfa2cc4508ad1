package uptime

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"StoreMonitor/internal/domain/models"
)

// DefaultTimezone applies to stores without a timezone record.
const DefaultTimezone = "America/Chicago"

var ErrInvalidTimezone = errors.New("invalid timezone")

// Schedule is a store's resolved weekly opening pattern.
type Schedule struct {
	Location *time.Location
	// AlwaysOpen is set when the store has no business-hour rules at all.
	AlwaysOpen bool
	Rules      []models.BusinessHourRule
}

// Resolver applies the timezone and business-hours defaults to stored profiles.
type Resolver struct {
	defaultLoc *time.Location
	locs       sync.Map // zone name -> *time.Location
}

// NewResolver builds a resolver; an empty name selects DefaultTimezone.
func NewResolver(defaultTZ string) (*Resolver, error) {
	if defaultTZ == "" {
		defaultTZ = DefaultTimezone
	}
	loc, err := time.LoadLocation(defaultTZ)
	if err != nil {
		return nil, fmt.Errorf("%w: default %q: %v", ErrInvalidTimezone, defaultTZ, err)
	}
	return &Resolver{defaultLoc: loc}, nil
}

// ResolveTimezone returns the store's zone, or the default when none is recorded.
// A recorded but unknown zone name is an error, not a silent default.
func (r *Resolver) ResolveTimezone(name *string) (*time.Location, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return r.defaultLoc, nil
	}
	zone := strings.TrimSpace(*name)
	if v, ok := r.locs.Load(zone); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, zone, err)
	}
	r.locs.Store(zone, loc)
	return loc, nil
}

// ResolveBusinessHours returns the rules ordered by weekday and start, or
// alwaysOpen when the store has none. No rules never means never open.
func (r *Resolver) ResolveBusinessHours(rules []models.BusinessHourRule) (ordered []models.BusinessHourRule, alwaysOpen bool) {
	if len(rules) == 0 {
		return nil, true
	}
	ordered = make([]models.BusinessHourRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DayOfWeek != ordered[j].DayOfWeek {
			return ordered[i].DayOfWeek < ordered[j].DayOfWeek
		}
		return ordered[i].Start < ordered[j].Start
	})
	return ordered, false
}

// Resolve turns a stored profile into a schedule.
func (r *Resolver) Resolve(p models.StoreProfile) (Schedule, error) {
	loc, err := r.ResolveTimezone(p.Timezone)
	if err != nil {
		return Schedule{}, err
	}
	rules, always := r.ResolveBusinessHours(p.Hours)
	return Schedule{Location: loc, AlwaysOpen: always, Rules: rules}, nil
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
)

// MemoryStoreData implements repository.StoreRepository in process memory.
// Observations are kept sorted per store so window reads are a binary search.
type MemoryStoreData struct {
	mu    sync.RWMutex
	obs   map[string][]models.Observation
	hours map[string][]models.BusinessHourRule
	tz    map[string]string
}

// NewMemoryStoreData creates an empty MemoryStoreData.
func NewMemoryStoreData() *MemoryStoreData {
	return &MemoryStoreData{
		obs:   make(map[string][]models.Observation),
		hours: make(map[string][]models.BusinessHourRule),
		tz:    make(map[string]string),
	}
}

func (m *MemoryStoreData) ListStoreIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{}, len(m.obs)+len(m.hours)+len(m.tz))
	for id := range m.obs {
		seen[id] = struct{}{}
	}
	for id := range m.hours {
		seen[id] = struct{}{}
	}
	for id := range m.tz {
		seen[id] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStoreData) LatestObservationTime(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	found := false
	for _, list := range m.obs {
		if len(list) == 0 {
			continue
		}
		if ts := list[len(list)-1].Timestamp; !found || ts.After(latest) {
			latest, found = ts, true
		}
	}
	if !found {
		return time.Time{}, repository.ErrNoObservations
	}
	return latest, nil
}

func (m *MemoryStoreData) GetProfile(_ context.Context, storeID string) (models.StoreProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := models.StoreProfile{StoreID: storeID}
	if tz, ok := m.tz[storeID]; ok {
		p.Timezone = &tz
	}
	if rules := m.hours[storeID]; len(rules) > 0 {
		p.Hours = append([]models.BusinessHourRule(nil), rules...)
	}
	return p, nil
}

func (m *MemoryStoreData) GetObservations(_ context.Context, storeID string, from, to time.Time) ([]models.Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.obs[storeID]
	lo := sort.Search(len(list), func(i int) bool { return !list[i].Timestamp.Before(from) })
	hi := sort.Search(len(list), func(i int) bool { return !list[i].Timestamp.Before(to) })
	if lo >= hi {
		return nil, nil
	}
	return append([]models.Observation(nil), list[lo:hi]...), nil
}

func (m *MemoryStoreData) Stats(_ context.Context) (models.DatasetStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var st models.DatasetStats
	dist := map[string]int64{}
	for _, list := range m.obs {
		if len(list) > 0 {
			st.DistinctStores++
		}
		st.StatusRows += int64(len(list))
		for _, o := range list {
			dist[string(o.Status)]++
		}
		if len(list) == 0 {
			continue
		}
		first, last := list[0].Timestamp, list[len(list)-1].Timestamp
		if st.Earliest == nil || first.Before(*st.Earliest) {
			st.Earliest = &first
		}
		if st.Latest == nil || last.After(*st.Latest) {
			st.Latest = &last
		}
	}
	for status, n := range dist {
		st.StatusDistribution = append(st.StatusDistribution, models.StatusCount{Status: status, Count: n})
	}
	sort.Slice(st.StatusDistribution, func(i, j int) bool {
		return st.StatusDistribution[i].Status < st.StatusDistribution[j].Status
	})

	for _, rules := range m.hours {
		st.HoursRows += int64(len(rules))
		if len(rules) > 0 {
			st.StoresWithHours++
		}
	}
	st.TimezoneRows = int64(len(m.tz))
	st.StoresWithTimezone = int64(len(m.tz))

	st.SampleStatus = m.sampleStatus(5)
	st.SampleHours = m.sampleHours(5)
	st.SampleTimezones = m.sampleTimezones(5)
	return st, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemoryStoreData) sampleStatus(n int) []models.Observation {
	var out []models.Observation
	for _, id := range sortedKeys(m.obs) {
		for _, o := range m.obs[id] {
			if len(out) == n {
				return out
			}
			out = append(out, o)
		}
	}
	return out
}

func (m *MemoryStoreData) sampleHours(n int) []models.BusinessHourRule {
	var out []models.BusinessHourRule
	for _, id := range sortedKeys(m.hours) {
		for _, r := range m.hours[id] {
			if len(out) == n {
				return out
			}
			out = append(out, r)
		}
	}
	return out
}

func (m *MemoryStoreData) sampleTimezones(n int) []models.StoreTimezone {
	var out []models.StoreTimezone
	for _, id := range sortedKeys(m.tz) {
		if len(out) == n {
			break
		}
		out = append(out, models.StoreTimezone{StoreID: id, Timezone: m.tz[id]})
	}
	return out
}

func (m *MemoryStoreData) Health(context.Context) error { return nil }

func (m *MemoryStoreData) Truncate(_ context.Context, ds repository.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ds {
	case repository.DatasetStatus:
		m.obs = make(map[string][]models.Observation)
	case repository.DatasetHours:
		m.hours = make(map[string][]models.BusinessHourRule)
	case repository.DatasetTimezones:
		m.tz = make(map[string]string)
	default:
		return fmt.Errorf("unknown dataset %q", ds)
	}
	return nil
}

func (m *MemoryStoreData) InsertObservations(_ context.Context, obs []models.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	touched := map[string]struct{}{}
	for _, o := range obs {
		o.Timestamp = o.Timestamp.UTC()
		m.obs[o.StoreID] = append(m.obs[o.StoreID], o)
		touched[o.StoreID] = struct{}{}
	}
	for id := range touched {
		list := m.obs[id]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	}
	return nil
}

func (m *MemoryStoreData) InsertBusinessHours(_ context.Context, rules []models.BusinessHourRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rules {
		m.hours[r.StoreID] = append(m.hours[r.StoreID], r)
	}
	return nil
}

// InsertTimezones keeps the last zone seen per store.
func (m *MemoryStoreData) InsertTimezones(_ context.Context, tzs []models.StoreTimezone) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tz := range tzs {
		m.tz[tz.StoreID] = tz.Timezone
	}
	return nil
}

var _ repository.StoreRepository = (*MemoryStoreData)(nil)

package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
	"StoreMonitor/pkg/cache"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedStore(t *testing.T) *MemoryStoreData {
	t.Helper()
	ctx := context.Background()
	m := NewMemoryStoreData()
	err := m.InsertObservations(ctx, []models.Observation{
		{StoreID: "b", Status: models.StatusActive, Timestamp: ts("2023-01-25T10:00:00Z")},
		{StoreID: "a", Status: models.StatusInactive, Timestamp: ts("2023-01-25T09:00:00Z")},
		{StoreID: "a", Status: models.StatusActive, Timestamp: ts("2023-01-25T08:00:00Z")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.InsertBusinessHours(ctx, []models.BusinessHourRule{{StoreID: "c", DayOfWeek: 2}}); err != nil {
		t.Fatal(err)
	}
	if err := m.InsertTimezones(ctx, []models.StoreTimezone{{StoreID: "d", Timezone: "Asia/Beirut"}}); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestMemoryStoreUniverseIsUnionOfDatasets(t *testing.T) {
	m := seedStore(t)
	ids, err := m.ListStoreIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c", "d"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestMemoryStoreObservationWindowIsHalfOpen(t *testing.T) {
	m := seedStore(t)
	ctx := context.Background()

	obs, err := m.GetObservations(ctx, "a", ts("2023-01-25T08:00:00Z"), ts("2023-01-25T09:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 1 || obs[0].Status != models.StatusActive {
		t.Fatalf("got %+v", obs)
	}

	latest, err := m.LatestObservationTime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !latest.Equal(ts("2023-01-25T10:00:00Z")) {
		t.Fatalf("latest = %v", latest)
	}
}

func TestMemoryStoreEmptyHasNoLatest(t *testing.T) {
	_, err := NewMemoryStoreData().LatestObservationTime(context.Background())
	if !errors.Is(err, repository.ErrNoObservations) {
		t.Fatalf("err = %v", err)
	}
}

func TestMemoryStoreTruncate(t *testing.T) {
	m := seedStore(t)
	ctx := context.Background()
	if err := m.Truncate(ctx, repository.DatasetStatus); err != nil {
		t.Fatal(err)
	}
	st, err := m.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.StatusRows != 0 || st.HoursRows != 1 || st.TimezoneRows != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if err := m.Truncate(ctx, "bogus"); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}

func TestCachedStoreServesStaleUntilInvalidated(t *testing.T) {
	m := seedStore(t)
	c := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer c.Close()
	s := NewCachedStoreData(m, c, time.Minute)
	ctx := context.Background()

	p, err := s.GetProfile(ctx, "d")
	if err != nil || p.Timezone == nil || *p.Timezone != "Asia/Beirut" {
		t.Fatalf("profile = %+v, err = %v", p, err)
	}

	if err := m.InsertTimezones(ctx, []models.StoreTimezone{{StoreID: "d", Timezone: "UTC"}}); err != nil {
		t.Fatal(err)
	}
	p, _ = s.GetProfile(ctx, "d")
	if *p.Timezone != "Asia/Beirut" {
		t.Fatalf("expected cached zone, got %s", *p.Timezone)
	}

	if err := s.InvalidateProfiles(ctx); err != nil {
		t.Fatal(err)
	}
	p, _ = s.GetProfile(ctx, "d")
	if *p.Timezone != "UTC" {
		t.Fatalf("expected fresh zone, got %s", *p.Timezone)
	}
}

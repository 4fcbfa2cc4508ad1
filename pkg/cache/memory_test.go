package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type profile struct {
	Timezone string   `json:"timezone"`
	Days     []int    `json:"days"`
	Tags     []string `json:"tags,omitempty"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()
	ctx := context.Background()

	in := profile{Timezone: "America/Chicago", Days: []int{0, 1}}
	if err := c.Set(ctx, "store:1", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out profile
	if err := c.Get(ctx, "store:1", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Timezone != in.Timezone || len(out.Days) != 2 {
		t.Fatalf("got %+v", out)
	}

	var s string
	if err := c.Get(ctx, "missing", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	var s string
	if err := c.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "a", "1", time.Minute)
	time.Sleep(time.Millisecond)
	_ = c.Set(ctx, "b", "2", time.Minute)
	time.Sleep(time.Millisecond)
	var s string
	_ = c.Get(ctx, "a", &s) // touch a
	time.Sleep(time.Millisecond)
	_ = c.Set(ctx, "c", "3", time.Minute)

	if err := c.Get(ctx, "b", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("b should have been evicted")
	}
	if err := c.Get(ctx, "a", &s); err != nil || s != "1" {
		t.Fatalf("a should survive, got %q %v", s, err)
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()
	ctx := context.Background()

	_ = c.Set(ctx, "profile:1", "x", time.Minute)
	_ = c.Set(ctx, "profile:2", "y", time.Minute)
	_ = c.Set(ctx, "other", "z", time.Minute)

	if err := c.DeleteByPattern(ctx, BuildPattern("profile:")); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
}

func TestGetOrLoad(t *testing.T) {
	c := NewMemoryCache(WithMemoryCleanup(0))
	defer c.Close()
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (profile, error) {
		calls++
		return profile{Timezone: "UTC"}, nil
	}
	for i := 0; i < 3; i++ {
		p, err := GetOrLoad(ctx, c, "p", time.Minute, load)
		if err != nil || p.Timezone != "UTC" {
			t.Fatalf("iteration %d: %+v %v", i, p, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loader called %d times", calls)
	}
}

package uptime

import (
	"context"
	"fmt"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
)

// StoreReader is the data the calculator needs for a single store.
type StoreReader interface {
	GetProfile(ctx context.Context, storeID string) (models.StoreProfile, error)
	GetObservations(ctx context.Context, storeID string, from, to time.Time) ([]models.Observation, error)
}

// Calculator evaluates one store against the three report windows.
type Calculator struct {
	src      StoreReader
	resolver *Resolver
}

// NewCalculator creates a Calculator reading store data from src.
func NewCalculator(src StoreReader, resolver *Resolver) *Calculator {
	return &Calculator{src: src, resolver: resolver}
}

// Compute returns the store's usage for the hour, day and week before now.
// Observations are read once for the week and filtered per window.
func (c *Calculator) Compute(ctx context.Context, storeID string, now time.Time) (models.StoreUsage, error) {
	profile, err := c.src.GetProfile(ctx, storeID)
	if err != nil {
		return models.StoreUsage{}, fmt.Errorf("load profile: %w", err)
	}
	sched, err := c.resolver.Resolve(profile)
	if err != nil {
		return models.StoreUsage{}, err
	}

	weekFrom, _ := repository.WindowWeek.Bounds(now)
	obs, err := c.src.GetObservations(ctx, storeID, weekFrom, now)
	if err != nil {
		return models.StoreUsage{}, fmt.Errorf("load observations: %w", err)
	}

	usage := models.StoreUsage{StoreID: storeID}
	for _, w := range repository.Windows() {
		from, to := w.Bounds(now)
		u := Extrapolate(obs, OpenIntervals(sched, from, to))
		switch w {
		case repository.WindowHour:
			usage.Hour = u
		case repository.WindowDay:
			usage.Day = u
		case repository.WindowWeek:
			usage.Week = u
		}
	}
	return usage, nil
}

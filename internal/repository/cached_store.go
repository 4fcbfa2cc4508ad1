package repository

import (
	"context"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
	"StoreMonitor/pkg/cache"
)

const profileKeyPrefix = "profile:"

// CachedStoreData caches store profiles in front of another repository.
// Observations are never cached; they change with every poll.
type CachedStoreData struct {
	repository.StoreRepository
	cache cache.Service
	ttl   time.Duration
}

// NewCachedStoreData creates a CachedStoreData caching profiles of inner for ttl.
func NewCachedStoreData(inner repository.StoreRepository, c cache.Service, ttl time.Duration) *CachedStoreData {
	return &CachedStoreData{StoreRepository: inner, cache: c, ttl: ttl}
}

func (s *CachedStoreData) GetProfile(ctx context.Context, storeID string) (models.StoreProfile, error) {
	return cache.GetOrLoad(ctx, s.cache, profileKeyPrefix+storeID, s.ttl, func(ctx context.Context) (models.StoreProfile, error) {
		return s.StoreRepository.GetProfile(ctx, storeID)
	})
}

// InvalidateProfiles drops every cached profile.
func (s *CachedStoreData) InvalidateProfiles(ctx context.Context) error {
	return s.cache.DeleteByPattern(ctx, cache.BuildPattern(profileKeyPrefix))
}

var (
	_ repository.StoreRepository    = (*CachedStoreData)(nil)
	_ repository.ProfileInvalidator = (*CachedStoreData)(nil)
)

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"parkingapp/cache"
	"parkingapp/logs"
	"parkingapp/models"
)

const (
	ListingKey        = "facility_listing"
	DefaultListingTTL = 300 * time.Second
)

// ListingCache memoizes the facility listing. Backend failures are logged
// and treated as misses so the listing keeps working without the cache.
type ListingCache struct {
	backend cache.Cache
	ttl     time.Duration
}

func NewListingCache(backend cache.Cache, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{backend: backend, ttl: ttl}
}

func (l *ListingCache) Get(ctx context.Context) ([]models.FacilityListing, bool) {
	if l == nil || l.backend == nil {
		return nil, false
	}
	raw, err := l.backend.Get(ctx, ListingKey)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logs.Logger.Warnf("Listing cache read failed: %v", err)
		}
		return nil, false
	}
	var listing []models.FacilityListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		logs.Logger.Warnf("Listing cache entry is corrupt, ignoring: %v", err)
		return nil, false
	}
	return listing, true
}

func (l *ListingCache) Set(ctx context.Context, listing []models.FacilityListing) {
	if l == nil || l.backend == nil {
		return
	}
	raw, err := json.Marshal(listing)
	if err != nil {
		logs.Logger.Warnf("Listing cache encode failed: %v", err)
		return
	}
	if err := l.backend.Set(ctx, ListingKey, raw, l.ttl); err != nil {
		logs.Logger.Warnf("Listing cache write failed: %v", err)
	}
}

// Invalidate deletes the entry; the next read recomputes it.
func (l *ListingCache) Invalidate(ctx context.Context) {
	if l == nil || l.backend == nil {
		return
	}
	if err := l.backend.Delete(ctx, ListingKey); err != nil {
		logs.Logger.Errorf("Listing cache invalidation failed: %v", err)
	}
}

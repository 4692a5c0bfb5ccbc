package usecases

import (
	"context"
	"fmt"
	"math"

	"github.com/samirrijal/tzmonths/internal/core/ports"
	"github.com/samirrijal/tzmonths/internal/pkg/metrics"
)

// CacheTier is one level of the zone cache, checked in order.
type CacheTier struct {
	Name  string
	Cache ports.CacheService
}

// TimeZoneService resolves coordinates to zones through read-through caches.
type TimeZoneService struct {
	resolver ports.TimeZoneResolver
	tiers    []CacheTier
	ttl      int
}

// NewTimeZoneService creates a TimeZoneService. Tiers with a nil cache are skipped.
func NewTimeZoneService(resolver ports.TimeZoneResolver, ttlSeconds int, tiers ...CacheTier) *TimeZoneService {
	s := &TimeZoneService{resolver: resolver, ttl: ttlSeconds}
	for _, t := range tiers {
		if t.Cache != nil {
			s.tiers = append(s.tiers, t)
		}
	}
	return s
}

// Resolve returns the zone at lat/lon. Coordinates are cached at 1e-4 degree
// (about 11 m) resolution; only successful lookups are cached.
func (s *TimeZoneService) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	key := zoneCacheKey(lat, lon)

	for i, t := range s.tiers {
		data, err := t.Cache.Get(ctx, key)
		if err != nil || len(data) == 0 {
			metrics.CacheMisses.WithLabelValues(t.Name).Inc()
			continue
		}
		metrics.CacheHits.WithLabelValues(t.Name).Inc()
		s.fill(ctx, s.tiers[:i], key, data)
		return string(data), nil
	}

	zone, err := s.resolver.Resolve(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	s.fill(ctx, s.tiers, key, []byte(zone))
	return zone, nil
}

func (s *TimeZoneService) fill(ctx context.Context, tiers []CacheTier, key string, data []byte) {
	for _, t := range tiers {
		_ = t.Cache.Set(ctx, key, data, s.ttl)
	}
}

func zoneCacheKey(lat, lon float64) string {
	return fmt.Sprintf("tz:%.4f:%.4f", round4(lat), round4(lon))
}

// round4 keeps -0.00001 and 0.00001 on the same key.
func round4(f float64) float64 {
	r := math.Round(f*1e4) / 1e4
	if r == 0 {
		return 0
	}
	return r
}

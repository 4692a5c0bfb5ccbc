package ports

import (
	"context"
	"time"

	"github.com/samirrijal/tzmonths/internal/core/domain"
)

// TimeZoneResolver maps a coordinate to an IANA zone identifier.
type TimeZoneResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}

// InstantConverter turns a civil date-time in a named zone into an absolute instant.
type InstantConverter interface {
	ToUTC(civil domain.CivilDateTime, zone string) (time.Time, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

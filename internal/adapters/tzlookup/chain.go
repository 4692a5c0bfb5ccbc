package tzlookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/samirrijal/tzmonths/internal/core/domain"
	"github.com/samirrijal/tzmonths/internal/core/ports"
	"github.com/samirrijal/tzmonths/internal/pkg/metrics"
)

// Backend names accepted in configuration.
const (
	BackendTZF     = "tzf"
	BackendLatLong = "latlong"
	BackendPostGIS = "postgis"
)

// ErrNotFound means the coordinate lies outside every known zone polygon.
var ErrNotFound = errors.New("no time zone at coordinate")

// Named is a resolver that reports its backend name.
type Named interface {
	ports.TimeZoneResolver
	Name() string
}

// Chain tries resolvers in order and returns the first zone found.
type Chain struct {
	resolvers []Named
}

// NewChain creates a chain; at least one resolver is required.
func NewChain(resolvers ...Named) (*Chain, error) {
	if len(resolvers) == 0 {
		return nil, fmt.Errorf("tzlookup: empty resolver chain")
	}
	return &Chain{resolvers: resolvers}, nil
}

// Name lists the backends in order, joined with "+".
func (c *Chain) Name() string {
	names := make([]string, len(c.resolvers))
	for i, r := range c.resolvers {
		names[i] = r.Name()
	}
	return strings.Join(names, "+")
}

// Resolve returns the first successful resolution. The error of every
// backend is kept when all of them fail.
func (c *Chain) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	var errs []error
	for _, r := range c.resolvers {
		zone, err := r.Resolve(ctx, lat, lon)
		if err == nil {
			metrics.TimeZoneLookups.WithLabelValues(r.Name(), "ok").Inc()
			return zone, nil
		}
		metrics.TimeZoneLookups.WithLabelValues(r.Name(), "miss").Inc()
		slog.DebugContext(ctx, "time zone backend miss", "backend", r.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	return "", fmt.Errorf("%w: %w", domain.ErrTimeZoneResolution, errors.Join(errs...))
}

// OceanFilter rejects the fixed-offset Etc/* zones some datasets assign to
// open water, so those coordinates fail instead of resolving to a bare offset.
type OceanFilter struct {
	Named
}

// Resolve delegates and rejects Etc/* results.
func (f OceanFilter) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	zone, err := f.Named.Resolve(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(zone, "Etc/") {
		return "", fmt.Errorf("%w: %s is open water (%s)", ErrNotFound, domain.GeoPoint{Lat: lat, Lon: lon}, zone)
	}
	return zone, nil
}

func checkRange(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinate %v,%v out of range", ErrNotFound, lat, lon)
	}
	return nil
}

func notFound(lat, lon float64) error {
	return fmt.Errorf("%w: %s", ErrNotFound, domain.GeoPoint{Lat: lat, Lon: lon})
}

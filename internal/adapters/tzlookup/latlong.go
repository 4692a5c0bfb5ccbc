package tzlookup

import (
	"context"

	"github.com/bradfitz/latlong"
)

// LatLong resolves zones with the bradfitz/latlong pixel tables. It is
// coarser than tzf near borders but needs no startup time.
type LatLong struct{}

// NewLatLong creates a LatLong resolver.
func NewLatLong() *LatLong { return &LatLong{} }

// Name identifies the backend in logs and metrics.
func (r *LatLong) Name() string { return BackendLatLong }

// Resolve returns the zone containing lat/lon.
func (r *LatLong) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	if err := checkRange(lat, lon); err != nil {
		return "", err
	}
	zone := latlong.LookupZoneName(lat, lon)
	if zone == "" {
		return "", notFound(lat, lon)
	}
	return zone, nil
}

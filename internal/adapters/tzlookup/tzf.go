// Package tzlookup resolves IANA time zones from coordinates using offline
// boundary data.
package tzlookup

import (
	"context"
	"fmt"

	"github.com/ringsaturn/tzf"
)

// TZF resolves zones with the ringsaturn/tzf polygon finder.
type TZF struct {
	finder tzf.F
}

// NewTZF loads the default tzf dataset. Loading takes a while and a few MB,
// so a single instance should be shared.
func NewTZF() (*TZF, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("tzf finder: %w", err)
	}
	return &TZF{finder: finder}, nil
}

// Name identifies the backend in logs and metrics.
func (r *TZF) Name() string { return BackendTZF }

// Resolve returns the zone containing lat/lon.
func (r *TZF) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	if err := checkRange(lat, lon); err != nil {
		return "", err
	}
	// tzf takes longitude first.
	zone := r.finder.GetTimezoneName(lon, lat)
	if zone == "" {
		return "", notFound(lat, lon)
	}
	return zone, nil
}

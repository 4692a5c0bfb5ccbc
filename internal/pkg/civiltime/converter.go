// Package civiltime converts zone-local wall-clock values into absolute instants.
package civiltime

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // zone rules do not depend on the host

	"github.com/samirrijal/tzmonths/internal/core/domain"
)

// ISOLayout is the UTC output format, millisecond precision with a Z designator.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// probe is how far either side of a wall time we look for the offsets of a transition.
const probe = 36 * time.Hour

// Converter resolves civil date-times against IANA zones. Loaded locations
// are memoised; it is safe for concurrent use.
type Converter struct {
	locations sync.Map // zone id -> *time.Location
}

// NewConverter creates a Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Location loads (or returns the memoised) location for a zone id.
func (c *Converter) Location(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, fmt.Errorf("empty zone id")
	}
	if loc, ok := c.locations.Load(zone); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zone, err)
	}
	c.locations.Store(zone, loc)
	return loc, nil
}

// ToUTC returns the instant at which the wall clock in zone reads civil.
//
// Month overflow rolls into the following years. A wall time skipped by a
// forward transition is moved forward by the size of the gap. A wall time
// repeated by a backward transition maps to its first occurrence.
func (c *Converter) ToUTC(civil domain.CivilDateTime, zone string) (time.Time, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	return Resolve(civil, loc), nil
}

// Resolve is ToUTC for an already loaded location.
func Resolve(civil domain.CivilDateTime, loc *time.Location) time.Time {
	// wall is the civil value read as if it were UTC; its Unix seconds are the
	// "local seconds" every candidate offset is subtracted from.
	wall := time.Date(civil.Year, time.Month(civil.Month), civil.Day,
		civil.Hour, civil.Minute, civil.Second, civil.Nanosecond, time.UTC)

	before := offsetAt(wall.Add(-probe), loc)
	after := offsetAt(wall.Add(probe), loc)

	var (
		best  time.Time
		found bool
	)
	for _, off := range []int{before, after, offsetAt(wall, loc)} {
		t := wall.Add(-time.Duration(off) * time.Second)
		if !sameWall(t.In(loc), wall) {
			continue
		}
		if !found || t.Before(best) {
			best, found = t, true
		}
	}
	if found {
		return best.In(time.UTC)
	}

	// Gap: read the wall time with the smaller (pre-transition) offset, which
	// lands after the transition by exactly the skipped amount.
	off := before
	if after < off {
		off = after
	}
	return wall.Add(-time.Duration(off) * time.Second).In(time.UTC)
}

// Format renders an instant in the ISO-8601 UTC layout.
func Format(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

func offsetAt(t time.Time, loc *time.Location) int {
	_, off := t.In(loc).Zone()
	return off
}

func sameWall(local, wall time.Time) bool {
	y1, m1, d1 := local.Date()
	y2, m2, d2 := wall.Date()
	return y1 == y2 && m1 == m2 && d1 == d2 &&
		local.Hour() == wall.Hour() && local.Minute() == wall.Minute() &&
		local.Second() == wall.Second() && local.Nanosecond() == wall.Nanosecond()
}

package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String renders the point as "lat,lon" with 4 decimals.
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
}

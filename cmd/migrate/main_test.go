package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/tzmonths/internal/adapters/postgres"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "name": "timezones",
  "features": [
    {"type": "Feature", "properties": {"tzid": "Europe/London"}, "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
    {"type": "Feature", "properties": {"tzid": ""}, "geometry": {"type": "Polygon", "coordinates": []}},
    {"type": "Feature", "properties": {"tzid": "Europe/Paris"}, "geometry": {"type": "Polygon", "coordinates": [[[2,0],[3,0],[3,1],[2,0]]]}},
    {"type": "Feature", "properties": {"tzid": "Europe/Berlin"}, "geometry": {"type": "Polygon", "coordinates": [[[4,0],[5,0],[5,1],[4,0]]]}}
  ]
}`

func TestDecodeFeatures(t *testing.T) {
	var batches [][]postgres.Boundary
	err := decodeFeatures(strings.NewReader(sampleGeoJSON), 2, func(b []postgres.Boundary) error {
		batches = append(batches, b)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
	assert.Equal(t, "Europe/London", batches[0][0].TZID)
	assert.Equal(t, "Europe/Paris", batches[0][1].TZID)
	assert.Equal(t, "Europe/Berlin", batches[1][0].TZID)
	assert.Contains(t, string(batches[0][0].GeoJSON), `"Polygon"`)
}

func TestDecodeFeatures_NoFeatures(t *testing.T) {
	err := decodeFeatures(strings.NewReader(`{"type":"FeatureCollection"}`), 10, func([]postgres.Boundary) error { return nil })
	assert.Error(t, err)
}

func TestDecodeFeatures_NotObject(t *testing.T) {
	err := decodeFeatures(strings.NewReader(`[1,2]`), 10, func([]postgres.Boundary) error { return nil })
	assert.Error(t, err)
}

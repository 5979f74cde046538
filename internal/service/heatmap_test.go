package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHeatmapPoints_OnePointPerIncident(t *testing.T) {
	incidents := fixtureIncidents()

	points := ToHeatmapPoints(incidents)

	require.Len(t, points, len(incidents))
	for i, p := range points {
		assert.Equal(t, incidents[i].Coordinates.Latitude, p.Latitude)
		assert.Equal(t, incidents[i].Coordinates.Longitude, p.Longitude)
	}
}

func TestToHeatmapPoints_UniformWeight(t *testing.T) {
	points := ToHeatmapPoints(fixtureIncidents())

	for _, p := range points {
		assert.Equal(t, 0.5, p.Weight)
	}
}

func TestToHeatmapPoints_Empty(t *testing.T) {
	assert.Empty(t, ToHeatmapPoints(nil))
}

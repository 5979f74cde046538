package service

import (
	"github.com/safestreets/safemap/internal/models"
)

// heatmapWeight is the uniform weight every incident contributes. Density is
// purely a function of point count in a neighborhood, not incident severity.
const heatmapWeight = 0.5

// ToHeatmapPoints maps incidents to weighted points, exactly one per
// incident. Pure function; overlay lifecycle belongs to the rendering layer.
func ToHeatmapPoints(incidents []*models.Incident) []models.HeatmapPoint {
	points := make([]models.HeatmapPoint, len(incidents))
	for i, inc := range incidents {
		points[i] = models.HeatmapPoint{
			Latitude:  inc.Coordinates.Latitude,
			Longitude: inc.Coordinates.Longitude,
			Weight:    heatmapWeight,
		}
	}
	return points
}

package v1

import (
	"github.com/safestreets/safemap/internal/models"
)

// DTOToIncidentDraft converts a report request into a draft for the workflow.
func DTOToIncidentDraft(dto ReportRequest) models.IncidentDraft {
	return models.IncidentDraft{
		Type:        dto.Type,
		Location:    dto.Location,
		Description: dto.Description,
		Postcode:    dto.Postcode,
	}
}

// ModelToIncidentResponse converts a domain incident into its response DTO.
// The date is rendered as a calendar day, matching the map popups.
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:          model.ID,
		Type:        model.Type,
		Location:    model.Location,
		Description: model.Description,
		Postcode:    model.Postcode,
		Latitude:    model.Coordinates.Latitude,
		Longitude:   model.Coordinates.Longitude,
		Date:        model.Date.Format("2006-01-02"),
	}
}

// ModelsToIncidentResponses converts a slice of incidents.
func ModelsToIncidentResponses(incidents []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i, inc := range incidents {
		responses[i] = ModelToIncidentResponse(inc)
	}
	return responses
}

// PointsToHeatmapResponses converts heatmap points into response DTOs.
func PointsToHeatmapResponses(points []models.HeatmapPoint) []HeatmapPointResponse {
	responses := make([]HeatmapPointResponse, len(points))
	for i, p := range points {
		responses[i] = HeatmapPointResponse{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Weight:    p.Weight,
		}
	}
	return responses
}

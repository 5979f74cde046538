package v1

// ReportRequest is the DTO for submitting or editing an incident report.
// @Description Incident report submission
type ReportRequest struct {
	Type        string `json:"type" validate:"required,max=64"`
	Location    string `json:"location" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=2000"`
	Postcode    string `json:"postcode" validate:"required,max=16"`
}

// IncidentResponse is the DTO returned for a single incident.
// @Description Incident with resolved coordinates
type IncidentResponse struct {
	ID          int     `json:"id"`
	Type        string  `json:"type"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	Postcode    string  `json:"postcode"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Date        string  `json:"date"`
}

// LoginRequest is the DTO for an admin login attempt.
// @Description Admin credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the admin session token.
// @Description Admin session token
type LoginResponse struct {
	Token string `json:"token"`
}

// CountsResponse carries per-category incident counts over the full store.
// @Description Per-category incident counts
type CountsResponse struct {
	Counts map[string]int `json:"counts"`
}

// HeatmapPointResponse is a single weighted heatmap point.
// @Description Weighted heatmap point
type HeatmapPointResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Weight    float64 `json:"weight"`
}

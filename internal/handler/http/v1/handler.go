package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/safestreets/safemap/internal/auth"
	"github.com/safestreets/safemap/internal/geocode"
	"github.com/safestreets/safemap/internal/service"
	"github.com/safestreets/safemap/internal/store"
)

// Handler serves the incident map API.
type Handler struct {
	reports  service.ReportService
	gate     *auth.Gate
	logger   *logrus.Logger
	validate *validator.Validate
}

// NewHandler creates a Handler.
func NewHandler(reports service.ReportService, gate *auth.Gate, logger *logrus.Logger) *Handler {
	return &Handler{
		reports:  reports,
		gate:     gate,
		logger:   logger,
		validate: validator.New(),
	}
}

// filterParams parses the shared filter query parameters: a comma-separated
// category list and a free-text query.
func filterParams(c *gin.Context) ([]string, string) {
	var types []string
	for _, t := range strings.Split(c.Query("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types, c.Query("q")
}

// rejectReport maps workflow rejections to client errors. Returns false when
// the error is not a rejection and still needs handling.
func (h *Handler) rejectReport(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrPostcodeRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "postcode is required"})
	case errors.Is(err, service.ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown incident category"})
	case errors.Is(err, geocode.ErrInvalidPostcode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid postcode"})
	default:
		return false
	}
	return true
}

// @Summary Admin login
// @Description Exchange admin credentials for a session token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Admin credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.gate.Login(input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token})
}

// @Summary Admin logout
// @Description End the admin session. Unknown tokens are a no-op.
// @Tags Auth
// @Produce json
// @Security AdminToken
// @Success 204 "No Content"
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	h.gate.Logout(adminToken(c))
	c.Status(http.StatusNoContent)
}

// @Summary List incidents
// @Description List incidents matching the category selection and free-text query, in insertion order.
// @Tags Incidents
// @Produce json
// @Param types query string false "Comma-separated category list (empty matches all)"
// @Param q query string false "Free-text query over location, description and postcode"
// @Success 200 {array} IncidentResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")
	types, query := filterParams(c)

	incidents, err := h.reports.ListIncidents(c.Request.Context(), types, query)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Per-category incident counts
// @Description Counts over the full store, independent of the active filter or search.
// @Tags Incidents
// @Produce json
// @Success 200 {object} CountsResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/counts [get]
func (h *Handler) countsByType(c *gin.Context) {
	log := h.logger.WithField("method", "countsByType")

	counts, err := h.reports.CountsByType(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to count incidents from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, CountsResponse{Counts: counts})
}

// @Summary Report an incident
// @Description Validate the postcode, resolve coordinates and create the incident.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param report body ReportRequest true "Incident report"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body, unknown category or invalid postcode"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input ReportRequest
	log := h.logger.WithField("method", "createIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.reports.SubmitReport(c.Request.Context(), DTOToIncidentDraft(input))
	if err != nil {
		if h.rejectReport(c, err) {
			return
		}
		log.WithError(err).Error("Failed to submit report in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(created))
}

// @Summary Edit an incident
// @Description Re-validate the postcode and update the incident. Requires the admin session token.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security AdminToken
// @Param id path int true "Incident ID"
// @Param report body ReportRequest true "Edited incident report"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid id, request body, category or postcode"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [put]
func (h *Handler) updateIncident(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input ReportRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.reports.UpdateReport(c.Request.Context(), id, DTOToIncidentDraft(input))
	if err != nil {
		if h.rejectReport(c, err) {
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		log.WithError(err).Error("Failed to update incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(updated))
}

// @Summary Delete an incident
// @Description Remove an incident. Deleting an unknown id is a no-op. Requires the admin session token.
// @Tags Incidents
// @Produce json
// @Security AdminToken
// @Param id path int true "Incident ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "deleteIncident").WithField("id", id)

	if err := h.reports.DeleteIncident(c.Request.Context(), id); err != nil {
		log.WithError(err).Error("Failed to delete incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Heatmap points
// @Description Weighted points for the current filtered view, one per incident.
// @Tags Heatmap
// @Produce json
// @Param types query string false "Comma-separated category list (empty matches all)"
// @Param q query string false "Free-text query over location, description and postcode"
// @Success 200 {array} HeatmapPointResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /heatmap [get]
func (h *Handler) heatmap(c *gin.Context) {
	log := h.logger.WithField("method", "heatmap")
	types, query := filterParams(c)

	points, err := h.reports.HeatmapPoints(c.Request.Context(), types, query)
	if err != nil {
		log.WithError(err).Error("Failed to build heatmap from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, PointsToHeatmapResponses(points))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

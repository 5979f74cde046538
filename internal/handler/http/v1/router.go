package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all API v1 routes.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Admin session
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.logout)
	}

	// Incident browsing and reporting
	incidents := api.Group("/incidents")
	{
		incidents.GET("", h.listIncidents)
		incidents.GET("/counts", h.countsByType)
		incidents.POST("", h.createIncident)

		// Mutations of existing reports are admin-only.
		admin := incidents.Group("", AdminAuthMiddleware(h.gate, h.logger))
		{
			admin.PUT("/:id", h.updateIncident)
			admin.DELETE("/:id", h.deleteIncident)
		}
	}

	// Heatmap points for the current filtered view
	api.GET("/heatmap", h.heatmap)

	// Health check
	api.GET("/system/health", h.healthCheck)
}

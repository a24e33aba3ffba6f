package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, h *Handlers) {
	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", h.HealthCheck)

		// Case endpoints
		api.POST("/cases", h.SearchCase)
		api.POST("/cases/bulk", h.BulkSearchAPI)
		api.GET("/cases", h.ListCasesAPI)
		api.GET("/cases/*case_number", h.GetCase)
		api.GET("/case-types", h.CaseTypes)
		api.GET("/recent-searches", h.RecentSearches)

		// Cause list endpoints
		api.GET("/cause-list", h.ListCauseList)
		api.GET("/cause-list/filtered", h.FilterCauseList)
		api.POST("/cause-list", h.CreateCauseListEntry)
		api.POST("/cause-list/refresh", h.RefreshCauseList)
		api.GET("/cause-list/history", h.CaseHistory)
		api.GET("/cause-list/statistics", h.CauseListStatistics)

		// Cache stats
		api.GET("/cache/stats", h.CacheStats)
	}
}

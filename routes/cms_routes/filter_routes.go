package cms_routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers/filter_controller"
)

// SetupFilterRoutes registers the sync trigger and filter key/option
// curation. protected runs in front of every route (auth, rate limit, audit).
func SetupFilterRoutes(rg *gin.RouterGroup, h *filter_controller.Handler, protected ...gin.HandlerFunc) {
	filter := rg.Group("/filter")
	filter.Use(protected...)

	// ════════════════════════════════════════════════════════════
	// Sync
	// ════════════════════════════════════════════════════════════
	filter.POST("/sync", h.SyncFilterOptions)

	// ════════════════════════════════════════════════════════════
	// Filter Options
	// ════════════════════════════════════════════════════════════
	admin := filter.Group("/admin")
	{
		admin.GET("", h.ListFilterOptions)
		admin.POST("", h.CreateFilterOption)
		admin.GET("/:id", h.GetFilterOption)
		admin.PUT("/:id", h.UpdateFilterOption)
		admin.PATCH("/:id", h.UpdateFilterOption)
		admin.DELETE("/:id", h.DeleteFilterOption)
	}

	// ════════════════════════════════════════════════════════════
	// Filter Keys
	// ════════════════════════════════════════════════════════════
	keys := admin.Group("/keys")
	{
		keys.GET("", h.ListFilterKeys)
		keys.POST("", h.CreateFilterKey)
		keys.GET("/:id", h.GetFilterKey)
		keys.PUT("/:id", h.UpdateFilterKey)
		keys.PATCH("/:id", h.UpdateFilterKey)
		keys.DELETE("/:id", h.DeleteFilterKey)
	}
}

package filter_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

// SyncFilterOptions godoc
// @Summary Synchronize filter options from product specs
// @Description Scans every active product, derives filter keys and options from specs and specs_detail, and materializes per-product facet values. Idempotent. Malformed spec entries are skipped and reported.
// @Tags CMS - Filters
// @Produce json
// @Success 200 {object} models.ApiResponse{data=models.SyncReport}
// @Failure 401 {object} models.ApiResponse
// @Failure 503 {object} models.ApiResponse
// @Router /api/v1/filter/sync [post]
func (h *Handler) SyncFilterOptions(c *gin.Context) {
	report, err := h.Sync.SyncFilterOptionsFromProducts(c.Request.Context())
	if err != nil {
		controllers.RespondError(c, err, "Failed to synchronize filter options")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter options synchronized", report))
}

package filter_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

// GetFilterMetadata godoc
// @Summary Get storefront filter metadata
// @Description Returns the active filter keys in display order with their active options and the active-product price range. With categoryId, options scoped to that category are included next to the global ones.
// @Tags Storefront - Filters
// @Produce json
// @Param categoryId query string false "Category ID (UUID)"
// @Success 200 {object} models.ApiResponse{data=models.FilterMetadata}
// @Failure 400 {object} models.ApiResponse
// @Failure 503 {object} models.ApiResponse
// @Router /api/v1/filter [get]
func (h *Handler) GetFilterMetadata(c *gin.Context) {
	categoryID, ok := optionalUUIDQuery(c, "categoryId")
	if !ok {
		controllers.BadRequest(c, "Invalid categoryId")
		return
	}

	metadata, err := h.Metadata.GetFilterMetadata(c.Request.Context(), categoryID)
	if err != nil {
		controllers.RespondError(c, err, "Failed to fetch filter metadata")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter metadata fetched", metadata))
}

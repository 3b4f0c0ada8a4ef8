package filter_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
)

// ListFilterOptions godoc
// @Summary List filter options
// @Tags CMS - Filters
// @Produce json
// @Param filterKeyId query string false "Filter key ID (UUID)"
// @Param categoryId query string false "Only options scoped to this category"
// @Param includeInactive query bool false "Include deactivated options"
// @Success 200 {object} models.ApiResponse{data=[]models.FilterOption}
// @Failure 400 {object} models.ApiResponse
// @Router /api/v1/filter/admin [get]
func (h *Handler) ListFilterOptions(c *gin.Context) {
	keyID, ok := optionalUUIDQuery(c, "filterKeyId")
	if !ok {
		controllers.BadRequest(c, "Invalid filterKeyId")
		return
	}
	categoryID, ok := optionalUUIDQuery(c, "categoryId")
	if !ok {
		controllers.BadRequest(c, "Invalid categoryId")
		return
	}

	opts, err := h.Admin.ListFilterOptions(c.Request.Context(), services.OptionFilter{
		FilterKeyID:     keyID,
		CategoryID:      categoryID,
		IncludeInactive: boolQuery(c, "includeInactive"),
	})
	if err != nil {
		controllers.RespondError(c, err, "Failed to fetch filter options")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter options fetched", opts))
}

// GetFilterOption godoc
// @Summary Get a filter option
// @Tags CMS - Filters
// @Produce json
// @Param id path string true "Filter option ID (UUID)"
// @Success 200 {object} models.ApiResponse{data=models.FilterOption}
// @Failure 404 {object} models.ApiResponse
// @Router /api/v1/filter/admin/{id} [get]
func (h *Handler) GetFilterOption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid filter option ID")
		return
	}
	opt, err := h.Admin.GetFilterOption(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, err, "Failed to fetch filter option")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter option fetched", opt))
}

// CreateFilterOption godoc
// @Summary Create a filter option
// @Description The (filter_key_id, value, category_id) tuple must be unique. Omit category_id for a global option.
// @Tags CMS - Filters
// @Accept json
// @Produce json
// @Param option body models.CreateFilterOptionRequest true "Filter option"
// @Success 201 {object} models.ApiResponse{data=models.FilterOption}
// @Failure 400 {object} models.ApiResponse
// @Failure 409 {object} models.ApiResponse
// @Router /api/v1/filter/admin [post]
func (h *Handler) CreateFilterOption(c *gin.Context) {
	var req models.CreateFilterOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controllers.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	opt, err := h.Admin.CreateFilterOption(c.Request.Context(), req)
	if err != nil {
		controllers.RespondError(c, err, "Failed to create filter option")
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse(c, "Filter option created", opt))
}

// UpdateFilterOption godoc
// @Summary Update a filter option
// @Description category_id: omit or null to keep the scope, "" to make the option global, a UUID to scope it.
// @Tags CMS - Filters
// @Accept json
// @Produce json
// @Param id path string true "Filter option ID (UUID)"
// @Param option body models.UpdateFilterOptionRequest true "Fields to change"
// @Success 200 {object} models.ApiResponse{data=models.FilterOption}
// @Failure 400 {object} models.ApiResponse
// @Failure 404 {object} models.ApiResponse
// @Failure 409 {object} models.ApiResponse
// @Router /api/v1/filter/admin/{id} [put]
func (h *Handler) UpdateFilterOption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid filter option ID")
		return
	}
	var req models.UpdateFilterOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controllers.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	opt, err := h.Admin.UpdateFilterOption(c.Request.Context(), id, req)
	if err != nil {
		controllers.RespondError(c, err, "Failed to update filter option")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter option updated", opt))
}

// DeleteFilterOption godoc
// @Summary Deactivate a filter option
// @Tags CMS - Filters
// @Produce json
// @Param id path string true "Filter option ID (UUID)"
// @Success 200 {object} models.ApiResponse{data=models.FilterOption}
// @Failure 404 {object} models.ApiResponse
// @Router /api/v1/filter/admin/{id} [delete]
func (h *Handler) DeleteFilterOption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid filter option ID")
		return
	}
	opt, err := h.Admin.DeactivateFilterOption(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, err, "Failed to delete filter option")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter option deactivated", opt))
}

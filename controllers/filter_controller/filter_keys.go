package filter_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

// ListFilterKeys godoc
// @Summary List filter keys
// @Tags CMS - Filters
// @Produce json
// @Param includeInactive query bool false "Include deactivated keys"
// @Success 200 {object} models.ApiResponse{data=[]models.FilterKey}
// @Router /api/v1/filter/admin/keys [get]
func (h *Handler) ListFilterKeys(c *gin.Context) {
	keys, err := h.Admin.ListFilterKeys(c.Request.Context(), boolQuery(c, "includeInactive"))
	if err != nil {
		controllers.RespondError(c, err, "Failed to fetch filter keys")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter keys fetched", keys))
}

// GetFilterKey godoc
// @Summary Get a filter key
// @Tags CMS - Filters
// @Produce json
// @Param id path string true "Filter key ID (UUID)"
// @Success 200 {object} models.ApiResponse{data=models.FilterKey}
// @Failure 404 {object} models.ApiResponse
// @Router /api/v1/filter/admin/keys/{id} [get]
func (h *Handler) GetFilterKey(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid filter key ID")
		return
	}
	key, err := h.Admin.GetFilterKey(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, err, "Failed to fetch filter key")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter key fetched", key))
}

// CreateFilterKey godoc
// @Summary Create a filter key
// @Description Key must be a lowercase slug (letters, digits, underscores) and unique.
// @Tags CMS - Filters
// @Accept json
// @Produce json
// @Param key body models.CreateFilterKeyRequest true "Filter key"
// @Success 201 {object} models.ApiResponse{data=models.FilterKey}
// @Failure 400 {object} models.ApiResponse
// @Failure 409 {object} models.ApiResponse
// @Router /api/v1/filter/admin/keys [post]
func (h *Handler) CreateFilterKey(c *gin.Context) {
	var req models.CreateFilterKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controllers.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	key, err := h.Admin.CreateFilterKey(c.Request.Context(), req)
	if err != nil {
		controllers.RespondError(c, err, "Failed to create filter key")
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse(c, "Filter key created", key))
}

// UpdateFilterKey godoc
// @Summary Update a filter key
// @Tags CMS - Filters
// @Accept json
// @Produce json
// @Param id path string true "Filter key ID (UUID)"
// @Param key body models.UpdateFilterKeyRequest true "Fields to change"
// @Success 200 {object} models.ApiResponse{data=models.FilterKey}
// @Failure 400 {object} models.ApiResponse
// @Failure 404 {object} models.ApiResponse
// @Failure 409 {object} models.ApiResponse
// @Router /api/v1/filter/admin/keys/{id} [put]
func (h *Handler) UpdateFilterKey(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid filter key ID")
		return
	}
	var req models.UpdateFilterKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controllers.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	key, err := h.Admin.UpdateFilterKey(c.Request.Context(), id, req)
	if err != nil {
		controllers.RespondError(c, err, "Failed to update filter key")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter key updated", key))
}

// DeleteFilterKey godoc
// @Summary Deactivate a filter key
// @Description Soft delete: the key is hidden from the storefront and ignored by search.
// @Tags CMS - Filters
// @Produce json
// @Param id path string true "Filter key ID (UUID)"
// @Success 200 {object} models.ApiResponse{data=models.FilterKey}
// @Failure 404 {object} models.ApiResponse
// @Router /api/v1/filter/admin/keys/{id} [delete]
func (h *Handler) DeleteFilterKey(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid filter key ID")
		return
	}
	key, err := h.Admin.DeactivateFilterKey(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, err, "Failed to delete filter key")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Filter key deactivated", key))
}

package product_controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
)

// GetProducts godoc
// @Summary Search storefront products by facets
// @Description Any query parameter naming an active filter key is a facet: comma-separated values are OR'ed, different keys are AND'ed. Range facets (price_range and range-typed keys) accept min-max, min- and -max with inclusive bounds. Unknown parameters are ignored.
// @Tags Storefront - Products
// @Produce json
// @Param categoryId query string false "Category ID (UUID)"
// @Param price_range query string false "Price range, e.g. 500-1500"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (1-100)" default(12)
// @Param sortBy query string false "Sort field" Enums(newest, price, name)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} models.ApiResponse{data=models.ProductSearchResult}
// @Failure 400 {object} models.ApiResponse
// @Failure 503 {object} models.ApiResponse
// @Router /api/v1/products [get]
func (h *Handler) GetProducts(c *gin.Context) {
	page, limit := parsePagination(c)
	sortBy, sortOrder := parseSortParams(c)

	var categoryID *uuid.UUID
	if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			controllers.BadRequest(c, "Invalid categoryId")
			return
		}
		categoryID = &id
	}

	result, err := h.Search.SearchProducts(c.Request.Context(), services.SearchRequest{
		Params:     c.Request.URL.Query(),
		CategoryID: categoryID,
		Page:       page,
		Limit:      limit,
		SortBy:     sortBy,
		SortOrder:  sortOrder,
	})
	if err != nil {
		controllers.RespondError(c, err, "Failed to fetch products")
		return
	}

	products := result.Products
	if products == nil {
		products = []models.Product{}
	}

	c.JSON(http.StatusOK, models.PaginatedResponse(
		c,
		"Products fetched",
		models.ProductSearchResult{Products: products, AppliedFilters: result.AppliedFilters},
		&models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      int(result.Total),
			TotalPages: totalPages(result.Total, limit),
		},
	))
}

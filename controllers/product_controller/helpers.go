package product_controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/services"
)

// Handler serves storefront product search and admin catalog writes.
type Handler struct {
	Search   *services.SearchService
	Products *services.ProductService
}

func NewHandler(search *services.SearchService, products *services.ProductService) *Handler {
	return &Handler{Search: search, Products: products}
}

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "12"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 12
	}

	return page, limit
}

// parseSortParams reads sortBy/sortOrder, falling back to the legacy single
// "sort" parameter for the field.
func parseSortParams(c *gin.Context) (sortBy, sortOrder string) {
	sortBy = c.Query("sortBy")
	if sortBy == "" {
		sortBy = c.Query("sort")
	}
	return sortBy, c.DefaultQuery("sortOrder", "desc")
}

func totalPages(total int64, limit int) int {
	if limit <= 0 || total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}

package ecommerce_routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers/filter_controller"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers/product_controller"
)

// SetupStorefrontRoutes registers the public filter panel and faceted search.
func SetupStorefrontRoutes(router *gin.RouterGroup, filters *filter_controller.Handler, products *product_controller.Handler) {
	// Storefront routes (public, no auth required)
	router.GET("/filter", filters.GetFilterMetadata)
	router.GET("/products", products.GetProducts) // List with facet filters
}

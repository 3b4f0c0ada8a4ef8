package cms_routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers/product_controller"
)

// SetupProductRoutes registers admin catalog writes under /admin/products.
func SetupProductRoutes(rg *gin.RouterGroup, h *product_controller.Handler, protected ...gin.HandlerFunc) {
	product := rg.Group("/admin/products")

	// ════════════════════════════════════════════════════════════
	// Protected Routes (Auth + Activity Logging)
	// ════════════════════════════════════════════════════════════
	product.Use(protected...)
	{
		product.POST("", h.CreateProduct)
		product.GET("/:id", h.GetProduct)
		product.PATCH("/:id", h.UpdateProduct)
		product.DELETE("/:id", h.DeleteProduct)
	}
}

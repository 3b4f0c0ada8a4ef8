package product_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/controllers"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

// GetProduct godoc
// @Summary Get a catalog product
// @Tags CMS - Products
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} models.ApiResponse{data=models.Product}
// @Failure 404 {object} models.ApiResponse
// @Router /api/v1/admin/products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid product ID")
		return
	}
	product, err := h.Products.GetProduct(c.Request.Context(), id)
	if err != nil {
		controllers.RespondError(c, err, "Failed to fetch product")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Product fetched", product))
}

// CreateProduct godoc
// @Summary Create a catalog product
// @Description Facet values are derived from specs and specs_detail once the product is saved.
// @Tags CMS - Products
// @Accept json
// @Produce json
// @Param product body models.ProductRequest true "Product"
// @Success 201 {object} models.ApiResponse{data=models.Product}
// @Failure 400 {object} models.ApiResponse
// @Router /api/v1/admin/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controllers.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	product, err := h.Products.CreateProduct(c.Request.Context(), req)
	if err != nil {
		controllers.RespondError(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse(c, "Product created", product))
}

// UpdateProduct godoc
// @Summary Update a catalog product
// @Tags CMS - Products
// @Accept json
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Param product body models.UpdateProductRequest true "Fields to change"
// @Success 200 {object} models.ApiResponse{data=models.Product}
// @Failure 400 {object} models.ApiResponse
// @Failure 404 {object} models.ApiResponse
// @Router /api/v1/admin/products/{id} [patch]
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid product ID")
		return
	}
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controllers.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	product, err := h.Products.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		controllers.RespondError(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Product updated", product))
}

// DeleteProduct godoc
// @Summary Delete a catalog product
// @Description Soft delete. The product's facet values are removed.
// @Tags CMS - Products
// @Produce json
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} models.ApiResponse
// @Failure 404 {object} models.ApiResponse
// @Router /api/v1/admin/products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		controllers.BadRequest(c, "Invalid product ID")
		return
	}
	if err := h.Products.DeleteProduct(c.Request.Context(), id); err != nil {
		controllers.RespondError(c, err, "Failed to delete product")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(c, "Product deleted", gin.H{"id": id}))
}

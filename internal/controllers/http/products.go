package http

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.products.Create(c.Request.Context(), &domain.Product{
		Title:             req.Title,
		Description:       req.Description,
		Price:             req.Price,
		SKU:               req.SKU,
		ImageURL:          req.ImageURL,
		Category:          req.Category,
		SupplierID:        req.SupplierID,
		SupplierProductID: req.SupplierProductID,
		SupplierVariantID: req.SupplierVariantID,
		Stock:             req.Stock,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.products.Update(c.Request.Context(), c.Param("id"), services.ProductPatch{
		Title:             req.Title,
		Description:       req.Description,
		Price:             req.Price,
		SKU:               req.SKU,
		ImageURL:          req.ImageURL,
		Category:          req.Category,
		SupplierID:        req.SupplierID,
		SupplierProductID: req.SupplierProductID,
		SupplierVariantID: req.SupplierVariantID,
		Stock:             req.Stock,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

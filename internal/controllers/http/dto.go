package http

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	Items      []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	CouponCode string                   `json:"couponCode"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateCouponRequest struct {
	Code         string          `json:"code" binding:"required"`
	DiscountType string          `json:"discountType" binding:"required"`
	Value        decimal.Decimal `json:"value"`
	ExpiryDate   *time.Time      `json:"expiryDate"`
	UsageLimit   int             `json:"usageLimit" binding:"min=0"`
}

type CouponValidationResponse struct {
	Valid        bool            `json:"valid"`
	Code         string          `json:"code"`
	DiscountType string          `json:"discountType"`
	Value        decimal.Decimal `json:"value"`
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
}

type CreateProductRequest struct {
	Title             string          `json:"title" binding:"required"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	SKU               string          `json:"sku" binding:"required"`
	ImageURL          string          `json:"imageUrl"`
	Category          string          `json:"category"`
	SupplierID        string          `json:"supplierId"`
	SupplierProductID string          `json:"supplierProductId"`
	SupplierVariantID string          `json:"supplierVariantId"`
	Stock             int             `json:"stock" binding:"min=0"`
}

type UpdateProductRequest struct {
	Title             *string          `json:"title"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	SKU               *string          `json:"sku"`
	ImageURL          *string          `json:"imageUrl"`
	Category          *string          `json:"category"`
	SupplierID        *string          `json:"supplierId"`
	SupplierProductID *string          `json:"supplierProductId"`
	SupplierVariantID *string          `json:"supplierVariantId"`
	Stock             *int             `json:"stock" binding:"omitempty,min=0"`
}

package services

import (
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

func CreateMockOrder(id string, userID string, status domain.OrderStatus, items ...domain.OrderItem) *domain.Order {
	o := &domain.Order{
		ID:        id,
		UserID:    userID,
		Status:    status,
		Items:     items,
		CreatedAt: time.Now(),
	}
	o.Subtotal = o.ItemsSubtotal()
	o.TotalAmount = o.Subtotal
	return o
}

func CreateMockItem(productID, vid, sku string, qty int, price string) domain.OrderItem {
	return domain.OrderItem{
		ProductID:         productID,
		SupplierVariantID: vid,
		SKU:               sku,
		Quantity:          qty,
		Price:             decimal.RequireFromString(price),
	}
}

func CreateMockProduct(id, sku, price, vid string) *domain.Product {
	return &domain.Product{
		ID:                id,
		Title:             "Test Product " + sku,
		SKU:               sku,
		Price:             decimal.RequireFromString(price),
		SupplierVariantID: vid,
		Stock:             TestProductStock,
	}
}

func CreateMockCoupon(id, code string, kind domain.DiscountType, value string) *domain.Coupon {
	return &domain.Coupon{
		ID:           id,
		Code:         code,
		DiscountType: kind,
		Value:        decimal.RequireFromString(value),
		IsActive:     true,
	}
}

const (
	TestOrderID         = "0b7f5f0e-6d1a-4b7e-9a51-3f1f8c0d2a11"
	TestUserID          = "user-1"
	TestProductID       = "5d3c1f7a-2e4b-4c8d-9f0a-1b2c3d4e5f60"
	TestSupplierOrderID = "CJ2025112345"
	TestProductStock    = 5
)

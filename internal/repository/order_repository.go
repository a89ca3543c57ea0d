package repository

import (
	"context"

	"storefront/internal/domain"
)

// Find* methods return (nil, nil) when no row matches.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindBySupplierOrderID(ctx context.Context, supplierOrderID string) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus writes to only if the stored status is still from.
	// It reports false when another writer got there first.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
	SetSupplierOrderID(ctx context.Context, id, supplierOrderID string) error
	SetTrackingNumber(ctx context.Context, id, trackingNumber string) error
}

package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create inserts the order together with its items.
func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *orderRepo) FindBySupplierOrderID(ctx context.Context, supplierOrderID string) (*domain.Order, error) {
	return r.first(ctx, "supplier_order_id = ?", supplierOrderID)
}

func (r *orderRepo) first(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items", itemsByPosition).Where(query, arg).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &o, nil
}

func (r *orderRepo) FindByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find orders by user: %w", err)
	}
	return out, nil
}

func (r *orderRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("update order status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepo) SetSupplierOrderID(ctx context.Context, id, supplierOrderID string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("supplier_order_id", supplierOrderID).Error
	if err != nil {
		return fmt.Errorf("set supplier order id: %w", err)
	}
	return nil
}

func (r *orderRepo) SetTrackingNumber(ctx context.Context, id, trackingNumber string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("tracking_number", trackingNumber).Error
	if err != nil {
		return fmt.Errorf("set tracking number: %w", err)
	}
	return nil
}

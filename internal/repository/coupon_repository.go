package repository

import (
	"context"

	"storefront/internal/domain"
)

type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	// FindActiveByCode expects an already normalized code.
	FindActiveByCode(ctx context.Context, code string) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	Deactivate(ctx context.Context, id string) error
	// IncrementUsage bumps usage_count unless the coupon is inactive or at its limit.
	IncrementUsage(ctx context.Context, id string) (bool, error)
}

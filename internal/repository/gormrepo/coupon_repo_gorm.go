package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"gorm.io/gorm"
)

type couponRepo struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) repository.CouponRepository {
	return &couponRepo{db: db}
}

func (r *couponRepo) Create(ctx context.Context, c *domain.Coupon) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrCouponCodeTaken
		}
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

func (r *couponRepo) FindActiveByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return &c, nil
}

func (r *couponRepo) List(ctx context.Context) ([]domain.Coupon, error) {
	var out []domain.Coupon
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return out, nil
}

func (r *couponRepo) Deactivate(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("deactivate coupon: %w", err)
	}
	return nil
}

func (r *couponRepo) IncrementUsage(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Coupon{}).
		Where("id = ? AND is_active = ? AND (usage_limit = 0 OR usage_count < usage_limit)", id, true).
		Update("usage_count", gorm.Expr("usage_count + ?", 1))
	if res.Error != nil {
		return false, fmt.Errorf("increment coupon usage: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

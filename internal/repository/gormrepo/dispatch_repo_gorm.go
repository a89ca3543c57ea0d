package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type dispatchRepo struct {
	db *gorm.DB
}

func NewDispatchRepository(db *gorm.DB) repository.DispatchRepository {
	return &dispatchRepo{db: db}
}

func (r *dispatchRepo) Enqueue(ctx context.Context, d *domain.SupplierDispatch) error {
	if d.State == "" {
		d.State = domain.DispatchPending
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
		Create(d).Error
	if err != nil {
		return fmt.Errorf("enqueue dispatch: %w", err)
	}
	return nil
}

func (r *dispatchRepo) FindByOrderID(ctx context.Context, orderID string) (*domain.SupplierDispatch, error) {
	var d domain.SupplierDispatch
	if err := r.db.WithContext(ctx).First(&d, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find dispatch: %w", err)
	}
	return &d, nil
}

func (r *dispatchRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.SupplierDispatch, error) {
	var out []domain.SupplierDispatch
	err := r.db.WithContext(ctx).
		Where("state = ? AND next_attempt_at <= ?", domain.DispatchPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find due dispatches: %w", err)
	}
	return out, nil
}

func (r *dispatchRepo) Claim(ctx context.Context, id string, seenAttempts int, leaseUntil time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.SupplierDispatch{}).
		Where("id = ? AND state = ? AND attempts = ?", id, domain.DispatchPending, seenAttempts).
		Updates(map[string]any{
			"attempts":        gorm.Expr("attempts + ?", 1),
			"next_attempt_at": leaseUntil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim dispatch: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *dispatchRepo) Update(ctx context.Context, d *domain.SupplierDispatch) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("update dispatch: %w", err)
	}
	return nil
}

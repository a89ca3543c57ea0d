package gormrepo

import (
	"context"

	"storefront/internal/repository"

	"gorm.io/gorm"
)

type unitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) repository.UnitOfWork {
	return &unitOfWork{db: db}
}

// NewRepositories builds the full repository set over db.
func NewRepositories(db *gorm.DB) repository.Repositories {
	return repository.Repositories{
		Orders:     NewOrderRepository(db),
		Products:   NewProductRepository(db),
		Coupons:    NewCouponRepository(db),
		Dispatches: NewDispatchRepository(db),
	}
}

func (u *unitOfWork) Do(ctx context.Context, fn func(r repository.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

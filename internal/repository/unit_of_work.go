package repository

import "context"

// Repositories groups repositories bound to the same transaction.
type Repositories struct {
	Orders     OrderRepository
	Products   ProductRepository
	Coupons    CouponRepository
	Dispatches DispatchRepository
}

// UnitOfWork runs fn inside one database transaction. Returning an error rolls it back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repositories) error) error
}

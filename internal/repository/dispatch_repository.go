package repository

import (
	"context"
	"time"

	"storefront/internal/domain"
)

type DispatchRepository interface {
	// Enqueue inserts a PENDING record for the order, or leaves an existing one untouched.
	Enqueue(ctx context.Context, d *domain.SupplierDispatch) error
	FindByOrderID(ctx context.Context, orderID string) (*domain.SupplierDispatch, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]domain.SupplierDispatch, error)
	// Claim counts one attempt and leases the record until leaseUntil, provided
	// nobody else has claimed it since attempts was read as seenAttempts.
	Claim(ctx context.Context, id string, seenAttempts int, leaseUntil time.Time) (bool, error)
	Update(ctx context.Context, d *domain.SupplierDispatch) error
}

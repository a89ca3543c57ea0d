package mocks

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra/cj"
	"storefront/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySupplierOrderID(ctx context.Context, supplierOrderID string) (*domain.Order, error) {
	args := m.Called(ctx, supplierOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetSupplierOrderID(ctx context.Context, id, supplierOrderID string) error {
	args := m.Called(ctx, id, supplierOrderID)
	return args.Error(0)
}

func (m *MockOrderRepository) SetTrackingNumber(ctx context.Context, id, trackingNumber string) error {
	args := m.Called(ctx, id, trackingNumber)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, category string) ([]domain.Product, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCouponRepository) FindActiveByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockDispatchRepository struct {
	mock.Mock
}

func (m *MockDispatchRepository) Enqueue(ctx context.Context, d *domain.SupplierDispatch) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDispatchRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.SupplierDispatch, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SupplierDispatch), args.Error(1)
}

func (m *MockDispatchRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]domain.SupplierDispatch, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SupplierDispatch), args.Error(1)
}

func (m *MockDispatchRepository) Claim(ctx context.Context, id string, seenAttempts int, leaseUntil time.Time) (bool, error) {
	args := m.Called(ctx, id, seenAttempts, leaseUntil)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatchRepository) Update(ctx context.Context, d *domain.SupplierDispatch) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// MockUnitOfWork runs fn against Repos without a real transaction.
type MockUnitOfWork struct {
	mock.Mock
	Repos repository.Repositories
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(r repository.Repositories) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Repos)
}

type MockSupplierClient struct {
	mock.Mock
}

func (m *MockSupplierClient) CreateOrder(ctx context.Context, req cj.CreateOrderRequest) (*cj.CreateOrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cj.CreateOrderResult), args.Error(1)
}

func (m *MockSupplierClient) SearchProducts(ctx context.Context, q cj.ProductQuery) (json.RawMessage, error) {
	args := m.Called(ctx, q)
	return raw(args.Get(0)), args.Error(1)
}

func (m *MockSupplierClient) GetProduct(ctx context.Context, pid string) (json.RawMessage, error) {
	args := m.Called(ctx, pid)
	return raw(args.Get(0)), args.Error(1)
}

func (m *MockSupplierClient) GetCategories(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	return raw(args.Get(0)), args.Error(1)
}

func (m *MockSupplierClient) CalculateFreight(ctx context.Context, q cj.FreightQuery) (json.RawMessage, error) {
	args := m.Called(ctx, q)
	return raw(args.Get(0)), args.Error(1)
}

func (m *MockSupplierClient) GetTracking(ctx context.Context, trackNumber string) (json.RawMessage, error) {
	args := m.Called(ctx, trackNumber)
	return raw(args.Get(0)), args.Error(1)
}

// raw accepts either a json.RawMessage or a plain JSON string as a mock return value.
func raw(v any) json.RawMessage {
	switch r := v.(type) {
	case json.RawMessage:
		return r
	case string:
		return json.RawMessage(r)
	}
	return nil
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message any) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

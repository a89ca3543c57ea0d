package services

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/infra/cache"
	rabbit "storefront/internal/infra/rabbitmq"
	"storefront/internal/mocks"
	"storefront/internal/repository"
	"storefront/internal/repository/gormrepo"
	"storefront/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEnv wires the services over a real SQLite database and a mocked supplier.
type testEnv struct {
	repos      repository.Repositories
	supplier   *mocks.MockSupplierClient
	store      *cache.MemoryIdempotencyStore
	orders     *OrderService
	dispatcher *Dispatcher
	now        time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()

	e := &testEnv{
		repos:    gormrepo.NewRepositories(db),
		supplier: new(mocks.MockSupplierClient),
		store:    cache.NewMemoryIdempotencyStore(),
		now:      time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return e.now }

	e.dispatcher = NewDispatcher(e.supplier, e.repos.Orders, e.repos.Dispatches, config.ShippingConfig{CountryCode: "US"}, time.Minute, log)
	e.dispatcher.now = clock
	coupons := NewCouponService(e.repos.Coupons, log)
	coupons.now = clock
	e.orders = NewOrderService(gormrepo.NewUnitOfWork(db), e.repos.Orders, coupons, e.dispatcher, rabbit.NopPublisher{}, log)
	e.orders.now = clock
	return e
}

func (e *testEnv) seedOrder(t *testing.T, status domain.OrderStatus) *domain.Order {
	t.Helper()
	ctx := context.Background()
	p := &domain.Product{Title: "Phone mount", SKU: "MNT-" + string(status) + time.Now().Format("150405.000000"), Price: decimal.RequireFromString("12.00"), SupplierVariantID: "VID-MNT"}
	require.NoError(t, e.repos.Products.Create(ctx, p))

	o := &domain.Order{
		UserID:      TestUserID,
		Status:      status,
		Subtotal:    decimal.RequireFromString("24.00"),
		TotalAmount: decimal.RequireFromString("24.00"),
		Items:       []domain.OrderItem{{ProductID: p.ID, SKU: p.SKU, SupplierVariantID: p.SupplierVariantID, Quantity: 2, Price: p.Price}},
	}
	require.NoError(t, e.repos.Orders.Create(ctx, o))
	return o
}

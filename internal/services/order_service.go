package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra/metrics"
	rabbit "storefront/internal/infra/rabbitmq"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Origins of a status change, carried on order.status_changed events.
const (
	SourceAdmin    = "admin"
	SourcePayment  = "payment"
	SourceSupplier = "supplier"
)

type OrderService struct {
	uow        repository.UnitOfWork
	orders     repository.OrderRepository
	coupons    *CouponService
	dispatcher *Dispatcher
	publisher  rabbit.PublisherInterface
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewOrderService(
	uow repository.UnitOfWork,
	orders repository.OrderRepository,
	coupons *CouponService,
	dispatcher *Dispatcher,
	pub rabbit.PublisherInterface,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		uow:        uow,
		orders:     orders,
		coupons:    coupons,
		dispatcher: dispatcher,
		publisher:  pub,
		log:        log.Named("orders"),
		now:        time.Now,
	}
}

func (s *OrderService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

type OrderLine struct {
	ProductID string
	Quantity  int
}

// CreateOrder prices the lines from the catalog, redeems the coupon if any
// and stores the order as PENDING, all in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, lines []OrderLine, couponCode string) (*domain.Order, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	// Validated outside the transaction so that an expiry deactivation sticks.
	var coupon *domain.Coupon
	if couponCode != "" {
		c, err := s.coupons.Validate(ctx, couponCode)
		if err != nil {
			return nil, err
		}
		coupon = c
	}

	order := &domain.Order{
		UserID: userID,
		Status: domain.StatusPending,
	}

	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		for _, l := range lines {
			p, err := r.Products.FindByID(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, l.ProductID)
			}
			order.Items = append(order.Items, domain.OrderItem{
				ProductID:         p.ID,
				SKU:               p.SKU,
				SupplierVariantID: p.SupplierVariantID,
				Quantity:          l.Quantity,
				Price:             p.Price,
			})
		}

		order.Subtotal = order.ItemsSubtotal()
		order.DiscountAmount = decimal.Zero
		if coupon != nil {
			ok, err := r.Coupons.IncrementUsage(ctx, coupon.ID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrCouponExhausted
			}
			order.DiscountAmount = coupon.Discount(order.Subtotal)
			order.CouponCode = &coupon.Code
		}
		order.TotalAmount = domain.ApplyDiscount(order.Subtotal, order.DiscountAmount)

		return r.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	go s.publish(context.Background(), domain.EventOrderCreated, domain.OrderCreatedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	})

	return order, nil
}

// GetOrder returns the order if userID owns it or isAdmin is set. Orders of
// other users are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, id, userID string, isAdmin bool) (*domain.Order, error) {
	o, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.FindByUserID(ctx, userID)
}

func (s *OrderService) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.FindAll(ctx)
}

// UpdateStatus moves an order to status on behalf of an operator.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	return s.transition(ctx, id, status, SourceAdmin)
}

// ConfirmPayment marks the order PAID after the payment provider confirmed it.
func (s *OrderService) ConfirmPayment(ctx context.Context, id string) (*domain.Order, error) {
	return s.transition(ctx, id, domain.StatusPaid, SourcePayment)
}

// transition applies a validated status change. Reaching PAID places the
// supplier order; a failure there does not undo the status change.
func (s *OrderService) transition(ctx context.Context, id string, to domain.OrderStatus, source string) (*domain.Order, error) {
	if !to.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	order, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if from == to {
		return order, nil
	}
	if !domain.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidStatusTransition, from, to)
	}

	ok, err := s.orders.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConcurrentStatusChange
	}
	order.Status = to

	s.metrics.StatusTransition(source, string(to))
	s.log.Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("source", source))

	go s.publish(context.Background(), domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID:   id,
		From:      from,
		To:        to,
		Source:    source,
		ChangedAt: s.now(),
	})

	if to == domain.StatusPaid {
		s.dispatcher.Dispatch(ctx, order)
	}

	return s.findOrder(ctx, id)
}

// SupplierUpdate is a status callback from the supplier.
type SupplierUpdate struct {
	SupplierOrderID string
	Status          string
	TrackingNumber  string
}

// ReconcileSupplierUpdate folds a supplier callback into the local order.
// It reports false when no order carries the supplier order id. Status
// changes the state machine rejects are logged and skipped; the tracking
// number is stored regardless.
func (s *OrderService) ReconcileSupplierUpdate(ctx context.Context, upd SupplierUpdate) (bool, error) {
	log := s.log.With(zap.String("supplier_order_id", upd.SupplierOrderID))

	order, err := s.orders.FindBySupplierOrderID(ctx, upd.SupplierOrderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		log.Warn("supplier update for unknown order")
		return false, nil
	}

	if upd.TrackingNumber != "" {
		if err := s.orders.SetTrackingNumber(ctx, order.ID, upd.TrackingNumber); err != nil {
			return true, err
		}
		log.Info("tracking number updated", zap.String("order_id", order.ID), zap.String("tracking_number", upd.TrackingNumber))
	}

	status, ok := domain.StatusFromSupplier(upd.Status)
	if !ok {
		log.Debug("supplier status not mapped", zap.String("status", upd.Status))
		return true, nil
	}

	_, err = s.transition(ctx, order.ID, status, SourceSupplier)
	switch {
	case errors.Is(err, domain.ErrInvalidStatusTransition), errors.Is(err, domain.ErrConcurrentStatusChange):
		log.Warn("supplier status change skipped",
			zap.String("order_id", order.ID),
			zap.String("status", upd.Status),
			zap.Error(err))
		return true, nil
	case err != nil:
		return true, err
	}
	return true, nil
}

func (s *OrderService) findOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) publish(ctx context.Context, pattern string, evt any) {
	if err := s.publisher.Publish(ctx, pattern, evt); err != nil {
		s.log.Warn("failed to publish event", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	s.log.Debug("published event", zap.String("pattern", pattern))
}

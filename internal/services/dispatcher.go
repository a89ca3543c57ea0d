package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/infra/cj"
	"storefront/internal/infra/metrics"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// Dispatcher places supplier orders for paid orders.
type Dispatcher struct {
	client      cj.SupplierClientInterface
	orders      repository.OrderRepository
	dispatches  repository.DispatchRepository
	shipping    config.ShippingConfig
	baseBackoff time.Duration
	log         *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewDispatcher(
	client cj.SupplierClientInterface,
	orders repository.OrderRepository,
	dispatches repository.DispatchRepository,
	shipping config.ShippingConfig,
	baseBackoff time.Duration,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		client:      client,
		orders:      orders,
		dispatches:  dispatches,
		shipping:    shipping,
		baseBackoff: baseBackoff,
		log:         log.Named("dispatcher"),
		now:         time.Now,
	}
}

func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// BuildSupplierOrder maps an order onto CJ's create-order schema. Items are
// identified by supplier variant id, falling back to SKU; items with neither
// are left out.
func BuildSupplierOrder(order *domain.Order, ship config.ShippingConfig) (cj.CreateOrderRequest, error) {
	req := cj.CreateOrderRequest{
		OrderNumber:          order.ID,
		ShippingZip:          ship.Zip,
		ShippingCountryCode:  ship.CountryCode,
		ShippingProvince:     ship.Province,
		ShippingCity:         ship.City,
		ShippingAddress:      ship.Address,
		ShippingCustomerName: ship.CustomerName,
		ShippingPhone:        ship.Phone,
		FromCountryCode:      ship.FromCountryCode,
		LogisticName:         ship.LogisticName,
	}
	for _, it := range order.Items {
		vid := it.SupplierVariantID
		if vid == "" {
			vid = it.SKU
		}
		if vid == "" {
			continue
		}
		req.Products = append(req.Products, cj.OrderProduct{Vid: vid, Quantity: it.Quantity})
	}
	if len(req.Products) == 0 {
		return req, domain.ErrNoSupplierItems
	}
	return req, nil
}

// Send places the supplier order and stores the returned supplier order id.
// A non-empty id together with an error means the supplier accepted the
// order but the id could not be stored; only Persist may be retried then.
func (d *Dispatcher) Send(ctx context.Context, order *domain.Order) (string, error) {
	req, err := BuildSupplierOrder(order, d.shipping)
	if err != nil {
		return "", err
	}

	res, err := d.client.CreateOrder(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create supplier order: %w", err)
	}

	if err := d.Persist(ctx, order.ID, res.OrderID); err != nil {
		return res.OrderID, err
	}
	return res.OrderID, nil
}

// Persist records supplierOrderID on the order.
func (d *Dispatcher) Persist(ctx context.Context, orderID, supplierOrderID string) error {
	if err := d.orders.SetSupplierOrderID(ctx, orderID, supplierOrderID); err != nil {
		return fmt.Errorf("store supplier order id: %w", err)
	}
	d.metrics.DispatchOutcome(metrics.DispatchSent)
	d.log.Info("supplier order created",
		zap.String("order_id", orderID),
		zap.String("supplier_order_id", supplierOrderID))
	return nil
}

// Dispatch is Send for the status-change path: failures are logged and
// queued for the retry worker instead of being returned.
func (d *Dispatcher) Dispatch(ctx context.Context, order *domain.Order) {
	supplierID, err := d.Send(ctx, order)
	if err == nil {
		return
	}

	d.metrics.DispatchOutcome(metrics.DispatchFailed)
	if errors.Is(err, domain.ErrNoSupplierItems) {
		d.log.Warn("order has nothing to send to the supplier", zap.String("order_id", order.ID))
		return
	}
	d.log.Error("supplier dispatch failed, queued for retry",
		zap.String("order_id", order.ID),
		zap.String("supplier_order_id", supplierID),
		zap.Error(err))

	rec := &domain.SupplierDispatch{
		OrderID:         order.ID,
		SupplierOrderID: supplierID,
		State:           domain.DispatchPending,
		LastError:       err.Error(),
		NextAttemptAt:   d.now().Add(d.baseBackoff),
	}
	if qerr := d.dispatches.Enqueue(ctx, rec); qerr != nil {
		d.log.Error("failed to queue supplier dispatch", zap.String("order_id", order.ID), zap.Error(qerr))
		return
	}
	d.metrics.DispatchOutcome(metrics.DispatchEnqueued)
}

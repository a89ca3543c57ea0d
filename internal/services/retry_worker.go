package services

import (
	"context"
	"sync"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/infra/metrics"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// RetryWorker drains queued supplier dispatches with exponential backoff.
type RetryWorker struct {
	dispatches repository.DispatchRepository
	orders     repository.OrderRepository
	dispatcher *Dispatcher
	config     config.DispatchConfig
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRetryWorker(
	dispatches repository.DispatchRepository,
	orders repository.OrderRepository,
	dispatcher *Dispatcher,
	cfg config.DispatchConfig,
	log *zap.Logger,
) *RetryWorker {
	return &RetryWorker{
		dispatches: dispatches,
		orders:     orders,
		dispatcher: dispatcher,
		config:     cfg,
		log:        log.Named("dispatch-retry"),
		now:        time.Now,
	}
}

func (w *RetryWorker) SetMetrics(m *metrics.Metrics) {
	w.metrics = m
}

func (w *RetryWorker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.loop(ctx)

	w.log.Info("retry worker started",
		zap.Int("batch_size", w.config.BatchSize),
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("max_attempts", w.config.MaxAttempts))
}

// Stop cancels the loop and waits for the current batch, or for ctx.
func (w *RetryWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.log.Info("retry worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *RetryWorker) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.log.Error("retry batch failed", zap.Error(err))
			}
		}
	}
}

// RunOnce processes one batch of due dispatches and returns how many it claimed.
func (w *RetryWorker) RunOnce(ctx context.Context) (int, error) {
	now := w.now()
	due, err := w.dispatches.FindDue(ctx, now, w.config.BatchSize)
	if err != nil {
		return 0, err
	}

	claimed := 0
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		rec := due[i]
		ok, err := w.dispatches.Claim(ctx, rec.ID, rec.Attempts, now.Add(w.config.Lease))
		if err != nil {
			w.log.Error("claim dispatch", zap.String("order_id", rec.OrderID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		claimed++
		rec.Attempts++
		w.process(ctx, &rec)
	}
	return claimed, nil
}

func (w *RetryWorker) process(ctx context.Context, rec *domain.SupplierDispatch) {
	log := w.log.With(zap.String("order_id", rec.OrderID), zap.Int("attempt", rec.Attempts))

	order, err := w.orders.FindByID(ctx, rec.OrderID)
	if err != nil {
		w.fail(ctx, rec, err, log)
		return
	}
	if order == nil || order.SupplierOrderID != nil {
		w.skip(ctx, rec, log)
		return
	}

	// The supplier already holds this order; only the local write is retried.
	if rec.SupplierOrderID != "" {
		if err := w.dispatcher.Persist(ctx, order.ID, rec.SupplierOrderID); err != nil {
			w.fail(ctx, rec, err, log)
			return
		}
		w.succeed(ctx, rec, log)
		return
	}

	if order.Status != domain.StatusPaid {
		w.skip(ctx, rec, log)
		return
	}

	supplierID, err := w.dispatcher.Send(ctx, order)
	rec.SupplierOrderID = supplierID
	if err != nil {
		w.fail(ctx, rec, err, log)
		return
	}
	w.succeed(ctx, rec, log)
}

func (w *RetryWorker) succeed(ctx context.Context, rec *domain.SupplierDispatch, log *zap.Logger) {
	rec.State = domain.DispatchSucceeded
	rec.LastError = ""
	log.Info("queued dispatch succeeded", zap.String("supplier_order_id", rec.SupplierOrderID))
	w.save(ctx, rec, log)
}

func (w *RetryWorker) skip(ctx context.Context, rec *domain.SupplierDispatch, log *zap.Logger) {
	rec.State = domain.DispatchSkipped
	w.metrics.DispatchOutcome(metrics.DispatchSkipped)
	log.Info("dispatch no longer needed")
	w.save(ctx, rec, log)
}

func (w *RetryWorker) fail(ctx context.Context, rec *domain.SupplierDispatch, cause error, log *zap.Logger) {
	rec.LastError = cause.Error()
	if rec.Attempts >= w.config.MaxAttempts {
		rec.State = domain.DispatchDead
		w.metrics.DispatchOutcome(metrics.DispatchDead)
		log.Error("supplier dispatch gave up", zap.Error(cause))
	} else {
		rec.NextAttemptAt = w.now().Add(domain.Backoff(rec.Attempts, w.config.BaseBackoff, w.config.MaxBackoff))
		w.metrics.DispatchOutcome(metrics.DispatchFailed)
		log.Warn("supplier dispatch failed", zap.Time("next_attempt_at", rec.NextAttemptAt), zap.Error(cause))
	}
	w.save(ctx, rec, log)
}

func (w *RetryWorker) save(ctx context.Context, rec *domain.SupplierDispatch, log *zap.Logger) {
	if err := w.dispatches.Update(ctx, rec); err != nil {
		log.Error("failed to save dispatch state", zap.Error(err))
	}
}

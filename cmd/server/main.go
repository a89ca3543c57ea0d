package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	httpctl "storefront/internal/controllers/http"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/cj"
	"storefront/internal/infra/database"
	"storefront/internal/infra/logger"
	"storefront/internal/infra/metrics"
	"storefront/internal/infra/rabbitmq"
	"storefront/internal/repository/gormrepo"
	"storefront/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, zl)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	var (
		store   cache.IdempotencyStore = cache.NewMemoryIdempotencyStore()
		catalog cache.JSONCache
	)
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = cache.NewRedisIdempotencyStore(rdb, "")
		catalog = cache.NewRedisJSONCache(rdb, "supplier:")
		zl.Info("redis connected")
	} else {
		zl.Warn("REDIS_URL not set, using in-process idempotency store and no supplier cache")
	}

	var publisher rabbitmq.PublisherInterface = rabbitmq.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, zl)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	} else {
		zl.Warn("RABBITMQ_URL not set, order events are dropped")
	}

	m := metrics.New()
	repos := gormrepo.NewRepositories(db)

	supplier := cj.NewClient(cj.Config{
		BaseURL:       cfg.Supplier.BaseURL,
		APIKey:        cfg.Supplier.APIKey,
		Timeout:       cfg.Supplier.Timeout,
		RatePerSecond: cfg.Supplier.RatePerSecond,
	}, zl)
	if cfg.Supplier.APIKey == "" {
		zl.Warn("CJ_API_KEY not set, supplier calls will fail")
	}

	dispatcher := services.NewDispatcher(supplier, repos.Orders, repos.Dispatches, cfg.Supplier.Shipping, cfg.Dispatch.BaseBackoff, zl)
	dispatcher.SetMetrics(m)

	coupons := services.NewCouponService(repos.Coupons, zl)
	orders := services.NewOrderService(gormrepo.NewUnitOfWork(db), repos.Orders, coupons, dispatcher, publisher, zl)
	orders.SetMetrics(m)

	supplierSvc := services.NewSupplierService(supplier, catalog, cfg.Redis.CacheTTL, zl)
	supplierSvc.SetMetrics(m)

	webhooks := services.NewWebhookService(orders, store, services.WebhookConfig{
		SupplierSecret:     cfg.Supplier.WebhookSecret,
		PaymentSecret:      cfg.Payment.WebhookSecret,
		SignatureTolerance: cfg.Payment.SignatureTolerance,
		IdempotencyTTL:     cfg.Webhook.IdempotencyTTL,
	}, zl)
	webhooks.SetMetrics(m)

	var worker *services.RetryWorker
	if cfg.Dispatch.Enabled {
		worker = services.NewRetryWorker(repos.Dispatches, repos.Orders, dispatcher, cfg.Dispatch, zl)
		worker.SetMetrics(m)
		worker.Start(ctx)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.RequestIDMiddleware(), logger.GinMiddleware(zl), logger.Recovery(zl))
	if len(cfg.HTTP.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", logger.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h := httpctl.NewHandler(httpctl.Services{
		Orders:   orders,
		Coupons:  coupons,
		Products: services.NewProductService(repos.Products),
		Supplier: supplierSvc,
		Webhooks: webhooks,
	}, httpctl.NewAuthenticator(cfg.JWT.Secret), zl)
	h.SetMetricsHandler(m.Handler())
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("storefront listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		zl.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if worker != nil {
		if err := worker.Stop(shutdownCtx); err != nil {
			zl.Warn("retry worker did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	zl.Info("server stopped")
	return nil
}

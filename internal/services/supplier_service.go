package services

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/infra/cache"
	"storefront/internal/infra/cj"
	"storefront/internal/infra/metrics"

	"go.uber.org/zap"
)

const (
	categoriesCacheKey = "categories"
	productCachePrefix = "product:"
)

// SupplierService proxies catalog and logistics lookups to the supplier.
// Categories and product details are cached.
type SupplierService struct {
	client  cj.SupplierClientInterface
	cache   cache.JSONCache
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewSupplierService(client cj.SupplierClientInterface, c cache.JSONCache, ttl time.Duration, log *zap.Logger) *SupplierService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &SupplierService{client: client, cache: c, ttl: ttl, log: log.Named("supplier")}
}

func (s *SupplierService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *SupplierService) SearchProducts(ctx context.Context, q cj.ProductQuery) (json.RawMessage, error) {
	return s.client.SearchProducts(ctx, q)
}

func (s *SupplierService) GetProduct(ctx context.Context, pid string) (json.RawMessage, error) {
	return s.cached(ctx, productCachePrefix+pid, func() (json.RawMessage, error) {
		return s.client.GetProduct(ctx, pid)
	})
}

func (s *SupplierService) GetCategories(ctx context.Context) (json.RawMessage, error) {
	return s.cached(ctx, categoriesCacheKey, func() (json.RawMessage, error) {
		return s.client.GetCategories(ctx)
	})
}

func (s *SupplierService) CalculateFreight(ctx context.Context, q cj.FreightQuery) (json.RawMessage, error) {
	return s.client.CalculateFreight(ctx, q)
}

func (s *SupplierService) GetTracking(ctx context.Context, trackingNumber string) (json.RawMessage, error) {
	return s.client.GetTracking(ctx, trackingNumber)
}

// cached serves key from the cache, filling it from load on a miss. Cache
// errors are logged and fall through to load.
func (s *SupplierService) cached(ctx context.Context, key string, load func() (json.RawMessage, error)) (json.RawMessage, error) {
	var hit json.RawMessage
	ok, err := s.cache.Get(ctx, key, &hit)
	if err != nil {
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.CacheLookup(ok)
	if ok {
		return hit, nil
	}

	out, err := load()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/metrics"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const (
	legacyStatusEvent = "ORDER_STATUS_UPDATE"

	paymentSucceeded = "payment_intent.succeeded"
	orderIDMetadata  = "order_id"
)

type WebhookConfig struct {
	SupplierSecret     string
	PaymentSecret      string
	SignatureTolerance time.Duration
	IdempotencyTTL     time.Duration
}

// WebhookService authenticates, deduplicates and applies inbound webhooks.
type WebhookService struct {
	orders  *OrderService
	store   cache.IdempotencyStore
	config  WebhookConfig
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewWebhookService(orders *OrderService, store cache.IdempotencyStore, cfg WebhookConfig, log *zap.Logger) *WebhookService {
	if cfg.SignatureTolerance == 0 {
		cfg.SignatureTolerance = webhook.DefaultTolerance
	}
	if cfg.IdempotencyTTL == 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &WebhookService{orders: orders, store: store, config: cfg, log: log.Named("webhooks")}
}

func (s *WebhookService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// WebhookResult is returned to the caller as the acknowledgement body.
type WebhookResult struct {
	Result    bool   `json:"result"`
	Duplicate bool   `json:"duplicate,omitempty"`
	EventID   string `json:"eventId,omitempty"`
	EventType string `json:"eventType,omitempty"`
	Message   string `json:"message,omitempty"`
}

// SupplierDelivery is one raw supplier webhook request.
type SupplierDelivery struct {
	Body           []byte
	Signature      string
	IdempotencyKey string
	// Legacy deliveries carry a type field and only ORDER_STATUS_UPDATE is applied.
	Legacy bool
}

type supplierPayload struct {
	Type           string `json:"type"`
	OrderID        string `json:"orderId"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

func (s *WebhookService) HandleSupplier(ctx context.Context, d SupplierDelivery) (*WebhookResult, error) {
	if s.config.SupplierSecret != "" && !validHMAC(s.config.SupplierSecret, d.Body, d.Signature) {
		s.metrics.WebhookEvent("cj", "rejected")
		return nil, domain.ErrInvalidSignature
	}

	var p supplierPayload
	if err := json.Unmarshal(d.Body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if d.Legacy && p.Type != legacyStatusEvent {
		s.log.Info("ignoring supplier webhook", zap.String("type", p.Type))
		return &WebhookResult{Result: true, EventType: p.Type, Message: "event type not handled"}, nil
	}
	if p.OrderID == "" {
		return nil, fmt.Errorf("%w: orderId is required", domain.ErrInvalidPayload)
	}

	key := d.IdempotencyKey
	if key == "" {
		sum := sha256.Sum256(d.Body)
		key = hex.EncodeToString(sum[:])
	}
	key = "cj:" + key

	return s.once(ctx, "cj", key, func() (*WebhookResult, error) {
		found, err := s.orders.ReconcileSupplierUpdate(ctx, SupplierUpdate{
			SupplierOrderID: p.OrderID,
			Status:          p.Status,
			TrackingNumber:  p.TrackingNumber,
		})
		if err != nil {
			return nil, err
		}
		if !found {
			return &WebhookResult{Result: false, Message: "order not found"}, nil
		}
		return &WebhookResult{Result: true}, nil
	})
}

// HandlePayment verifies a Stripe-signed event and confirms payment for
// payment_intent.succeeded.
func (s *WebhookService) HandlePayment(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if s.config.PaymentSecret == "" {
		return nil, domain.ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(body, signature, s.config.PaymentSecret, webhook.ConstructEventOptions{
		Tolerance:                s.config.SignatureTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.metrics.WebhookEvent("payment", "rejected")
		s.log.Warn("payment webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	return s.once(ctx, "payment", "payment:"+event.ID, func() (*WebhookResult, error) {
		res := &WebhookResult{Result: true, EventID: event.ID, EventType: string(event.Type)}
		if event.Type != paymentSucceeded {
			res.Message = "event type not handled"
			return res, nil
		}

		var pi stripe.PaymentIntent
		if event.Data == nil || json.Unmarshal(event.Data.Raw, &pi) != nil {
			return nil, fmt.Errorf("%w: malformed payment intent", domain.ErrInvalidPayload)
		}
		orderID := pi.Metadata[orderIDMetadata]
		if orderID == "" {
			log.Warn("payment intent without order id", zap.String("payment_intent", pi.ID))
			res.Result = false
			res.Message = "no order_id in metadata"
			return res, nil
		}

		_, err := s.orders.ConfirmPayment(ctx, orderID)
		switch {
		case errors.Is(err, domain.ErrOrderNotFound),
			errors.Is(err, domain.ErrInvalidStatusTransition),
			errors.Is(err, domain.ErrConcurrentStatusChange):
			log.Warn("payment not applied", zap.String("order_id", orderID), zap.Error(err))
			res.Result = false
			res.Message = err.Error()
			return res, nil
		case err != nil:
			return nil, err
		}
		log.Info("payment confirmed", zap.String("order_id", orderID))
		return res, nil
	})
}

// once runs fn unless key was already handled within the idempotency TTL.
// A failed fn releases the key so the sender's retry is processed.
func (s *WebhookService) once(ctx context.Context, provider, key string, fn func() (*WebhookResult, error)) (*WebhookResult, error) {
	fresh, err := s.store.MarkProcessed(ctx, key, s.config.IdempotencyTTL)
	if err != nil {
		// fail open
		s.log.Error("idempotency store unavailable", zap.String("key", key), zap.Error(err))
		fresh = true
	}
	if !fresh {
		s.metrics.WebhookEvent(provider, "duplicate")
		s.log.Info("duplicate webhook delivery", zap.String("key", key))
		return &WebhookResult{Result: true, Duplicate: true, Message: "already processed"}, nil
	}

	res, err := fn()
	if err != nil {
		s.metrics.WebhookEvent(provider, "failed")
		if ferr := s.store.Forget(ctx, key); ferr != nil {
			s.log.Error("failed to release idempotency key", zap.String("key", key), zap.Error(ferr))
		}
		return nil, err
	}
	s.metrics.WebhookEvent(provider, "processed")
	return res, nil
}

func validHMAC(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

package http

import (
	"fmt"
	"io"
	"net/http"

	"storefront/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxWebhookBody = 64 << 10

	headerSupplierSignature = "CJ-Signature"
	headerIdempotencyKey    = "Idempotency-Key"
	headerPaymentSignature  = "Stripe-Signature"
)

func (h *Handler) SupplierWebhook(c *gin.Context) {
	h.supplierWebhook(c, false)
}

func (h *Handler) LegacySupplierWebhook(c *gin.Context) {
	h.supplierWebhook(c, true)
}

func (h *Handler) supplierWebhook(c *gin.Context, legacy bool) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	res, err := h.webhooks.HandleSupplier(c.Request.Context(), services.SupplierDelivery{
		Body:           body,
		Signature:      c.GetHeader(headerSupplierSignature),
		IdempotencyKey: c.GetHeader(headerIdempotencyKey),
		Legacy:         legacy,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GenericWebhook acknowledges anything so third parties can probe the endpoint.
func (h *Handler) GenericWebhook(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	h.log.Info("generic webhook received",
		zap.String("content_type", c.ContentType()),
		zap.Int("bytes", len(body)))
	c.JSON(http.StatusOK, gin.H{"result": true})
}

func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	res, err := h.webhooks.HandlePayment(c.Request.Context(), body, c.GetHeader(headerPaymentSignature))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		badRequest(c, fmt.Errorf("read body: %w", err))
		return nil, false
	}
	if len(body) > maxWebhookBody {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
		return nil, false
	}
	return body, true
}

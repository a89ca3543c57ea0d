package http

import (
	"net/http"
	"time"

	"storefront/internal/services"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Orders   *services.OrderService
	Coupons  *services.CouponService
	Products *services.ProductService
	Supplier *services.SupplierService
	Webhooks *services.WebhookService
}

type Handler struct {
	orders   *services.OrderService
	coupons  *services.CouponService
	products *services.ProductService
	supplier *services.SupplierService
	webhooks *services.WebhookService
	auth     *Authenticator
	metrics  http.Handler
	log      *zap.Logger
}

func NewHandler(s Services, auth *Authenticator, log *zap.Logger) *Handler {
	useJSONFieldNames()
	return &Handler{
		orders:   s.Orders,
		coupons:  s.Coupons,
		products: s.Products,
		supplier: s.Supplier,
		webhooks: s.Webhooks,
		auth:     auth,
		log:      log.Named("http"),
	}
}

// SetMetricsHandler exposes h at GET /metrics.
func (h *Handler) SetMetricsHandler(m http.Handler) {
	h.metrics = m
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api")
	api.GET("/health", h.Health)

	authed := h.auth.Required()
	admin := h.auth.Admin()

	orders := api.Group("/orders", authed)
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListMyOrders)
	orders.GET("/admin/all", admin, h.ListAllOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id/status", admin, h.UpdateOrderStatus)

	api.GET("/coupons/validate/:code", h.ValidateCoupon)
	api.POST("/coupons", authed, admin, h.CreateCoupon)
	api.GET("/coupons", authed, admin, h.ListCoupons)

	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.POST("/products", authed, admin, h.CreateProduct)
	api.PATCH("/products/:id", authed, admin, h.UpdateProduct)
	api.DELETE("/products/:id", authed, admin, h.DeleteProduct)

	supplier := api.Group("/supplier", gzip.Gzip(gzip.DefaultCompression))
	supplier.GET("/products", h.SearchSupplierProducts)
	supplier.GET("/product/:pid", h.GetSupplierProduct)
	supplier.GET("/categories", h.GetSupplierCategories)
	supplier.GET("/shipping", authed, h.CalculateShipping)
	supplier.GET("/tracking/:trackingNumber", authed, h.GetTracking)

	api.POST("/webhooks/cj", h.SupplierWebhook)
	api.POST("/webhook/cj", h.LegacySupplierWebhook)
	api.POST("/webhooks/generic", h.GenericWebhook)
	api.POST("/webhooks/payment", h.PaymentWebhook)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

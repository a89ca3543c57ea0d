package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/cj"
	"storefront/internal/infra/metrics"
	rabbit "storefront/internal/infra/rabbitmq"
	"storefront/internal/mocks"
	"storefront/internal/repository"
	"storefront/internal/repository/gormrepo"
	"storefront/internal/services"
	"storefront/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

const (
	testJWTSecret     = "test-jwt-secret-at-least-32-characters"
	testPaymentSecret = "whsec_http_test"
)

type api struct {
	router   *gin.Engine
	repos    repository.Repositories
	supplier *mocks.MockSupplierClient
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	log := zap.NewNop()
	m := metrics.New()

	a := &api{
		repos:    gormrepo.NewRepositories(db),
		supplier: new(mocks.MockSupplierClient),
	}

	dispatcher := services.NewDispatcher(a.supplier, a.repos.Orders, a.repos.Dispatches, config.ShippingConfig{CountryCode: "US"}, time.Minute, log)
	coupons := services.NewCouponService(a.repos.Coupons, log)
	orders := services.NewOrderService(gormrepo.NewUnitOfWork(db), a.repos.Orders, coupons, dispatcher, rabbit.NopPublisher{}, log)
	orders.SetMetrics(m)
	webhooks := services.NewWebhookService(orders, cache.NewMemoryIdempotencyStore(), services.WebhookConfig{
		PaymentSecret: testPaymentSecret,
	}, log)
	webhooks.SetMetrics(m)

	h := NewHandler(Services{
		Orders:   orders,
		Coupons:  coupons,
		Products: services.NewProductService(a.repos.Products),
		Supplier: services.NewSupplierService(a.supplier, nil, time.Minute, log),
		Webhooks: webhooks,
	}, NewAuthenticator(testJWTSecret), log)
	h.SetMetricsHandler(m.Handler())

	a.router = gin.New()
	h.RegisterRoutes(a.router)
	return a
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

func (a *api) do(t *testing.T, method, path, bearer string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *api) seedProduct(t *testing.T, sku, price string) *domain.Product {
	t.Helper()
	p := &domain.Product{Title: "Tripod " + sku, SKU: sku, Price: decimal.RequireFromString(price), SupplierVariantID: "VID-" + sku}
	require.NoError(t, a.repos.Products.Create(context.Background(), p))
	return p
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])

	w = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestAuth(t *testing.T) {
	a := newAPI(t)
	user := token(t, "user-1", RoleUser)

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		want   int
	}{
		{"no token", http.MethodGet, "/api/orders", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/orders", "not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", http.MethodGet, "/api/orders", wrongSecretToken(t), http.StatusUnauthorized},
		{"user lists own orders", http.MethodGet, "/api/orders", user, http.StatusOK},
		{"user on admin listing", http.MethodGet, "/api/orders/admin/all", user, http.StatusForbidden},
		{"user lists coupons", http.MethodGet, "/api/coupons", user, http.StatusForbidden},
		{"user creates product", http.MethodPost, "/api/products", user, http.StatusForbidden},
		{"shipping needs auth", http.MethodGet, "/api/supplier/shipping?to=US", "", http.StatusUnauthorized},
		{"tracking needs auth", http.MethodGet, "/api/supplier/tracking/TRK", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, tt.method, tt.path, tt.bearer, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func wrongSecretToken(t *testing.T) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"})
	s, err := tok.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	return s
}

func TestOrderLifecycle(t *testing.T) {
	a := newAPI(t)
	user := token(t, "user-1", RoleUser)
	other := token(t, "user-2", RoleUser)
	admin := token(t, "admin-1", "admin")
	p := a.seedProduct(t, "TRI-1", "12.75")

	w := a.do(t, http.MethodPost, "/api/orders", user, CreateOrderRequest{
		Items: []CreateOrderItemRequest{{ProductID: p.ID, Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Order](t, w)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.True(t, decimal.RequireFromString("25.50").Equal(created.TotalAmount), created.TotalAmount.String())

	w = a.do(t, http.MethodGet, "/api/orders/"+created.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(t, http.MethodGet, "/api/orders/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", user, UpdateStatusRequest{Status: "PAID"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	a.supplier.On("CreateOrder", mock.Anything, mock.MatchedBy(func(r cj.CreateOrderRequest) bool {
		return r.OrderNumber == created.ID && len(r.Products) == 1 && r.Products[0].Vid == "VID-TRI-1"
	})).Return(&cj.CreateOrderResult{OrderID: "CJ-77"}, nil).Once()

	w = a.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", admin, UpdateStatusRequest{Status: "paid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode[domain.Order](t, w)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.SupplierOrderID)
	assert.Equal(t, "CJ-77", *paid.SupplierOrderID)

	w = a.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", admin, UpdateStatusRequest{Status: "PAID"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", admin, UpdateStatusRequest{Status: "PENDING"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", admin, UpdateStatusRequest{Status: "LOST"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/orders/admin/all", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Order](t, w), 1)

	w = a.do(t, http.MethodGet, "/api/orders", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]domain.Order](t, w))

	a.supplier.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestCreateOrder_Rejections(t *testing.T) {
	a := newAPI(t)
	user := token(t, "user-1", RoleUser)
	p := a.seedProduct(t, "TRI-2", "10.00")

	tests := []struct {
		name string
		body any
		want int
	}{
		{"no items", `{"items":[]}`, http.StatusBadRequest},
		{"zero quantity", `{"items":[{"productId":"x","quantity":0}]}`, http.StatusBadRequest},
		{"malformed json", `{"items":`, http.StatusBadRequest},
		{"unknown product", CreateOrderRequest{Items: []CreateOrderItemRequest{{ProductID: "missing", Quantity: 1}}}, http.StatusNotFound},
		{"unknown coupon", CreateOrderRequest{Items: []CreateOrderItemRequest{{ProductID: p.ID, Quantity: 1}}, CouponCode: "NOPE"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodPost, "/api/orders", user, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestCoupons(t *testing.T) {
	a := newAPI(t)
	admin := token(t, "admin-1", RoleAdmin)

	w := a.do(t, http.MethodGet, "/api/coupons/validate/SAVE10", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodPost, "/api/coupons", admin, `{"code":"save10","discountType":"percent","value":"10","usageLimit":5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/coupons/validate/Save10", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[CouponValidationResponse](t, w)
	assert.True(t, res.Valid)
	assert.Equal(t, "SAVE10", res.Code)
	assert.Equal(t, "PERCENT", res.DiscountType)

	w = a.do(t, http.MethodPost, "/api/coupons", admin, `{"code":"SAVE10","discountType":"PERCENT","value":"5"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/api/coupons", admin, `{"code":"HALF","discountType":"PERCENT","value":"150"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/coupons", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Coupon](t, w), 1)
}

func TestProducts(t *testing.T) {
	a := newAPI(t)
	admin := token(t, "admin-1", RoleAdmin)

	w := a.do(t, http.MethodPost, "/api/products", admin, `{"title":"Ring light","sku":"RL-1","price":"19.99","category":"lighting","stock":3}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[domain.Product](t, w)

	w = a.do(t, http.MethodPost, "/api/products", admin, `{"title":"Dup","sku":"RL-1","price":"1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/api/products", admin, `{"title":"No sku","price":"1"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "validation failed", body["error"])
	assert.Contains(t, w.Body.String(), `"field":"sku"`)

	w = a.do(t, http.MethodPost, "/api/products", admin, `{"title":"Bad","sku":"RL-2","price":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/products?category=lighting", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Product](t, w), 1)

	w = a.do(t, http.MethodPatch, "/api/products/"+p.ID, admin, `{"title":"Ring light XL"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ring light XL", decode[domain.Product](t, w).Title)

	w = a.do(t, http.MethodDelete, "/api/products/"+p.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(t, http.MethodGet, "/api/products/"+p.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(t, http.MethodDelete, "/api/products/"+p.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSupplierProxy(t *testing.T) {
	a := newAPI(t)
	user := token(t, "user-1", RoleUser)

	a.supplier.On("GetCategories", mock.Anything).Return(`[{"categoryFirstName":"Phones"}]`, nil).Once()
	a.supplier.On("SearchProducts", mock.Anything, cj.ProductQuery{Keyword: "tripod", PageNum: 1, PageSize: 20}).
		Return(`{"list":[]}`, nil).Once()
	a.supplier.On("GetProduct", mock.Anything, "PID-1").
		Return(nil, fmt.Errorf("%w: code 1600100", domain.ErrSupplierUnavailable)).Once()
	a.supplier.On("CalculateFreight", mock.Anything, cj.FreightQuery{StartCountryCode: "CN", EndCountryCode: "DE", ProductWeight: 0.5}).
		Return(`[{"logisticName":"CJPacket"}]`, nil).Once()
	a.supplier.On("GetTracking", mock.Anything, "TRK-1").Return(`{"trackingNumber":"TRK-1"}`, nil).Once()

	tests := []struct {
		name   string
		path   string
		bearer string
		want   int
		body   string
	}{
		{"categories", "/api/supplier/categories", "", http.StatusOK, `[{"categoryFirstName":"Phones"}]`},
		{"search with defaults", "/api/supplier/products?keyword=tripod", "", http.StatusOK, `{"list":[]}`},
		{"bad page", "/api/supplier/products?page=zero", "", http.StatusBadRequest, ""},
		{"supplier down", "/api/supplier/product/PID-1", "", http.StatusBadGateway, ""},
		{"shipping", "/api/supplier/shipping?to=de&weight=0.5", user, http.StatusOK, `[{"logisticName":"CJPacket"}]`},
		{"shipping without destination", "/api/supplier/shipping", user, http.StatusBadRequest, ""},
		{"tracking", "/api/supplier/tracking/TRK-1", user, http.StatusOK, `{"trackingNumber":"TRK-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodGet, tt.path, tt.bearer, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
		})
	}
	a.supplier.AssertExpectations(t)
}

func TestWebhooks(t *testing.T) {
	a := newAPI(t)
	ctx := context.Background()
	p := a.seedProduct(t, "TRI-3", "8.00")
	order := &domain.Order{
		UserID:      "user-1",
		Status:      domain.StatusPaid,
		Subtotal:    p.Price,
		TotalAmount: p.Price,
		Items:       []domain.OrderItem{{ProductID: p.ID, SKU: p.SKU, SupplierVariantID: p.SupplierVariantID, Quantity: 1, Price: p.Price}},
	}
	require.NoError(t, a.repos.Orders.Create(ctx, order))
	require.NoError(t, a.repos.Orders.SetSupplierOrderID(ctx, order.ID, "CJ-500"))

	w := a.do(t, http.MethodPost, "/api/webhooks/cj", "", `{"orderId":"CJ-unknown","status":"SHIPPED"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[services.WebhookResult](t, w).Result)

	w = a.do(t, http.MethodPost, "/api/webhooks/cj", "", `{"orderId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/webhook/cj", "", `{"type":"PRODUCT_UPDATE","orderId":"CJ-500","status":"CANCELLED"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[services.WebhookResult](t, w).Result)

	shipped := `{"orderId":"CJ-500","status":"SHIPPED","trackingNumber":"TRK-500"}`
	w = a.do(t, http.MethodPost, "/api/webhooks/cj", "", shipped, headerIdempotencyKey, "delivery-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[services.WebhookResult](t, w).Result)

	w = a.do(t, http.MethodPost, "/api/webhooks/cj", "", shipped, headerIdempotencyKey, "delivery-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[services.WebhookResult](t, w).Duplicate)

	got, err := a.repos.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, got.Status)
	require.NotNil(t, got.TrackingNumber)
	assert.Equal(t, "TRK-500", *got.TrackingNumber)

	w = a.do(t, http.MethodPost, "/api/webhooks/generic", "", `{"anything":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":true}`, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/webhooks/cj", "", strings.Repeat("x", maxWebhookBody+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestPaymentWebhook(t *testing.T) {
	a := newAPI(t)
	ctx := context.Background()
	p := a.seedProduct(t, "TRI-4", "30.00")
	order := &domain.Order{
		UserID:      "user-1",
		Status:      domain.StatusPending,
		Subtotal:    p.Price,
		TotalAmount: p.Price,
		Items:       []domain.OrderItem{{ProductID: p.ID, SKU: p.SKU, SupplierVariantID: p.SupplierVariantID, Quantity: 1, Price: p.Price}},
	}
	require.NoError(t, a.repos.Orders.Create(ctx, order))

	body := []byte(fmt.Sprintf(`{
		"id": "evt_http_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"api_version": "2024-09-30.acacia",
		"data": {"object": {"id": "pi_1", "object": "payment_intent", "metadata": {"order_id": %q}}}
	}`, order.ID))

	w := a.do(t, http.MethodPost, "/api/webhooks/payment", "", body, headerPaymentSignature, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	a.supplier.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, errors.New("boom")).Once()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    testPaymentSecret,
		Timestamp: time.Now(),
	})
	w = a.do(t, http.MethodPost, "/api/webhooks/payment", "", body, headerPaymentSignature, signed.Header)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[services.WebhookResult](t, w)
	assert.True(t, res.Result)
	assert.Equal(t, "evt_http_1", res.EventID)

	got, err := a.repos.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status)

	rec, err := a.repos.Dispatches.FindByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.DispatchPending, rec.State)
}

func TestSupplierProxy_Gzip(t *testing.T) {
	a := newAPI(t)
	a.supplier.On("GetCategories", mock.Anything).Return(`[{"categoryFirstName":"Phones"}]`, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/supplier/categories", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

package cj

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"storefront/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	authPath        = "/authentication/getAccessToken"
	createOrderPath = "/shopping/order/createOrderV2"
	productListPath = "/product/list"
	productPath     = "/product/query"
	categoryPath    = "/product/getCategory"
	freightPath     = "/logistic/freightCalculate"
	trackingPath    = "/logistic/getTrackInfo"

	tokenHeader     = "CJ-Access-Token"
	maxResponseSize = 10 << 20

	// codeInvalidToken is returned when the access token expired or was revoked.
	codeInvalidToken = 1600001
	// tokenSkew refreshes a little before CJ's stated expiry.
	tokenSkew = time.Minute
)

var errInvalidToken = errors.New("cj: access token rejected")

type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client talks to the CJ Dropshipping v2 API. The access token is fetched on
// first use and cached until shortly before it expires.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
	now        func() time.Time

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
	refresh     singleflight.Group
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		log:        log.Named("cj"),
		now:        time.Now,
	}
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	var out CreateOrderResult
	if err := c.call(ctx, http.MethodPost, createOrderPath, nil, req, &out); err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		return nil, fmt.Errorf("%w: create order returned no order id", domain.ErrSupplierUnavailable)
	}
	return &out, nil
}

func (c *Client) SearchProducts(ctx context.Context, q ProductQuery) (json.RawMessage, error) {
	params := url.Values{}
	if q.Keyword != "" {
		params.Set("productNameEn", q.Keyword)
	}
	if q.CategoryID != "" {
		params.Set("categoryId", q.CategoryID)
	}
	if q.PageNum > 0 {
		params.Set("pageNum", strconv.Itoa(q.PageNum))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	var out json.RawMessage
	err := c.call(ctx, http.MethodGet, productListPath, params, nil, &out)
	return out, err
}

func (c *Client) GetProduct(ctx context.Context, pid string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, http.MethodGet, productPath, url.Values{"pid": {pid}}, nil, &out)
	return out, err
}

func (c *Client) GetCategories(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, http.MethodGet, categoryPath, nil, nil, &out)
	return out, err
}

func (c *Client) CalculateFreight(ctx context.Context, q FreightQuery) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, http.MethodPost, freightPath, nil, q, &out)
	return out, err
}

func (c *Client) GetTracking(ctx context.Context, trackNumber string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, http.MethodGet, trackingPath, url.Values{"trackNumber": {trackNumber}}, nil, &out)
	return out, err
}

// call performs an authenticated request, retrying once with a fresh token
// when CJ rejects the cached one.
func (c *Client) call(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if c.apiKey == "" {
		return domain.ErrSupplierNotConfigured
	}
	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}
		err = c.do(ctx, method, path, params, token, body, out)
		if errors.Is(err, errInvalidToken) && attempt == 0 {
			c.invalidate(token)
			continue
		}
		return err
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	token, expiry := c.token, c.tokenExpiry
	c.mu.RUnlock()
	if token != "" && c.now().Before(expiry) {
		return token, nil
	}

	// The refresh outlives any single caller; each caller still stops waiting on its own ctx.
	ch := c.refresh.DoChan("token", func() (any, error) {
		return c.fetchToken(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	var data tokenData
	err := c.do(ctx, http.MethodPost, authPath, nil, "", map[string]string{"apiKey": c.apiKey}, &data)
	if err != nil {
		return "", fmt.Errorf("get access token: %w", err)
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrSupplierUnavailable)
	}

	expiry, perr := time.Parse(time.RFC3339, data.AccessTokenExpiryDate)
	if perr != nil {
		c.log.Warn("unparseable token expiry, caching for one hour",
			zap.String("expiry", data.AccessTokenExpiryDate))
		expiry = c.now().Add(time.Hour)
	}

	c.mu.Lock()
	c.token = data.AccessToken
	c.tokenExpiry = expiry.Add(-tokenSkew)
	c.mu.Unlock()

	c.log.Info("access token refreshed", zap.Time("expires_at", expiry))
	return data.AccessToken, nil
}

func (c *Client) invalidate(token string) {
	c.mu.Lock()
	if c.token == token {
		c.token = ""
	}
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, token string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSupplierUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrSupplierUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		return errInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s returned status %d", domain.ErrSupplierUnavailable, method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrSupplierUnavailable, err)
	}
	if env.Code == codeInvalidToken && token != "" {
		return errInvalidToken
	}
	if !env.Result || env.Code != http.StatusOK {
		return fmt.Errorf("%w: %s (code %d)", domain.ErrSupplierUnavailable, env.Message, env.Code)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if rawOut, ok := out.(*json.RawMessage); ok {
		*rawOut = append((*rawOut)[:0], env.Data...)
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", domain.ErrSupplierUnavailable, err)
	}
	return nil
}

package domain

import "errors"

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrCouponNotFound          = errors.New("invalid or expired coupon code")
	ErrCouponExpired           = errors.New("coupon has expired")
	ErrCouponExhausted         = errors.New("coupon usage limit reached")
	ErrCouponCodeTaken         = errors.New("coupon code already exists")
	ErrInvalidCoupon           = errors.New("invalid coupon definition")
	ErrSKUTaken                = errors.New("sku already exists")
	ErrInvalidProduct          = errors.New("invalid product")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrConcurrentStatusChange  = errors.New("order status changed concurrently")
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrInvalidQuantity         = errors.New("item quantity must be at least 1")
	ErrNoSupplierItems         = errors.New("order has no items mappable to the supplier")
	ErrSupplierUnavailable     = errors.New("supplier request failed")
	ErrSupplierNotConfigured   = errors.New("supplier api key not configured")
	ErrInvalidSignature        = errors.New("invalid webhook signature")
	ErrInvalidPayload          = errors.New("invalid webhook payload")
	ErrWebhookNotConfigured    = errors.New("webhook secret not configured")
)

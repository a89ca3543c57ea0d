package cj

import (
	"context"
	"encoding/json"
)

type SupplierClientInterface interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
	SearchProducts(ctx context.Context, q ProductQuery) (json.RawMessage, error)
	GetProduct(ctx context.Context, pid string) (json.RawMessage, error)
	GetCategories(ctx context.Context) (json.RawMessage, error)
	CalculateFreight(ctx context.Context, q FreightQuery) (json.RawMessage, error)
	GetTracking(ctx context.Context, trackNumber string) (json.RawMessage, error)
}

var _ SupplierClientInterface = (*Client)(nil)

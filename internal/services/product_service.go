package services

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// ProductPatch carries the fields of a partial update; nil means unchanged.
type ProductPatch struct {
	Title             *string
	Description       *string
	Price             *decimal.Decimal
	SKU               *string
	ImageURL          *string
	Category          *string
	SupplierID        *string
	SupplierProductID *string
	SupplierVariantID *string
	Stock             *int
}

func (s *ProductService) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidProduct)
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, category string) ([]domain.Product, error) {
	return s.products.List(ctx, category)
}

func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	setString(&p.Title, patch.Title)
	setString(&p.Description, patch.Description)
	setString(&p.SKU, patch.SKU)
	setString(&p.ImageURL, patch.ImageURL)
	setString(&p.Category, patch.Category)
	setString(&p.SupplierID, patch.SupplierID)
	setString(&p.SupplierProductID, patch.SupplierProductID)
	setString(&p.SupplierVariantID, patch.SupplierVariantID)
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidProduct)
		}
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	ok, err := s.products.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrProductNotFound
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

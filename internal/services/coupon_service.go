package services

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CouponService struct {
	coupons repository.CouponRepository
	log     *zap.Logger
	now     func() time.Time
}

func NewCouponService(coupons repository.CouponRepository, log *zap.Logger) *CouponService {
	return &CouponService{coupons: coupons, log: log.Named("coupons"), now: time.Now}
}

type CreateCouponInput struct {
	Code         string
	DiscountType domain.DiscountType
	Value        decimal.Decimal
	ExpiryDate   *time.Time
	UsageLimit   int
}

// Validate returns the active coupon for code. An expired coupon is
// deactivated on the way out so later lookups skip it.
func (s *CouponService) Validate(ctx context.Context, code string) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return nil, domain.ErrCouponNotFound
	}

	c, err := s.coupons.FindActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCouponNotFound
	}

	if c.ExpiredAt(s.now()) {
		if err := s.coupons.Deactivate(ctx, c.ID); err != nil {
			s.log.Error("failed to deactivate expired coupon", zap.String("code", code), zap.Error(err))
		} else {
			s.log.Info("coupon expired, deactivated", zap.String("code", code))
		}
		return nil, domain.ErrCouponExpired
	}
	if c.Exhausted() {
		return nil, domain.ErrCouponExhausted
	}
	return c, nil
}

func (s *CouponService) Create(ctx context.Context, in CreateCouponInput) (*domain.Coupon, error) {
	c := &domain.Coupon{
		Code:         domain.NormalizeCouponCode(in.Code),
		DiscountType: domain.DiscountType(domain.NormalizeCouponCode(string(in.DiscountType))),
		Value:        in.Value,
		ExpiryDate:   in.ExpiryDate,
		IsActive:     true,
		UsageLimit:   in.UsageLimit,
	}
	if c.Code == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrInvalidCoupon)
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	if err := s.coupons.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CouponService) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.coupons.List(ctx)
}

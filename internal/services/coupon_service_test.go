package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCouponService_Validate(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name          string
		code          string
		setupMocks    func(*mocks.MockCouponRepository)
		expectedError error
	}{
		{
			name: "valid",
			code: "welcome",
			setupMocks: func(r *mocks.MockCouponRepository) {
				c := CreateMockCoupon("c-1", "WELCOME", domain.DiscountPercent, "15")
				c.ExpiryDate = &future
				r.On("FindActiveByCode", mock.Anything, "WELCOME").Return(c, nil)
			},
		},
		{
			name: "missing",
			code: "NOPE",
			setupMocks: func(r *mocks.MockCouponRepository) {
				r.On("FindActiveByCode", mock.Anything, "NOPE").Return(nil, nil)
			},
			expectedError: domain.ErrCouponNotFound,
		},
		{
			name:          "blank",
			code:          "   ",
			setupMocks:    func(r *mocks.MockCouponRepository) {},
			expectedError: domain.ErrCouponNotFound,
		},
		{
			name: "expires exactly now",
			code: "EDGE",
			setupMocks: func(r *mocks.MockCouponRepository) {
				c := CreateMockCoupon("c-2", "EDGE", domain.DiscountFixed, "5")
				c.ExpiryDate = &now
				r.On("FindActiveByCode", mock.Anything, "EDGE").Return(c, nil)
				r.On("Deactivate", mock.Anything, "c-2").Return(nil).Once()
			},
			expectedError: domain.ErrCouponExpired,
		},
		{
			name: "expired, deactivation failure still rejects",
			code: "OLD",
			setupMocks: func(r *mocks.MockCouponRepository) {
				c := CreateMockCoupon("c-3", "OLD", domain.DiscountFixed, "5")
				c.ExpiryDate = &past
				r.On("FindActiveByCode", mock.Anything, "OLD").Return(c, nil)
				r.On("Deactivate", mock.Anything, "c-3").Return(errors.New("db down"))
			},
			expectedError: domain.ErrCouponExpired,
		},
		{
			name: "usage limit reached",
			code: "FULL",
			setupMocks: func(r *mocks.MockCouponRepository) {
				c := CreateMockCoupon("c-4", "FULL", domain.DiscountFixed, "5")
				c.UsageLimit, c.UsageCount = 3, 3
				r.On("FindActiveByCode", mock.Anything, "FULL").Return(c, nil)
			},
			expectedError: domain.ErrCouponExhausted,
		},
		{
			name: "zero limit is unlimited",
			code: "ALWAYS",
			setupMocks: func(r *mocks.MockCouponRepository) {
				c := CreateMockCoupon("c-5", "ALWAYS", domain.DiscountFixed, "5")
				c.UsageCount = 1000
				r.On("FindActiveByCode", mock.Anything, "ALWAYS").Return(c, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockCouponRepository)
			tt.setupMocks(repo)

			svc := NewCouponService(repo, zap.NewNop())
			svc.now = func() time.Time { return now }

			c, err := svc.Validate(context.Background(), tt.code)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, c)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.NormalizeCouponCode(tt.code), c.Code)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCouponService_Create(t *testing.T) {
	t.Run("normalizes and stores", func(t *testing.T) {
		repo := new(mocks.MockCouponRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Coupon) bool {
			return c.Code == "SPRING25" && c.DiscountType == domain.DiscountPercent && c.IsActive
		})).Return(nil)

		c, err := NewCouponService(repo, zap.NewNop()).Create(context.Background(), CreateCouponInput{
			Code:         " spring25",
			DiscountType: "percent",
			Value:        decimal.NewFromInt(25),
			UsageLimit:   100,
		})
		require.NoError(t, err)
		assert.Equal(t, "SPRING25", c.Code)
		assert.Equal(t, 100, c.UsageLimit)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate code", func(t *testing.T) {
		repo := new(mocks.MockCouponRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrCouponCodeTaken)

		_, err := NewCouponService(repo, zap.NewNop()).Create(context.Background(), CreateCouponInput{
			Code: "DUP", DiscountType: domain.DiscountFixed, Value: decimal.NewFromInt(5),
		})
		assert.ErrorIs(t, err, domain.ErrCouponCodeTaken)
	})

	for _, in := range []CreateCouponInput{
		{Code: "", DiscountType: domain.DiscountFixed, Value: decimal.NewFromInt(5)},
		{Code: "X", DiscountType: domain.DiscountPercent, Value: decimal.NewFromInt(150)},
		{Code: "X", DiscountType: domain.DiscountFixed, Value: decimal.Zero},
		{Code: "X", DiscountType: "BOGO", Value: decimal.NewFromInt(1)},
	} {
		repo := new(mocks.MockCouponRepository)
		_, err := NewCouponService(repo, zap.NewNop()).Create(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidCoupon, "%+v", in)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

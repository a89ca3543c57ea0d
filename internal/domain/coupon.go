package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	ID           string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	Code         string          `json:"code" gorm:"type:varchar(64);uniqueIndex;not null"`
	DiscountType DiscountType    `json:"discountType" gorm:"type:varchar(16);not null;default:'PERCENT'"`
	Value        decimal.Decimal `json:"value" gorm:"type:decimal(10,2);not null"`
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
	IsActive     bool            `json:"isActive" gorm:"not null;default:true"`
	UsageCount   int             `json:"usageCount" gorm:"not null;default:0"`
	UsageLimit   int             `json:"usageLimit" gorm:"not null;default:0"`
	CreatedAt    time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// NormalizeCouponCode is the canonical stored/lookup form of a code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExpiredAt reports whether the coupon is expired at t. A coupon whose expiry
// equals t is already expired.
func (c *Coupon) ExpiredAt(t time.Time) bool {
	return c.ExpiryDate != nil && !t.Before(*c.ExpiryDate)
}

// Exhausted reports whether the usage limit has been reached. A zero limit is unlimited.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit
}

// Check validates type and value for a new coupon.
func (c *Coupon) Check() error {
	switch c.DiscountType {
	case DiscountPercent:
		if !c.Value.IsPositive() || c.Value.GreaterThan(hundred) {
			return ErrInvalidCoupon
		}
	case DiscountFixed:
		if !c.Value.IsPositive() {
			return ErrInvalidCoupon
		}
	default:
		return ErrInvalidCoupon
	}
	if c.UsageLimit < 0 {
		return ErrInvalidCoupon
	}
	return nil
}

// Discount returns the amount taken off subtotal, never more than subtotal.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case DiscountPercent:
		d = subtotal.Mul(c.Value).Div(hundred).Round(2)
	case DiscountFixed:
		d = c.Value
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ApplyDiscount returns subtotal minus discount, clamped at zero.
func ApplyDiscount(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

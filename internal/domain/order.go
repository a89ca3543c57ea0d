package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusShipped: true, StatusDelivered: true, StatusCancelled: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

// ParseOrderStatus accepts any casing of a known status.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := validNext[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
// Staying in the same status is not a transition.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// StatusFromSupplier maps a free-text supplier status onto the local enum.
// The second return value is false when nothing matched.
func StatusFromSupplier(raw string) (OrderStatus, bool) {
	s := strings.ToUpper(raw)
	switch {
	case strings.Contains(s, "CANCEL"):
		return StatusCancelled, true
	case strings.Contains(s, "DELIVER"):
		return StatusDelivered, true
	case strings.Contains(s, "SHIP"):
		return StatusShipped, true
	}
	return "", false
}

type Order struct {
	ID              string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID          string          `json:"userId" gorm:"type:varchar(64);not null;index"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index"`
	Subtotal        decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	DiscountAmount  decimal.Decimal `json:"discountAmount" gorm:"type:decimal(10,2);not null"`
	TotalAmount     decimal.Decimal `json:"totalAmount" gorm:"type:decimal(10,2);not null"`
	CouponCode      *string         `json:"couponCode,omitempty" gorm:"type:varchar(64)"`
	SupplierOrderID *string         `json:"supplierOrderId,omitempty" gorm:"type:varchar(128);index"`
	TrackingNumber  *string         `json:"trackingNumber,omitempty" gorm:"type:varchar(128)"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// ItemsSubtotal sums price-at-purchase times quantity over all line items.
func (o *Order) ItemsSubtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// OrderItem is written once with its order and never updated.
type OrderItem struct {
	ID                string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	OrderID           string          `json:"orderId" gorm:"type:varchar(36);not null;index"`
	ProductID         string          `json:"productId" gorm:"type:varchar(36);not null;index"`
	Position          int             `json:"-" gorm:"not null;default:0"`
	SKU               string          `json:"sku" gorm:"type:varchar(64)"`
	SupplierVariantID string          `json:"supplierVariantId,omitempty" gorm:"type:varchar(128)"`
	Quantity          int             `json:"quantity" gorm:"not null"`
	Price             decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt         time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

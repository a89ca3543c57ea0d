package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. SupplierProductID and SupplierVariantID map it
// onto the dropshipping catalog (CJ pid / vid).
type Product struct {
	ID                string          `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title             string          `json:"title" gorm:"type:varchar(255);not null"`
	Description       string          `json:"description" gorm:"type:text"`
	Price             decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	SKU               string          `json:"sku" gorm:"type:varchar(64);uniqueIndex;not null"`
	ImageURL          string          `json:"imageUrl,omitempty" gorm:"type:varchar(512)"`
	Category          string          `json:"category,omitempty" gorm:"type:varchar(128);index"`
	SupplierID        string          `json:"supplierId,omitempty" gorm:"type:varchar(128)"`
	SupplierProductID string          `json:"supplierProductId,omitempty" gorm:"type:varchar(128)"`
	SupplierVariantID string          `json:"supplierVariantId,omitempty" gorm:"type:varchar(128)"`
	Stock             int             `json:"stock" gorm:"not null;default:0"`
	CreatedAt         time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

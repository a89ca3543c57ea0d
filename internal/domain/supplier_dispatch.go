package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DispatchState string

const (
	DispatchPending   DispatchState = "PENDING"
	DispatchSucceeded DispatchState = "SUCCEEDED"
	DispatchDead      DispatchState = "DEAD"
	DispatchSkipped   DispatchState = "SKIPPED"
)

// SupplierDispatch records a supplier create-order call that has to be retried.
// There is at most one per order. SupplierOrderID is set once the supplier has
// accepted the order, after which only storing that id is retried.
type SupplierDispatch struct {
	ID              string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	OrderID         string        `json:"orderId" gorm:"type:varchar(36);uniqueIndex;not null"`
	SupplierOrderID string        `json:"supplierOrderId,omitempty" gorm:"type:varchar(128)"`
	State           DispatchState `json:"state" gorm:"type:varchar(16);not null;index"`
	Attempts        int           `json:"attempts" gorm:"not null;default:0"`
	LastError       string        `json:"lastError" gorm:"type:text"`
	NextAttemptAt   time.Time     `json:"nextAttemptAt" gorm:"index"`
	CreatedAt       time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (d *SupplierDispatch) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Backoff returns the delay before the next attempt: base doubled per attempt, capped at max.
func Backoff(attempts int, base, max time.Duration) time.Duration {
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

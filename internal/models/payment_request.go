package models

import (
	"time"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRequestStatus is the lifecycle state of a merchant charge
type PaymentRequestStatus string

// PENDING moves to exactly one of the terminal states PAID or EXPIRED.
const (
	PaymentRequestPending PaymentRequestStatus = "PENDING"
	PaymentRequestPaid    PaymentRequestStatus = "PAID"
	PaymentRequestExpired PaymentRequestStatus = "EXPIRED"
)

// PaymentRequest is a merchant-initiated charge, shown to the customer as a QR code
type PaymentRequest struct {
	ID         uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	MerchantID uuid.UUID            `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Merchant   *Merchant            `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`
	Amount     money.Amount         `gorm:"not null" json:"amount"`
	Status     PaymentRequestStatus `gorm:"type:varchar(10);not null;default:PENDING;index" json:"status"`
	CustomerID *uuid.UUID           `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	PaidAt     *time.Time           `json:"paid_at,omitempty"`
	CreatedAt  time.Time            `gorm:"not null;autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns a UUID when none was set
func (p *PaymentRequest) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

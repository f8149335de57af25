package models

import (
	"time"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BillStatus is the repayment state of an installment
type BillStatus string

// OVERDUE is informational and set by the overdue job only.
const (
	BillPending BillStatus = "PENDING"
	BillPaid    BillStatus = "PAID"
	BillOverdue BillStatus = "OVERDUE"
)

// InstallmentBill is one scheduled repayment of a PAYMENT transaction
type InstallmentBill struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID uuid.UUID          `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Transaction   *WalletTransaction `gorm:"foreignKey:TransactionID" json:"-"`
	AccountID     uuid.UUID          `gorm:"type:uuid;not null;index" json:"account_id"` // Denormalized from the transaction
	Sequence      int                `gorm:"not null" json:"sequence"`
	AmountDue     money.Amount       `gorm:"not null" json:"amount_due"`
	DueDate       time.Time          `gorm:"type:date;not null;index" json:"due_date"`
	Status        BillStatus         `gorm:"type:varchar(10);not null;default:PENDING;index" json:"status"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	RemindedAt    *time.Time         `json:"-"`
	CreatedAt     time.Time          `gorm:"not null;autoCreateTime" json:"created_at"`
}

// IsPaid reports whether the bill has been repaid
func (b *InstallmentBill) IsPaid() bool {
	return b.Status == BillPaid
}

// BeforeCreate assigns a UUID when none was set
func (b *InstallmentBill) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

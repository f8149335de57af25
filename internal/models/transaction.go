package models

import (
	"time"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionType distinguishes credit draws from repayments
type TransactionType string

const (
	TransactionPayment   TransactionType = "PAYMENT"
	TransactionRepayment TransactionType = "REPAYMENT"
)

// WalletTransaction is an append-only ledger entry on an account
type WalletTransaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	Type             TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	SignedAmount     money.Amount    `gorm:"not null" json:"signed_amount"`     // Positive for PAYMENT, negative for REPAYMENT
	BalanceDueAfter  money.Amount    `gorm:"not null" json:"balance_due_after"` // Snapshot after this entry
	PaymentRequestID *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"payment_request_id,omitempty"`
	PaymentRequest   *PaymentRequest `gorm:"foreignKey:PaymentRequestID" json:"-"`
	CreatedAt        time.Time       `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

// BeforeCreate assigns a UUID when none was set
func (t *WalletTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

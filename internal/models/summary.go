package models

import (
	"time"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
)

// CreditSummary is the customer's view of their credit line
type CreditSummary struct {
	CreditLimit     money.Amount `json:"credit_limit"`
	BalanceDue      money.Amount `json:"balance_due"`
	AvailableCredit money.Amount `json:"available_credit"`
	UnpaidBills     int64        `json:"unpaid_bills"`
	OverdueBills    int64        `json:"overdue_bills"`
	NextDue         *BillView    `json:"next_due,omitempty"`
}

// BillView is an installment bill with the merchant it originated from
type BillView struct {
	ID           uuid.UUID    `json:"id"`
	Sequence     int          `json:"sequence"`
	AmountDue    money.Amount `json:"amount_due"`
	DueDate      string       `json:"due_date"` // Format: YYYY-MM-DD
	Status       BillStatus   `json:"status"`
	PaidAt       *time.Time   `json:"paid_at,omitempty"`
	MerchantName string       `json:"merchant_name"`
}

// TransactionView is a ledger entry with the merchant it was paid to, if any
type TransactionView struct {
	ID              uuid.UUID       `json:"id"`
	Type            TransactionType `json:"type"`
	SignedAmount    money.Amount    `json:"signed_amount"`
	BalanceDueAfter money.Amount    `json:"balance_due_after"`
	MerchantName    string          `json:"merchant_name,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PaymentRequestView is a payment request as shown to merchants and paying customers
type PaymentRequestView struct {
	ID           uuid.UUID            `json:"id"`
	MerchantID   uuid.UUID            `json:"merchant_id"`
	MerchantName string               `json:"merchant_name"`
	Amount       money.Amount         `json:"amount"`
	Status       PaymentRequestStatus `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	QRPayload    string               `json:"qr_payload,omitempty"`
}

package models

import (
	"time"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the revolving credit line owned by exactly one user
type Account struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	CreditLimit money.Amount `gorm:"not null;default:0" json:"credit_limit"`
	BalanceDue  money.Amount `gorm:"not null;default:0" json:"balance_due"` // Drawn and not yet repaid
	CreatedAt   time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// AvailableCredit is the part of the limit that can still be drawn
func (a *Account) AvailableCredit() money.Amount {
	return a.CreditLimit - a.BalanceDue
}

// BeforeCreate assigns a UUID when none was set
func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

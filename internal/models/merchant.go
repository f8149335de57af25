package models

import (
	"time"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MerchantStatusActive is the only status that accepts payments
const MerchantStatusActive = "ACTIVE"

// Merchant is a shop issuing payment requests
type Merchant struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string       `gorm:"type:varchar(255);not null" json:"name"`
	TaxID             string       `gorm:"type:varchar(20);not null;uniqueIndex" json:"tax_id"`
	ContactEmail      string       `gorm:"type:varchar(255)" json:"contact_email,omitempty"`
	ContactPhone      string       `gorm:"type:varchar(20)" json:"contact_phone,omitempty"`
	Status            string       `gorm:"type:varchar(20);not null;default:ACTIVE" json:"status"`
	ReceivableBalance money.Amount `gorm:"not null;default:0" json:"receivable_balance"` // Owed to the merchant, paid out T+1
	CreatedAt         time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// MerchantUser links a user to a merchant they operate
type MerchantUser struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_merchant_user"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_merchant_user;index"`
	Merchant   *Merchant `gorm:"foreignKey:MerchantID"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
}

// BeforeCreate assigns a UUID when none was set
func (m *Merchant) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns a UUID when none was set
func (m *MerchantUser) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

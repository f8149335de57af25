package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReceivableCheck compares a merchant's receivable balance with its PAID requests
type ReceivableCheck struct {
	MerchantID   uuid.UUID
	MerchantName string
	Receivable   money.Amount
	PaidTotal    money.Amount
}

// CreateMerchant creates a merchant and links its first operator. Call it inside WithTx.
func (r *Repository) CreateMerchant(ctx context.Context, merchant *models.Merchant, operatorID uuid.UUID) error {
	if err := r.conn(ctx).Create(merchant).Error; err != nil {
		return fmt.Errorf("failed to create merchant: %w", classify(err))
	}
	link := &models.MerchantUser{MerchantID: merchant.ID, UserID: operatorID}
	if err := r.conn(ctx).Omit("Merchant").Create(link).Error; err != nil {
		return fmt.Errorf("failed to link merchant operator: %w", classify(err))
	}
	return nil
}

// FindMerchantLinkage returns the merchant the user operates, or ErrNotFound
func (r *Repository) FindMerchantLinkage(ctx context.Context, userID uuid.UUID) (*models.Merchant, error) {
	var link models.MerchantUser
	err := r.conn(ctx).
		Preload("Merchant").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		First(&link).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find merchant linkage: %w", classify(err))
	}
	if link.Merchant == nil {
		return nil, fmt.Errorf("failed to find merchant linkage: %w", ErrNotFound)
	}
	return link.Merchant, nil
}

// IsOperatorOf reports whether the user is registered staff of the merchant
func (r *Repository) IsOperatorOf(ctx context.Context, userID, merchantID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&models.MerchantUser{}).
		Where("user_id = ? AND merchant_id = ?", userID, merchantID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check merchant operator: %w", classify(err))
	}
	return count > 0, nil
}

// IncrementReceivable atomically adds amount to the merchant's receivable balance
func (r *Repository) IncrementReceivable(ctx context.Context, merchantID uuid.UUID, amount money.Amount) error {
	res := r.conn(ctx).
		Model(&models.Merchant{}).
		Where("id = ?", merchantID).
		Updates(map[string]any{
			"receivable_balance": gorm.Expr("receivable_balance + ?", amount.Cents()),
			"updated_at":         gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update receivable: %w", classify(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update receivable: merchant %s: %w", merchantID, ErrNotFound)
	}
	return nil
}

// ReceivableChecks returns, per merchant, the receivable balance next to the sum of its PAID requests
func (r *Repository) ReceivableChecks(ctx context.Context) ([]ReceivableCheck, error) {
	var rows []ReceivableCheck
	err := r.conn(ctx).
		Table("merchants AS m").
		Select("m.id AS merchant_id, m.name AS merchant_name, m.receivable_balance AS receivable, "+
			"CAST(COALESCE(SUM(pr.amount), 0) AS BIGINT) AS paid_total").
		Joins("LEFT JOIN payment_requests pr ON pr.merchant_id = m.id AND pr.status = ?", models.PaymentRequestPaid).
		Group("m.id, m.name, m.receivable_balance").
		Order("m.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load receivables: %w", classify(err))
	}
	return rows, nil
}

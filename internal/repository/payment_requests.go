package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/google/uuid"
)

// CreatePaymentRequest stores a new PENDING payment request
func (r *Repository) CreatePaymentRequest(ctx context.Context, req *models.PaymentRequest) error {
	if err := r.conn(ctx).Omit("Merchant").Create(req).Error; err != nil {
		return fmt.Errorf("failed to create payment request: %w", classify(err))
	}
	return nil
}

// FindPaymentRequest retrieves a payment request with its merchant
func (r *Repository) FindPaymentRequest(ctx context.Context, id uuid.UUID) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	if err := r.conn(ctx).Preload("Merchant").Where("id = ?", id).First(&req).Error; err != nil {
		return nil, fmt.Errorf("failed to find payment request: %w", classify(err))
	}
	return &req, nil
}

// MarkRequestPaid moves a PENDING request to PAID. It returns false, without error,
// when the request was no longer PENDING.
func (r *Repository) MarkRequestPaid(ctx context.Context, id, customerID uuid.UUID, paidAt time.Time) (bool, error) {
	res := r.conn(ctx).
		Model(&models.PaymentRequest{}).
		Where("id = ? AND status = ?", id, models.PaymentRequestPending).
		Updates(map[string]any{
			"status":      models.PaymentRequestPaid,
			"customer_id": customerID,
			"paid_at":     paidAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark payment request paid: %w", classify(res.Error))
	}
	return res.RowsAffected == 1, nil
}

// ExpirePendingRequests moves PENDING requests created before cutoff to EXPIRED
func (r *Repository) ExpirePendingRequests(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.conn(ctx).
		Model(&models.PaymentRequest{}).
		Where("status = ? AND created_at < ?", models.PaymentRequestPending, cutoff).
		Update("status", models.PaymentRequestExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire payment requests: %w", classify(res.Error))
	}
	return res.RowsAffected, nil
}

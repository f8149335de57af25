package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
)

// CreateTransaction appends a ledger entry
func (r *Repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	if err := r.conn(ctx).Omit("PaymentRequest").Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", classify(err))
	}
	return nil
}

// CountTransactions counts ledger entries of an account
func (r *Repository) CountTransactions(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.WalletTransaction{}).Where("account_id = ?", accountID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", classify(err))
	}
	return count, nil
}

type transactionRow struct {
	ID              uuid.UUID
	Type            models.TransactionType
	SignedAmount    money.Amount
	BalanceDueAfter money.Amount
	MerchantName    sql.NullString
	CreatedAt       time.Time
}

// ListTransactionViews returns an account's ledger, newest first. A zero from or to
// leaves that side of the range open.
func (r *Repository) ListTransactionViews(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]models.TransactionView, error) {
	q := r.conn(ctx).
		Table("wallet_transactions AS t").
		Select("t.id, t.type, t.signed_amount, t.balance_due_after, m.name AS merchant_name, t.created_at").
		Joins("LEFT JOIN payment_requests pr ON pr.id = t.payment_request_id").
		Joins("LEFT JOIN merchants m ON m.id = pr.merchant_id").
		Where("t.account_id = ?", accountID)
	if !from.IsZero() {
		q = q.Where("t.created_at >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("t.created_at < ?", to.UTC())
	}

	var rows []transactionRow
	if err := q.Order("t.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", classify(err))
	}

	views := make([]models.TransactionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.TransactionView{
			ID:              row.ID,
			Type:            row.Type,
			SignedAmount:    row.SignedAmount,
			BalanceDueAfter: row.BalanceDueAfter,
			MerchantName:    row.MerchantName.String,
			CreatedAt:       row.CreatedAt,
		})
	}
	return views, nil
}

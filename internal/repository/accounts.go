package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateAccount creates a new credit account in the database
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := r.conn(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", classify(err))
	}
	return nil
}

// FindAccountByUserID retrieves the account owned by a user without locking it
func (r *Repository) FindAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.conn(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to find account: %w", classify(err))
	}
	return &account, nil
}

// LockAccountByUserID loads the user's account and holds an exclusive row lock on it
// until the surrounding transaction ends. Must be called inside WithTx.
func (r *Repository) LockAccountByUserID(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", classify(err))
	}
	return &account, nil
}

// AdjustBalanceDue atomically adds delta to the account's balance_due and returns
// the resulting balance as seen by the current transaction.
func (r *Repository) AdjustBalanceDue(ctx context.Context, accountID uuid.UUID, delta money.Amount) (money.Amount, error) {
	res := r.conn(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]any{
			"balance_due": gorm.Expr("balance_due + ?", delta.Cents()),
			"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update balance: %w", classify(res.Error))
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("failed to update balance: %w", ErrNotFound)
	}

	var balance int64
	err := r.conn(ctx).
		Model(&models.Account{}).
		Select("balance_due").
		Where("id = ?", accountID).
		Scan(&balance).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", classify(err))
	}
	return money.FromCents(balance), nil
}

// Package guard holds the eligibility checks run before credit is drawn.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/Dan9191/bnpl-service/internal/repository"
	"github.com/google/uuid"
)

// MerchantDirectory answers which merchants a user operates
type MerchantDirectory interface {
	FindMerchantLinkage(ctx context.Context, userID uuid.UUID) (*models.Merchant, error)
	IsOperatorOf(ctx context.Context, userID, merchantID uuid.UUID) (bool, error)
}

// IsMerchantOperator reports whether the user is registered staff of the merchant
func IsMerchantOperator(ctx context.Context, dir MerchantDirectory, userID, merchantID uuid.UUID) (bool, error) {
	ok, err := dir.IsOperatorOf(ctx, userID, merchantID)
	if err != nil {
		return false, fmt.Errorf("failed to check merchant staff: %w", err)
	}
	return ok, nil
}

// OperatedMerchant returns the merchant the user operates, or nil when there is none
func OperatedMerchant(ctx context.Context, dir MerchantDirectory, userID uuid.UUID) (*models.Merchant, error) {
	merchant, err := dir.FindMerchantLinkage(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return merchant, nil
}

// AvailableCredit is what remains of the limit; never negative
func AvailableCredit(account *models.Account) money.Amount {
	available := account.AvailableCredit()
	if available < 0 {
		return money.Zero
	}
	return available
}

// HasSufficientCredit reports whether amount can be drawn without exceeding the limit
func HasSufficientCredit(account *models.Account, amount money.Amount) bool {
	return account.BalanceDue+amount <= account.CreditLimit
}

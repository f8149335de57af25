package settlement

import (
	"errors"
	"fmt"

	"github.com/Dan9191/bnpl-service/internal/money"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("payment request is not payable")
	ErrAlreadyPaid          = errors.New("already paid")
	ErrExpired              = errors.New("payment request expired")
	ErrSelfPaymentForbidden = errors.New("merchant staff cannot pay their own merchant")
	ErrAccountNotFound      = errors.New("credit account not found")
	ErrInsufficientCredit   = errors.New("insufficient credit")
	ErrInvalidInstallments  = errors.New("invalid installment plan")
	// ErrConflict means the operation lost a lock race or timed out waiting; retry it.
	ErrConflict = errors.New("account is busy, retry later")
	ErrInternal = errors.New("internal settlement failure")
)

// CreditError reports a draw that would exceed the credit limit
type CreditError struct {
	Available money.Amount
	Requested money.Amount
}

func (e *CreditError) Error() string {
	return fmt.Sprintf("%s: available %s, requested %s", ErrInsufficientCredit, e.Available, e.Requested)
}

func (e *CreditError) Unwrap() error {
	return ErrInsufficientCredit
}

var businessErrors = []error{
	ErrNotFound,
	ErrInvalidState,
	ErrAlreadyPaid,
	ErrExpired,
	ErrSelfPaymentForbidden,
	ErrAccountNotFound,
	ErrInsufficientCredit,
	ErrInvalidInstallments,
	ErrConflict,
	ErrInternal,
}

// IsBusinessError reports whether err is one of the settlement error kinds
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Package settlement turns accepted payment requests into credit draws with an
// installment plan, and applies repayments against those installments. Each
// operation runs as one database transaction around a row lock.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/bnpl-service/internal/clock"
	"github.com/Dan9191/bnpl-service/internal/guard"
	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/repository"
	"github.com/Dan9191/bnpl-service/internal/schedule"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Receipt is the outcome of a successful settlement
type Receipt struct {
	Transaction *models.WalletTransaction `json:"transaction"`
	Bills       []models.InstallmentBill  `json:"bills"`
	Request     *models.PaymentRequest    `json:"-"`
}

// Engine performs the credit-drawing and repayment state transitions
type Engine struct {
	repo  *repository.Repository
	clock clock.Clock
	log   *logrus.Logger
}

// NewEngine creates a settlement engine
func NewEngine(repo *repository.Repository, clk clock.Clock, log *logrus.Logger) *Engine {
	return &Engine{repo: repo, clock: clk, log: log}
}

// SettleAcceptedPayment pays a PENDING payment request from the user's credit line and
// schedules its repayment over months installments.
func (e *Engine) SettleAcceptedPayment(ctx context.Context, userID, requestID uuid.UUID, months int) (*Receipt, error) {
	if months < schedule.MinMonths || months > schedule.MaxMonths {
		return nil, fmt.Errorf("%w: months must be between %d and %d, got %d",
			ErrInvalidInstallments, schedule.MinMonths, schedule.MaxMonths, months)
	}

	var receipt *Receipt
	err := e.repo.WithTx(ctx, func(tx *repository.Repository) error {
		req, err := tx.FindPaymentRequest(ctx, requestID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: payment request %s", ErrNotFound, requestID)
		}
		if err != nil {
			return err
		}
		if err := requestStateError(req); err != nil {
			return err
		}

		isStaff, err := guard.IsMerchantOperator(ctx, tx, userID, req.MerchantID)
		if err != nil {
			return err
		}
		if isStaff {
			return ErrSelfPaymentForbidden
		}

		account, err := tx.LockAccountByUserID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user %s", ErrAccountNotFound, userID)
		}
		if err != nil {
			return err
		}

		if !guard.HasSufficientCredit(account, req.Amount) {
			return &CreditError{Available: guard.AvailableCredit(account), Requested: req.Amount}
		}

		entries, err := schedule.Generate(req.Amount, months, e.clock.Today())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstallments, err)
		}

		now := e.clock.Now()
		paid, err := tx.MarkRequestPaid(ctx, req.ID, userID, now)
		if err != nil {
			return err
		}
		if !paid {
			// Another writer moved the request after it was read.
			current, err := tx.FindPaymentRequest(ctx, req.ID)
			if err != nil {
				return err
			}
			if err := requestStateError(current); err != nil {
				return err
			}
			return fmt.Errorf("%w: payment request %s did not transition", ErrConflict, req.ID)
		}

		balance, err := tx.AdjustBalanceDue(ctx, account.ID, req.Amount)
		if err != nil {
			return err
		}
		if balance != account.BalanceDue+req.Amount {
			return fmt.Errorf("%w: balance moved while account was locked", ErrConflict)
		}

		txn := &models.WalletTransaction{
			AccountID:        account.ID,
			Type:             models.TransactionPayment,
			SignedAmount:     req.Amount,
			BalanceDueAfter:  balance,
			PaymentRequestID: &req.ID,
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		if err := tx.IncrementReceivable(ctx, req.MerchantID, req.Amount); err != nil {
			return err
		}

		bills := make([]models.InstallmentBill, 0, len(entries))
		for _, entry := range entries {
			bills = append(bills, models.InstallmentBill{
				TransactionID: txn.ID,
				AccountID:     account.ID,
				Sequence:      entry.Sequence,
				AmountDue:     entry.Amount,
				DueDate:       entry.DueDate,
				Status:        models.BillPending,
			})
		}
		if err := tx.CreateBills(ctx, bills); err != nil {
			return err
		}

		req.Status = models.PaymentRequestPaid
		req.CustomerID = &userID
		req.PaidAt = &now
		receipt = &Receipt{Transaction: txn, Bills: bills, Request: req}
		return nil
	})
	if err != nil {
		err = e.classify(err)
		e.logFailure("Settlement rejected", err, logrus.Fields{
			"user_id":            userID,
			"payment_request_id": requestID,
			"months":             months,
		})
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"transaction_id":     receipt.Transaction.ID,
		"account_id":         receipt.Transaction.AccountID,
		"payment_request_id": requestID,
		"amount":             receipt.Transaction.SignedAmount.String(),
		"months":             months,
	}).Info("Payment settled")
	return receipt, nil
}

// ApplyBillRepayment pays one installment bill owned by the user. Bills of other users
// are reported as not found.
func (e *Engine) ApplyBillRepayment(ctx context.Context, userID, billID uuid.UUID) (*models.InstallmentBill, error) {
	var bill *models.InstallmentBill
	err := e.repo.WithTx(ctx, func(tx *repository.Repository) error {
		locked, err := tx.LockBillForUser(ctx, billID, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: bill %s", ErrNotFound, billID)
		}
		if err != nil {
			return err
		}
		if locked.IsPaid() {
			return fmt.Errorf("%w: bill %s", ErrAlreadyPaid, billID)
		}

		now := e.clock.Now()
		paid, err := tx.MarkBillPaid(ctx, locked.ID, now)
		if err != nil {
			return err
		}
		if !paid {
			return fmt.Errorf("%w: bill %s", ErrAlreadyPaid, billID)
		}

		balance, err := tx.AdjustBalanceDue(ctx, locked.AccountID, locked.AmountDue.Neg())
		if err != nil {
			return err
		}
		if balance < 0 {
			return fmt.Errorf("%w: balance due of account %s would become %s", ErrInternal, locked.AccountID, balance)
		}

		txn := &models.WalletTransaction{
			AccountID:       locked.AccountID,
			Type:            models.TransactionRepayment,
			SignedAmount:    locked.AmountDue.Neg(),
			BalanceDueAfter: balance,
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		locked.Status = models.BillPaid
		locked.PaidAt = &now
		bill = locked
		return nil
	})
	if err != nil {
		err = e.classify(err)
		e.logFailure("Repayment rejected", err, logrus.Fields{"user_id": userID, "bill_id": billID})
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"bill_id":    bill.ID,
		"account_id": bill.AccountID,
		"amount":     bill.AmountDue.String(),
	}).Info("Bill repaid")
	return bill, nil
}

// requestStateError reports why a payment request cannot be settled, or nil when it is PENDING
func requestStateError(req *models.PaymentRequest) error {
	switch req.Status {
	case models.PaymentRequestPending:
		return nil
	case models.PaymentRequestPaid:
		return fmt.Errorf("%w: payment request %s", ErrAlreadyPaid, req.ID)
	case models.PaymentRequestExpired:
		return fmt.Errorf("%w: payment request %s", ErrExpired, req.ID)
	default:
		return fmt.Errorf("%w: status %s", ErrInvalidState, req.Status)
	}
}

// classify folds persistence failures into the engine's error kinds
func (e *Engine) classify(err error) error {
	switch {
	case IsBusinessError(err):
		return err
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

func (e *Engine) logFailure(msg string, err error, fields logrus.Fields) {
	entry := e.log.WithFields(fields).WithError(err)
	switch {
	case errors.Is(err, ErrInternal), errors.Is(err, ErrAccountNotFound):
		entry.Error(msg)
	case errors.Is(err, ErrConflict):
		entry.Warn(msg)
	default:
		entry.Info(msg)
	}
}

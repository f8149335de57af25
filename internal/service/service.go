package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/bnpl-service/internal/clock"
	"github.com/Dan9191/bnpl-service/internal/config"
	"github.com/Dan9191/bnpl-service/internal/guard"
	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/Dan9191/bnpl-service/internal/repository"
	"github.com/Dan9191/bnpl-service/internal/settlement"
	"github.com/Dan9191/bnpl-service/internal/statement"
	"github.com/Dan9191/bnpl-service/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already registered")
	ErrMerchantExists     = errors.New("merchant with this tax id already exists")
	ErrNotMerchant        = errors.New("user does not operate a merchant")
	ErrInvalidAmount      = errors.New("amount must be at least 0.01")
	ErrInvalidQR          = utils.ErrInvalidQR
	ErrInvalidPeriod      = errors.New("statement period start is after its end")
)

// Notifier delivers customer receipts. Failures never undo a committed operation.
type Notifier interface {
	SendPaymentReceipt(to, username, merchant string, amount money.Amount, months int, firstDue time.Time) error
	SendRepaymentReceipt(to, username string, amount, balanceDue money.Amount) error
}

// MerchantApplication is the data a user submits to open a merchant
type MerchantApplication struct {
	Name         string
	TaxID        string
	ContactEmail string
	ContactPhone string
}

// Service handles business logic
type Service struct {
	repo     *repository.Repository
	engine   *settlement.Engine
	log      *logrus.Logger
	config   *config.Config
	clock    clock.Clock
	notifier Notifier
}

// NewService initializes a new service
func NewService(repo *repository.Repository, engine *settlement.Engine, log *logrus.Logger, cfg *config.Config, clk clock.Clock, notifier Notifier) *Service {
	return &Service{repo: repo, engine: engine, log: log, config: cfg, clock: clk, notifier: notifier}
}

// Register creates a new user with hashed password and opens its credit account
func (s *Service) Register(ctx context.Context, username, email, password, phone string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Phone:        phone,
		PasswordHash: string(hashedPassword),
	}
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateAccount(ctx, &models.Account{
			UserID:      user.ID,
			CreditLimit: s.config.DefaultCreditLimit,
		})
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user by username or email and returns a JWT token
func (s *Service) Login(ctx context.Context, login, password string) (string, error) {
	user, err := s.repo.FindUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(s.clock.Now()),
		ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(s.config.JWTTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// ApplyMerchant opens an ACTIVE merchant operated by the applicant
func (s *Service) ApplyMerchant(ctx context.Context, userID uuid.UUID, app MerchantApplication) (*models.Merchant, error) {
	merchant := &models.Merchant{
		Name:         strings.TrimSpace(app.Name),
		TaxID:        strings.TrimSpace(app.TaxID),
		ContactEmail: app.ContactEmail,
		ContactPhone: app.ContactPhone,
		Status:       models.MerchantStatusActive,
	}
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		return tx.CreateMerchant(ctx, merchant, userID)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrMerchantExists
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"merchant_id": merchant.ID, "user_id": userID}).Info("Merchant opened")
	return merchant, nil
}

// CreatePaymentRequest issues a PENDING charge for the merchant the user operates
func (s *Service) CreatePaymentRequest(ctx context.Context, userID uuid.UUID, amount money.Amount) (*models.PaymentRequestView, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	merchant, err := guard.OperatedMerchant(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, ErrNotMerchant
	}

	req := &models.PaymentRequest{
		MerchantID: merchant.ID,
		Amount:     amount,
		Status:     models.PaymentRequestPending,
	}
	if err := s.repo.CreatePaymentRequest(ctx, req); err != nil {
		return nil, err
	}
	req.Merchant = merchant

	view := s.requestView(req)
	view.QRPayload = utils.EncodePaymentQR(req.ID, req.Amount, s.config.QRSecret)
	s.log.WithFields(logrus.Fields{
		"payment_request_id": req.ID,
		"merchant_id":        merchant.ID,
		"amount":             amount.String(),
	}).Info("Payment request created")
	return view, nil
}

// GetPaymentRequest returns a payment request by id
func (s *Service) GetPaymentRequest(ctx context.Context, id uuid.UUID) (*models.PaymentRequestView, error) {
	req, err := s.repo.FindPaymentRequest(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, settlement.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.requestView(req), nil
}

// ResolvePaymentRequest verifies a scanned QR payload and returns the request it names
func (s *Service) ResolvePaymentRequest(ctx context.Context, payload string) (*models.PaymentRequestView, error) {
	id, amount, err := utils.DecodePaymentQR(payload, s.config.QRSecret)
	if err != nil {
		return nil, err
	}
	view, err := s.GetPaymentRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.Amount != amount {
		return nil, fmt.Errorf("%w: amount does not match request", ErrInvalidQR)
	}
	return view, nil
}

// Pay settles a payment request from the user's credit line, then sends a receipt
func (s *Service) Pay(ctx context.Context, userID, requestID uuid.UUID, months int) (*settlement.Receipt, error) {
	receipt, err := s.engine.SettleAcceptedPayment(ctx, userID, requestID, months)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		s.log.WithError(err).Warn("Skipping payment receipt")
		return receipt, nil
	}
	merchantName := ""
	if receipt.Request.Merchant != nil {
		merchantName = receipt.Request.Merchant.Name
	}
	firstDue := receipt.Bills[0].DueDate
	if err := s.notifier.SendPaymentReceipt(user.Email, user.Username, merchantName, receipt.Transaction.SignedAmount, months, firstDue); err != nil {
		s.log.WithError(err).WithField("transaction_id", receipt.Transaction.ID).Warn("Payment receipt not delivered")
	}
	return receipt, nil
}

// RepayBill repays one installment, then sends a receipt
func (s *Service) RepayBill(ctx context.Context, userID, billID uuid.UUID) (*models.InstallmentBill, error) {
	bill, err := s.engine.ApplyBillRepayment(ctx, userID, billID)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		s.log.WithError(err).Warn("Skipping repayment receipt")
		return bill, nil
	}
	account, err := s.repo.FindAccountByUserID(ctx, userID)
	if err != nil {
		s.log.WithError(err).Warn("Skipping repayment receipt")
		return bill, nil
	}
	if err := s.notifier.SendRepaymentReceipt(user.Email, user.Username, bill.AmountDue, account.BalanceDue); err != nil {
		s.log.WithError(err).WithField("bill_id", bill.ID).Warn("Repayment receipt not delivered")
	}
	return bill, nil
}

// CreditSummary reports the user's limit, outstanding balance and next installment
func (s *Service) CreditSummary(ctx context.Context, userID uuid.UUID) (*models.CreditSummary, error) {
	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}
	unpaid, overdue, err := s.repo.CountUnpaidBills(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	summary := &models.CreditSummary{
		CreditLimit:     account.CreditLimit,
		BalanceDue:      account.BalanceDue,
		AvailableCredit: guard.AvailableCredit(account),
		UnpaidBills:     unpaid,
		OverdueBills:    overdue,
	}
	if unpaid > 0 {
		bills, err := s.repo.ListBillViews(ctx, account.ID, true)
		if err != nil {
			return nil, err
		}
		if len(bills) > 0 {
			summary.NextDue = &bills[0]
		}
	}
	return summary, nil
}

// UnpaidBills lists PENDING and OVERDUE bills by due date
func (s *Service) UnpaidBills(ctx context.Context, userID uuid.UUID) ([]models.BillView, error) {
	return s.bills(ctx, userID, true)
}

// AllBills lists every bill of the user by due date
func (s *Service) AllBills(ctx context.Context, userID uuid.UUID) ([]models.BillView, error) {
	return s.bills(ctx, userID, false)
}

// TransactionHistory lists the user's ledger, newest first
func (s *Service) TransactionHistory(ctx context.Context, userID uuid.UUID) ([]models.TransactionView, error) {
	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactionViews(ctx, account.ID, time.Time{}, time.Time{})
}

// Statement collects the transactions between two calendar dates, both inclusive,
// in the business time zone
func (s *Service) Statement(ctx context.Context, userID uuid.UUID, from, to time.Time) (*statement.Statement, error) {
	if from.After(to) {
		return nil, ErrInvalidPeriod
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc := s.config.Location
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	txns, err := s.repo.ListTransactionViews(ctx, account.ID, start, end)
	if err != nil {
		return nil, err
	}

	return &statement.Statement{
		Username:     user.Username,
		From:         from,
		To:           to,
		GeneratedAt:  s.clock.Now(),
		CreditLimit:  account.CreditLimit,
		BalanceDue:   account.BalanceDue,
		Transactions: txns,
	}, nil
}

func (s *Service) bills(ctx context.Context, userID uuid.UUID, unpaidOnly bool) ([]models.BillView, error) {
	account, err := s.account(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBillViews(ctx, account.ID, unpaidOnly)
}

func (s *Service) account(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindAccountByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.WithField("user_id", userID).Error("Authenticated user has no credit account")
		return nil, settlement.ErrAccountNotFound
	}
	return account, err
}

func (s *Service) requestView(req *models.PaymentRequest) *models.PaymentRequestView {
	view := &models.PaymentRequestView{
		ID:         req.ID,
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt,
	}
	if req.Merchant != nil {
		view.MerchantName = req.Merchant.Name
	}
	return view
}

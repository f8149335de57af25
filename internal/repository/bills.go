package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// ReminderRow is a bill due soon, with the contact details of its owner
type ReminderRow struct {
	BillID    uuid.UUID
	Email     string
	Username  string
	AmountDue money.Amount
	DueDate   time.Time
	Status    models.BillStatus
}

// CreateBills inserts a whole installment plan in one batch
func (r *Repository) CreateBills(ctx context.Context, bills []models.InstallmentBill) error {
	if len(bills) == 0 {
		return nil
	}
	if err := r.conn(ctx).Omit("Transaction").Create(&bills).Error; err != nil {
		return fmt.Errorf("failed to create bills: %w", classify(err))
	}
	return nil
}

// FindBill retrieves a bill by id
func (r *Repository) FindBill(ctx context.Context, id uuid.UUID) (*models.InstallmentBill, error) {
	var bill models.InstallmentBill
	if err := r.conn(ctx).Where("id = ?", id).First(&bill).Error; err != nil {
		return nil, fmt.Errorf("failed to find bill: %w", classify(err))
	}
	return &bill, nil
}

// ListBillsByTransaction returns the plan generated for a transaction, in order
func (r *Repository) ListBillsByTransaction(ctx context.Context, transactionID uuid.UUID) ([]models.InstallmentBill, error) {
	var bills []models.InstallmentBill
	err := r.conn(ctx).
		Where("transaction_id = ?", transactionID).
		Order("sequence ASC").
		Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", classify(err))
	}
	return bills, nil
}

// LockBillForUser loads a bill owned by the user and holds an exclusive row lock on
// it until the surrounding transaction ends. Bills of other users are reported as
// ErrNotFound.
func (r *Repository) LockBillForUser(ctx context.Context, billID, userID uuid.UUID) (*models.InstallmentBill, error) {
	var bill models.InstallmentBill
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND account_id IN (SELECT id FROM accounts WHERE user_id = ?)", billID, userID).
		First(&bill).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock bill: %w", classify(err))
	}
	return &bill, nil
}

// MarkBillPaid moves an unpaid bill to PAID. It returns false when the bill was already paid.
func (r *Repository) MarkBillPaid(ctx context.Context, billID uuid.UUID, paidAt time.Time) (bool, error) {
	res := r.conn(ctx).
		Model(&models.InstallmentBill{}).
		Where("id = ? AND status <> ?", billID, models.BillPaid).
		Updates(map[string]any{
			"status":  models.BillPaid,
			"paid_at": paidAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark bill paid: %w", classify(res.Error))
	}
	return res.RowsAffected == 1, nil
}

// MarkOverdueBills flags PENDING bills due before today as OVERDUE
func (r *Repository) MarkOverdueBills(ctx context.Context, today time.Time) (int64, error) {
	res := r.conn(ctx).
		Model(&models.InstallmentBill{}).
		Where("status = ? AND due_date < ?", models.BillPending, today).
		Update("status", models.BillOverdue)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue bills: %w", classify(res.Error))
	}
	return res.RowsAffected, nil
}

// CountUnpaidBills returns the number of unpaid and of overdue bills of an account
func (r *Repository) CountUnpaidBills(ctx context.Context, accountID uuid.UUID) (unpaid, overdue int64, err error) {
	err = r.conn(ctx).Model(&models.InstallmentBill{}).
		Where("account_id = ? AND status IN ?", accountID, []models.BillStatus{models.BillPending, models.BillOverdue}).
		Count(&unpaid).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count bills: %w", classify(err))
	}
	err = r.conn(ctx).Model(&models.InstallmentBill{}).
		Where("account_id = ? AND status = ?", accountID, models.BillOverdue).
		Count(&overdue).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count bills: %w", classify(err))
	}
	return unpaid, overdue, nil
}

type billRow struct {
	ID           uuid.UUID
	Sequence     int
	AmountDue    money.Amount
	DueDate      time.Time
	Status       models.BillStatus
	PaidAt       *time.Time
	MerchantName sql.NullString
}

// ListBillViews returns an account's bills by due date. With unpaidOnly set, only
// PENDING and OVERDUE bills are returned.
func (r *Repository) ListBillViews(ctx context.Context, accountID uuid.UUID, unpaidOnly bool) ([]models.BillView, error) {
	q := r.conn(ctx).
		Table("installment_bills AS b").
		Select("b.id, b.sequence, b.amount_due, b.due_date, b.status, b.paid_at, m.name AS merchant_name").
		Joins("JOIN wallet_transactions t ON t.id = b.transaction_id").
		Joins("LEFT JOIN payment_requests pr ON pr.id = t.payment_request_id").
		Joins("LEFT JOIN merchants m ON m.id = pr.merchant_id").
		Where("b.account_id = ?", accountID)
	if unpaidOnly {
		q = q.Where("b.status IN ?", []models.BillStatus{models.BillPending, models.BillOverdue})
	}

	var rows []billRow
	if err := q.Order("b.due_date ASC, b.sequence ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", classify(err))
	}

	views := make([]models.BillView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.BillView{
			ID:           row.ID,
			Sequence:     row.Sequence,
			AmountDue:    row.AmountDue,
			DueDate:      row.DueDate.Format("2006-01-02"),
			Status:       row.Status,
			PaidAt:       row.PaidAt,
			MerchantName: row.MerchantName.String,
		})
	}
	return views, nil
}

// BillsForReminder returns unpaid bills due on or before dueBy that were not
// reminded since remindedBefore
func (r *Repository) BillsForReminder(ctx context.Context, dueBy, remindedBefore time.Time) ([]ReminderRow, error) {
	var rows []ReminderRow
	err := r.conn(ctx).
		Table("installment_bills AS b").
		Select("b.id AS bill_id, u.email, u.username, b.amount_due, b.due_date, b.status").
		Joins("JOIN accounts a ON a.id = b.account_id").
		Joins("JOIN users u ON u.id = a.user_id").
		Where("b.status IN ?", []models.BillStatus{models.BillPending, models.BillOverdue}).
		Where("b.due_date <= ?", dueBy).
		Where("(b.reminded_at IS NULL OR b.reminded_at < ?)", remindedBefore).
		Order("b.due_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bills for reminder: %w", classify(err))
	}
	return rows, nil
}

// StampReminded records when the owner of a bill was last reminded
func (r *Repository) StampReminded(ctx context.Context, billID uuid.UUID, at time.Time) error {
	err := r.conn(ctx).
		Model(&models.InstallmentBill{}).
		Where("id = ?", billID).
		Update("reminded_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to stamp reminder: %w", classify(err))
	}
	return nil
}

package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/bnpl-service/internal/clock"
	"github.com/Dan9191/bnpl-service/internal/db/dbtest"
	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/Dan9191/bnpl-service/internal/repository"
	"github.com/Dan9191/bnpl-service/internal/settlement"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type fakeReminder struct {
	sent    []string
	overdue []bool
	failFor string
}

func (f *fakeReminder) SendBillReminder(to, _ string, _ time.Time, amount money.Amount, isOverdue bool) error {
	if to == f.failFor {
		return errors.New("mailbox full")
	}
	f.sent = append(f.sent, to+"|"+amount.String())
	f.overdue = append(f.overdue, isOverdue)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// settle draws amount over months for a fresh customer at the given instant.
func settle(t *testing.T, conn *gorm.DB, at time.Time, username string, amount string, months int) *settlement.Receipt {
	t.Helper()
	merchant, _ := dbtest.Merchant(t, conn, "shop-"+username)
	user, _ := dbtest.Customer(t, conn, username, money.MustParse("5000"), 0)
	req := dbtest.Request(t, conn, merchant, money.MustParse(amount))
	engine := settlement.NewEngine(repository.NewRepository(conn, 0), clock.Fixed{At: at}, quietLogger())
	receipt, err := engine.SettleAcceptedPayment(context.Background(), user.ID, req.ID, months)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	return receipt
}

func TestMarkOverdueLeavesBalancesAlone(t *testing.T) {
	conn := dbtest.Open(t)
	receipt := settle(t, conn, time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC), "amy", "90.00", 3)

	runner := NewRunner(repository.NewRepository(conn, 0), clock.Fixed{At: time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC)}, quietLogger(), &fakeReminder{}, Settings{})
	n, err := runner.MarkOverdue(context.Background())
	if err != nil {
		t.Fatalf("mark overdue: %v", err)
	}
	// Feb 15 and Mar 15 have passed, Apr 15 has not.
	if n != 2 {
		t.Fatalf("marked %d, want 2", n)
	}

	var account models.Account
	if err := conn.Where("id = ?", receipt.Transaction.AccountID).First(&account).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if account.BalanceDue.String() != "90.00" {
		t.Fatalf("balance changed to %s", account.BalanceDue)
	}
}

func TestExpireStaleRequests(t *testing.T) {
	conn := dbtest.Open(t)
	merchant, _ := dbtest.Merchant(t, conn, "stall")
	req := dbtest.Request(t, conn, merchant, money.MustParse("10"))

	repo := repository.NewRepository(conn, 0)
	later := clock.Fixed{At: time.Now().UTC().Add(time.Hour)}
	runner := NewRunner(repo, later, quietLogger(), &fakeReminder{}, Settings{RequestTTL: 15 * time.Minute})
	n, err := runner.ExpireStaleRequests(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expire: n=%d err=%v", n, err)
	}
	stored, err := repo.FindPaymentRequest(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != models.PaymentRequestExpired {
		t.Fatalf("status %s", stored.Status)
	}
}

func TestSendDueRemindersOncePerDay(t *testing.T) {
	conn := dbtest.Open(t)
	settle(t, conn, time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC), "bea", "100.00", 2)
	settle(t, conn, time.Date(2026, time.January, 14, 9, 0, 0, 0, time.UTC), "cal", "40.00", 1)
	settle(t, conn, time.Date(2026, time.January, 30, 9, 0, 0, 0, time.UTC), "dan", "10.00", 1)

	reminder := &fakeReminder{failFor: "cal@example.com"}
	now := clock.Fixed{At: time.Date(2026, time.February, 13, 8, 0, 0, 0, time.UTC)}
	runner := NewRunner(repository.NewRepository(conn, 0), now, quietLogger(), reminder, Settings{ReminderDaysAhead: 3})

	// bea's first bill (Feb 15) and cal's bill (Feb 14) fall in the window; dan's (Feb 28) does not.
	sent, err := runner.SendDueReminders(context.Background())
	if err != nil {
		t.Fatalf("send reminders: %v", err)
	}
	if sent != 1 || len(reminder.sent) != 1 || reminder.sent[0] != "bea@example.com|50.00" {
		t.Fatalf("sent=%d reminders=%v", sent, reminder.sent)
	}
	if reminder.overdue[0] {
		t.Fatalf("upcoming bill reported overdue")
	}

	reminder.failFor = ""
	sent, err = runner.SendDueReminders(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sent != 1 || reminder.sent[1] != "cal@example.com|40.00" {
		t.Fatalf("second run sent=%d reminders=%v", sent, reminder.sent)
	}
}

func TestReconcileReceivablesReportsMismatch(t *testing.T) {
	conn := dbtest.Open(t)
	receipt := settle(t, conn, time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC), "eve", "25.00", 1)
	runner := NewRunner(repository.NewRepository(conn, 0), clock.Fixed{At: time.Now()}, quietLogger(), &fakeReminder{}, Settings{})

	mismatches, err := runner.ReconcileReceivables(context.Background())
	if err != nil || mismatches != 0 {
		t.Fatalf("clean ledger: mismatches=%d err=%v", mismatches, err)
	}

	err = conn.Model(&models.Merchant{}).
		Where("id = ?", receipt.Request.MerchantID).
		Update("receivable_balance", money.MustParse("30.00")).Error
	if err != nil {
		t.Fatalf("corrupt receivable: %v", err)
	}
	mismatches, err = runner.ReconcileReceivables(context.Background())
	if err != nil || mismatches != 1 {
		t.Fatalf("corrupted ledger: mismatches=%d err=%v", mismatches, err)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	conn := dbtest.Open(t)
	runner := NewRunner(repository.NewRepository(conn, 0), clock.NewSystem(nil), quietLogger(), &fakeReminder{}, Settings{OverdueSpec: "not a spec"})
	if _, err := runner.Start(); err == nil {
		t.Fatalf("expected schedule error")
	}

	runner = NewRunner(repository.NewRepository(conn, 0), clock.NewSystem(nil), quietLogger(), &fakeReminder{}, Settings{ExpireSpec: "@every 1h"})
	c, err := runner.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Fatalf("%d entries", len(c.Entries()))
	}
	c.Stop()
}

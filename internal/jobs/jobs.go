// Package jobs runs the periodic housekeeping of the ledger: overdue marking,
// request expiry, installment reminders and receivable reconciliation.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/bnpl-service/internal/clock"
	"github.com/Dan9191/bnpl-service/internal/models"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/Dan9191/bnpl-service/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// ReminderSender delivers installment reminders
type ReminderSender interface {
	SendBillReminder(to, username string, dueDate time.Time, amount money.Amount, isOverdue bool) error
}

// Settings controls job behaviour and schedules
type Settings struct {
	RequestTTL        time.Duration
	ReminderDaysAhead int
	Location          *time.Location

	OverdueSpec   string
	ExpireSpec    string
	RemindersSpec string
	ReconcileSpec string
}

// Runner executes the jobs against the repository
type Runner struct {
	repo     *repository.Repository
	clock    clock.Clock
	log      *logrus.Logger
	reminder ReminderSender
	settings Settings
}

// NewRunner creates a job runner
func NewRunner(repo *repository.Repository, clk clock.Clock, log *logrus.Logger, reminder ReminderSender, settings Settings) *Runner {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Runner{repo: repo, clock: clk, log: log, reminder: reminder, settings: settings}
}

// MarkOverdue flags PENDING bills whose due date has passed. Balances are not touched.
func (r *Runner) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := r.repo.MarkOverdueBills(ctx, r.clock.Today())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.WithField("bills", n).Info("Bills marked overdue")
	}
	return n, nil
}

// ExpireStaleRequests expires PENDING payment requests older than the request TTL
func (r *Runner) ExpireStaleRequests(ctx context.Context) (int64, error) {
	n, err := r.repo.ExpirePendingRequests(ctx, r.clock.Now().Add(-r.settings.RequestTTL))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.WithField("requests", n).Info("Payment requests expired")
	}
	return n, nil
}

// SendDueReminders emails owners of bills due within the reminder window, and of
// overdue bills, at most once per business day
func (r *Runner) SendDueReminders(ctx context.Context) (int, error) {
	today := r.clock.Today()
	dueBy := today.AddDate(0, 0, r.settings.ReminderDaysAhead)
	startOfDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, r.settings.Location).UTC()

	rows, err := r.repo.BillsForReminder(ctx, dueBy, startOfDay)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, row := range rows {
		overdue := row.Status == models.BillOverdue || row.DueDate.Before(today)
		if err := r.reminder.SendBillReminder(row.Email, row.Username, row.DueDate, row.AmountDue, overdue); err != nil {
			r.log.WithError(err).WithField("bill_id", row.BillID).Warn("Reminder not delivered")
			continue
		}
		if err := r.repo.StampReminded(ctx, row.BillID, r.clock.Now()); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		r.log.WithField("reminders", sent).Info("Installment reminders sent")
	}
	return sent, nil
}

// ReconcileReceivables compares each merchant's receivable balance with the total of
// its PAID requests and logs every mismatch. It returns the number of mismatches.
func (r *Runner) ReconcileReceivables(ctx context.Context) (int, error) {
	checks, err := r.repo.ReceivableChecks(ctx)
	if err != nil {
		return 0, err
	}
	mismatches := 0
	for _, c := range checks {
		if c.Receivable == c.PaidTotal {
			continue
		}
		mismatches++
		r.log.WithFields(logrus.Fields{
			"merchant_id":   c.MerchantID,
			"merchant_name": c.MerchantName,
			"receivable":    c.Receivable.String(),
			"paid_total":    c.PaidTotal.String(),
		}).Warn("Merchant receivable does not match paid requests")
	}
	return mismatches, nil
}

// Start schedules every job with a non-empty spec and starts the scheduler
func (r *Runner) Start() (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(r.settings.Location))
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"mark_overdue", r.settings.OverdueSpec, func(ctx context.Context) error { _, err := r.MarkOverdue(ctx); return err }},
		{"expire_requests", r.settings.ExpireSpec, func(ctx context.Context) error { _, err := r.ExpireStaleRequests(ctx); return err }},
		{"due_reminders", r.settings.RemindersSpec, func(ctx context.Context) error { _, err := r.SendDueReminders(ctx); return err }},
		{"reconcile_receivables", r.settings.ReconcileSpec, func(ctx context.Context) error { _, err := r.ReconcileReceivables(ctx); return err }},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		name, run := job.name, job.run
		if _, err := c.AddFunc(job.spec, func() { r.runJob(name, run) }); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", name, err)
		}
		r.log.WithFields(logrus.Fields{"job": name, "spec": job.spec}).Info("Job scheduled")
	}
	c.Start()
	return c, nil
}

func (r *Runner) runJob(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := run(ctx); err != nil {
		r.log.WithError(err).WithField("job", name).Error("Job failed")
	}
}

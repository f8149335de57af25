// Package schedule splits a drawn amount into monthly installments.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bnpl-service/internal/clock"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/shopspring/decimal"
)

const (
	// MinMonths is the shortest plan: the full amount due one month out.
	MinMonths = 1
	// MaxMonths is the longest plan offered.
	MaxMonths = 12
)

var (
	// ErrInvalidMonths is returned when months is outside [MinMonths, MaxMonths].
	ErrInvalidMonths = errors.New("schedule: installment months must be between 1 and 12")
	// ErrInvalidAmount is returned for a non-positive total.
	ErrInvalidAmount = errors.New("schedule: total amount must be positive")
	// ErrAmountTooSmall is returned when the split would produce an installment <= 0.
	ErrAmountTooSmall = errors.New("schedule: amount too small for the requested number of installments")
)

// Entry is one installment of a plan.
type Entry struct {
	Sequence int          // 1-based installment number.
	Amount   money.Amount // Amount due for this installment.
	DueDate  time.Time    // Calendar date, midnight UTC.
}

// Generate splits total into months installments. Every installment but the last is
// total/months rounded half-up to cents; the last one takes whatever remains so the
// plan always sums to total exactly. Installment i is due i months after settledOn.
func Generate(total money.Amount, months int, settledOn time.Time) ([]Entry, error) {
	if months < MinMonths || months > MaxMonths {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMonths, months)
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, total)
	}

	base, err := money.FromDecimal(
		total.Decimal().Div(decimal.NewFromInt(int64(months))).Round(money.Scale),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule: installment amount: %w", err)
	}
	last := total - base*money.Amount(months-1)
	if !base.IsPositive() || !last.IsPositive() {
		return nil, fmt.Errorf("%w: %s over %d months", ErrAmountTooSmall, total, months)
	}

	start := clock.Date(settledOn)
	entries := make([]Entry, 0, months)
	for i := 0; i < months; i++ {
		amount := base
		if i == months-1 {
			amount = last
		}
		entries = append(entries, Entry{
			Sequence: i + 1,
			Amount:   amount,
			DueDate:  AddMonths(start, i+1),
		})
	}
	return entries, nil
}

// AddMonths moves a date by whole calendar months, clamping to the last day of the
// target month when it is shorter (Jan 31 + 1 month = Feb 28/29).
func AddMonths(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, time.UTC)
}

// Total sums the installment amounts.
func Total(entries []Entry) money.Amount {
	var sum money.Amount
	for _, e := range entries {
		sum += e.Amount
	}
	return sum
}

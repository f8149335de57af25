package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/bnpl-service/internal/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateHundredOverThree(t *testing.T) {
	entries, err := Generate(money.MustParse("100.00"), 3, date(2026, time.March, 10))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	wantAmounts := []string{"33.33", "33.33", "33.34"}
	wantDates := []time.Time{date(2026, time.April, 10), date(2026, time.May, 10), date(2026, time.June, 10)}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Amount.String() != wantAmounts[i] {
			t.Fatalf("entry %d amount = %s, want %s", i, e.Amount, wantAmounts[i])
		}
		if !e.DueDate.Equal(wantDates[i]) {
			t.Fatalf("entry %d due = %s, want %s", i, e.DueDate, wantDates[i])
		}
		if e.Sequence != i+1 {
			t.Fatalf("entry %d sequence = %d", i, e.Sequence)
		}
	}
	if Total(entries) != money.MustParse("100.00") {
		t.Fatalf("total = %s", Total(entries))
	}
}

func TestGenerateSumsExactlyForEveryPlan(t *testing.T) {
	totals := []string{"0.12", "1.00", "5.00", "99.99", "100.00", "1234.57", "1999.99", "2000.00"}
	for _, raw := range totals {
		total := money.MustParse(raw)
		for months := MinMonths; months <= MaxMonths; months++ {
			entries, err := Generate(total, months, date(2026, time.January, 15))
			if errors.Is(err, ErrAmountTooSmall) {
				continue
			}
			if err != nil {
				t.Fatalf("Generate(%s, %d): %v", raw, months, err)
			}
			if len(entries) != months {
				t.Fatalf("Generate(%s, %d): %d entries", raw, months, len(entries))
			}
			if got := Total(entries); got != total {
				t.Fatalf("Generate(%s, %d) sums to %s", raw, months, got)
			}
			for i := 0; i < months-1; i++ {
				if entries[i].Amount != entries[0].Amount {
					t.Fatalf("Generate(%s, %d): entry %d differs from base", raw, months, i)
				}
			}
			for _, e := range entries {
				if !e.Amount.IsPositive() {
					t.Fatalf("Generate(%s, %d): non-positive installment %s", raw, months, e.Amount)
				}
			}
		}
	}
}

func TestGenerateRoundsHalfUp(t *testing.T) {
	// 0.05 / 2 = 0.025 -> 0.03, remainder 0.02 on the last installment.
	entries, err := Generate(money.MustParse("0.05"), 2, date(2026, time.January, 1))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if entries[0].Amount.String() != "0.03" || entries[1].Amount.String() != "0.02" {
		t.Fatalf("got %s, %s", entries[0].Amount, entries[1].Amount)
	}
}

func TestGenerateSingleMonth(t *testing.T) {
	entries, err := Generate(money.MustParse("250.75"), 1, date(2026, time.October, 15))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(entries) != 1 || entries[0].Amount.String() != "250.75" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if !entries[0].DueDate.Equal(date(2026, time.November, 15)) {
		t.Fatalf("due %s", entries[0].DueDate)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	if _, err := Generate(money.MustParse("10"), 0, date(2026, 1, 1)); !errors.Is(err, ErrInvalidMonths) {
		t.Fatalf("expected ErrInvalidMonths, got %v", err)
	}
	if _, err := Generate(money.MustParse("10"), 13, date(2026, 1, 1)); !errors.Is(err, ErrInvalidMonths) {
		t.Fatalf("expected ErrInvalidMonths, got %v", err)
	}
	if _, err := Generate(money.Zero, 3, date(2026, 1, 1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := Generate(money.MustParse("0.01"), 12, date(2026, 1, 1)); !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("expected ErrAmountTooSmall, got %v", err)
	}
	// base rounds up to 0.02 and 11 of them exceed the total.
	if _, err := Generate(money.MustParse("0.18"), 12, date(2026, 1, 1)); !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("expected ErrAmountTooSmall, got %v", err)
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{date(2026, time.January, 31), 1, date(2026, time.February, 28)},
		{date(2028, time.January, 31), 1, date(2028, time.February, 29)},
		{date(2026, time.January, 31), 2, date(2026, time.March, 31)},
		{date(2026, time.March, 31), 1, date(2026, time.April, 30)},
		{date(2026, time.August, 31), 6, date(2027, time.February, 28)},
		{date(2026, time.November, 15), 2, date(2027, time.January, 15)},
		{date(2026, time.December, 31), 12, date(2027, time.December, 31)},
	}
	for _, tt := range tests {
		if got := AddMonths(tt.from, tt.n); !got.Equal(tt.want) {
			t.Fatalf("AddMonths(%s, %d) = %s, want %s", tt.from.Format("2006-01-02"), tt.n, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}

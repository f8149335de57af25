package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"100", 10000},
		{"100.5", 10050},
		{"100.50", 10050},
		{"0.01", 1},
		{" 33.33 ", 3333},
		{"-12.10", -1210},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseRejectsExtraPrecision(t *testing.T) {
	if _, err := Parse("1.005"); !errors.Is(err, ErrPrecision) {
		t.Fatalf("expected ErrPrecision, got %v", err)
	}
	if _, err := Parse("abc"); err == nil {
		t.Fatalf("expected error for garbage input")
	}
	if _, err := Parse("10000000000000000"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestStringAlwaysTwoDigits(t *testing.T) {
	if got := FromCents(200000).String(); got != "2000.00" {
		t.Fatalf("got %q", got)
	}
	if got := FromCents(5).String(); got != "0.05" {
		t.Fatalf("got %q", got)
	}
	if got := FromCents(-3333).String(); got != "-33.33" {
		t.Fatalf("got %q", got)
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	a := MustParse("1999.99")
	back, err := FromDecimal(a.Decimal())
	if err != nil {
		t.Fatalf("FromDecimal: %v", err)
	}
	if back != a {
		t.Fatalf("got %s, want %s", back, a)
	}
	if !a.Decimal().Equal(decimal.RequireFromString("1999.99")) {
		t.Fatalf("unexpected decimal %s", a.Decimal())
	}
}

func TestJSON(t *testing.T) {
	payload := struct {
		Amount Amount `json:"amount"`
	}{Amount: MustParse("12.3")}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"amount":"12.30"}` {
		t.Fatalf("unexpected json %s", raw)
	}

	var fromNumber struct {
		Amount Amount `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":45.6}`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if fromNumber.Amount != 4560 {
		t.Fatalf("got %d", fromNumber.Amount)
	}
	if err := json.Unmarshal([]byte(`{"amount":"1.234"}`), &fromNumber); err == nil {
		t.Fatalf("expected precision error")
	}
}

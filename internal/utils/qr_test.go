package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
)

func TestPaymentQRRoundTrip(t *testing.T) {
	id := uuid.New()
	payload := EncodePaymentQR(id, money.MustParse("149.90"), "s3cret")
	if !strings.HasPrefix(payload, "bnpl:v1:"+id.String()+":149.90:") {
		t.Fatalf("unexpected payload %s", payload)
	}

	gotID, gotAmount, err := DecodePaymentQR(payload, "s3cret")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotID != id || gotAmount.String() != "149.90" {
		t.Fatalf("decoded %s %s", gotID, gotAmount)
	}
}

func TestDecodePaymentQRRejectsTampering(t *testing.T) {
	id := uuid.New()
	payload := EncodePaymentQR(id, money.MustParse("10.00"), "s3cret")

	tests := map[string]string{
		"amount changed": strings.Replace(payload, ":10.00:", ":1.00:", 1),
		"wrong secret":   payload,
		"not a qr":       "https://example.com/pay",
		"missing field":  "bnpl:v1:" + id.String() + ":10.00",
	}
	for name, candidate := range tests {
		secret := "s3cret"
		if name == "wrong secret" {
			secret = "other"
		}
		if _, _, err := DecodePaymentQR(candidate, secret); !errors.Is(err, ErrInvalidQR) {
			t.Fatalf("%s: expected ErrInvalidQR, got %v", name, err)
		}
	}
}

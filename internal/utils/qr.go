package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/google/uuid"
)

const qrPrefix = "bnpl:v1"

// ErrInvalidQR is returned for payloads that are malformed or carry a bad signature
var ErrInvalidQR = errors.New("invalid payment QR code")

// GenerateHMAC signs the joined parts with HMAC-SHA256 and returns it hex encoded
func GenerateHMAC(secret string, parts ...string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h.Sum(nil))
}

// EncodePaymentQR builds the signed payload printed in a payment request's QR code.
// Format: bnpl:v1:<request id>:<amount>:<signature>
func EncodePaymentQR(requestID uuid.UUID, amount money.Amount, secret string) string {
	id := requestID.String()
	sig := GenerateHMAC(secret, qrPrefix, id, amount.String())
	return fmt.Sprintf("%s:%s:%s:%s", qrPrefix, id, amount.String(), sig)
}

// DecodePaymentQR verifies a payload produced by EncodePaymentQR
func DecodePaymentQR(payload, secret string) (uuid.UUID, money.Amount, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(payload), qrPrefix+":")
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("%w: unknown format", ErrInvalidQR)
	}
	fields := strings.Split(rest, ":")
	if len(fields) != 3 {
		return uuid.Nil, 0, fmt.Errorf("%w: expected 3 fields, got %d", ErrInvalidQR, len(fields))
	}

	want := GenerateHMAC(secret, qrPrefix, fields[0], fields[1])
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(fields[2]))) {
		return uuid.Nil, 0, fmt.Errorf("%w: signature mismatch", ErrInvalidQR)
	}

	id, err := uuid.Parse(fields[0])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("%w: %v", ErrInvalidQR, err)
	}
	amount, err := money.Parse(fields[1])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("%w: %v", ErrInvalidQR, err)
	}
	return id, amount, nil
}

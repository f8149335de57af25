package email

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/bnpl-service/internal/config"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

func newTestSender(send func(*email.Email) error) *Sender {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewSender(&config.Config{SenderEmail: "no-reply@bnpl.local"}, logger)
	s.send = send
	return s
}

func TestSendBillReminderOverdue(t *testing.T) {
	var sent *email.Email
	s := newTestSender(func(e *email.Email) error {
		sent = e
		return nil
	})

	due := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)
	if err := s.SendBillReminder("erin@example.com", "erin", due, money.MustParse("33.34"), true); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent == nil || sent.Subject != "Overdue Installment Notification" {
		t.Fatalf("unexpected email %+v", sent)
	}
	body := string(sent.Text)
	if !strings.Contains(body, "33.34") || !strings.Contains(body, "2026-04-10") {
		t.Fatalf("body missing details: %s", body)
	}
}

func TestSendPropagatesTransportError(t *testing.T) {
	s := newTestSender(func(*email.Email) error { return errors.New("connection refused") })
	if err := s.SendRepaymentReceipt("a@example.com", "a", money.MustParse("10"), money.Zero); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSendWithoutSMTPIsDropped(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewSender(&config.Config{}, logger)
	err := s.SendPaymentReceipt("a@example.com", "a", "shop", money.MustParse("10"), 1, time.Now())
	if err != nil {
		t.Fatalf("expected silent drop, got %v", err)
	}
}

package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/bnpl-service/internal/config"
	"github.com/Dan9191/bnpl-service/internal/money"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender. Without SMTP_HOST messages are logged and dropped.
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = s.sendSMTP
	return s
}

// SendBillReminder reminds a customer of an upcoming or overdue installment
func (s *Sender) SendBillReminder(to, username string, dueDate time.Time, amount money.Amount, isOverdue bool) error {
	return s.deliver(billReminder(s.cfg.SenderEmail, to, username, dueDate, amount, isOverdue))
}

// SendPaymentReceipt confirms a purchase paid with credit
func (s *Sender) SendPaymentReceipt(to, username, merchant string, amount money.Amount, months int, firstDue time.Time) error {
	return s.deliver(paymentReceipt(s.cfg.SenderEmail, to, username, merchant, amount, months, firstDue))
}

// SendRepaymentReceipt confirms an installment repayment
func (s *Sender) SendRepaymentReceipt(to, username string, amount, balanceDue money.Amount) error {
	return s.deliver(repaymentReceipt(s.cfg.SenderEmail, to, username, amount, balanceDue))
}

func billReminder(from, to, username string, dueDate time.Time, amount money.Amount, isOverdue bool) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	if isOverdue {
		e.Subject = "Overdue Installment Notification"
	} else {
		e.Subject = "Upcoming Installment Reminder"
	}

	body := fmt.Sprintf("Dear %s,\n\n", username)
	if isOverdue {
		body += fmt.Sprintf(
			"Your installment of %s was due on %s and is now overdue.\n"+
				"Please repay it as soon as possible to keep your credit line in good standing.\n",
			amount, dueDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your installment of %s is due on %s.\n",
			amount, dueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nBNPL Service"
	e.Text = []byte(body)
	return e
}

func paymentReceipt(from, to, username, merchant string, amount money.Amount, months int, firstDue time.Time) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = "Purchase Confirmation"
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"You paid %s at %s with your credit line.\n"+
			"The amount will be repaid in %d monthly installment(s), the first one due on %s.\n",
		username, amount, merchant, months, firstDue.Format("2006-01-02"),
	)
	body += "\nBest regards,\nBNPL Service"
	e.Text = []byte(body)
	return e
}

func repaymentReceipt(from, to, username string, amount, balanceDue money.Amount) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = "Repayment Notification"
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"We received your installment repayment of %s.\n"+
			"Outstanding balance: %s\n",
		username, amount, balanceDue,
	)
	body += "\nBest regards,\nBNPL Service"
	e.Text = []byte(body)
	return e
}

func (s *Sender) deliver(e *email.Email) error {
	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

func (s *Sender) sendSMTP(e *email.Email) error {
	if s.cfg.SMTPHost == "" {
		s.logger.Debugf("SMTP not configured, dropping email %q", e.Subject)
		return nil
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}

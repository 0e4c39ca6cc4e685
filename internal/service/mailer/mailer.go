// Package mailer sends transactional email. Mail is best-effort on
// every path: a failed send is logged, never surfaced as a checkout or
// reconciliation failure.
package mailer

import (
	"fmt"
	"io"
	"log"
	"net/smtp"

	"knot-art-api/internal/domain"
)

type Mailer interface {
	SendOrderConfirmation(o *domain.Order) error
}

type smtpMailer struct {
	host   string
	port   string
	user   string
	pass   string
	from   string
	logger *log.Logger
}

// NewSMTP returns a Mailer that delivers over plain-auth SMTP.
func NewSMTP(host, port, user, pass, from string, logger *log.Logger) Mailer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &smtpMailer{host: host, port: port, user: user, pass: pass, from: from, logger: logger}
}

func (m *smtpMailer) SendOrderConfirmation(o *domain.Order) error {
	subject := fmt.Sprintf("Knot Art order confirmation %s", o.OrderNumber)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nThank you for your order! Your order number is %s.\r\nOrder total: %s. Delivery: %s. Grand total: %s.\r\n\r\nKnot Art",
		o.FullName, o.OrderNumber,
		formatCents(o.OrderTotalCents), formatCents(o.DeliveryCostCents), formatCents(o.GrandTotalCents),
	)

	message := []byte("To: " + o.Email + "\r\n" +
		"From: " + m.from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{o.Email}, message); err != nil {
		m.logger.Printf("mailer: send confirmation order=%s error=%v", o.OrderNumber, err)
		return err
	}
	m.logger.Printf("mailer: sent confirmation order=%s to=%s", o.OrderNumber, o.Email)
	return nil
}

// disabledMailer is used when SMTP is not configured; it logs the skip
// so a missing confirmation email is never silent.
type disabledMailer struct {
	logger *log.Logger
}

func NewDisabled(logger *log.Logger) Mailer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &disabledMailer{logger: logger}
}

func (m *disabledMailer) SendOrderConfirmation(o *domain.Order) error {
	m.logger.Printf("mailer: smtp not configured, skipping confirmation for order=%s", o.OrderNumber)
	return nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

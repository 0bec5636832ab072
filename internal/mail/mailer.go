package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/zenhq/helpdesk/internal/config"
	log "github.com/sirupsen/logrus"
)

// Mailer delivers one plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New selects a mailer from the SMTP config: a real SMTP sender when an
// address is configured, otherwise the log-only sender.
func New(cfg config.SMTPConfig) Mailer {
	if strings.TrimSpace(cfg.Addr) == "" {
		return &LogMailer{}
	}
	return &SMTPMailer{Addr: cfg.Addr, From: cfg.From}
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	Addr string
	From string
}

// Send delivers the message via SMTP.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.From, to, subject, body)
	if errSend := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg)); errSend != nil {
		return fmt.Errorf("mail: send to %s: %w", to, errSend)
	}
	return nil
}

// LogMailer logs messages instead of delivering them. Used in development
// and tests.
type LogMailer struct {
	// Sent records delivered messages when non-nil collection is wanted.
	Sent []SentMessage
}

// SentMessage is one message captured by LogMailer.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// Send logs and records the message.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Sent = append(m.Sent, SentMessage{To: to, Subject: subject, Body: body})
	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("mail (log only)")
	return nil
}

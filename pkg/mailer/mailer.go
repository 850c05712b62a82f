// Package mailer delivers daily access codes over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/dukex/dailygate/pkg/config"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a STARTTLS SMTP relay.
type SMTPSender struct {
	settings config.SMTPSettings
	logger   *slog.Logger
}

func NewSMTPSender(settings config.SMTPSettings, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{
		settings: settings,
		logger:   logger.With("module", "mailer"),
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	from := s.settings.From
	if from == "" {
		from = s.settings.Username
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.settings.Host, s.settings.Port)
	auth := smtp.PlainAuth("", s.settings.Username, s.settings.Password, s.settings.Host)

	done := make(chan error, 1)

	go func() {
		done <- smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp delivery to %s failed: %w", to, err)
		}
	}

	s.logger.InfoContext(ctx, "Mail delivered", "to", to, "subject", subject)

	return nil
}

// Noop discards all mail. Used in development and tests.
type Noop struct {
	logger *slog.Logger
}

func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger.With("module", "mailer")}
}

func (n *Noop) Send(ctx context.Context, to, subject, _ string) error {
	n.logger.InfoContext(ctx, "Mail delivery disabled, dropping message", "to", to, "subject", subject)

	return nil
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

var _ Notifier = (*EmailNotifier)(nil)

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Host     string
	Port     string
	From     string
	Password string
	To       []string
}

// EmailNotifier sends plain-text mail through an SMTP server.
type EmailNotifier struct {
	cfg      EmailConfig
	logger   *zap.Logger
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(cfg EmailConfig, logger *zap.Logger) (*EmailNotifier, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, errors.New("email notifier requires smtp host, sender and at least one recipient")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{cfg: cfg, logger: logger, sendMail: smtp.SendMail}, nil
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if e.cfg.Password != "" {
		auth = smtp.PlainAuth("", e.cfg.From, e.cfg.Password, e.cfg.Host)
	}

	addr := net.JoinHostPort(e.cfg.Host, e.cfg.Port)
	if err := e.sendMail(addr, auth, e.cfg.From, e.cfg.To, e.compose(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}

	e.logger.Info("email notification sent", zap.Strings("to", e.cfg.To), zap.String("subject", msg.Subject))
	return nil
}

func (e *EmailNotifier) compose(msg Message) []byte {
	body := msg.Body
	if msg.URL != "" {
		body += "\n\nPosting: " + msg.URL
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	b.WriteString("MIME-version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

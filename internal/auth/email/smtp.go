package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	mail "github.com/go-mail/mail"
)

// SMTPConfig holds SMTP delivery settings.
type SMTPConfig struct {
	Host               string
	Port               int
	From               string
	Username           string
	Password           string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// SMTPSender delivers messages over SMTP using go-mail.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	if cfg.TLSMode == "" {
		cfg.TLSMode = "auto"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) Send(ctx context.Context, kind Kind, recipient string, vars map[string]string) error {
	subject, text, html, err := render(kind, vars)
	if err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.Timeout = s.cfg.Timeout
	d.TLSConfig = &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	}

	switch s.cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.cfg.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negotiates STARTTLS when offered.
	}

	// go-mail has no context support; run the dial in a goroutine so a stuck
	// SMTP server cannot hold the request past its deadline.
	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			s.logger.ErrorContext(ctx, "smtp send failed",
				slog.String("kind", string(kind)),
				slog.String("host", s.cfg.Host),
				slog.Any("error", err),
			)
			return fmt.Errorf("email: smtp send: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("email: smtp send: %w", ctx.Err())
	}

	s.logger.DebugContext(ctx, "email sent",
		slog.String("kind", string(kind)),
		slog.String("host", s.cfg.Host),
	)
	return nil
}

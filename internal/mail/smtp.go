package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/pkg/slogx"
)

// Config holds SMTP connection settings. An empty Host disables
// delivery, which is what dev environments run with: codes land in the
// log instead.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SalesAddress receives demo request notices.
	SalesAddress string
}

// Mailer sends plain-text mail over SMTP. It implements
// service.Mailer.
type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

var subjects = map[domain.CodeType]string{
	domain.CodeEmailVerify:   "Verify your email address",
	domain.CodePasswordReset: "Reset your password",
	domain.CodeTwoFactor:     "Your login code",
	domain.CodePinVerify:     "Your PIN verification code",
}

func (m *Mailer) SendVerificationCode(ctx context.Context, email, code string, typ domain.CodeType) error {
	subject, ok := subjects[typ]
	if !ok {
		subject = "Your verification code"
	}

	body := fmt.Sprintf("Your code is %s. It expires shortly; if you did not request it, ignore this message.", code)
	return m.send(ctx, email, subject, body)
}

func (m *Mailer) SendDemoRequestNotice(ctx context.Context, prospectEmail string) error {
	body := fmt.Sprintf("Demo access requested by %s.", prospectEmail)
	return m.send(ctx, m.cfg.SalesAddress, "New demo request", body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.cfg.Host == "" {
		slogx.FromContext(ctx).Info("mail delivery disabled, dropping message",
			"to", to, "subject", subject)
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

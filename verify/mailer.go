package verify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	auth "github.com/fractallabs/authkit"
)

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Mailer delivers verification codes over SMTP.
type Mailer struct {
	cfg SMTPConfig
}

var _ Sender = (*Mailer)(nil)

// NewMailer returns a Mailer for the given SMTP settings.
func NewMailer(cfg SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &Mailer{cfg: cfg}, nil
}

// Send emails the code to the address.
func (m *Mailer) Send(ctx context.Context, email, code string) error {
	msg := mail.NewMsg()

	if m.cfg.FromName != "" {
		if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(m.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(email); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject("Your verification code")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your verification code is %s. It expires shortly; if you did not request it, ignore this message.",
		code,
	))

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}

	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if m.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// LogSender logs codes instead of delivering them. For local development
// where no SMTP relay is available.
type LogSender struct {
	Logger auth.Logger
}

var _ Sender = (*LogSender)(nil)

func (l LogSender) Send(_ context.Context, email, code string) error {
	logger := l.Logger
	if logger == nil {
		return nil
	}
	logger.Info("verification code (log delivery)", "email", email, "code", code)
	return nil
}

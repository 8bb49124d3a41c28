// Package mailer selects one email provider at startup and exposes a
// single Send surface to the rest of the application. Provider choice
// is driven by an explicit tag, never by sniffing which credential
// fields happen to be populated.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobkeep/go-reminders/pkg/adapters"
	"github.com/jobkeep/go-reminders/pkg/adapters/aws_ses"
	"github.com/jobkeep/go-reminders/pkg/adapters/console"
	"github.com/jobkeep/go-reminders/pkg/adapters/gmail"
	"github.com/jobkeep/go-reminders/pkg/adapters/resend"
	"github.com/jobkeep/go-reminders/pkg/adapters/smtp"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
)

// Provider tags for Config.Provider.
const (
	ProviderSMTP    = "smtp"
	ProviderGmail   = "gmail"
	ProviderResend  = "resend"
	ProviderSES     = "ses"
	ProviderConsole = "console"
)

// ErrNotConfigured is returned by Send when no provider was selected.
var ErrNotConfigured = errors.New("mailer: not configured")

// DeliveryError reports a failed send along with the provider that
// attempted it.
type DeliveryError struct {
	Provider string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mailer: delivery failed via %s: %v", e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Config selects and configures the active provider.
type Config struct {
	Provider    string
	FromName    string
	FromAddress string

	SMTP   smtp.Config
	Gmail  gmail.Config
	Resend resend.Config
	SES    aws_ses.Config
}

// Mailer wraps the selected provider adapter.
type Mailer struct {
	messenger adapters.Messenger
	logger    logger.Logger
}

// New builds a Mailer for the configured provider. An empty or unknown
// provider tag is a construction error, not a silent no-op.
func New(cfg Config, l logger.Logger) (*Mailer, error) {
	if l == nil {
		l = &logger.Nop{}
	}

	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}

	var messenger adapters.Messenger
	switch cfg.Provider {
	case ProviderSMTP:
		smtpCfg := cfg.SMTP
		if smtpCfg.From == "" {
			smtpCfg.From = from
		}
		messenger = smtp.New(l, smtp.WithConfig(smtpCfg))
	case ProviderGmail:
		gmailCfg := cfg.Gmail
		if gmailCfg.From == "" {
			gmailCfg.From = from
		}
		messenger = gmail.New(l, gmail.WithConfig(gmailCfg))
	case ProviderResend:
		resendCfg := cfg.Resend
		if resendCfg.From == "" {
			resendCfg.From = from
		}
		messenger = resend.New(l, resend.WithConfig(resendCfg))
	case ProviderSES:
		sesCfg := cfg.SES
		if sesCfg.From == "" {
			sesCfg.From = cfg.FromAddress
		}
		messenger = aws_ses.New(l, aws_ses.WithConfig(sesCfg))
	case ProviderConsole:
		messenger = console.New(l)
	case "":
		return nil, fmt.Errorf("mailer: provider required")
	default:
		return nil, fmt.Errorf("mailer: unknown provider %q", cfg.Provider)
	}

	return &Mailer{messenger: messenger, logger: l}, nil
}

// NewWithMessenger wraps an already-built adapter. Used by tests and by
// callers that construct their own provider.
func NewWithMessenger(m adapters.Messenger, l logger.Logger) *Mailer {
	if l == nil {
		l = &logger.Nop{}
	}
	return &Mailer{messenger: m, logger: l}
}

// Provider reports the active provider name, or "" when unconfigured.
func (m *Mailer) Provider() string {
	if m == nil || m.messenger == nil {
		return ""
	}
	return m.messenger.Name()
}

// Send delivers an HTML email to a single recipient. Failures come back
// as a *DeliveryError carrying the provider name and cause.
func (m *Mailer) Send(ctx context.Context, to, subject, html string) error {
	if m == nil || m.messenger == nil {
		return ErrNotConfigured
	}
	msg := adapters.Message{
		To:       to,
		Subject:  subject,
		HTMLBody: html,
	}
	if err := m.messenger.Send(ctx, msg); err != nil {
		return &DeliveryError{Provider: m.messenger.Name(), Err: err}
	}
	return nil
}

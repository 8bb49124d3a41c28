package adapters

import "context"

// Message is one rendered email destined for a single recipient.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
	Metadata map[string]any
}

// Capability describes what a provider supports.
type Capability struct {
	Name    string
	Formats []string
}

// Messenger is implemented by delivery providers (SMTP, Gmail API, Resend,
// SES, console). Exactly one Messenger is active per deployment; selection
// happens once at startup in pkg/mailer.
type Messenger interface {
	Name() string
	Capabilities() Capability
	Send(ctx context.Context, msg Message) error
}

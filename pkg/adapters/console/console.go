// Package console logs messages instead of delivering them. Development
// provider.
package console

import (
	"context"

	"github.com/jobkeep/go-reminders/pkg/adapters"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
)

// Adapter writes rendered messages to the configured logger.
type Adapter struct {
	name string
	base adapters.BaseAdapter
	caps adapters.Capability
}

type Option func(*Adapter)

// WithName overrides the provider name (defaults to "console").
func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

// New constructs a console adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "console",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:    "console",
			Formats: []string{"text/plain", "text/html"},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	return adapter
}

// Name implements adapters.Messenger.
func (a *Adapter) Name() string { return a.name }

// Capabilities implements adapters.Messenger.
func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

// Send logs the rendered message.
func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	a.base.Logger().Info("console delivery",
		logger.Field{Key: "to", Value: msg.To},
		logger.Field{Key: "subject", Value: msg.Subject},
		logger.Field{Key: "html_bytes", Value: len(msg.HTMLBody)})
	a.base.LogSuccess(a.name, msg)
	return nil
}

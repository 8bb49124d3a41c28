// Package resend delivers email through the Resend transactional HTTP API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jobkeep/go-reminders/pkg/adapters"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
)

// Config holds Resend credentials and defaults.
type Config struct {
	APIKey     string
	APIBase    string
	From       string
	TimeoutSec int
}

// Adapter posts messages to Resend's /emails endpoint.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	client *http.Client
}

type Option func(*Adapter)

// WithConfig sets the adapter configuration. Empty API base and zero
// timeout keep their defaults.
func WithConfig(cfg Config) Option {
	return func(a *Adapter) {
		if cfg.APIBase == "" {
			cfg.APIBase = a.cfg.APIBase
		}
		if cfg.TimeoutSec == 0 {
			cfg.TimeoutSec = a.cfg.TimeoutSec
		}
		a.cfg = cfg
	}
}

// WithHTTPClient injects a custom client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// New constructs a Resend adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "resend",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:    "resend",
			Formats: []string{"text/plain", "text/html"},
		},
		cfg: Config{
			APIBase:    "https://api.resend.com",
			TimeoutSec: 10,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(adapter)
		}
	}
	if adapter.client == nil {
		adapter.client = &http.Client{Timeout: time.Duration(adapter.cfg.TimeoutSec) * time.Second}
	}
	return adapter
}

// Name implements adapters.Messenger.
func (a *Adapter) Name() string { return a.name }

// Capabilities implements adapters.Messenger.
func (a *Adapter) Capabilities() adapters.Capability { return a.caps }

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send posts the message to Resend.
func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if err := a.send(ctx, msg); err != nil {
		a.base.LogFailure(a.name, msg, err)
		return err
	}
	a.base.LogSuccess(a.name, msg)
	return nil
}

func (a *Adapter) send(ctx context.Context, msg adapters.Message) error {
	if strings.TrimSpace(a.cfg.APIKey) == "" {
		return fmt.Errorf("resend: api key required")
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return fmt.Errorf("resend: destination required")
	}
	from := strings.TrimSpace(a.cfg.From)
	if from == "" {
		return fmt.Errorf("resend: from required")
	}
	if msg.HTMLBody == "" && msg.TextBody == "" {
		return fmt.Errorf("resend: content empty")
	}

	payload, err := json.Marshal(sendRequest{
		From:    from,
		To:      []string{to},
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("resend: encode payload: %w", err)
	}

	endpoint := strings.TrimRight(a.cfg.APIBase, "/") + "/emails"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readAPIError(resp.Body)
		if detail != "" {
			return fmt.Errorf("resend: status %d: %s", resp.StatusCode, detail)
		}
		return fmt.Errorf("resend: unexpected status %d", resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func readAPIError(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var apiErr apiError
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		if apiErr.Name != "" {
			return apiErr.Name + ": " + apiErr.Message
		}
		return apiErr.Message
	}
	return strings.TrimSpace(string(raw))
}

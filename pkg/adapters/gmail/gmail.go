// Package gmail delivers email through the Gmail API using OAuth2
// refresh-token credentials.
package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/jobkeep/go-reminders/pkg/adapters"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
)

// Config holds the OAuth2 client credentials and send defaults.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	From         string
	APIBase      string
	TokenURL     string
	TimeoutSec   int
}

// Adapter uploads raw RFC 2822 messages to users/me/messages/send.
type Adapter struct {
	name   string
	base   adapters.BaseAdapter
	caps   adapters.Capability
	cfg    Config
	client *http.Client
}

type Option func(*Adapter)

// WithConfig sets the adapter configuration. Empty endpoints and zero
// timeout keep their defaults.
func WithConfig(cfg Config) Option {
	return func(a *Adapter) {
		if cfg.APIBase == "" {
			cfg.APIBase = a.cfg.APIBase
		}
		if cfg.TokenURL == "" {
			cfg.TokenURL = a.cfg.TokenURL
		}
		if cfg.TimeoutSec == 0 {
			cfg.TimeoutSec = a.cfg.TimeoutSec
		}
		a.cfg = cfg
	}
}

// WithHTTPClient injects a custom client, bypassing the OAuth2 transport.
// Intended for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

// New constructs a Gmail adapter.
func New(l logger.Logger, opts ...Option) *Adapter {
	adapter := &Adapter{
		name: "gmail",
		base: adapters.NewBaseAdapter(l),
		caps: adapters.Capability{
			Name:    "gmail",
			Formats: []string{"text/html"},
		},
		cfg: Config{
			APIBase:    "https://gmail.googleapis.com",
			TokenURL:   "https://oauth2.googleapis.com/token",
			TimeoutSec: 15,
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

// Send uploads the message. The OAuth2 transport refreshes access tokens
// from the configured refresh token as needed.
func (a *Adapter) Send(ctx context.Context, msg adapters.Message) error {
	if err := a.send(ctx, msg); err != nil {
		a.base.LogFailure(a.name, msg, err)
		return err
	}
	a.base.LogSuccess(a.name, msg)
	return nil
}

func (a *Adapter) send(ctx context.Context, msg adapters.Message) error {
	if strings.TrimSpace(a.cfg.ClientID) == "" || strings.TrimSpace(a.cfg.ClientSecret) == "" || strings.TrimSpace(a.cfg.RefreshToken) == "" {
		return fmt.Errorf("gmail: client id, secret, and refresh token required")
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return fmt.Errorf("gmail: destination required")
	}
	from := strings.TrimSpace(a.cfg.From)
	if from == "" {
		return fmt.Errorf("gmail: from required")
	}

	raw := buildRaw(from, to, msg)
	endpoint := strings.TrimRight(a.cfg.APIBase, "/") + "/upload/gmail/v1/users/me/messages/send?uploadType=media"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("gmail: build request: %w", err)
	}
	req.Header.Set("Content-Type", "message/rfc822")

	resp, err := a.httpClient(ctx).Do(req)
	if err != nil {
		return fmt.Errorf("gmail: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readAPIError(resp.Body)
		if detail != "" {
			return fmt.Errorf("gmail: status %d: %s", resp.StatusCode, detail)
		}
		return fmt.Errorf("gmail: unexpected status %d", resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (a *Adapter) httpClient(ctx context.Context) *http.Client {
	if a.client != nil {
		return a.client
	}
	conf := &oauth2.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: a.cfg.TokenURL},
	}
	source := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: a.cfg.RefreshToken})
	client := oauth2.NewClient(ctx, source)
	client.Timeout = time.Duration(a.cfg.TimeoutSec) * time.Second
	return client
}

func buildRaw(from, to string, msg adapters.Message) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
	}
	for k, v := range msg.Headers {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		headers = append(headers, k+": "+v)
	}

	body := msg.HTMLBody
	contentType := "text/html; charset=UTF-8"
	if body == "" {
		body = msg.TextBody
		contentType = "text/plain; charset=UTF-8"
	}
	headers = append(headers, "Content-Type: "+contentType)

	return strings.Join(headers, "\r\n") + "\r\n\r\n" + body
}

func readAPIError(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed struct {
		Error struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Message != "" {
		if parsed.Error.Status != "" {
			return parsed.Error.Status + ": " + parsed.Error.Message
		}
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

package smtp

import (
	"strings"
	"testing"

	"github.com/jobkeep/go-reminders/pkg/adapters"
)

func TestBuildMessageHTMLDerivesTextPart(t *testing.T) {
	body, headers := buildMessage("from@example.com", "to@example.com", adapters.Message{
		Subject:  "Subject",
		HTMLBody: "<p>Hello <strong>world</strong></p>",
	})

	if !strings.Contains(headers, "multipart/alternative") {
		t.Fatalf("expected multipart/alternative headers, got %s", headers)
	}
	if !strings.Contains(body, "Content-Type: text/plain") {
		t.Fatalf("expected text/plain part, got %s", body)
	}
	if !strings.Contains(body, "Content-Type: text/html") {
		t.Fatalf("expected text/html part, got %s", body)
	}
	// html2text keeps emphasis markers: <strong>world</strong> -> *world*.
	if !strings.Contains(body, "Hello *world") {
		t.Fatalf("expected derived text content, got %s", body)
	}
}

func TestBuildMessagePlainOnly(t *testing.T) {
	body, headers := buildMessage("from@example.com", "to@example.com", adapters.Message{
		Subject:  "Subject",
		TextBody: "plain content",
	})

	if !strings.Contains(headers, "Content-Type: text/plain") {
		t.Fatalf("expected text/plain headers, got %s", headers)
	}
	if body != "plain content" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestBuildMessageSkipsEmptyHeaders(t *testing.T) {
	_, headers := buildMessage("from@example.com", "to@example.com", adapters.Message{
		Subject:  "Subject",
		TextBody: "x",
		Headers:  map[string]string{"X-Entity-Ref": "", "Reply-To": "ops@example.com"},
	})

	if strings.Contains(headers, "X-Entity-Ref") {
		t.Fatalf("empty header should be dropped, got %s", headers)
	}
	if !strings.Contains(headers, "Reply-To: ops@example.com") {
		t.Fatalf("expected reply-to header, got %s", headers)
	}
}

func TestSendRequiresHost(t *testing.T) {
	a := New(nil, WithFrom("from@example.com"))
	err := a.Send(t.Context(), adapters.Message{To: "to@example.com", Subject: "s", TextBody: "b"})
	if err == nil || !strings.Contains(err.Error(), "host is required") {
		t.Fatalf("expected host error, got %v", err)
	}
}

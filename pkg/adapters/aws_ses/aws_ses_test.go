package aws_ses

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/jobkeep/go-reminders/pkg/adapters"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

func TestSendBuildsInput(t *testing.T) {
	client := &fakeSES{}
	adapter := New(&logger.Nop{},
		WithConfig(Config{From: "reminders@jobkeep.app", Region: "us-east-1"}),
		WithClient(client),
	)

	err := adapter.Send(t.Context(), adapters.Message{
		To:       "candidate@example.com",
		Subject:  "Interview Reminder: 1 hour to go",
		TextBody: "Your interview starts soon.",
		HTMLBody: "<p>Your interview starts soon.</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("expected 1 send, got %d", len(client.inputs))
	}

	input := client.inputs[0]
	if got := input.Destination.ToAddresses[0]; got != "candidate@example.com" {
		t.Errorf("to = %q", got)
	}
	if got := *input.Source; got != "reminders@jobkeep.app" {
		t.Errorf("source = %q", got)
	}
	if got := *input.Message.Subject.Data; got != "Interview Reminder: 1 hour to go" {
		t.Errorf("subject = %q", got)
	}
	if input.Message.Body.Html == nil || !strings.Contains(*input.Message.Body.Html.Data, "<p>") {
		t.Error("html body not carried")
	}
	if input.Message.Body.Text == nil {
		t.Error("text body not carried")
	}
}

func TestSendValidation(t *testing.T) {
	adapter := New(&logger.Nop{},
		WithConfig(Config{From: "reminders@jobkeep.app"}),
		WithClient(&fakeSES{}),
	)

	err := adapter.Send(t.Context(), adapters.Message{Subject: "x", TextBody: "y"})
	if err == nil || !strings.Contains(err.Error(), "destination required") {
		t.Fatalf("expected destination error, got %v", err)
	}

	noFrom := New(&logger.Nop{}, WithClient(&fakeSES{}))
	err = noFrom.Send(t.Context(), adapters.Message{To: "a@b.c", TextBody: "y"})
	if err == nil || !strings.Contains(err.Error(), "from required") {
		t.Fatalf("expected from error, got %v", err)
	}
}

func TestSendWrapsAPIError(t *testing.T) {
	client := &fakeSES{err: errors.New("MessageRejected: address not verified")}
	adapter := New(&logger.Nop{},
		WithConfig(Config{From: "reminders@jobkeep.app"}),
		WithClient(client),
	)

	err := adapter.Send(t.Context(), adapters.Message{To: "a@b.c", TextBody: "y"})
	if err == nil || !strings.Contains(err.Error(), "MessageRejected") {
		t.Fatalf("expected wrapped API error, got %v", err)
	}
}

func TestDryRunSkipsClient(t *testing.T) {
	adapter := New(&logger.Nop{}, WithConfig(Config{DryRun: true}))
	if err := adapter.Send(t.Context(), adapters.Message{To: "a@b.c"}); err != nil {
		t.Fatalf("dry-run send: %v", err)
	}
}

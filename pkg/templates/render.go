// Package templates renders the HTML email bodies sent by the scheduler.
// Rendering is pure string building: no clock, no network, no timers.
// User-controlled fields (round label, company, position, recovery code)
// are escaped by html/template's contextual auto-escaping; nothing here
// concatenates untrusted input into markup by hand.
package templates

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/jobkeep/go-reminders/pkg/domain"
	"github.com/jobkeep/go-reminders/pkg/intervals"
)

// Email is a rendered subject/body pair ready for a delivery adapter.
type Email struct {
	Subject string
	HTML    string
}

// timeLeft maps interval labels to the human phrasing used in copy.
var timeLeft = map[string]string{
	intervals.OneDay: "1 day",
	intervals.SixHrs: "6 hours",
	intervals.OneHr:  "1 hour",
	intervals.Exact:  "now",
}

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px; }
  .container { max-width: 600px; margin: 0 auto; background-color: white; border-radius: 10px; overflow: hidden; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
  .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; }
  .header h1 { margin: 0; font-size: 24px; }
  .content { padding: 30px; }
  .message-box { background-color: {{if .StartingNow}}#fff5f5{{else}}#f0f4ff{{end}}; border: 1px solid {{if .StartingNow}}#feb2b2{{else}}#c3dafe{{end}}; padding: 20px; border-radius: 8px; text-align: center; margin-bottom: 25px; }
  .interview-details { background-color: #f8f9fa; border-left: 4px solid #667eea; padding: 20px; margin: 20px 0; border-radius: 5px; }
  .detail-row { margin: 10px 0; }
  .label { font-weight: bold; color: #555; }
  .value { color: #333; }
  .footer { background-color: #f8f9fa; padding: 20px; text-align: center; color: #666; font-size: 12px; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Interview Reminder</h1>
      <p style="margin: 10px 0 0 0;">{{if .StartingNow}}Starting Now{{else}}Upcoming Interview{{end}}</p>
    </div>
    <div class="content">
      <div class="message-box">
        {{if .StartingNow -}}
        <p style="margin: 0; font-size: 18px; color: #2d3748;">Your <strong>{{.Round}}</strong> is starting now, good luck!</p>
        {{- else -}}
        <p style="margin: 0; font-size: 18px; color: #2d3748;">Your <strong>{{.Round}}</strong> will be starting soon.</p>
        <p style="margin: 10px 0 0 0; color: #4a5568; font-size: 14px;">(Time left: {{.TimeLeft}})</p>
        {{- end}}
      </div>

      <p>Hi there,</p>
      <p>Here are the details for your interview:</p>

      <div class="interview-details">
        <div class="detail-row"><span class="label">Round:</span> <span class="value">{{.Round}}</span></div>
        <div class="detail-row"><span class="label">Company:</span> <span class="value">{{.Company}}</span></div>
        <div class="detail-row"><span class="label">Position:</span> <span class="value">{{.Position}}</span></div>
        <div class="detail-row"><span class="label">Date:</span> <span class="value">{{.Date}}</span></div>
        <div class="detail-row"><span class="label">Time:</span> <span class="value">{{.Time}}</span></div>
      </div>

      <p>Good luck! You've got this!</p>
    </div>
    <div class="footer">
      <p>This is an automated reminder from JobKeep</p>
      <p>Manage your notification preferences in your profile settings</p>
    </div>
  </div>
</body>
</html>
`))

var recoveryTmpl = template.Must(template.New("recovery").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px; }
  .container { max-width: 600px; margin: 0 auto; background-color: white; border-radius: 10px; overflow: hidden; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
  .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; }
  .header h1 { margin: 0; font-size: 24px; }
  .content { padding: 30px; text-align: center; }
  .code-box { background-color: #f0f4ff; border: 1px solid #c3dafe; padding: 20px; border-radius: 8px; font-size: 24px; font-weight: bold; color: #4c51bf; letter-spacing: 2px; margin: 25px 0; }
  .footer { background-color: #f8f9fa; padding: 20px; text-align: center; color: #666; font-size: 12px; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Password Recovery</h1>
    </div>
    <div class="content">
      <p>Hi there,</p>
      <p>We received a request to reset your password. Use this one-time recovery code:</p>
      <div class="code-box">{{.Code}}</div>
      <p>The code expires shortly. If you didn't request this, you can safely ignore this email.</p>
    </div>
    <div class="footer">
      <p>This is an automated message from JobKeep</p>
    </div>
  </div>
</body>
</html>
`))

type reminderData struct {
	Round       string
	Company     string
	Position    string
	Date        string
	Time        string
	TimeLeft    string
	StartingNow bool
}

// RenderInterviewReminder builds the reminder email for one round/interval
// pair. The exact interval states the interview is starting now; every
// other interval announces it will start soon. Round label, company, and
// position come from user input and are HTML-escaped by the template
// engine.
func RenderInterviewReminder(round domain.InterviewRound, job domain.Job, interval string) (Email, error) {
	if !round.HasSchedule() {
		return Email{}, fmt.Errorf("templates: round %q has no datetime", round.Label)
	}
	at := *round.ScheduledAt
	startingNow := interval == intervals.Exact

	label := strings.TrimSpace(round.Label)
	if label == "" {
		label = "interview"
	}

	data := reminderData{
		Round:       label,
		Company:     job.Company,
		Position:    job.Position,
		Date:        at.Format("Monday, January 2, 2006"),
		Time:        at.Format("3:04 PM"),
		TimeLeft:    timeLeft[interval],
		StartingNow: startingNow,
	}

	var sb strings.Builder
	if err := reminderTmpl.Execute(&sb, data); err != nil {
		return Email{}, fmt.Errorf("templates: render reminder: %w", err)
	}

	subject := "Your interview is starting now!"
	if !startingNow {
		subject = fmt.Sprintf("Interview Reminder: %s to go", timeLeft[interval])
	}
	return Email{Subject: subject, HTML: sb.String()}, nil
}

// RenderPasswordRecovery builds the recovery email around a caller-generated
// one-time code. The stored credential itself is never rendered.
func RenderPasswordRecovery(code string) (Email, error) {
	var sb strings.Builder
	if err := recoveryTmpl.Execute(&sb, struct{ Code string }{Code: code}); err != nil {
		return Email{}, fmt.Errorf("templates: render recovery: %w", err)
	}
	return Email{Subject: "Password Recovery - JobKeep", HTML: sb.String()}, nil
}

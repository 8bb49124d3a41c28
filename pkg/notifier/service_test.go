package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jobkeep/go-reminders/internal/storage/memory"
	"github.com/jobkeep/go-reminders/pkg/domain"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
	"github.com/jobkeep/go-reminders/pkg/schedule"
)

type sentEmail struct {
	To      string
	Subject string
	HTML    string
}

type recordingMailer struct {
	mu sync.Mutex
	// failTo makes sends to one address fail while others succeed.
	failTo string
	sent   []sentEmail
	err    error
	fired  chan sentEmail
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{fired: make(chan sentEmail, 16)}
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.failTo != "" && to == m.failTo {
		return errors.New("recipient rejected")
	}
	email := sentEmail{To: to, Subject: subject, HTML: html}
	m.sent = append(m.sent, email)
	m.fired <- email
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestService(t *testing.T, m *recordingMailer) *Service {
	t.Helper()
	reg := schedule.New()
	t.Cleanup(func() { reg.Stop() })
	svc, err := New(Dependencies{Registry: reg, Mailer: m, Logger: &logger.Nop{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func testJob(rounds ...domain.InterviewRound) *domain.Job {
	job := &domain.Job{
		OwnerUserID: "user-1",
		Company:     "Initech",
		Position:    "Staff Engineer",
		Rounds:      rounds,
	}
	job.ID = uuid.New()
	return job
}

func testUser() *domain.User {
	return &domain.User{
		UserID:      "user-1",
		Email:       "casey@example.com",
		Preferences: domain.DefaultPreferences(),
	}
}

func roundAt(at time.Time) domain.InterviewRound {
	return domain.InterviewRound{Label: "Technical", ScheduledAt: &at}
}

func TestScheduleForRoundRegistersFutureIntervalsOnly(t *testing.T) {
	svc := newTestService(t, newRecordingMailer())
	job := testJob(roundAt(time.Now().Add(2 * time.Hour)))

	keys, err := svc.ScheduleForRound(job, 0, testUser())
	if err != nil {
		t.Fatalf("ScheduleForRound: %v", err)
	}
	// 2h out: 1day and 6hrs lead times are already past.
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d: %v", len(keys), keys)
	}
	for _, label := range []string{"1hr", "exact"} {
		key, ok := keys[label]
		if !ok {
			t.Fatalf("missing key for %s", label)
		}
		want := job.ID.String() + "-0-" + label
		if key.String() != want {
			t.Errorf("key = %q, want %q", key.String(), want)
		}
	}
	if got := len(svc.ListActive()); got != 2 {
		t.Errorf("ListActive len = %d", got)
	}
}

func TestScheduleForRoundSkips(t *testing.T) {
	svc := newTestService(t, newRecordingMailer())

	t.Run("no datetime", func(t *testing.T) {
		job := testJob(domain.InterviewRound{Label: "Screening"})
		keys, err := svc.ScheduleForRound(job, 0, testUser())
		if err != nil || len(keys) != 0 {
			t.Fatalf("keys=%v err=%v", keys, err)
		}
	})

	t.Run("past interview", func(t *testing.T) {
		job := testJob(roundAt(time.Now().Add(-time.Minute)))
		keys, err := svc.ScheduleForRound(job, 0, testUser())
		if err != nil || len(keys) != 0 {
			t.Fatalf("keys=%v err=%v", keys, err)
		}
	})

	t.Run("email disabled", func(t *testing.T) {
		user := testUser()
		user.Preferences.Email = false
		job := testJob(roundAt(time.Now().Add(2 * time.Hour)))
		keys, err := svc.ScheduleForRound(job, 0, user)
		if err != nil || len(keys) != 0 {
			t.Fatalf("keys=%v err=%v", keys, err)
		}
	})

	t.Run("round out of range", func(t *testing.T) {
		job := testJob(roundAt(time.Now().Add(2 * time.Hour)))
		if _, err := svc.ScheduleForRound(job, 5, testUser()); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestScheduleForRoundHonorsIntervalPreferences(t *testing.T) {
	svc := newTestService(t, newRecordingMailer())
	user := testUser()
	user.Preferences.Intervals = domain.StringList{"exact"}
	job := testJob(roundAt(time.Now().Add(48 * time.Hour)))

	keys, err := svc.ScheduleForRound(job, 0, user)
	if err != nil {
		t.Fatalf("ScheduleForRound: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected only exact, got %v", keys)
	}
	if _, ok := keys["exact"]; !ok {
		t.Fatalf("missing exact key: %v", keys)
	}
}

func TestScheduleForJobReplacesExistingTimers(t *testing.T) {
	svc := newTestService(t, newRecordingMailer())
	job := testJob(
		roundAt(time.Now().Add(2*time.Hour)),
		roundAt(time.Now().Add(26*time.Hour)),
	)
	user := testUser()

	first, err := svc.ScheduleForJob(job, user)
	if err != nil {
		t.Fatalf("ScheduleForJob: %v", err)
	}
	// Round 0: 1hr+exact. Round 1: all four.
	if first != 6 {
		t.Fatalf("first schedule = %d timers", first)
	}

	second, err := svc.ScheduleForJob(job, user)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if second != 6 {
		t.Fatalf("second schedule = %d timers", second)
	}
	if got := len(svc.ListActive()); got != 6 {
		t.Errorf("ListActive after reschedule = %d, want 6", got)
	}
}

func TestCancelScopes(t *testing.T) {
	svc := newTestService(t, newRecordingMailer())
	job := testJob(
		roundAt(time.Now().Add(2*time.Hour)),
		roundAt(time.Now().Add(3*time.Hour)),
	)
	if _, err := svc.ScheduleForJob(job, testUser()); err != nil {
		t.Fatalf("ScheduleForJob: %v", err)
	}

	if n := svc.CancelForRound(job.ID.String(), 1); n != 2 {
		t.Fatalf("CancelForRound = %d, want 2", n)
	}
	if n := svc.CancelForJob(job.ID.String()); n != 2 {
		t.Fatalf("CancelForJob = %d, want 2", n)
	}
	if n := svc.CancelForJob(job.ID.String()); n != 0 {
		t.Fatalf("second CancelForJob = %d, want 0", n)
	}
}

func TestFiredReminderUsesSnapshot(t *testing.T) {
	mailer := newRecordingMailer()
	svc := newTestService(t, mailer)

	user := testUser()
	user.Preferences.Intervals = domain.StringList{"exact"}
	job := testJob(roundAt(time.Now().Add(50 * time.Millisecond)))

	if _, err := svc.ScheduleForRound(job, 0, user); err != nil {
		t.Fatalf("ScheduleForRound: %v", err)
	}

	// Mutations after scheduling must not leak into the fired email.
	job.Company = "Globex"
	job.Rounds[0].Label = "Changed"

	select {
	case email := <-mailer.fired:
		if email.To != "casey@example.com" {
			t.Errorf("to = %q", email.To)
		}
		if email.Subject != "Your interview is starting now!" {
			t.Errorf("subject = %q", email.Subject)
		}
		if !strings.Contains(email.HTML, "Initech") {
			t.Error("snapshot company missing from email")
		}
		if strings.Contains(email.HTML, "Globex") {
			t.Error("post-schedule mutation leaked into email")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reminder never fired")
	}

	if got := len(svc.ListActive()); got != 0 {
		t.Errorf("fired timer still listed: %d", got)
	}
}

func TestAddresslessUserSchedulesNothing(t *testing.T) {
	mailer := newRecordingMailer()
	svc := newTestService(t, mailer)

	// nil user resolves to the fallback profile: email enabled, no address.
	job := testJob(roundAt(time.Now().Add(2 * time.Hour)))
	keys, err := svc.ScheduleForRound(job, 0, nil)
	if err != nil {
		t.Fatalf("ScheduleForRound: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys for address-less user, got %v", keys)
	}
	if got := len(svc.ListActive()); got != 0 {
		t.Errorf("registry not empty: %d", got)
	}

	// Same skip for a real user whose address was cleared.
	blank := testUser()
	blank.Email = "  "
	keys, err = svc.ScheduleForRound(job, 0, blank)
	if err != nil || len(keys) != 0 {
		t.Fatalf("keys=%v err=%v for blank address", keys, err)
	}
	if n := mailer.count(); n != 0 {
		t.Fatalf("address-less user received %d emails", n)
	}
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	mailer := newRecordingMailer()
	mailer.err = errors.New("smtp: connection refused")
	svc := newTestService(t, mailer)

	user := testUser()
	user.Preferences.Intervals = domain.StringList{"exact"}
	job := testJob(roundAt(time.Now().Add(50 * time.Millisecond)))

	if _, err := svc.ScheduleForRound(job, 0, user); err != nil {
		t.Fatalf("ScheduleForRound: %v", err)
	}

	// The callback must absorb the failure without panicking and the
	// timer must still clean itself up.
	time.Sleep(300 * time.Millisecond)
	if got := len(svc.ListActive()); got != 0 {
		t.Errorf("failed timer still listed: %d", got)
	}
}

func TestFailedDeliveryDoesNotBlockOthers(t *testing.T) {
	mailer := newRecordingMailer()
	mailer.failTo = "broken@example.com"
	svc := newTestService(t, mailer)

	broken := testUser()
	broken.Email = "broken@example.com"
	broken.Preferences.Intervals = domain.StringList{"exact"}
	healthy := testUser()
	healthy.Preferences.Intervals = domain.StringList{"exact"}

	jobA := testJob(roundAt(time.Now().Add(50 * time.Millisecond)))
	jobB := testJob(roundAt(time.Now().Add(80 * time.Millisecond)))
	if _, err := svc.ScheduleForRound(jobA, 0, broken); err != nil {
		t.Fatalf("schedule A: %v", err)
	}
	if _, err := svc.ScheduleForRound(jobB, 0, healthy); err != nil {
		t.Fatalf("schedule B: %v", err)
	}

	select {
	case email := <-mailer.fired:
		if email.To != "casey@example.com" {
			t.Errorf("unexpected recipient %q", email.To)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("healthy reminder never delivered")
	}
}

func TestRescheduleAll(t *testing.T) {
	svc := newTestService(t, newRecordingMailer())
	ctx := t.Context()

	jobs := memory.NewJobRepository()
	users := memory.NewUserRepository()
	if err := users.Create(ctx, testUser()); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	known := testJob(roundAt(time.Now().Add(2 * time.Hour)))
	orphan := testJob(roundAt(time.Now().Add(2 * time.Hour)))
	orphan.OwnerUserID = "missing-user"
	for _, job := range []*domain.Job{known, orphan} {
		if err := jobs.Create(ctx, job); err != nil {
			t.Fatalf("seed job: %v", err)
		}
	}

	total, err := svc.RescheduleAll(ctx, jobs, users)
	if err != nil {
		t.Fatalf("RescheduleAll: %v", err)
	}
	// The known job contributes 1hr+exact; the orphan runs on the
	// address-less fallback profile and schedules nothing.
	if total != 2 {
		t.Fatalf("RescheduleAll = %d timers, want 2", total)
	}
}

func TestSendPasswordRecovery(t *testing.T) {
	mailer := newRecordingMailer()
	svc := newTestService(t, mailer)

	if err := svc.SendPasswordRecovery(t.Context(), "casey@example.com", "X7K2-94QD"); err != nil {
		t.Fatalf("SendPasswordRecovery: %v", err)
	}
	email := <-mailer.fired
	if email.To != "casey@example.com" {
		t.Errorf("to = %q", email.To)
	}
	if !strings.Contains(email.HTML, "X7K2-94QD") {
		t.Error("recovery code missing from email")
	}

	mailer.err = errors.New("provider down")
	if err := svc.SendPasswordRecovery(t.Context(), "casey@example.com", "X7K2-94QD"); err == nil {
		t.Fatal("expected delivery error to surface")
	}
}

func TestSendTestReminder(t *testing.T) {
	mailer := newRecordingMailer()
	svc := newTestService(t, mailer)

	if err := svc.SendTestReminder(t.Context(), "ops@example.com"); err != nil {
		t.Fatalf("SendTestReminder: %v", err)
	}
	email := <-mailer.fired
	if !strings.Contains(email.Subject, "1 hour") {
		t.Errorf("subject = %q", email.Subject)
	}
	if !strings.Contains(email.HTML, "Configuration Test") {
		t.Error("test round label missing")
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	if _, err := New(Dependencies{Mailer: newRecordingMailer()}); err == nil {
		t.Fatal("expected registry error")
	}
	if _, err := New(Dependencies{Registry: schedule.New()}); err == nil {
		t.Fatal("expected mailer error")
	}
}

// Package notifier schedules interview reminder emails and delivers
// account emails on demand. It owns the policy layer: which rounds get
// reminders, which users opted out, and what happens when delivery
// fails. Timer callbacks never panic outward and never retry.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/jobkeep/go-reminders/pkg/domain"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
	"github.com/jobkeep/go-reminders/pkg/intervals"
	"github.com/jobkeep/go-reminders/pkg/mailer"
	"github.com/jobkeep/go-reminders/pkg/schedule"
	"github.com/jobkeep/go-reminders/pkg/templates"
)

// sendTimeout bounds a single delivery attempt fired from a timer.
const sendTimeout = 30 * time.Second

// Sender is the delivery surface the service needs.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

var _ Sender = (*mailer.Mailer)(nil)

// Dependencies carries everything the Service needs.
type Dependencies struct {
	Registry *schedule.Registry
	Mailer   Sender
	Logger   logger.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Intervals is the reminder set used for users without an explicit
	// preference. Defaults to the canonical four.
	Intervals []intervals.Interval
}

// Service coordinates interval calculation, the job registry, template
// rendering and delivery.
type Service struct {
	registry  *schedule.Registry
	mailer    Sender
	logger    logger.Logger
	now       func() time.Time
	intervals []intervals.Interval
}

// New validates dependencies and builds the service.
func New(deps Dependencies) (*Service, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("notifier: registry is required")
	}
	if deps.Mailer == nil {
		return nil, fmt.Errorf("notifier: mailer is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if len(deps.Intervals) == 0 {
		deps.Intervals = intervals.Defaults()
	}
	return &Service{
		registry:  deps.Registry,
		mailer:    deps.Mailer,
		logger:    deps.Logger,
		now:       deps.Clock,
		intervals: deps.Intervals,
	}, nil
}

// ScheduleForRound registers reminder timers for one interview round.
// It returns the registered keys mapped by interval label. Rounds with
// no scheduled datetime, users who disabled email reminders, and
// interviews already in the past all produce an empty map and no error.
func (s *Service) ScheduleForRound(job *domain.Job, roundIndex int, user *domain.User) (map[string]schedule.Key, error) {
	if job == nil {
		return nil, fmt.Errorf("notifier: job is required")
	}
	if roundIndex < 0 || roundIndex >= len(job.Rounds) {
		return nil, fmt.Errorf("notifier: round %d out of range for job %s", roundIndex, job.ID)
	}

	keys := map[string]schedule.Key{}
	round := job.Rounds[roundIndex]
	if !round.HasSchedule() {
		s.logger.Debug("round has no datetime, skipping",
			logger.Field{Key: "job_id", Value: job.ID},
			logger.Field{Key: "round", Value: roundIndex})
		return keys, nil
	}

	if user == nil {
		user = domain.FallbackUser(job.OwnerUserID)
	}
	// Disabled preferences and a missing address both skip scheduling.
	// Fallback users have no address, so they register nothing until the
	// real profile shows up and the job is rescheduled.
	if !user.WantsEmail() {
		s.logger.Debug("email reminders disabled or no address, skipping",
			logger.Field{Key: "job_id", Value: job.ID},
			logger.Field{Key: "user_id", Value: user.UserID})
		return keys, nil
	}

	ivs := s.intervals
	if len(user.Preferences.Intervals) > 0 {
		ivs = intervals.Select(user.Preferences.Intervals)
	}
	fireTimes := intervals.FireTimes(*round.ScheduledAt, s.now(), ivs)
	if len(fireTimes) == 0 {
		s.logger.Debug("no future fire times, skipping",
			logger.Field{Key: "job_id", Value: job.ID},
			logger.Field{Key: "round", Value: roundIndex},
			logger.Field{Key: "scheduled_at", Value: round.ScheduledAt})
		return keys, nil
	}

	// Snapshot everything the timer callbacks will read. The caller may
	// mutate or delete the job after this returns; fired reminders must
	// reflect the state at scheduling time.
	roundCopy := domain.InterviewRound{Label: round.Label}
	at := *round.ScheduledAt
	roundCopy.ScheduledAt = &at
	jobCopy := domain.Job{
		Company:  job.Company,
		Position: job.Position,
	}
	jobCopy.ID = job.ID
	to := user.Email

	for label, fireAt := range fireTimes {
		key := schedule.Key{JobID: job.ID.String(), Round: roundIndex, Interval: label}
		interval := label
		s.registry.Register(key, fireAt, func() {
			s.deliverReminder(to, roundCopy, jobCopy, interval)
		})
		keys[label] = key
		s.logger.Info("reminder scheduled",
			logger.Field{Key: "key", Value: key.String()},
			logger.Field{Key: "fire_at", Value: fireAt})
	}
	return keys, nil
}

// ScheduleForJob cancels any existing timers for the job and schedules
// all of its rounds. It returns the number of timers registered.
func (s *Service) ScheduleForJob(job *domain.Job, user *domain.User) (int, error) {
	if job == nil {
		return 0, fmt.Errorf("notifier: job is required")
	}
	s.registry.CancelJob(job.ID.String())

	total := 0
	for i := range job.Rounds {
		keys, err := s.ScheduleForRound(job, i, user)
		if err != nil {
			return total, err
		}
		total += len(keys)
	}
	return total, nil
}

// CancelForJob removes every pending reminder for the job and returns
// how many were cancelled.
func (s *Service) CancelForJob(jobID string) int {
	n := s.registry.CancelJob(jobID)
	if n > 0 {
		s.logger.Info("job reminders cancelled",
			logger.Field{Key: "job_id", Value: jobID},
			logger.Field{Key: "count", Value: n})
	}
	return n
}

// CancelForRound removes pending reminders for one round of a job.
func (s *Service) CancelForRound(jobID string, roundIndex int) int {
	n := s.registry.CancelRound(jobID, roundIndex)
	if n > 0 {
		s.logger.Info("round reminders cancelled",
			logger.Field{Key: "job_id", Value: jobID},
			logger.Field{Key: "round", Value: roundIndex},
			logger.Field{Key: "count", Value: n})
	}
	return n
}

// ListActive snapshots the pending reminders, soonest first.
func (s *Service) ListActive() []schedule.Entry {
	return s.registry.List()
}

// SendPasswordRecovery emails a one-time recovery code. Unlike reminder
// delivery this is synchronous and the error surfaces to the caller.
func (s *Service) SendPasswordRecovery(ctx context.Context, email, code string) error {
	rendered, err := templates.RenderPasswordRecovery(code)
	if err != nil {
		return fmt.Errorf("notifier: render recovery email: %w", err)
	}
	if err := s.mailer.Send(ctx, email, rendered.Subject, rendered.HTML); err != nil {
		return fmt.Errorf("notifier: send recovery email: %w", err)
	}
	s.logger.Info("password recovery sent", logger.Field{Key: "to", Value: email})
	return nil
}

// SendTestReminder delivers a sample reminder immediately so operators
// can verify provider configuration end to end.
func (s *Service) SendTestReminder(ctx context.Context, to string) error {
	at := s.now().Add(time.Hour)
	round := domain.InterviewRound{Label: "Configuration Test", ScheduledAt: &at}
	job := domain.Job{Company: "JobKeep", Position: "Delivery Check"}

	rendered, err := templates.RenderInterviewReminder(round, job, intervals.OneHr)
	if err != nil {
		return fmt.Errorf("notifier: render test reminder: %w", err)
	}
	if err := s.mailer.Send(ctx, to, rendered.Subject, rendered.HTML); err != nil {
		return fmt.Errorf("notifier: send test reminder: %w", err)
	}
	return nil
}

// deliverReminder runs inside a timer callback. Render and delivery
// failures are logged and swallowed; there is nobody upstream to
// receive them and no retry policy.
func (s *Service) deliverReminder(to string, round domain.InterviewRound, job domain.Job, interval string) {
	rendered, err := templates.RenderInterviewReminder(round, job, interval)
	if err != nil {
		s.logger.Error("reminder render failed",
			logger.Field{Key: "job_id", Value: job.ID},
			logger.Field{Key: "interval", Value: interval},
			logger.Field{Key: "error", Value: err})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := s.mailer.Send(ctx, to, rendered.Subject, rendered.HTML); err != nil {
		s.logger.Error("reminder delivery failed",
			logger.Field{Key: "job_id", Value: job.ID},
			logger.Field{Key: "interval", Value: interval},
			logger.Field{Key: "to", Value: to},
			logger.Field{Key: "error", Value: err})
		return
	}
	s.logger.Info("reminder delivered",
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "interval", Value: interval},
		logger.Field{Key: "to", Value: to})
}

package notifier

import (
	"context"
	"fmt"

	"github.com/jobkeep/go-reminders/pkg/domain"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
	"github.com/jobkeep/go-reminders/pkg/interfaces/store"
)

// RescheduleAll rebuilds the in-memory timer registry from durable
// state, typically once at process start. Jobs whose owner has no user
// record are scheduled against the synthetic fallback profile. It
// returns the number of timers registered.
func (s *Service) RescheduleAll(ctx context.Context, jobs store.JobRepository, users store.UserRepository) (int, error) {
	jobResult, err := jobs.List(ctx, store.ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("notifier: load jobs: %w", err)
	}
	userResult, err := users.List(ctx, store.ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("notifier: load users: %w", err)
	}

	byUserID := make(map[string]*domain.User, len(userResult.Items))
	for i := range userResult.Items {
		byUserID[userResult.Items[i].UserID] = &userResult.Items[i]
	}

	total := 0
	for i := range jobResult.Items {
		job := &jobResult.Items[i]
		user, ok := byUserID[job.OwnerUserID]
		if !ok {
			user = domain.FallbackUser(job.OwnerUserID)
			s.logger.Warn("owner profile missing, using fallback",
				logger.Field{Key: "job_id", Value: job.ID},
				logger.Field{Key: "user_id", Value: job.OwnerUserID})
		}
		n, err := s.ScheduleForJob(job, user)
		if err != nil {
			s.logger.Error("reschedule failed for job",
				logger.Field{Key: "job_id", Value: job.ID},
				logger.Field{Key: "error", Value: err})
			continue
		}
		total += n
	}

	s.logger.Info("reminders rescheduled",
		logger.Field{Key: "jobs", Value: len(jobResult.Items)},
		logger.Field{Key: "timers", Value: total})
	return total, nil
}

// Command remindd runs the JobKeep interview reminder daemon. On start
// it loads persisted jobs and users, rebuilds the reminder timers and
// then waits for a shutdown signal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	bunrepo "github.com/jobkeep/go-reminders/internal/storage/bun"
	"github.com/jobkeep/go-reminders/internal/storage/memory"
	"github.com/jobkeep/go-reminders/pkg/config"
	"github.com/jobkeep/go-reminders/pkg/interfaces/logger"
	"github.com/jobkeep/go-reminders/pkg/interfaces/store"
	"github.com/jobkeep/go-reminders/pkg/intervals"
	"github.com/jobkeep/go-reminders/pkg/mailer"
	"github.com/jobkeep/go-reminders/pkg/notifier"
	"github.com/jobkeep/go-reminders/pkg/schedule"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "remindd",
		Short:         "JobKeep interview reminder daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")
	root.AddCommand(newTestEmailCmd(&cfgFile))
	return root
}

func newTestEmailCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "test-email <address>",
		Short: "Send a sample reminder to verify provider configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			log := logger.New()
			m, err := mailer.New(cfg.MailerSettings(), log)
			if err != nil {
				return err
			}
			svc, err := notifier.New(notifier.Dependencies{
				Registry: schedule.New(),
				Mailer:   m,
				Logger:   log,
			})
			if err != nil {
				return err
			}
			if err := svc.SendTestReminder(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "test reminder sent to %s via %s\n", args[0], m.Provider())
			return nil
		},
	}
}

func runDaemon(ctx context.Context, cfg config.Config) error {
	log := logger.New()

	jobs, users, closeStore, err := openStore(ctx, cfg.Persistence, log)
	if err != nil {
		return err
	}
	defer closeStore()

	m, err := mailer.New(cfg.MailerSettings(), log)
	if err != nil {
		return err
	}
	log.Info("mailer ready", logger.Field{Key: "provider", Value: m.Provider()})

	registry := schedule.New(schedule.WithLogger(log))
	svc, err := notifier.New(notifier.Dependencies{
		Registry:  registry,
		Mailer:    m,
		Logger:    log,
		Intervals: intervals.Select(cfg.Scheduler.Intervals),
	})
	if err != nil {
		return err
	}

	if _, err := svc.RescheduleAll(ctx, jobs, users); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	cancelled := registry.Stop()
	log.Info("shutting down", logger.Field{Key: "timers_cancelled", Value: cancelled})
	return nil
}

func openStore(ctx context.Context, cfg config.PersistenceConfig, log logger.Logger) (store.JobRepository, store.UserRepository, func(), error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewJobRepository(), memory.NewUserRepository(), func() {}, nil
	case "sqlite":
		db, err := bunrepo.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("store opened", logger.Field{Key: "dsn", Value: cfg.DSN})
		return bunrepo.NewJobRepository(db), bunrepo.NewUserRepository(db), func() { db.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("remindd: unknown persistence driver %q", cfg.Driver)
	}
}

// Package scheduler runs the daily code rotation and credential sweep
// on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/dailygate/pkg/auth"
	"github.com/dukex/dailygate/pkg/config"
	"github.com/robfig/cron/v3"
)

// rotationSpec fires shortly after midnight so the new calendar date
// is unambiguous even with small clock skew.
const rotationSpec = "1 0 * * *"

const (
	issueRetries = 3
	retryBackoff = 30 * time.Second
)

// Scheduler issues fresh codes for every enabled identity once per day
// and sweeps expired codes and tokens afterwards.
type Scheduler struct {
	authService *auth.Service
	users       *config.Users
	logger      *slog.Logger
	cron        *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(authService *auth.Service, users *config.Users, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		authService: authService,
		users:       users,
		logger:      logger.With("module", "scheduler"),
	}
}

// Start registers the rotation job and runs one rotation immediately,
// so a process started mid-day still has codes for the current date.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := s.cron.AddFunc(rotationSpec, s.rotate); err != nil {
		return err
	}

	s.rotate()

	s.cron.Start()
	s.logger.Info("Scheduler started", "spec", rotationSpec)

	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	if s.cron != nil {
		stopCtx := s.cron.Stop()

		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.logger.Info("Scheduler stopped")

	return nil
}

// rotate issues the day's code for every enabled identity, retrying
// transient failures with a fixed backoff, then sweeps stale
// credentials. Issuance is idempotent so overlap with manual issuance
// is harmless.
func (s *Scheduler) rotate() {
	identities := s.users.EnabledIdentities()
	s.logger.Info("Rotating daily codes", "identities", len(identities))

	issued := 0

	for _, identity := range identities {
		if err := s.issueWithRetry(identity); err != nil {
			s.logger.Error("Failed to issue daily code", "identity", identity, "error", err)

			continue
		}

		issued++
	}

	if _, _, err := s.authService.Sweep(s.ctx); err != nil {
		s.logger.Error("Credential sweep failed", "error", err)
	}

	s.logger.Info("Daily rotation finished", "issued", issued, "identities", len(identities))
}

func (s *Scheduler) issueWithRetry(identity string) error {
	var lastErr error

	for attempt := 1; attempt <= issueRetries; attempt++ {
		_, _, err := s.authService.IssueDailyCode(s.ctx, identity)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == issueRetries {
			break
		}

		s.logger.Warn("Daily code issuance failed, retrying",
			"identity", identity, "attempt", attempt, "error", err)

		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		case <-time.After(retryBackoff):
		}
	}

	return lastErr
}

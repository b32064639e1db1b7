package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler owns the periodic background jobs: the hourly stale-message
// auto-close and the weekly county digest. It is created and stopped by the
// process owner; there are no package-level interval handles.
type Scheduler struct {
	cron     *cron.Cron
	notifier Notifier
	digests  bool
}

// NewScheduler builds a scheduler. When digests is false the weekly digest
// job is not registered at all.
func NewScheduler(notifier Notifier, digests bool) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		notifier: notifier,
		digests:  digests,
	}
}

// Start registers the jobs and starts the cron loop. Jobs run on their own
// goroutines and never block request handling.
func (s *Scheduler) Start() error {
	// Hourly: close admin messages resolved for over 48h
	if _, err := s.cron.AddFunc("0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := CloseStaleAdminMessages(ctx); err != nil {
			log.Error().Err(err).Msg("stale-message sweep failed")
		}
	}); err != nil {
		return err
	}

	// Monday 09:00: weekly digest to county admins
	if s.digests {
		if _, err := s.cron.AddFunc("0 9 * * 1", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := SendWeeklyDigests(ctx, s.notifier); err != nil {
				log.Error().Err(err).Msg("weekly digest run failed")
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
	return nil
}

// Stop shuts the scheduler down, waiting for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// Package sweeper reclaims soft-deleted attachments and stale registrations on a cron schedule.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ngelmak/internal/middleware"
	"ngelmak/internal/observability"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultSchedule runs the sweep hourly.
	DefaultSchedule = "@every 1h"
	// UnactivatedRetention is how long a registration may wait for activation.
	UnactivatedRetention = 3 * 24 * time.Hour

	batchSize = 100
)

// AttachmentPurger permanently deletes attachments soft-deleted before cutoff.
type AttachmentPurger interface {
	PurgeDeleted(ctx context.Context, cutoff time.Time, batch int) (int, error)
}

// UserPurger drops registrations never activated before cutoff.
type UserPurger interface {
	PurgeUnactivated(ctx context.Context, cutoff time.Time) (int64, error)
}

// Result summarizes one sweep.
type Result struct {
	Attachments int
	Users       int64
}

type Sweeper struct {
	attachments AttachmentPurger
	users       UserPurger
	retention   time.Duration
	now         func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// New builds a sweeper keeping soft-deleted attachments for retention. users may be nil.
func New(attachments AttachmentPurger, users UserPurger, retention time.Duration) *Sweeper {
	return &Sweeper{
		attachments: attachments,
		users:       users,
		retention:   retention,
		now:         time.Now,
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	span, ctx := observability.NewSpan(ctx, "Sweeper.RunOnce")
	defer span.End()

	var res Result
	now := s.now()
	purged, err := s.attachments.PurgeDeleted(ctx, now.Add(-s.retention), batchSize)
	res.Attachments = purged
	if err != nil {
		span.SetError(err)
		observability.SweepRuns.WithLabelValues("error").Inc()
		return res, fmt.Errorf("purge attachments: %w", err)
	}

	if s.users != nil {
		removed, err := s.users.PurgeUnactivated(ctx, now.Add(-UnactivatedRetention))
		res.Users = removed
		if err != nil {
			span.SetError(err)
			observability.SweepRuns.WithLabelValues("error").Inc()
			return res, fmt.Errorf("purge unactivated users: %w", err)
		}
	}

	observability.SweepRuns.WithLabelValues("success").Inc()
	middleware.Logger.InfoContext(ctx, "sweep finished", "attachments", res.Attachments, "users", res.Users)
	return res, nil
}

// Start runs RunOnce on the cron schedule until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			middleware.Logger.Error("sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	middleware.Logger.Info("sweeper started", "schedule", schedule, "retention", s.retention.String())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

package service

import (
	"context"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/presentai/presentai/internal/store"
)

// Sweeper deletes jobs older than the retention window together with their
// reports, question sets and on-disk media.
type Sweeper struct {
	jobs      *JobService
	store     store.Store
	retention time.Duration
	interval  time.Duration
}

func NewSweeper(jobs *JobService, store store.Store, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		jobs:      jobs,
		store:     store,
		retention: retention,
		interval:  interval,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if removed, err := s.Sweep(ctx); err != nil {
				zap.S().Named("sweeper").Errorw("sweep failed", "error", err)
			} else if removed > 0 {
				zap.S().Named("sweeper").Infow("sweep finished", "removed", removed)
			}
		}
	}()
}

// Sweep removes every job created before the retention cutoff and reports
// how many were deleted.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.retention)
	expired, err := s.store.Job().List(ctx, store.NewJobQueryFilter().WithCreatedBefore(cutoff), nil)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, job := range expired {
		if err := s.jobs.DeleteJob(ctx, job.ID); err != nil {
			zap.S().Named("sweeper").Warnf("failed to delete expired job %s: %v", job.ID, err)
			continue
		}
		removed++
	}
	return removed, nil
}

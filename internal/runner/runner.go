// Package runner drives the poll loop: fetch a snapshot, plan a pass, flush
// the batch, record the cycle, sleep.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/autodoist/internal/db"
	"github.com/marcus/autodoist/internal/engine"
	"github.com/marcus/autodoist/internal/models"
)

// Source is where snapshots come from and batches go
type Source interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
	Apply(ctx context.Context, b models.Batch) error
}

// Planner computes a pass
type Planner interface {
	Plan(snap *models.Snapshot, now time.Time) *engine.Result
}

// History records finished cycles. May be nil.
type History interface {
	RecordCycle(c db.Cycle) (int64, error)
}

// Config controls the loop
type Config struct {
	Delay  time.Duration // target time between cycle starts
	Once   bool
	DryRun bool
}

// Runner runs cycles until cancelled
type Runner struct {
	cfg     Config
	source  Source
	planner Planner
	history History
	logger  *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	// OnPlan, when set, sees every fetched snapshot and computed result
	// before the batch is flushed
	OnPlan func(snap *models.Snapshot, res *engine.Result)
}

// New creates a runner
func New(cfg Config, source Source, planner Planner, history History, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:     cfg,
		source:  source,
		planner: planner,
		history: history,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Run loops until ctx is cancelled, or once in one-shot mode. A started cycle
// always runs to completion; cancellation is honoured between cycles. In
// one-shot mode the cycle error is returned, otherwise failures are logged
// and the next cycle retries from a fresh fetch.
func (r *Runner) Run(ctx context.Context) error {
	for {
		start := r.now()
		err := r.Cycle(context.WithoutCancel(ctx))
		if r.cfg.Once {
			return err
		}
		if err != nil {
			r.logger.Error("cycle failed", "err", err)
		}

		if ctx.Err() != nil {
			return nil
		}

		elapsed := r.now().Sub(start)
		delay := max(r.cfg.Delay-elapsed, 0)
		if delay == 0 {
			r.logger.Debug("cycle overran delay, not sleeping", "elapsed", elapsed, "delay", r.cfg.Delay)
			continue
		}
		r.logger.Debug("sleeping", "for", delay.Round(time.Millisecond))
		if err := r.sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// Cycle runs one fetch, plan, flush round and records it
func (r *Runner) Cycle(ctx context.Context) error {
	start := r.now()
	rec := db.Cycle{StartedAt: start, Status: db.CycleOK, DryRun: r.cfg.DryRun}

	err := r.cycle(ctx, &rec)
	rec.Duration = r.now().Sub(start)
	if err != nil {
		rec.Status = db.CycleFailed
		rec.Error = err.Error()
	}

	if r.history != nil {
		if _, herr := r.history.RecordCycle(rec); herr != nil {
			r.logger.Warn("record cycle", "err", herr)
		}
	}
	return err
}

func (r *Runner) cycle(ctx context.Context, rec *db.Cycle) error {
	snap, err := r.source.Fetch(ctx)
	if err != nil {
		return err
	}
	rec.Items = len(snap.Items)

	res := r.planner.Plan(snap, r.now())
	rec.Updates = len(res.Batch.Items)
	if r.OnPlan != nil {
		r.OnPlan(snap, res)
	}

	if res.Batch.Empty() {
		r.logger.Debug("nothing to update", "items", rec.Items)
		return nil
	}
	if r.cfg.DryRun {
		r.logger.Info("dry run, not writing", "updates", rec.Updates,
			"renames", len(res.Batch.Projects)+len(res.Batch.Sections))
		return nil
	}

	if err := r.source.Apply(ctx, res.Batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	r.logger.Info("cycle applied", "updates", rec.Updates, "labeled", len(res.Labeled))
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

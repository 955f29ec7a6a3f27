// Package reindex runs the background workspace rescan and tokenizer-cache
// eviction job on a cron schedule.
//
// Grounded on internal/cron/schedule.go's use of robfig/cron/v3 purely as
// an expression validator/parser (this codebase's own cron package never
// runs a full robfig Cron scheduler either — it ticks a plain
// time.Ticker and consults Schedule.Next) and internal/tasks/scheduler.go's
// ticker-loop Start/Stop shape.
package reindex

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/workspace"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job periodically re-walks the declared workspace roots (refreshing the
// file list a stale vector/AST backend might cache) and evicts the
// tokenizer encoder cache, bounding memory held by encoders for models
// that fell out of the current caps snapshot.
type Job struct {
	state    *sharedstate.State
	schedule cron.Schedule
	logger   *slog.Logger
	tick     time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewJob parses cronExpr (standard 5-field cron, or a descriptor like
// "@hourly") and builds a Job that fires on that schedule. tick bounds how
// often the loop wakes to check whether the schedule is due; callers
// typically pass something well under the coarsest plausible schedule
// (e.g. 1 minute for an hourly job).
func NewJob(state *sharedstate.State, cronExpr string, tick time.Duration, logger *slog.Logger) (*Job, error) {
	sched, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}
	if tick <= 0 {
		tick = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{state: state, schedule: sched, logger: logger, tick: tick}, nil
}

// Start runs the job loop until ctx is done or Stop is called.
func (j *Job) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	j.mu.Lock()
	j.cancel = cancel
	j.mu.Unlock()

	go j.loop(ctx)
}

// Stop ends the job loop.
func (j *Job) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		j.cancel()
	}
}

func (j *Job) loop(ctx context.Context) {
	ticker := time.NewTicker(j.tick)
	defer ticker.Stop()

	next := j.schedule.Next(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Before(next) {
				continue
			}
			j.run(ctx)
			next = j.schedule.Next(now)
		}
	}
}

func (j *Job) run(ctx context.Context) {
	roots := j.state.WorkspaceRoots()
	files, err := workspace.ListFiles(roots)
	if err != nil {
		j.logger.Warn("reindex: listing workspace files", "error", err)
		return
	}
	j.state.Tokenizers.EvictAll()
	j.logger.Info("reindex: rescanned workspace", "roots", len(roots), "files", len(files))
}

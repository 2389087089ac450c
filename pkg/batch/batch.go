// Package batch runs one image operation over many sources with a bounded
// worker pool. A failing item never stops the others; every outcome is
// kept in input order for the end-of-run summary.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/instacrop/pkg/types"
)

// ImageProcessor handles a single source end to end
type ImageProcessor interface {
	ProcessImage(ctx context.Context, source string) types.ItemResult
}

// ProgressFunc is called after each item finishes
type ProgressFunc func(done, total int, item types.ItemResult)

// Runner fans sources out to an ImageProcessor
type Runner struct {
	proc     ImageProcessor
	workers  int
	logger   *zap.Logger
	progress ProgressFunc
}

// New creates a Runner. workers below 1 means sequential processing.
func New(proc ImageProcessor, workers int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{proc: proc, workers: workers, logger: logger}
}

// OnProgress registers a progress callback; calls are serialized
func (r *Runner) OnProgress(fn ProgressFunc) {
	r.progress = fn
}

// Run processes every source and returns the tally. Items not started
// before ctx is cancelled are recorded as failed with the context error.
func (r *Runner) Run(ctx context.Context, sources []string) types.Summary {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))
	logger.Info("batch started", zap.Int("images", len(sources)), zap.Int("workers", r.workers))

	results := make([]types.ItemResult, len(sources))
	var (
		mu   sync.Mutex
		done int
	)

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, src := range sources {
		g.Go(func() error {
			var res types.ItemResult
			if err := ctx.Err(); err != nil {
				res = types.ItemResult{Source: src, Err: err.Error()}
			} else {
				res = r.proc.ProcessImage(ctx, src)
				res.Source = src
			}
			results[i] = res

			if res.OK() {
				logger.Info("image processed", zap.String("source", src),
					zap.String("mode", res.Mode), zap.Int("outputs", len(res.Outputs)))
			} else {
				logger.Warn("image failed", zap.String("source", src), zap.String("error", res.Err))
			}

			mu.Lock()
			done++
			if r.progress != nil {
				r.progress(done, len(sources), res)
			}
			mu.Unlock()
			// per-item failures stay in the result; the group never cancels
			return nil
		})
	}
	_ = g.Wait()

	summary := types.Summary{
		RunID:   runID,
		Total:   len(sources),
		Items:   results,
		Elapsed: time.Since(start),
	}
	for _, res := range results {
		if res.OK() {
			summary.Processed++
			summary.Outputs += len(res.Outputs)
		} else {
			summary.Failed++
		}
	}

	logger.Info("batch finished",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Int("outputs", summary.Outputs),
		zap.Duration("elapsed", summary.Elapsed))
	return summary
}

package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/graph"
	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/rank"
)

// BatchProcessor runs independent sampler calls concurrently against one
// graph. The graph is only read, so the calls share it; each call gets its
// own random source.
type BatchProcessor struct {
	// concurrency is the maximum number of samplers running at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// mu guards the report while points are added.
	mu sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent samplers.
// Default is config.DefaultBatchSize if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		concurrency: config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Converge samples g once per entry of steps and records the distance of
// each estimate to report.Iterated, which must already be set. Every run
// uses a source seeded with report.Seed, so the study is reproducible.
//
// The first sampler error cancels the remaining runs and is returned.
// Points are sorted by sample count on success.
func (bp *BatchProcessor) Converge(ctx context.Context, g *graph.Graph, report *model.ConvergenceReport, steps []int) error {
	return bp.ConvergeWithCallback(ctx, g, report, steps, nil)
}

// ConvergeWithCallback is Converge with a callback invoked after each run
// completes. The callback receives the sample count and the index of the
// count in steps. It is called from the worker goroutine, so it must be
// safe for concurrent use.
func (bp *BatchProcessor) ConvergeWithCallback(
	ctx context.Context,
	g *graph.Graph,
	report *model.ConvergenceReport,
	steps []int,
	callback func(samples, index int),
) error {
	bp.logger.Debug("starting convergence study",
		"steps", len(steps),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(bp.concurrency)

	for i, samples := range steps {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			sampled, err := rank.SampleRank(g, report.Damping, samples, rank.NewSource(report.Seed))
			if err != nil {
				bp.logger.Warn("sampler failed", "samples", samples, "error", err)
				return err
			}

			bp.mu.Lock()
			report.AddPoint(samples, sampled)
			bp.mu.Unlock()

			bp.logger.Debug("sampler completed", "samples", samples)
			if callback != nil {
				callback(samples, i)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	report.Sort()

	bp.logger.Debug("convergence study complete",
		"steps", len(steps),
		"elapsed", time.Since(startTime),
	)
	return nil
}

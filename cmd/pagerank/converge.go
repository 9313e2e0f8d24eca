package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/pipeline"
)

// NewConvergeCmd creates the converge command.
// This command shows how the sampled estimate approaches the iterative one.
func NewConvergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "converge <corpus>",
		Short: "Show how sampling approaches the iterative result",
		Long: `Converge ranks a corpus with the iterative solver, then samples it once
for every sample count in --steps and prints how far each estimate is from
the iterative result.

The distance is the sum of the absolute per-page differences. With a fixed
seed it shrinks as the sample count grows. The samplers run concurrently.

Examples:
  # Default study: 100, 1000, 10000 and 100000 samples
  pagerank converge corpus

  # Custom sample counts, two samplers at a time
  pagerank converge --steps 10,100,1000 --batch 2 -s 7 corpus

  # Markdown output
  pagerank converge --markdown corpus`,
		Args: cobra.ExactArgs(1),
		RunE: runConvergeCmd,
	}

	addParameterFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().IntSlice("steps", config.DefaultSteps(),
		"Sample counts to compare")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of samplers run at once")

	return cmd
}

// runConvergeCmd executes the converge command.
func runConvergeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runConverge(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// runConverge runs the convergence study and reports it.
// Progress lines go to progress when verbose output is enabled.
func runConverge(ctx context.Context, cfg *config.Config, out, progress io.Writer, logger *slog.Logger) error {
	seed := cfg.ResolveSeed()

	// The reference vector comes from the usual pipeline without sampling.
	p := pipeline.DefaultPipeline(
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithPipelineDamping(cfg.Damping),
		pipeline.WithPipelineThreshold(cfg.Threshold),
		pipeline.WithPipelineMaxPasses(cfg.MaxPasses),
		pipeline.WithPipelineIgnorePatterns(cfg.IgnorePatterns),
		pipeline.WithPipelineSkipSampling(true),
	)
	reference := model.NewRankReport(cfg.Corpus)
	if err := p.Execute(ctx, reference); err != nil {
		return err
	}

	study := &model.ConvergenceReport{
		Corpus:   cfg.Corpus,
		Damping:  cfg.Damping,
		Seed:     seed,
		Iterated: reference.Iterated,
		Points:   make([]model.ConvergencePoint, 0, len(cfg.Steps)),
	}

	bp := pipeline.NewBatchProcessor(
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	done := 0
	err := bp.ConvergeWithCallback(ctx, reference.Graph, study, cfg.Steps, func(samples, _ int) {
		if !cfg.Verbose {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		fmt.Fprintf(progress, "[%d/%d] n = %d sampled\n", done, len(cfg.Steps), samples)
	})
	if err != nil {
		return err
	}

	w, closeOutput, err := openWriter(cfg, out)
	if err != nil {
		return err
	}
	if _, err := w.WriteConvergence(study); err != nil {
		_ = closeOutput() //nolint:errcheck // The write error is more useful
		return fmt.Errorf("failed to write report: %w", err)
	}
	return closeOutput()
}

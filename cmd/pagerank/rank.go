package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/database"
	applog "github.com/nao1215/pagerank/internal/log"
	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/pipeline"
	"github.com/nao1215/pagerank/internal/report"
)

// addParameterFlags registers the ranking parameters shared by the root
// and converge commands.
func addParameterFlags(cmd *cobra.Command) {
	cmd.Flags().Float64P("damping", "d", config.DefaultDamping,
		"Probability of following a link (0 < d < 1)")
	cmd.Flags().Float64("threshold", config.DefaultThreshold,
		"Largest per-page rank change at which the iterative solver stops")
	cmd.Flags().Int("max-passes", config.DefaultMaxPasses,
		"Maximum number of iterative solver passes")
	cmd.Flags().Uint64P("seed", "s", 0,
		"Seed of the random walks (0 picks a time-based seed)")
	cmd.Flags().StringSlice("ignore", nil,
		"Glob patterns of page names to leave out (e.g. draft-*)")

	// Configuration sources
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagerank in current or home directory)")
	cmd.Flags().String("env-file", config.DefaultEnvFile,
		"dotenv file with PAGERANK_* overrides")
}

// addReportFlags registers the output format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"Also print the report to standard output when --output is set")
}

// addRankFlags registers the flags of the ranking command.
func addRankFlags(cmd *cobra.Command) {
	addParameterFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().IntP("samples", "n", config.DefaultSamples,
		"Number of random-walk samples")
	cmd.Flags().Bool("skip-sampling", false,
		"Only run the iterative solver")
	cmd.Flags().Bool("skip-iteration", false,
		"Only run the random-walk estimator")
	cmd.Flags().Bool("warm-start", false,
		"Start the solver from the latest stored result of this corpus")
	cmd.Flags().Bool("keep-going", false,
		"Run the remaining steps after a failed one and still report and store the run")

	// Database flags
	cmd.Flags().Bool("no-save", false,
		"Do not store the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
}

// runRankCmd executes the ranking command.
func runRankCmd(cmd *cobra.Command, args []string) error {
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

	return runRank(ctx, cfg, cmd.OutOrStdout(), logger)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogFormatFlag retrieves the log format from the command or its parent.
func getLogFormatFlag(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString("log-format")
		if err != nil {
			return config.LogFormatText
		}
	}
	return format
}

// changed reports whether the user set a flag the command defines.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// buildConfig creates a Config for the corpus in args[0].
// Settings are layered: defaults, then the config file, then PAGERANK_*
// variables, then flags the user set explicitly.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if len(args) > 0 {
		corpus, err := filepath.Abs(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid corpus path %q: %w", args[0], err)
		}
		cfg.Corpus = corpus
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogFormat = getLogFormatFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.CorpusConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	} else {
		cfg.CorpusConfigs = &config.File{
			Corpora: make(map[string]config.CorpusConfig),
		}
	}
	cfg.ApplyCorpusConfig(cfg.CorpusConfigs.GetCorpusConfig(cfg.Corpus))

	cfg.EnvFile, err = cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	env, err := config.LoadEnv(cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags into cfg.
// Flags a command does not define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if changed(cmd, "damping") {
		if cfg.Damping, err = flags.GetFloat64("damping"); err != nil {
			return err
		}
	}
	if changed(cmd, "samples") {
		if cfg.Samples, err = flags.GetInt("samples"); err != nil {
			return err
		}
	}
	if changed(cmd, "threshold") {
		if cfg.Threshold, err = flags.GetFloat64("threshold"); err != nil {
			return err
		}
	}
	if changed(cmd, "max-passes") {
		if cfg.MaxPasses, err = flags.GetInt("max-passes"); err != nil {
			return err
		}
	}
	if changed(cmd, "seed") {
		if cfg.Seed, err = flags.GetUint64("seed"); err != nil {
			return err
		}
	}
	if changed(cmd, "ignore") {
		if cfg.IgnorePatterns, err = flags.GetStringSlice("ignore"); err != nil {
			return err
		}
	}
	if changed(cmd, "steps") {
		if cfg.Steps, err = flags.GetIntSlice("steps"); err != nil {
			return err
		}
	}
	if changed(cmd, "batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return err
		}
	}

	// Boolean and path flags have no file or environment counterpart.
	for name, dst := range map[string]*bool{
		"json":           &cfg.JSONReport,
		"markdown":       &cfg.MarkdownReport,
		"skip-sampling":  &cfg.SkipSampling,
		"skip-iteration": &cfg.SkipIteration,
		"warm-start":     &cfg.WarmStart,
		"keep-going":     &cfg.KeepGoing,
		"tee":            &cfg.Tee,
	} {
		if flags.Lookup(name) == nil {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return err
		}
	}
	if flags.Lookup("no-save") != nil {
		noSave, err := flags.GetBool("no-save")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noSave
	}
	if flags.Lookup("output") != nil {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Lookup("db-dir") != nil {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}

	return nil
}

// setupLogger creates a structured logger writing to w in the configured
// format. Float attributes are rounded so rank values stay readable.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.LogFormatJSON {
		return applog.NewJSONLogger(w, cfg.Verbose)
	}
	return applog.NewLogger(w, cfg.Verbose)
}

// runRank executes one ranking run and reports it.
func runRank(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	seed := cfg.ResolveSeed()

	logger.Debug("starting ranking",
		"corpus", cfg.Corpus,
		"damping", cfg.Damping,
		"samples", cfg.Samples,
		"seed", seed,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving or warm starting is enabled
	var db *database.RankDB
	if cfg.SaveToDB || cfg.WarmStart {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "dir", cfg.DBDir)
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineDamping(cfg.Damping),
		pipeline.WithPipelineSamples(cfg.Samples),
		pipeline.WithPipelineSeed(seed),
		pipeline.WithPipelineThreshold(cfg.Threshold),
		pipeline.WithPipelineMaxPasses(cfg.MaxPasses),
		pipeline.WithPipelineIgnorePatterns(cfg.IgnorePatterns),
		pipeline.WithPipelineSkipSampling(cfg.SkipSampling),
		pipeline.WithPipelineSkipIteration(cfg.SkipIteration),
	}
	if cfg.WarmStart {
		previous, err := db.GetLatestReport(ctx, cfg.Corpus)
		if err != nil {
			return fmt.Errorf("failed to read previous run: %w", err)
		}
		if previous != nil && previous.HasIterated() && previous.Damping == cfg.Damping {
			logger.Debug("warm start", "run", previous.ID)
			configOpts = append(configOpts, pipeline.WithPipelineInitial(previous.Iterated))
		}
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(cfg.KeepGoing),
	}
	p := pipeline.DefaultPipeline(pipelineOpts, configOpts...)
	rankReport := model.NewRankReport(cfg.Corpus)

	startTime := time.Now()
	if err := p.Execute(ctx, rankReport); err != nil {
		return err
	}
	logger.Debug("ranking completed", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, out, rankReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	// A failed save does not invalidate the printed result.
	if err := saveRankReport(ctx, db, rankReport, cfg.SaveToDB, logger); err != nil {
		logger.Error("failed to save rank report", "corpus", cfg.Corpus, "error", err)
	}

	// With --keep-going the failure is only known from the report.
	if rankReport.Error != nil {
		return fmt.Errorf("ranking failed: %w", rankReport.Error)
	}
	return nil
}

// openWriter returns the report writer for the configured destination: the
// report file, out, or both with --tee.
// The returned close function must be called when writing is done.
func openWriter(cfg *config.Config, out io.Writer) (report.Writer, func() error, error) {
	output, closeOutput, err := openOutput(cfg, out)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ReportFile != "" && cfg.Tee {
		return report.NewMultiWriter(newWriter(cfg, output), newWriter(cfg, out)), closeOutput, nil
	}
	return newWriter(cfg, output), closeOutput, nil
}

// openOutput returns the report destination: the configured file, or out.
// The returned close function must be called when writing is done.
func openOutput(cfg *config.Config, out io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return out, func() error { return nil }, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newWriter returns the report writer for the configured format.
func newWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport outputs the rank report in the requested format.
func outputReport(cfg *config.Config, out io.Writer, rankReport *model.RankReport) error {
	w, closeOutput, err := openWriter(cfg, out)
	if err != nil {
		return err
	}

	if _, err := w.Write(rankReport); err != nil {
		_ = closeOutput() //nolint:errcheck // The write error is more useful
		return err
	}
	return closeOutput()
}

// saveRankReport stores the run in the database when saving is enabled.
// If db is nil, this function is a no-op.
func saveRankReport(ctx context.Context, db *database.RankDB, rankReport *model.RankReport, save bool, logger *slog.Logger) error {
	if db == nil || !save {
		return nil
	}

	id, err := db.SaveReport(ctx, rankReport)
	if err != nil {
		return fmt.Errorf("failed to save rank report: %w", err)
	}

	logger.Debug("rank report saved to database", "corpus", rankReport.Corpus, "id", id)
	return nil
}

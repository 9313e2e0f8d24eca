package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/corpus"
	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/rank"
)

// LoadStep reads the corpus directory named by the report and builds the
// link graph that the ranking steps work on.
type LoadStep struct {
	// extension selects the files that are pages.
	extension string

	// ignorePatterns are glob patterns of page names to leave out.
	ignorePatterns []string

	// logger for structured logging.
	logger *slog.Logger
}

// LoadStepOption configures a LoadStep.
type LoadStepOption func(*LoadStep)

// WithLoadExtension sets the file extension of pages.
func WithLoadExtension(ext string) LoadStepOption {
	return func(s *LoadStep) {
		s.extension = ext
	}
}

// WithLoadIgnorePatterns sets page name patterns to leave out of the graph.
func WithLoadIgnorePatterns(patterns []string) LoadStepOption {
	return func(s *LoadStep) {
		s.ignorePatterns = patterns
	}
}

// WithLoadLogger sets a custom logger for the load step.
func WithLoadLogger(logger *slog.Logger) LoadStepOption {
	return func(s *LoadStep) {
		s.logger = logger
	}
}

// NewLoadStep creates a new corpus loading step.
func NewLoadStep(opts ...LoadStepOption) *LoadStep {
	s := &LoadStep{
		extension: corpus.DefaultExtension,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return "load"
}

// Do executes the load step.
func (s *LoadStep) Do(_ context.Context, report *model.RankReport) error {
	c, err := corpus.Load(report.Corpus,
		corpus.WithExtension(s.extension),
		corpus.WithIgnorePatterns(s.ignorePatterns),
		corpus.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}

	report.Graph = c.Graph
	report.Pages = c.Graph.Len()
	report.Links = c.Graph.LinkCount()
	report.Digest = c.Graph.Digest()
	report.Dangling = 0
	for _, page := range c.Graph.Pages() {
		if c.Graph.IsDangling(page) {
			report.Dangling++
		}
	}
	for page, title := range c.Titles {
		report.Titles[page] = title
	}

	s.logger.Debug("corpus ready",
		"pages", report.Pages,
		"links", report.Links,
		"dangling", report.Dangling,
		"digest", report.Digest,
	)
	return nil
}

// SampleStep estimates ranks by simulating random surfers.
type SampleStep struct {
	// damping is the probability of following a link.
	damping float64

	// samples is the number of walks.
	samples int

	// seed seeds the random source. Equal seeds give equal estimates.
	seed uint64

	// logger for structured logging.
	logger *slog.Logger
}

// SampleStepOption configures a SampleStep.
type SampleStepOption func(*SampleStep)

// WithSampleDamping sets the damping factor.
func WithSampleDamping(damping float64) SampleStepOption {
	return func(s *SampleStep) {
		s.damping = damping
	}
}

// WithSampleCount sets the number of walks.
func WithSampleCount(n int) SampleStepOption {
	return func(s *SampleStep) {
		s.samples = n
	}
}

// WithSampleSeed sets the seed of the random source.
func WithSampleSeed(seed uint64) SampleStepOption {
	return func(s *SampleStep) {
		s.seed = seed
	}
}

// WithSampleLogger sets a custom logger for the sample step.
func WithSampleLogger(logger *slog.Logger) SampleStepOption {
	return func(s *SampleStep) {
		s.logger = logger
	}
}

// NewSampleStep creates a new sampling step.
func NewSampleStep(opts ...SampleStepOption) *SampleStep {
	s := &SampleStep{
		damping: config.DefaultDamping,
		samples: config.DefaultSamples,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *SampleStep) Name() string {
	return "sample"
}

// Do executes the sample step.
func (s *SampleStep) Do(_ context.Context, report *model.RankReport) error {
	if report.Graph == nil {
		return fmt.Errorf("%w: %s", ErrNoGraph, s.Name())
	}

	ranks, err := rank.SampleRank(report.Graph, s.damping, s.samples, rank.NewSource(s.seed))
	if err != nil {
		return err
	}

	report.Damping = s.damping
	report.Samples = s.samples
	report.Seed = s.seed
	report.Sampled = ranks

	s.logger.Debug("sampling complete", "samples", s.samples, "ranks", ranks)
	return nil
}

// IterateStep computes ranks with the iterative solver.
type IterateStep struct {
	// damping is the probability of following a link.
	damping float64

	// threshold is the per-page change at or below which the solver stops.
	threshold float64

	// maxPasses caps the number of passes.
	maxPasses int

	// initial is a previous result to start from, if any.
	initial rank.Vector

	// logger for structured logging.
	logger *slog.Logger
}

// IterateStepOption configures an IterateStep.
type IterateStepOption func(*IterateStep)

// WithIterateDamping sets the damping factor.
func WithIterateDamping(damping float64) IterateStepOption {
	return func(s *IterateStep) {
		s.damping = damping
	}
}

// WithIterateThreshold sets the convergence threshold.
func WithIterateThreshold(threshold float64) IterateStepOption {
	return func(s *IterateStep) {
		s.threshold = threshold
	}
}

// WithIterateMaxPasses sets the pass limit.
func WithIterateMaxPasses(n int) IterateStepOption {
	return func(s *IterateStep) {
		s.maxPasses = n
	}
}

// WithIterateInitial starts the solver from a previous result. The vector
// is only used when it covers exactly the pages of the loaded graph.
func WithIterateInitial(ranks rank.Vector) IterateStepOption {
	return func(s *IterateStep) {
		s.initial = ranks
	}
}

// WithIterateLogger sets a custom logger for the iterate step.
func WithIterateLogger(logger *slog.Logger) IterateStepOption {
	return func(s *IterateStep) {
		s.logger = logger
	}
}

// NewIterateStep creates a new iteration step.
func NewIterateStep(opts ...IterateStepOption) *IterateStep {
	s := &IterateStep{
		damping:   config.DefaultDamping,
		threshold: config.DefaultThreshold,
		maxPasses: config.DefaultMaxPasses,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *IterateStep) Name() string {
	return "iterate"
}

// Do executes the iterate step.
func (s *IterateStep) Do(_ context.Context, report *model.RankReport) error {
	if report.Graph == nil {
		return fmt.Errorf("%w: %s", ErrNoGraph, s.Name())
	}

	opts := []rank.IterateOption{
		rank.WithThreshold(s.threshold),
		rank.WithMaxPasses(s.maxPasses),
	}
	if len(s.initial) > 0 {
		if slices.Equal(s.initial.Pages(), report.Graph.Pages()) {
			opts = append(opts, rank.WithInitial(s.initial))
		} else {
			s.logger.Info("previous ranks do not match the corpus, starting from uniform ranks")
		}
	}

	it, err := rank.IterateRank(report.Graph, s.damping, opts...)
	if err != nil {
		return err
	}

	report.Damping = s.damping
	report.Threshold = s.threshold
	report.MaxPasses = s.maxPasses
	report.Iterated = it.Ranks
	report.Passes = it.Passes
	report.Converged = it.Converged
	report.Delta = it.Delta

	if !it.Converged {
		s.logger.Warn("solver stopped at pass limit",
			"passes", it.Passes,
			"delta", it.Delta,
		)
	}
	s.logger.Debug("iteration complete", "passes", it.Passes, "delta", it.Delta)
	return nil
}

// CompareStep measures how far the sampled estimate is from the iterated one.
// It is a no-op unless both vectors are present.
type CompareStep struct {
	logger *slog.Logger
}

// NewCompareStep creates a new comparison step.
func NewCompareStep(logger *slog.Logger) *CompareStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompareStep{logger: logger}
}

// Name returns the step name.
func (s *CompareStep) Name() string {
	return "compare"
}

// Do executes the compare step.
func (s *CompareStep) Do(_ context.Context, report *model.RankReport) error {
	report.Compare()
	if report.HasSampled() && report.HasIterated() {
		s.logger.Debug("estimates compared",
			"distance", report.Distance,
			"max_diff", report.MaxDiff,
		)
	}
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// Damping is shared by the sampler and the solver.
	Damping float64

	// Samples is the number of random walks.
	Samples int

	// Seed seeds the sampler.
	Seed uint64

	// Threshold is the solver's convergence threshold.
	Threshold float64

	// MaxPasses caps the solver's passes.
	MaxPasses int

	// IgnorePatterns are page name patterns left out of the graph.
	IgnorePatterns []string

	// Initial is a previous iterative result used as the solver's start.
	Initial rank.Vector

	// SkipSampling leaves the random-walk estimate out.
	SkipSampling bool

	// SkipIteration leaves the iterative result out.
	SkipIteration bool
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineDamping sets the damping factor for both estimators.
func WithPipelineDamping(damping float64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Damping = damping
	}
}

// WithPipelineSamples sets the number of random walks.
func WithPipelineSamples(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Samples = n
	}
}

// WithPipelineSeed sets the sampler seed.
func WithPipelineSeed(seed uint64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Seed = seed
	}
}

// WithPipelineThreshold sets the solver's convergence threshold.
func WithPipelineThreshold(threshold float64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Threshold = threshold
	}
}

// WithPipelineMaxPasses sets the solver's pass limit.
func WithPipelineMaxPasses(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPasses = n
	}
}

// WithPipelineIgnorePatterns sets page name patterns to leave out.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineInitial warm-starts the solver from a previous result.
func WithPipelineInitial(ranks rank.Vector) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Initial = ranks
	}
}

// WithPipelineSkipSampling disables the random-walk estimate.
func WithPipelineSkipSampling(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipSampling = skip
	}
}

// WithPipelineSkipIteration disables the iterative solver.
func WithPipelineSkipIteration(skip bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SkipIteration = skip
	}
}

// DefaultPipeline creates a pipeline that loads a corpus, ranks it with
// both estimators and compares the results.
//
// The first parameter accepts pipeline options (WithLogger, etc).
// The variadic parameter accepts pipeline config options (WithPipelineDamping, etc).
func DefaultPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		Damping:   config.DefaultDamping,
		Samples:   config.DefaultSamples,
		Threshold: config.DefaultThreshold,
		MaxPasses: config.DefaultMaxPasses,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddStep(NewLoadStep(
		WithLoadIgnorePatterns(cfg.IgnorePatterns),
		WithLoadLogger(p.logger),
	))
	if !cfg.SkipSampling {
		p.AddStep(NewSampleStep(
			WithSampleDamping(cfg.Damping),
			WithSampleCount(cfg.Samples),
			WithSampleSeed(cfg.Seed),
			WithSampleLogger(p.logger),
		))
	}
	if !cfg.SkipIteration {
		p.AddStep(NewIterateStep(
			WithIterateDamping(cfg.Damping),
			WithIterateThreshold(cfg.Threshold),
			WithIterateMaxPasses(cfg.MaxPasses),
			WithIterateInitial(cfg.Initial),
			WithIterateLogger(p.logger),
		))
	}
	p.AddStep(NewCompareStep(p.logger))

	return p
}

package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/pagerank/internal/rank"
)

// Default configuration values.
const (
	// DefaultDamping is the probability that the random surfer follows a
	// link instead of jumping to a random page.
	DefaultDamping = 0.85

	// DefaultSamples is the number of random-walk samples.
	DefaultSamples = 10000

	// DefaultThreshold is the convergence threshold of the iterative solver.
	DefaultThreshold = rank.DefaultThreshold

	// DefaultMaxPasses caps the iterative solver.
	DefaultMaxPasses = rank.DefaultMaxPasses

	// DefaultBatchSize is the number of samplers run at once by the
	// convergence study.
	DefaultBatchSize = 4

	// DefaultEnvFile is the dotenv file read for PAGERANK_* overrides.
	DefaultEnvFile = ".env"

	// AppName is the application name used for XDG directory paths.
	AppName = "pagerank"
)

// Log formats accepted by --log-format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultSteps returns the sample counts of the convergence study.
func DefaultSteps() []int {
	return []int{100, 1000, 10000, 100000}
}

// Config holds all configuration options for pagerank.
// It is populated from defaults, the config file, the environment and CLI
// flags, in increasing order of precedence, and then passed down explicitly.
type Config struct {
	// Corpus is the directory of HTML pages to rank.
	Corpus string

	// Damping is the damping factor, strictly between 0 and 1.
	Damping float64

	// Samples is the number of random-walk samples.
	Samples int

	// Threshold is the largest change of a single page's rank in a solver
	// pass that counts as converged.
	Threshold float64

	// MaxPasses caps the number of solver passes.
	MaxPasses int

	// Seed seeds the sampler's random source.
	// Zero means a time-based seed, chosen once by ResolveSeed.
	Seed uint64

	// IgnorePatterns are glob patterns of page names left out of the corpus.
	IgnorePatterns []string

	// SkipSampling leaves the random-walk estimate out of a run.
	SkipSampling bool

	// SkipIteration leaves the iterative result out of a run.
	SkipIteration bool

	// WarmStart starts the solver from the latest stored result of the
	// same corpus.
	WarmStart bool

	// Steps are the sample counts of the convergence study.
	Steps []int

	// BatchSize is the number of samplers the convergence study runs at once.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFormat is LogFormatText or LogFormatJSON.
	LogFormat string

	// KeepGoing runs the remaining steps after a failed one, and still
	// reports and stores the failed run.
	KeepGoing bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// CorpusConfigs holds the settings loaded from the config file.
	CorpusConfigs *File

	// EnvFile is the dotenv file read for PAGERANK_* variables.
	EnvFile string

	// JSONReport enables JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Tee also writes the report to stdout when ReportFile is set.
	Tee bool

	// DBDir is the directory of the SQLite run history.
	// Defaults to the XDG data directory (~/.local/share/pagerank on Linux).
	DBDir string

	// SaveToDB stores each run in the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Damping:   DefaultDamping,
		Samples:   DefaultSamples,
		Threshold: DefaultThreshold,
		MaxPasses: DefaultMaxPasses,
		Steps:     DefaultSteps(),
		BatchSize: DefaultBatchSize,
		LogFormat: LogFormatText,
		EnvFile:   DefaultEnvFile,
		DBDir:     XDGDataDir(),
		SaveToDB:  true,
	}
}

// ResolveSeed replaces a zero seed with one derived from the current time
// and returns the seed in use, so that the run can be reproduced later.
func (c *Config) ResolveSeed() uint64 {
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano()) //nolint:gosec // any bit pattern is a valid seed
	}
	return c.Seed
}

// ApplyCorpusConfig copies the non-zero settings of cc into c.
func (c *Config) ApplyCorpusConfig(cc CorpusConfig) {
	if cc.Damping != 0 {
		c.Damping = cc.Damping
	}
	if cc.Samples != 0 {
		c.Samples = cc.Samples
	}
	if cc.Threshold != 0 {
		c.Threshold = cc.Threshold
	}
	if cc.MaxPasses != 0 {
		c.MaxPasses = cc.MaxPasses
	}
	if cc.Seed != 0 {
		c.Seed = cc.Seed
	}
	if len(cc.IgnorePatterns) > 0 {
		c.IgnorePatterns = cc.IgnorePatterns
	}
}

// XDGDataDir returns the XDG data directory for pagerank.
// On Linux: ~/.local/share/pagerank
// On macOS: ~/Library/Application Support/pagerank
// On Windows: %LOCALAPPDATA%\pagerank
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagerank.
// On Linux: ~/.config/pagerank
// On macOS: ~/Library/Application Support/pagerank
// On Windows: %APPDATA%\pagerank
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.Corpus == "" {
		return ErrNoCorpus
	}

	// Written as a negation so NaN is rejected too.
	if !(c.Damping > 0 && c.Damping < 1) {
		return ErrInvalidDamping
	}

	if c.Samples < 1 {
		return ErrInvalidSamples
	}

	if !(c.Threshold > 0) {
		return ErrInvalidThreshold
	}

	if c.MaxPasses < 1 {
		return ErrInvalidMaxPasses
	}

	if c.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	for _, n := range c.Steps {
		if n < 1 {
			return ErrInvalidSamples
		}
	}

	if c.SkipSampling && c.SkipIteration {
		return ErrNothingToRank
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	return nil
}

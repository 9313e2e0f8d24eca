package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() while still printing a readable message.
var (
	// ErrNoCorpus is returned when no corpus directory is given.
	ErrNoCorpus = errors.New("no corpus specified: provide a directory of HTML pages")

	// ErrInvalidDamping is returned when the damping factor is not strictly
	// between 0 and 1.
	ErrInvalidDamping = errors.New("invalid damping: must be greater than 0 and less than 1")

	// ErrInvalidSamples is returned when a sample count is less than 1.
	ErrInvalidSamples = errors.New("invalid samples: must be at least 1")

	// ErrInvalidThreshold is returned when the convergence threshold is not positive.
	ErrInvalidThreshold = errors.New("invalid threshold: must be positive")

	// ErrInvalidMaxPasses is returned when the pass cap is less than 1.
	ErrInvalidMaxPasses = errors.New("invalid max passes: must be at least 1")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrNothingToRank is returned when both estimators are disabled.
	ErrNothingToRank = errors.New("nothing to rank: sampling and iteration are both disabled")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidLogFormat is returned when --log-format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidEnv is returned when a PAGERANK_* variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment variable")
)

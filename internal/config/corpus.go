package config

import "path/filepath"

// CorpusConfig holds ranking settings for a single corpus.
// Zero values mean "not set" and leave the outer setting in place.
type CorpusConfig struct {
	// Damping overrides the damping factor.
	Damping float64 `yaml:"damping,omitempty" toml:"damping,omitempty"`

	// Samples overrides the number of random-walk samples.
	Samples int `yaml:"samples,omitempty" toml:"samples,omitempty"`

	// Threshold overrides the convergence threshold.
	Threshold float64 `yaml:"threshold,omitempty" toml:"threshold,omitempty"`

	// MaxPasses overrides the solver pass cap.
	MaxPasses int `yaml:"maxPasses,omitempty" toml:"maxPasses,omitempty"`

	// Seed fixes the sampler seed for reproducible runs.
	Seed uint64 `yaml:"seed,omitempty" toml:"seed,omitempty"`

	// IgnorePatterns are glob patterns of page names to leave out.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty" toml:"ignorePatterns,omitempty"`
}

// File represents the structure of the .pagerank configuration file.
type File struct {
	// Corpora maps corpus directories to their settings. A key matches the
	// directory as given on the command line, its cleaned form, or its base name.
	Corpora map[string]CorpusConfig `yaml:"corpora,omitempty" toml:"corpora,omitempty"`

	// Defaults applies to every corpus unless overridden per corpus.
	Defaults CorpusConfig `yaml:"defaults,omitempty" toml:"defaults,omitempty"`
}

// GetCorpusConfig returns the configuration for a corpus directory.
// It merges the corpus-specific configuration with defaults.
func (cf *File) GetCorpusConfig(corpus string) CorpusConfig {
	result := cf.Defaults

	override, ok := cf.lookup(corpus)
	if !ok {
		return result
	}

	if override.Damping != 0 {
		result.Damping = override.Damping
	}
	if override.Samples != 0 {
		result.Samples = override.Samples
	}
	if override.Threshold != 0 {
		result.Threshold = override.Threshold
	}
	if override.MaxPasses != 0 {
		result.MaxPasses = override.MaxPasses
	}
	if override.Seed != 0 {
		result.Seed = override.Seed
	}
	if len(override.IgnorePatterns) > 0 {
		result.IgnorePatterns = override.IgnorePatterns
	}

	return result
}

// lookup finds the entry for a corpus, trying the exact key first.
func (cf *File) lookup(corpus string) (CorpusConfig, bool) {
	for _, key := range []string{corpus, filepath.Clean(corpus), filepath.Base(filepath.Clean(corpus))} {
		if cc, ok := cf.Corpora[key]; ok {
			return cc, true
		}
	}
	return CorpusConfig{}, false
}

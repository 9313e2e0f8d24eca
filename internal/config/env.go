package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvDamping = "PAGERANK_DAMPING"
	EnvSamples = "PAGERANK_SAMPLES"
	EnvSeed    = "PAGERANK_SEED"
)

// envKeys lists every variable LoadEnv looks at.
var envKeys = []string{EnvDamping, EnvSamples, EnvSeed}

// LoadEnv collects the PAGERANK_* variables from the dotenv file at path
// and the process environment. The process environment wins, matching
// godotenv.Load. A missing dotenv file is not an error.
func LoadEnv(path string) (map[string]string, error) {
	env := make(map[string]string)

	if path != "" {
		values, err := godotenv.Read(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, key := range envKeys {
			if v, ok := values[key]; ok && v != "" {
				env[key] = v
			}
		}
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			env[key] = v
		}
	}

	return env, nil
}

// ApplyEnv copies parsed PAGERANK_* values into c.
// Range checks are left to Validate.
func (c *Config) ApplyEnv(env map[string]string) error {
	if v, ok := env[EnvDamping]; ok {
		damping, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvDamping, v)
		}
		c.Damping = damping
	}

	if v, ok := env[EnvSamples]; ok {
		samples, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvSamples, v)
		}
		c.Samples = samples
	}

	if v, ok := env[EnvSeed]; ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvSeed, v)
		}
		c.Seed = seed
	}

	return nil
}

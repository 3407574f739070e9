// Package config loads engine configuration through CUE.
//
// The embedded schema supplies types, bounds and defaults; a user config
// file is unified against it, so invalid fields fail with positioned errors
// and omitted fields fall back to paper-trading defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Config is the decoded engine configuration.
type Config struct {
	DBPath string `json:"db_path"`

	Pair struct {
		Input  string `json:"input"`
		Output string `json:"output"`
	} `json:"pair"`

	Guard struct {
		MaxStalenessSec int64  `json:"max_staleness_sec"`
		MaxDeviationBps uint64 `json:"max_deviation_bps"`
		ReferencePrice  uint64 `json:"reference_price"`
		SlippageBps     uint64 `json:"slippage_bps"`
	} `json:"guard"`

	Randomness struct {
		MaxJitterSec int64  `json:"max_jitter_sec"`
		Secret       string `json:"secret"`
	} `json:"randomness"`

	Router struct {
		Rate uint64 `json:"rate"`
	} `json:"router"`
}

// MaxStaleness returns the guard staleness bound as a duration.
func (c *Config) MaxStaleness() time.Duration {
	return time.Duration(c.Guard.MaxStalenessSec) * time.Second
}

// MaxJitter returns the randomness jitter bound as a duration.
func (c *Config) MaxJitter() time.Duration {
	return time.Duration(c.Randomness.MaxJitterSec) * time.Second
}

// Default returns the configuration with every field at its schema default.
func Default() (*Config, error) {
	return Load("")
}

// Load reads, unifies and validates the config file at path. An empty path
// loads schema defaults only.
func Load(path string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	value := schema
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		user := ctx.CompileBytes(data, cue.Filename(path))
		if err := user.Err(); err != nil {
			return nil, fmt.Errorf("parse config %s: %s", path, cueerrors.Details(err, nil))
		}
		value = schema.Unify(user)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate config: %s", cueerrors.Details(err, nil))
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %s", cueerrors.Details(err, nil))
	}
	return &cfg, nil
}

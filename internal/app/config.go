package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// SpecPath names a specification file, a directory of specification
	// files, or a remote URI.
	SpecPath string

	LogFormat       string
	LogLevel        string
	MaxIncludeDepth int

	// Emit selects what a successful compilation prints: "none", "yaml".
	Emit string
	// SkipChecks stops the pipeline after lowering, before semantic rules.
	SkipChecks bool
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SpecPath == "" {
		return nil, errors.New("SpecPath is a required configuration field and cannot be empty")
	}
	if cfg.Emit == "" {
		cfg.Emit = "none"
	}
	return &cfg, nil
}

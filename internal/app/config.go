package app

import "errors"

// InteractiveMacro is executed at the start of an interactive session when
// it exists in the session directory.
const InteractiveMacro = "run.hcl"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	MacroPath   string // batch mode only
	Interactive bool
	Dir         string // where InteractiveMacro is looked up; empty means "."

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if !cfg.Interactive && cfg.MacroPath == "" {
		return nil, errors.New("MacroPath is required in batch mode and cannot be empty")
	}
	if cfg.Interactive && cfg.MacroPath != "" {
		return nil, errors.New("MacroPath cannot be combined with interactive mode")
	}
	return &cfg, nil
}

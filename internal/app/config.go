package app

import "errors"

// Config holds everything a driver instance needs to run.
type Config struct {
	RegionsPath  string // YAML region dumps: a file or a directory
	PipelinePath string // HCL pipeline definition; empty selects the stock sequence

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.RegionsPath == "" {
		return nil, errors.New("RegionsPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}

package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProcedurePaths []string // hcl files or directories
	ProcedureName  string   // required when the files hold several procedures

	LogFormat string
	LogLevel  string

	TickTimeout time.Duration
	StepMode    bool
	Breakpoints []string // instruction names

	MonitorAddr     string // socket.io monitor, empty disables it
	HealthcheckPort int
	LogDBPath       string // sqlite job log, empty disables it
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ProcedurePaths) == 0 {
		return nil, errors.New("ProcedurePaths is a required configuration field and cannot be empty")
	}
	if cfg.TickTimeout < 0 {
		return nil, fmt.Errorf("tick timeout cannot be negative: %s", cfg.TickTimeout)
	}
	if cfg.HealthcheckPort < 0 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	return &cfg, nil
}

// Package config collects the server settings from defaults, environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/tkzzzzzz6/dino-x/internal/analytics"
	"github.com/tkzzzzzz6/dino-x/internal/applog"
	"github.com/tkzzzzzz6/dino-x/internal/overlay"
)

// Environment variables read by FromEnv.
const (
	EnvLogLevel    = "DINOX_MCP_LOG_LEVEL"
	EnvMaxHistory  = "DINOX_MCP_MAX_HISTORY"
	EnvMetricsAddr = "DINOX_MCP_METRICS_ADDR"
	EnvHideMasks   = "DINOX_MCP_HIDE_MASKS"
)

// Config is the complete server configuration.
type Config struct {
	LogLevel    string
	MaxHistory  int
	MetricsAddr string          // empty disables the metrics listener
	Overlay     overlay.Options // defaults for detection_visualize
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:   "info",
		MaxHistory: analytics.DefaultMaxHistory,
		Overlay:    overlay.DefaultOptions(),
	}
}

// Lookup reads one environment variable. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// FromEnv applies environment overrides to Default. A nil lookup reads the
// process environment.
func FromEnv(lookup Lookup) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvMaxHistory); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %q is not an integer", EnvMaxHistory, v)
		}
		cfg.MaxHistory = n
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvHideMasks); ok && v != "" {
		hide, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %q is not a boolean", EnvHideMasks, v)
		}
		cfg.Overlay.ShowMask = !hide
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxHistory <= 0 || c.MaxHistory > analytics.MaxHistoryLimit {
		return fmt.Errorf("max history must be between 1 and %d, got %d", analytics.MaxHistoryLimit, c.MaxHistory)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("metrics address %q: %w", c.MetricsAddr, err)
		}
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() applog.Level {
	l, err := applog.ParseLevel(c.LogLevel)
	if err != nil {
		return applog.LevelInfo
	}
	return l
}

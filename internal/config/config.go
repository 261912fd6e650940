// Package config provides configuration for the Cutline agent.
// Values come from environment variables with sensible defaults; a .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort          = 8719
	DefaultLogLevel      = "info"
	DefaultDataDir       = ".cutline"
	DefaultProbeTimeout  = 30 // seconds
	DefaultWatchInterval = 30 // seconds

	// Environment variable names
	EnvPort          = "CUTLINE_PORT"
	EnvLogLevel      = "CUTLINE_LOG_LEVEL"
	EnvDataDir       = "CUTLINE_DATA_DIR"
	EnvFFprobe       = "CUTLINE_FFPROBE"
	EnvProbeTimeout  = "CUTLINE_PROBE_TIMEOUT_S"
	EnvWatchInterval = "CUTLINE_WATCH_INTERVAL_S"
	EnvHeadless      = "CUTLINE_HEADLESS"

	// Database filename
	DBFilename = "cutline.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	FFprobePath() string
	ProbeTimeout() time.Duration
	WatchInterval() time.Duration
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port          int
	logLevel      string
	dataDir       string
	ffprobePath   string
	probeTimeout  time.Duration
	watchInterval time.Duration
	headless      bool
}

// New creates a new EnvConfig with defaults and environment overrides.
// The .env file, if any, is loaded before the environment is read.
func New() (*EnvConfig, error) {
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		dataDir:       defaultDataDir(),
		probeTimeout:  DefaultProbeTimeout * time.Second,
		watchInterval: DefaultWatchInterval * time.Second,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.ffprobePath = os.Getenv(EnvFFprobe)

	if pt := os.Getenv(EnvProbeTimeout); pt != "" {
		secs, err := strconv.Atoi(pt)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number of seconds", EnvProbeTimeout)
		}
		cfg.probeTimeout = time.Duration(secs) * time.Second
	}

	if wi := os.Getenv(EnvWatchInterval); wi != "" {
		secs, err := strconv.Atoi(wi)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number of seconds", EnvWatchInterval)
		}
		cfg.watchInterval = time.Duration(secs) * time.Second
	}

	switch os.Getenv(EnvHeadless) {
	case "1", "true", "yes":
		cfg.headless = true
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// FFprobePath returns the configured ffprobe binary, empty meaning PATH lookup.
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return c.probeTimeout
}

func (c *EnvConfig) WatchInterval() time.Duration {
	return c.watchInterval
}

// Headless reports whether the system tray should be skipped.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

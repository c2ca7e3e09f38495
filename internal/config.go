package internal

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v2"
)

// Config holds the tunable parameters of a VM.
type Config struct {
	// MaxCallDepth is the number of nested routine activations a job may
	// have before a call raises StackOverflow.
	MaxCallDepth int `yaml:"maxCallDepth"`
	// TimestampFormat is the lctime strftime format of connection output
	// timestamps. If it is empty, timestamps are milliseconds since the VM
	// started.
	TimestampFormat string `yaml:"timestampFormat"`
	// LogLevel is the minimum level of log records: debug, info, warn, or
	// error.
	LogLevel string `yaml:"logLevel"`
	// Trace enables a debug log record for every evaluated node.
	Trace bool `yaml:"trace"`
	// JobNamePrefix prefixes the generated names of unnamed jobs.
	JobNamePrefix string `yaml:"jobNamePrefix"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxCallDepth:  256,
		LogLevel:      "info",
		JobNamePrefix: "job",
	}
}

// LoadConfig reads a YAML configuration. Fields absent from the document
// keep their default values; unknown fields are errors.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	var b bytes.Buffer
	if _, err := b.ReadFrom(r); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.UnmarshalStrict(b.Bytes(), &cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return cfg, err
	}
	if cfg.MaxCallDepth <= 0 {
		return cfg, fmt.Errorf("config: maxCallDepth must be positive, got %d", cfg.MaxCallDepth)
	}
	return cfg, nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: bad logLevel %q: %w", c.LogLevel, err)
	}
	return l, nil
}

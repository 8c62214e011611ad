// Package config loads the settings of a commit log from a YAML file and turns them into commit log options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/backbone81/durable-log/internal/commitlog"
	"github.com/backbone81/durable-log/internal/durability"
	"github.com/backbone81/durable-log/internal/encoding"
)

// Config holds the settings of a commit log. Keys missing from the file keep their default value.
type Config struct {
	SegmentSizeLimit int64         `yaml:"segment_size_limit"`
	DurabilityMode   string        `yaml:"durability_mode"`
	FlushBatchSize   int           `yaml:"flush_batch_size"`
	FlushInterval    time.Duration `yaml:"flush_interval"`
	ReplayChecksums  bool          `yaml:"replay_checksums"`
	DirectoryLock    bool          `yaml:"directory_lock"`
	LogLevel         string        `yaml:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		SegmentSizeLimit: commitlog.DefaultSegmentSizeLimit,
		DurabilityMode:   durability.DefaultMode.String(),
		FlushBatchSize:   durability.DefaultFlushBatchSize,
		FlushInterval:    durability.DefaultFlushInterval,
		ReplayChecksums:  true,
		DirectoryLock:    true,
		LogLevel:         zapcore.InfoLevel.String(),
	}
}

// Load reads the settings from the YAML file at the given path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // The path is provided by the user on purpose.
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %q: %w", path, err)
	}
	result, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", path, err)
	}
	return result, nil
}

// Parse reads the settings from YAML data. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	result := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := result.Validate(); err != nil {
		return Config{}, err
	}
	return result, nil
}

// Validate checks that all settings are within their valid range.
func (c Config) Validate() error {
	var errs []error
	if c.SegmentSizeLimit < encoding.HeaderSize {
		errs = append(errs, fmt.Errorf("segment_size_limit must be at least %d bytes, got %d", encoding.HeaderSize, c.SegmentSizeLimit))
	}
	if _, err := durability.ParseMode(c.DurabilityMode); err != nil {
		errs = append(errs, fmt.Errorf("durability_mode: %w", err))
	}
	if c.FlushBatchSize < 1 {
		errs = append(errs, fmt.Errorf("flush_batch_size must be at least 1, got %d", c.FlushBatchSize))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("flush_interval must be positive, got %s", c.FlushInterval))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the configured log level.
func (c Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}

// Options converts the settings into commit log options. The logger is handed to the commit log.
func (c Config) Options(logger *zap.Logger) ([]commitlog.Option, error) {
	mode, err := durability.ParseMode(c.DurabilityMode)
	if err != nil {
		return nil, err
	}

	options := []commitlog.Option{
		commitlog.WithSegmentSizeLimit(c.SegmentSizeLimit),
		commitlog.WithDurabilityMode(mode),
		commitlog.WithFlushBatchSize(c.FlushBatchSize),
		commitlog.WithFlushInterval(c.FlushInterval),
		commitlog.WithReplayChecksums(c.ReplayChecksums),
		commitlog.WithLogger(logger),
	}
	if !c.DirectoryLock {
		options = append(options, commitlog.WithoutDirectoryLock())
	}
	return options, nil
}

// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/atis-broadcast/internal/audio"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// mappingFileName is the mapping table looked up inside AudioDir when
// MAPPING_FILE is not set.
const mappingFileName = "mapping.tsv"

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8080" json:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Asset settings
	AudioDir    string `env:"AUDIO_DIR, default=./audio" json:"audio_dir" validate:"required"`
	MappingFile string `env:"MAPPING_FILE" json:"mapping_file"`

	// Storage settings
	OutputDir string `env:"OUTPUT_DIR, default=/tmp/atis-broadcast" json:"output_dir" validate:"required"`

	// Compilation settings
	GapMs                 int     `env:"GAP_MS, default=100" json:"gap_ms" validate:"min=0"`
	DelayMs               int     `env:"DELAY_MS, default=500" json:"delay_ms" validate:"min=0"`
	SilenceThreshDB       float64 `env:"SILENCE_THRESH_DB, default=-40" json:"silence_thresh_db" validate:"lte=0"`
	MinSilenceMs          int     `env:"MIN_SILENCE_MS, default=50" json:"min_silence_ms" validate:"min=1"`
	MaxConcurrentCompiles int     `env:"MAX_CONCURRENT_COMPILES, default=4" json:"max_concurrent_compiles" validate:"min=1"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty" validate:"required_with=S3Bucket"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json TEXT JSON"`
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"` // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from a .env file, if present, and then from
// environment variables. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.MappingFile == "" {
		cfg.MappingFile = filepath.Join(cfg.AudioDir, mappingFileName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Gap is the silence appended after every word.
func (c *Config) Gap() time.Duration {
	return time.Duration(c.GapMs) * time.Millisecond
}

// Delay is the silence inserted for a blank prompt line.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// TrimOpts returns the silence trimming settings.
func (c *Config) TrimOpts() audio.TrimOpts {
	return audio.TrimOpts{
		SilenceThreshDB: c.SilenceThreshDB,
		MinSilenceMs:    c.MinSilenceMs,
	}
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, AudioDir: %s, MappingFile: %s, OutputDir: %s, GapMs: %d, DelayMs: %d, SilenceThreshDB: %g, MinSilenceMs: %d, MaxConcurrentCompiles: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.AudioDir,
		c.MappingFile,
		c.OutputDir,
		c.GapMs,
		c.DelayMs,
		c.SilenceThreshDB,
		c.MinSilenceMs,
		c.MaxConcurrentCompiles,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config describes logger runtime configuration. Level and Format may be
// left empty and filled from an environment preset via ApplyEnvironment.
type Config struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	TimeFormat  string `mapstructure:"time_format"`
	Caller      bool   `mapstructure:"caller"`
	PrettyPrint bool   `mapstructure:"pretty"`
}

// ApplyEnvironment fills unset fields from per-environment presets:
// production favours machine-readable JSON at info level, every other
// environment gets a console-friendly debug setup. Explicit values always
// win over the preset.
func ApplyEnvironment(cfg Config, environment string) Config {
	prod := strings.EqualFold(environment, "production") || strings.EqualFold(environment, "prod")

	if cfg.Level == "" {
		if prod {
			cfg.Level = "info"
		} else {
			cfg.Level = "debug"
		}
	}
	if cfg.Format == "" {
		if prod {
			cfg.Format = "json"
		} else {
			cfg.Format = "console"
		}
	}
	return cfg
}

// NewLogger constructs a zerolog logger from config.
func NewLogger(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
		level = parsed
	}

	writer := logWriter(cfg)
	logger := zerolog.New(writer).Level(level)
	builder := logger.With().Timestamp()
	if cfg.Caller {
		builder = builder.Caller()
	}

	return builder.Logger()
}

func logWriter(cfg Config) io.Writer {
	if cfg.PrettyPrint || strings.EqualFold(cfg.Format, "console") {
		return zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: zerolog.TimeFieldFormat,
		}
	}
	return os.Stdout
}

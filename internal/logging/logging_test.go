package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestApplyEnvironmentPresets(t *testing.T) {
	prod := ApplyEnvironment(Config{}, "production")
	if prod.Level != "info" || prod.Format != "json" {
		t.Fatalf("production preset wrong: %+v", prod)
	}

	dev := ApplyEnvironment(Config{}, "development")
	if dev.Level != "debug" || dev.Format != "console" {
		t.Fatalf("development preset wrong: %+v", dev)
	}

	// Any unrecognised environment falls back to the development preset.
	other := ApplyEnvironment(Config{}, "staging")
	if other.Level != "debug" || other.Format != "console" {
		t.Fatalf("staging preset wrong: %+v", other)
	}
}

func TestApplyEnvironmentKeepsExplicitValues(t *testing.T) {
	cfg := ApplyEnvironment(Config{Level: "warn", Format: "json"}, "development")
	if cfg.Level != "warn" {
		t.Fatalf("explicit level must win over preset, got %s", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Fatalf("explicit format must win over preset, got %s", cfg.Format)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger(Config{Level: "warn", Format: "json"})
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", logger.GetLevel())
	}

	// Unparseable levels fall back to info rather than failing startup.
	fallback := NewLogger(Config{Level: "nonsense", Format: "json"})
	if fallback.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %v", fallback.GetLevel())
	}
}

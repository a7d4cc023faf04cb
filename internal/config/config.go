package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"slotguard/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Network   NetworkConfig   `mapstructure:"network"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Risk      RiskConfig      `mapstructure:"risk"`
	API       APIConfig       `mapstructure:"api"`
	Events    EventsConfig    `mapstructure:"events"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// NetworkConfig selects which cluster the oracle observes.
type NetworkConfig struct {
	Name string `mapstructure:"name"`
}

// SourcesConfig describes the set of ledger endpoints queried for consensus.
type SourcesConfig struct {
	Endpoints          []string      `mapstructure:"endpoints"`
	ConsensusThreshold int           `mapstructure:"consensus_threshold"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
}

// MonitorConfig governs the health polling loop and observation window.
type MonitorConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	StaleThreshold  time.Duration `mapstructure:"stale_threshold"`
	RetentionWindow time.Duration `mapstructure:"retention_window"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// RiskConfig bounds acceptable verification risk.
type RiskConfig struct {
	MaxScore float64 `mapstructure:"max_score"`
}

// APIConfig covers the REST and WebSocket listener.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// EventsConfig tunes the verification event fan-out.
type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. HistoryRetention
// bounds how long verification rows are kept; zero keeps them forever.
type DatabaseConfig struct {
	DSN              string        `mapstructure:"dsn"`
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	HistoryRetention time.Duration `mapstructure:"history_retention"`
}

// AlertingConfig defines health alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram alert delivery.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SLOTGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyNetworkDefaults()
	cfg.Logging = logging.ApplyEnvironment(cfg.Logging, cfg.App.Environment)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "slotguard")
	v.SetDefault("app.environment", "development")

	v.SetDefault("network.name", "devnet")

	v.SetDefault("sources.consensus_threshold", 3)
	v.SetDefault("sources.request_timeout", "5s")
	v.SetDefault("sources.user_agent", "slotguard/1.0")

	v.SetDefault("monitor.poll_interval", "400ms")
	v.SetDefault("monitor.stale_threshold", "5s")
	v.SetDefault("monitor.retention_window", "30s")
	v.SetDefault("monitor.startup_delay", "0s")

	v.SetDefault("risk.max_score", 0.2)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "30s")
	v.SetDefault("api.idle_timeout", "60s")

	v.SetDefault("events.buffer_size", 100)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.history_retention", "720h")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// applyNetworkDefaults fills the endpoint list from well-known cluster
// endpoints when none are configured explicitly.
func (c *Config) applyNetworkDefaults() {
	if len(c.Sources.Endpoints) > 0 {
		return
	}
	c.Sources.Endpoints = DefaultEndpoints(c.Network.Name)
}

// DefaultEndpoints returns the public endpoints for a named cluster.
func DefaultEndpoints(network string) []string {
	switch strings.ToLower(network) {
	case "mainnet", "mainnet-beta":
		return []string{
			"https://api.mainnet-beta.solana.com",
			"https://rpc.ankr.com/solana",
			"https://solana-api.projectserum.com",
			"https://solana.publicnode.com",
		}
	case "devnet":
		return []string{
			"https://api.devnet.solana.com",
			"https://rpc-devnet.helius.xyz",
			"https://devnet.rpcpool.com",
			"https://solana-devnet.publicnode.com",
		}
	default:
		return nil
	}
}

// Validate performs sanity checks on the configuration values. Invalid
// consensus setups are rejected here, never at request time.
func (c *Config) Validate() error {
	if len(c.Sources.Endpoints) == 0 {
		return fmt.Errorf("sources.endpoints must not be empty (unknown network %q?)", c.Network.Name)
	}
	if c.Sources.ConsensusThreshold < 1 {
		return fmt.Errorf("sources.consensus_threshold must be at least 1")
	}
	if c.Sources.ConsensusThreshold > len(c.Sources.Endpoints) {
		return fmt.Errorf("sources.consensus_threshold (%d) exceeds endpoint count (%d)",
			c.Sources.ConsensusThreshold, len(c.Sources.Endpoints))
	}
	if c.Sources.RequestTimeout <= 0 {
		return fmt.Errorf("sources.request_timeout must be greater than zero")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be greater than zero")
	}
	if c.Monitor.StaleThreshold <= 0 {
		return fmt.Errorf("monitor.stale_threshold must be greater than zero")
	}
	if c.Monitor.RetentionWindow <= 0 {
		return fmt.Errorf("monitor.retention_window must be greater than zero")
	}
	if c.Risk.MaxScore < 0 || c.Risk.MaxScore > 1 {
		return fmt.Errorf("risk.max_score must be within [0, 1]")
	}
	if c.Events.BufferSize <= 0 {
		return fmt.Errorf("events.buffer_size must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Database.HistoryRetention < 0 {
		return fmt.Errorf("database.history_retention must not be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// Package config defines the top-level configuration for betgo and provides
// validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BETGO_* environment variables.
type Config struct {
	OddsAPI    OddsAPIConfig    `toml:"odds_api"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Simulation SimulationConfig `toml:"simulation"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// OddsAPIConfig holds The Odds API credentials and client parameters. Keys
// may be given inline, via BETGO_ODDS_API_KEYS, or as an encrypted key file
// produced by EncryptKeys.
type OddsAPIConfig struct {
	Keys              []string `toml:"keys"`
	EncryptedKeysPath string   `toml:"encrypted_keys_path"`
	KeysPassword      string   `toml:"keys_password"`
	BaseURL           string   `toml:"base_url"`
	Regions           []string `toml:"regions"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables
// Redis; the quote cache then falls back to the in-memory implementation and
// HTTP rate limiting is off.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for the ledger
// document store.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for archiving CSV
// exports.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ScannerConfig holds the background scan loop parameters plus the scan
// defaults applied to every cycle.
type ScannerConfig struct {
	PeakInterval    duration `toml:"peak_interval"`
	OffPeakInterval duration `toml:"off_peak_interval"`
	SkipOffPeak     bool     `toml:"skip_off_peak"`
	// WindowStart/WindowEnd override the built-in peak tables with a single
	// daily window (inclusive local hours). -1 leaves the tables in charge.
	WindowStart int `toml:"window_start"`
	WindowEnd   int `toml:"window_end"`

	AutoBet       bool    `toml:"auto_bet"`
	MaxInvestment float64 `toml:"max_investment"`

	Sports     []string `toml:"sports"`
	Markets    []string `toml:"markets"`
	Bookmakers []string `toml:"bookmakers"`
	MinROI     float64  `toml:"min_roi"`
	Investment float64  `toml:"investment"`
	MaxHours   float64  `toml:"max_hours"`
	LiveOnly   bool     `toml:"live_only"`
}

// SimulationConfig holds paper-trading ledger parameters.
type SimulationConfig struct {
	StartingBankroll float64 `toml:"starting_bankroll"`
	// Store selects the ledger persistence backend: "postgres", "file", or
	// "memory".
	Store    string `toml:"store"`
	FilePath string `toml:"file_path"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		OddsAPI: OddsAPIConfig{
			BaseURL:           "https://api.the-odds-api.com/v4",
			Regions:           []string{"eu", "uk"},
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Redis: RedisConfig{
			Addr:       "",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "betgo",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "betgo-exports",
			ForcePathStyle: true,
		},
		Scanner: ScannerConfig{
			PeakInterval:    duration{5 * time.Minute},
			OffPeakInterval: duration{30 * time.Minute},
			SkipOffPeak:     false,
			WindowStart:     -1,
			WindowEnd:       -1,
			AutoBet:         false,
			MaxInvestment:   50,
			Markets:         []string{"h2h"},
			MinROI:          0.5,
			Investment:      500,
		},
		Simulation: SimulationConfig{
			StartingBankroll: 1000,
			Store:            "file",
			FilePath:         "betgo_simulation.json",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"bet_placed", "scan_summary"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve": true,
	"scan":  true,
	"auto":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validStores enumerates the accepted values for SimulationConfig.Store.
var validStores = map[string]bool{
	"postgres": true,
	"file":     true,
	"memory":   true,
}

// validMarkets enumerates the market keys accepted in ScannerConfig.Markets.
var validMarkets = map[string]bool{
	"h2h":     true,
	"spreads": true,
	"totals":  true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, scan, auto)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// At least one odds API credential source must be specified.
	if len(c.OddsAPI.Keys) == 0 && c.OddsAPI.EncryptedKeysPath == "" {
		errs = append(errs, "odds_api: either keys or encrypted_keys_path must be set")
	}
	if c.OddsAPI.EncryptedKeysPath != "" && c.OddsAPI.KeysPassword == "" {
		errs = append(errs, "odds_api: keys_password is required when encrypted_keys_path is set")
	}
	if c.OddsAPI.BaseURL == "" {
		errs = append(errs, "odds_api: base_url must not be empty")
	}
	if c.OddsAPI.RequestsPerSecond <= 0 {
		errs = append(errs, "odds_api: requests_per_second must be > 0")
	}

	// Redis is optional, but when an address is set the pool must be sane.
	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Postgres is only required when it backs the ledger.
	if strings.ToLower(c.Simulation.Store) == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Scanner
	if c.Scanner.PeakInterval.Duration <= 0 {
		errs = append(errs, "scanner: peak_interval must be > 0")
	}
	if c.Scanner.OffPeakInterval.Duration <= 0 {
		errs = append(errs, "scanner: off_peak_interval must be > 0")
	}
	ws, we := c.Scanner.WindowStart, c.Scanner.WindowEnd
	if (ws >= 0) != (we >= 0) {
		errs = append(errs, "scanner: window_start and window_end must be set together")
	}
	if ws >= 0 && we >= 0 {
		if ws > 23 || we > 23 {
			errs = append(errs, fmt.Sprintf("scanner: window hours must be 0-23, got %d-%d", ws, we))
		} else if ws > we {
			errs = append(errs, fmt.Sprintf("scanner: window_start must not exceed window_end, got %d-%d", ws, we))
		}
	}
	if c.Scanner.AutoBet && c.Scanner.MaxInvestment <= 0 {
		errs = append(errs, "scanner: max_investment must be > 0 when auto_bet is enabled")
	}
	if c.Scanner.MinROI < 0 {
		errs = append(errs, "scanner: min_roi must be >= 0")
	}
	if c.Scanner.Investment <= 0 {
		errs = append(errs, "scanner: investment must be > 0")
	}
	for _, m := range c.Scanner.Markets {
		if !validMarkets[strings.ToLower(m)] {
			errs = append(errs, fmt.Sprintf("scanner: unknown market %q (valid: h2h, spreads, totals)", m))
		}
	}

	// Simulation
	if !validStores[strings.ToLower(c.Simulation.Store)] {
		errs = append(errs, fmt.Sprintf("simulation: unknown store %q (valid: postgres, file, memory)", c.Simulation.Store))
	}
	if strings.ToLower(c.Simulation.Store) == "file" && c.Simulation.FilePath == "" {
		errs = append(errs, "simulation: file_path must not be empty for the file store")
	}
	if c.Simulation.StartingBankroll <= 0 {
		errs = append(errs, "simulation: starting_bankroll must be > 0")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	// Telegram needs both halves.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

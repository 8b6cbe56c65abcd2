package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BETGO_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BETGO_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Odds API ──
	setStringSlice(&cfg.OddsAPI.Keys, "BETGO_ODDS_API_KEYS")
	setStr(&cfg.OddsAPI.EncryptedKeysPath, "BETGO_ODDS_API_ENCRYPTED_KEYS_PATH")
	setStr(&cfg.OddsAPI.KeysPassword, "BETGO_KEY_PASSWORD")
	setStr(&cfg.OddsAPI.BaseURL, "BETGO_ODDS_API_BASE_URL")
	setStringSlice(&cfg.OddsAPI.Regions, "BETGO_ODDS_API_REGIONS")
	setFloat64(&cfg.OddsAPI.RequestsPerSecond, "BETGO_ODDS_API_REQUESTS_PER_SECOND")
	setInt(&cfg.OddsAPI.Burst, "BETGO_ODDS_API_BURST")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BETGO_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BETGO_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BETGO_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BETGO_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BETGO_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BETGO_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BETGO_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BETGO_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BETGO_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BETGO_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BETGO_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BETGO_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BETGO_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BETGO_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BETGO_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BETGO_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "BETGO_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "BETGO_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BETGO_S3_REGION")
	setStr(&cfg.S3.Bucket, "BETGO_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BETGO_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BETGO_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "BETGO_S3_FORCE_PATH_STYLE")

	// ── Scanner ──
	setDuration(&cfg.Scanner.PeakInterval, "BETGO_SCANNER_PEAK_INTERVAL")
	setDuration(&cfg.Scanner.OffPeakInterval, "BETGO_SCANNER_OFF_PEAK_INTERVAL")
	setBool(&cfg.Scanner.SkipOffPeak, "BETGO_SCANNER_SKIP_OFF_PEAK")
	setInt(&cfg.Scanner.WindowStart, "BETGO_SCANNER_WINDOW_START")
	setInt(&cfg.Scanner.WindowEnd, "BETGO_SCANNER_WINDOW_END")
	setBool(&cfg.Scanner.AutoBet, "BETGO_SCANNER_AUTO_BET")
	setFloat64(&cfg.Scanner.MaxInvestment, "BETGO_SCANNER_MAX_INVESTMENT")
	setStringSlice(&cfg.Scanner.Sports, "BETGO_SCANNER_SPORTS")
	setStringSlice(&cfg.Scanner.Markets, "BETGO_SCANNER_MARKETS")
	setStringSlice(&cfg.Scanner.Bookmakers, "BETGO_SCANNER_BOOKMAKERS")
	setFloat64(&cfg.Scanner.MinROI, "BETGO_SCANNER_MIN_ROI")
	setFloat64(&cfg.Scanner.Investment, "BETGO_SCANNER_INVESTMENT")
	setFloat64(&cfg.Scanner.MaxHours, "BETGO_SCANNER_MAX_HOURS")
	setBool(&cfg.Scanner.LiveOnly, "BETGO_SCANNER_LIVE_ONLY")

	// ── Simulation ──
	setFloat64(&cfg.Simulation.StartingBankroll, "BETGO_SIMULATION_STARTING_BANKROLL")
	setStr(&cfg.Simulation.Store, "BETGO_SIMULATION_STORE")
	setStr(&cfg.Simulation.FilePath, "BETGO_SIMULATION_FILE_PATH")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BETGO_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BETGO_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BETGO_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "BETGO_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "BETGO_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "BETGO_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.DiscordWebhookURL, "BETGO_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.TelegramToken, "BETGO_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BETGO_NOTIFY_TELEGRAM_CHAT_ID")
	setStringSlice(&cfg.Notify.Events, "BETGO_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BETGO_MODE")
	setStr(&cfg.LogLevel, "BETGO_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

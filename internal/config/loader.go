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
// built-in defaults, applies STEAMER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// A user-supplied sports table replaces the defaults entirely; a
	// user-supplied alias table is merged over them so one-off additions
	// don't require restating the whole map.
	if len(cfg.Aliases) > 0 {
		merged := DefaultAliases()
		for k, v := range cfg.Aliases {
			merged[k] = v
		}
		cfg.Aliases = merged
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STEAMER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Exchange ──
	setStr(&cfg.Exchange.BaseURL, "STEAMER_EXCHANGE_BASE_URL")
	setStr(&cfg.Exchange.AppKey, "STEAMER_EXCHANGE_APP_KEY")
	setStr(&cfg.Exchange.SessionToken, "STEAMER_EXCHANGE_SESSION_TOKEN")
	setInt(&cfg.Exchange.MaxResults, "STEAMER_EXCHANGE_MAX_RESULTS")

	// ── Feed ──
	setStr(&cfg.Feed.BaseURL, "STEAMER_FEED_BASE_URL")
	setStr(&cfg.Feed.APIKey, "STEAMER_FEED_API_KEY")
	setStr(&cfg.Feed.Regions, "STEAMER_FEED_REGIONS")
	setDuration(&cfg.Feed.TTLFloor, "STEAMER_FEED_TTL_FLOOR")

	// ── Supabase ──
	setStr(&cfg.Supabase.DSN, "STEAMER_SUPABASE_DSN")
	setStr(&cfg.Supabase.Host, "STEAMER_SUPABASE_HOST")
	setInt(&cfg.Supabase.Port, "STEAMER_SUPABASE_PORT")
	setStr(&cfg.Supabase.Database, "STEAMER_SUPABASE_DATABASE")
	setStr(&cfg.Supabase.User, "STEAMER_SUPABASE_USER")
	setStr(&cfg.Supabase.Password, "STEAMER_SUPABASE_PASSWORD")
	setStr(&cfg.Supabase.SSLMode, "STEAMER_SUPABASE_SSLMODE")
	setBool(&cfg.Supabase.RunMigrations, "STEAMER_SUPABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "STEAMER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STEAMER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STEAMER_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "STEAMER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "STEAMER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "STEAMER_S3_REGION")
	setStr(&cfg.S3.Bucket, "STEAMER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "STEAMER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "STEAMER_S3_SECRET_KEY")

	// ── Alert ──
	setFloat64(&cfg.Alert.EdgeThreshold, "STEAMER_ALERT_EDGE_THRESHOLD")
	setFloat64(&cfg.Alert.Commission, "STEAMER_ALERT_COMMISSION")
	setFloat64(&cfg.Alert.MinVolume, "STEAMER_ALERT_MIN_VOLUME")
	setDuration(&cfg.Alert.Cooldown, "STEAMER_ALERT_COOLDOWN")
	setFloat64(&cfg.Alert.MinPriceAdvantage, "STEAMER_ALERT_MIN_PRICE_ADVANTAGE")
	setFloat64(&cfg.Alert.MaxSpread, "STEAMER_ALERT_MAX_SPREAD")

	// ── Engine ──
	setDuration(&cfg.Engine.MatchPrematch, "STEAMER_ENGINE_MATCH_INTERVAL_PREMATCH")
	setDuration(&cfg.Engine.MatchInPlay, "STEAMER_ENGINE_MATCH_INTERVAL_IN_PLAY")
	setBool(&cfg.Engine.Forensic, "STEAMER_ENGINE_FORENSIC")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "STEAMER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "STEAMER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "STEAMER_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "STEAMER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "STEAMER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "STEAMER_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Top-level ──
	setStr(&cfg.Mode, "STEAMER_MODE")
	setStr(&cfg.LogLevel, "STEAMER_LOG_LEVEL")
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

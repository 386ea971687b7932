// Package config defines the configuration surface for steamerbot and
// provides loading and validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by STEAMER_* environment
// variables.
type Config struct {
	Exchange ExchangeConfig      `toml:"exchange"`
	Feed     FeedConfig          `toml:"feed"`
	Supabase SupabaseConfig      `toml:"supabase"`
	Redis    RedisConfig         `toml:"redis"`
	S3       S3Config            `toml:"s3"`
	Alert    AlertConfig         `toml:"alert"`
	Engine   EngineConfig        `toml:"engine"`
	Server   ServerConfig        `toml:"server"`
	Notify   NotifyConfig        `toml:"notify"`
	Sports   []SportConfig       `toml:"sports"`
	Aliases  map[string][]string `toml:"aliases"`
	Mode     string              `toml:"mode"`
	LogLevel string              `toml:"log_level"`
}

// ExchangeConfig holds betting-exchange API parameters.
type ExchangeConfig struct {
	BaseURL      string   `toml:"base_url"`
	AppKey       string   `toml:"app_key"`
	SessionToken string   `toml:"session_token"`
	MaxResults   int      `toml:"max_results"`
	BookChunk    int      `toml:"book_chunk"`
	Timeout      duration `toml:"timeout"`
}

// BookmakerConfig names one tracked external bookmaker. The order of the
// configured bookmakers is the reference-quote priority order, and slot N of
// every selection's stored prices corresponds to bookmaker N.
type BookmakerConfig struct {
	Key  string `toml:"key"`  // feed key, e.g. "pinnacle"
	Name string `toml:"name"` // display name for alerts
}

// FeedConfig holds odds-feed API parameters and the tracked bookmaker list.
type FeedConfig struct {
	BaseURL      string            `toml:"base_url"`
	APIKey       string            `toml:"api_key"`
	Regions      string            `toml:"regions"`
	Bookmakers   []BookmakerConfig `toml:"bookmakers"`
	Timeout      duration          `toml:"timeout"`
	TTLFloor     duration          `toml:"ttl_floor"`
	InPlayWindow duration          `toml:"in_play_window"`
}

// SupabaseConfig holds PostgreSQL / Supabase connection parameters.
type SupabaseConfig struct {
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

// RedisConfig holds Redis connection parameters. Redis backs both the feed
// payload cache and the alert-deduplication history.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds object-storage parameters for snapshot archival. Leave the
// bucket empty to disable archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// AlertConfig holds the arbitrage gates and alert-deduplication parameters.
type AlertConfig struct {
	EdgeThreshold     float64  `toml:"edge_threshold"`
	Commission        float64  `toml:"commission"`
	MinVolume         float64  `toml:"min_volume"`
	Cooldown          duration `toml:"cooldown"`
	MinPriceAdvantage float64  `toml:"min_price_advantage"`
	MaxSpread         float64  `toml:"max_spread"`
}

// EngineConfig holds the scheduling-loop cadences and maintenance toggles.
type EngineConfig struct {
	PollInterval      duration `toml:"poll_interval"`
	MatchPrematch     duration `toml:"match_interval_prematch"`
	MatchInPlay       duration `toml:"match_interval_in_play"`
	SnapshotInterval  duration `toml:"snapshot_interval"`
	SnapshotRetention duration `toml:"snapshot_retention"`
	ChunkSize         int      `toml:"chunk_size"`
	// Forensic forces a full book-price reset before each matching pass so
	// every surviving price is provably from the current cycle. It causes
	// visible data gaps; never enable it in normal operation.
	Forensic bool `toml:"forensic"`
}

// SportConfig maps one feed sport key onto one exchange scope. Several
// configs may share a sport label (NFL pro and college run under one label
// with different feed keys).
type SportConfig struct {
	Label         string `toml:"label"`
	FeedKey       string `toml:"feed_key"`
	EventTypeID   string `toml:"event_type_id"`
	CompetitionID string `toml:"competition_id"`
	TextQuery     string `toml:"text_query"`
	// StrictMode additionally requires the feed event's home or away token
	// to appear in the row's event name. Fuzzy configs trust the runner
	// gate and the alias table alone.
	StrictMode bool `toml:"strict_mode"`
}

// ServerConfig holds the read-only status API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
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

// Defaults returns a Config populated with reasonable default values,
// including the stock sports list and alias table.
func Defaults() Config {
	return Config{
		Exchange: ExchangeConfig{
			BaseURL:    "https://api.betfair.com/exchange/betting/rest/v1.0",
			MaxResults: 500,
			BookChunk:  10,
			Timeout:    duration{15 * time.Second},
		},
		Feed: FeedConfig{
			BaseURL: "https://api.the-odds-api.com/v4",
			Regions: "uk,eu,us",
			Bookmakers: []BookmakerConfig{
				{Key: "pinnacle", Name: "Pinnacle"},
				{Key: "ladbrokes", Name: "Ladbrokes"},
				{Key: "paddypower", Name: "PaddyPower"},
			},
			Timeout:      duration{15 * time.Second},
			TTLFloor:     duration{60 * time.Second},
			InPlayWindow: duration{4 * time.Hour},
		},
		Supabase: SupabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region:         "us-east-1",
			ForcePathStyle: true,
		},
		Alert: AlertConfig{
			EdgeThreshold:     0.003,
			Commission:        0.02,
			MinVolume:         200.0,
			Cooldown:          duration{10 * time.Minute},
			MinPriceAdvantage: 0.02,
			MaxSpread:         0.04,
		},
		Engine: EngineConfig{
			PollInterval:      duration{1 * time.Second},
			MatchPrematch:     duration{60 * time.Second},
			MatchInPlay:       duration{30 * time.Second},
			SnapshotInterval:  duration{45 * time.Second},
			SnapshotRetention: duration{24 * time.Hour},
			ChunkSize:         100,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Sports:   DefaultSports(),
		Aliases:  DefaultAliases(),
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"full":   true,
	"sync":   true,
	"spy":    true,
	"alerts": true,
	"server": true,
	"status": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: full, sync, spy, alerts, server, status)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	needsExchange := c.Mode == "full" || c.Mode == "sync"
	if needsExchange {
		if c.Exchange.BaseURL == "" {
			errs = append(errs, "exchange: base_url must not be empty")
		}
		if c.Exchange.AppKey == "" {
			errs = append(errs, "exchange: app_key is required for mode "+c.Mode)
		}
		if c.Exchange.BookChunk < 1 {
			errs = append(errs, "exchange: book_chunk must be >= 1")
		}
	}

	needsFeed := c.Mode == "full" || c.Mode == "spy"
	if needsFeed {
		if c.Feed.BaseURL == "" {
			errs = append(errs, "feed: base_url must not be empty")
		}
		if c.Feed.APIKey == "" {
			errs = append(errs, "feed: api_key is required for mode "+c.Mode)
		}
	}
	if n := len(c.Feed.Bookmakers); n == 0 || n > 3 {
		errs = append(errs, fmt.Sprintf("feed: between 1 and 3 tracked bookmakers required, got %d", n))
	}
	for i, b := range c.Feed.Bookmakers {
		if b.Key == "" {
			errs = append(errs, fmt.Sprintf("feed: bookmakers[%d]: key must not be empty", i))
		}
	}
	if c.Feed.TTLFloor.Duration < time.Second {
		errs = append(errs, "feed: ttl_floor must be at least 1s")
	}

	if strings.TrimSpace(c.Supabase.DSN) == "" {
		if c.Supabase.Host == "" {
			errs = append(errs, "supabase: host must not be empty (or set supabase.dsn)")
		}
		if c.Supabase.Port <= 0 || c.Supabase.Port > 65535 {
			errs = append(errs, fmt.Sprintf("supabase: port must be 1-65535, got %d", c.Supabase.Port))
		}
		if c.Supabase.Database == "" {
			errs = append(errs, "supabase: database must not be empty")
		}
	}
	if c.Supabase.PoolMaxConns < 1 {
		errs = append(errs, "supabase: pool_max_conns must be >= 1")
	}
	if c.Supabase.PoolMinConns > c.Supabase.PoolMaxConns {
		errs = append(errs, "supabase: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}

	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, "s3: region must be set when a bucket is configured")
	}

	if c.Alert.Commission < 0 || c.Alert.Commission >= 1 {
		errs = append(errs, fmt.Sprintf("alert: commission must be in [0,1), got %g", c.Alert.Commission))
	}
	if c.Alert.EdgeThreshold <= 0 {
		errs = append(errs, "alert: edge_threshold must be > 0")
	}
	if c.Alert.MaxSpread <= 0 {
		errs = append(errs, "alert: max_spread must be > 0")
	}
	if c.Alert.MinVolume < 0 {
		errs = append(errs, "alert: min_volume must be >= 0")
	}

	if c.Engine.ChunkSize < 1 {
		errs = append(errs, "engine: chunk_size must be >= 1")
	}
	if c.Engine.MatchInPlay.Duration < c.Feed.TTLFloor.Duration/2 {
		errs = append(errs, "engine: match_interval_in_play is pointlessly short relative to feed.ttl_floor")
	}

	if len(c.Sports) == 0 {
		errs = append(errs, "sports: at least one sport must be configured")
	}
	for i, s := range c.Sports {
		if s.Label == "" {
			errs = append(errs, fmt.Sprintf("sports[%d]: label must not be empty", i))
		}
		if s.FeedKey == "" {
			errs = append(errs, fmt.Sprintf("sports[%d]: feed_key must not be empty", i))
		}
		if s.EventTypeID == "" && s.CompetitionID == "" {
			errs = append(errs, fmt.Sprintf("sports[%d]: event_type_id or competition_id must be set", i))
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

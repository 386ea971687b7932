package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/calebmorris/steamerbot/internal/blob/s3"
	"github.com/calebmorris/steamerbot/internal/cache/redis"
	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
	"github.com/calebmorris/steamerbot/internal/notify"
	"github.com/calebmorris/steamerbot/internal/store/postgres"
)

// Dependencies bundles the infrastructure-level dependencies the run modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	Selections domain.SelectionStore
	Snapshots  domain.SnapshotStore
	History    domain.AlertHistory
	FeedCache  domain.FeedCache

	// Archiver is nil when no S3 bucket is configured; expired snapshots are
	// then deleted without upload.
	Archiver *s3blob.SnapshotArchiver

	Notifier *notify.Notifier
}

// needsRedis returns true for modes that touch the feed cache or alert
// history.
func needsRedis(mode string) bool {
	return mode != "sync"
}

// needsS3 returns true for modes that run the snapshot retention sweep.
func needsS3(mode string) bool {
	return mode == "full"
}

// Wire constructs the concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Supabase.DSN,
		Host:     cfg.Supabase.Host,
		Port:     cfg.Supabase.Port,
		Database: cfg.Supabase.Database,
		User:     cfg.Supabase.User,
		Password: cfg.Supabase.Password,
		SSLMode:  cfg.Supabase.SSLMode,
		MaxConns: cfg.Supabase.PoolMaxConns,
		MinConns: cfg.Supabase.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Supabase.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.Selections = postgres.NewSelectionStore(pool)
	deps.Snapshots = postgres.NewSnapshotStore(pool)

	// --- Redis ---
	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.FeedCache = redis.NewFeedCache(redisClient)
		deps.History = redis.NewAlertHistory(redisClient)
	}

	// --- S3 snapshot archival (optional) ---
	if needsS3(cfg.Mode) && cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         true,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewSnapshotArchiver(s3blob.NewWriter(s3Client), deps.Snapshots)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, logger)

	return deps, cleanup, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/calebmorris/steamerbot/internal/arb"
	"github.com/calebmorris/steamerbot/internal/exchange"
	"github.com/calebmorris/steamerbot/internal/feed"
	"github.com/calebmorris/steamerbot/internal/match"
	"github.com/calebmorris/steamerbot/internal/pipeline"
	"github.com/calebmorris/steamerbot/internal/server"
	"github.com/calebmorris/steamerbot/internal/server/ws"
)

// matcherStack bundles the matching state shared between the feed sync and
// the status server.
type matcherStack struct {
	stats   *match.Stats
	matcher *match.Matcher
}

func (a *App) buildMatcher() matcherStack {
	stats := match.NewStats()
	return matcherStack{
		stats:   stats,
		matcher: match.NewMatcher(match.Aliases(a.cfg.Aliases), a.cfg.Feed.Bookmakers, stats, a.logger),
	}
}

func (a *App) buildExchangeSync(deps *Dependencies) *pipeline.ExchangeSync {
	return pipeline.NewExchangeSync(
		exchange.NewClient(a.cfg.Exchange),
		deps.Selections,
		a.cfg.Sports,
		a.cfg.Exchange.BookChunk,
		a.cfg.Engine.ChunkSize,
		a.logger,
	)
}

func (a *App) buildFeedSync(deps *Dependencies, ms matcherStack) *pipeline.FeedSync {
	cached := feed.NewCachedClient(
		feed.NewClient(a.cfg.Feed),
		deps.FeedCache,
		a.cfg.Feed.TTLFloor.Duration,
		a.logger,
	)
	return pipeline.NewFeedSync(
		cached,
		deps.Selections,
		ms.matcher,
		ms.stats,
		a.cfg.Sports,
		a.cfg.Feed.InPlayWindow.Duration,
		a.cfg.Engine.ChunkSize,
		a.cfg.Engine.Forensic,
		a.logger,
	)
}

func (a *App) buildEngine(deps *Dependencies, broadcast func(arb.Alert)) *arb.Engine {
	return arb.NewEngine(
		a.cfg.Alert,
		a.cfg.Feed.Bookmakers,
		deps.History,
		deps.Notifier,
		broadcast,
		a.logger,
	)
}

// startServer launches the status server and its WebSocket hub on the group,
// returning the hub for broadcasting. Returns nil when the server is
// disabled.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, ms matcherStack) *ws.Hub {
	if !a.cfg.Server.Enabled {
		return nil
	}

	hub := ws.NewHub(a.cfg.Mode, a.logger)
	g.Go(func() error {
		err := hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	handler := server.NewHandler(deps.Selections, deps.History, ms.stats, a.cfg.Feed.Bookmakers, a.cfg.Mode, a.logger)
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handler, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return hub
}

// FullMode runs the complete pipeline loop plus the status server.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	ms := a.buildMatcher()
	hub := a.startServer(ctx, g, deps, ms)

	var broadcast func(arb.Alert)
	if hub != nil {
		broadcast = func(al arb.Alert) { hub.Broadcast("steamer_alert", al) }
	}

	orch := pipeline.NewOrchestrator(
		a.buildExchangeSync(deps),
		a.buildFeedSync(deps, ms),
		pipeline.NewSnapshotter(
			deps.Selections, deps.Snapshots, deps.Archiver,
			a.cfg.Engine.SnapshotInterval.Duration,
			a.cfg.Engine.SnapshotRetention.Duration,
			a.cfg.Engine.ChunkSize,
			a.logger,
		),
		a.buildEngine(deps, broadcast),
		deps.Selections,
		a.cfg.Engine,
		a.logger,
	)

	if deps.Notifier.Send(ctx, "steamerbot online",
		fmt.Sprintf("mode=%s sports=%d", a.cfg.Mode, len(a.cfg.Sports))) {
		a.logger.InfoContext(ctx, "startup notice delivered")
	}

	g.Go(func() error {
		return orch.Run(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SyncMode runs a single exchange sync pass and exits.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode")
	return a.buildExchangeSync(deps).Run(ctx)
}

// SpyMode runs a single feed matching pass over existing rows and exits.
// Useful for tuning the alias table without burning the exchange quota.
func (a *App) SpyMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting spy mode")
	ms := a.buildMatcher()
	return a.buildFeedSync(deps, ms).Run(ctx)
}

// AlertsMode runs a single alert evaluation cycle over the stored rows and
// exits. It evaluates whatever prices the last matching pass left behind.
func (a *App) AlertsMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting alerts mode")

	rows, err := deps.Selections.ListAlertable(ctx)
	if err != nil {
		return fmt.Errorf("app: list alertable: %w", err)
	}
	sent, err := a.buildEngine(deps, nil).RunCycle(ctx, rows)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "alert cycle complete",
		slog.Int("evaluated", len(rows)),
		slog.Int("sent", sent),
	)
	return nil
}

// ServerMode runs only the status server over the existing stores.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")
	if !a.cfg.Server.Enabled {
		return errors.New("app: server mode requires server.enabled")
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps, a.buildMatcher())

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// StatusMode sends a one-shot summary of the stored state through the
// notifier, logs it, and exits.
func (a *App) StatusMode(ctx context.Context, deps *Dependencies) error {
	rows, err := deps.Selections.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("app: list open: %w", err)
	}

	live, err := deps.Selections.HasInPlay(ctx)
	if err != nil {
		return fmt.Errorf("app: in-play check: %w", err)
	}

	withPrices := 0
	for i := range rows {
		if _, slot := rows[i].BookPrices.Best(); slot >= 0 {
			withPrices++
		}
	}

	lastDay, err := deps.History.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("app: alert count: %w", err)
	}

	a.logger.InfoContext(ctx, "status",
		slog.Int("open_selections", len(rows)),
		slog.Int("with_book_prices", withPrices),
		slog.Bool("in_play", live),
		slog.Int64("alerts_last_day", lastDay),
	)

	body := fmt.Sprintf("open: %d\nwith book prices: %d\nin-play: %v\nalerts last 24h: %d\n%s",
		len(rows), withPrices, live, lastDay, time.Now().UTC().Format(time.RFC3339))
	if !deps.Notifier.Send(ctx, "steamerbot status", body) {
		a.logger.WarnContext(ctx, "status notice not delivered")
	}
	return nil
}

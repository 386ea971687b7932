package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/calebmorris/steamerbot/internal/arb"
	"github.com/calebmorris/steamerbot/internal/config"
	"github.com/calebmorris/steamerbot/internal/domain"
)

// Orchestrator sequences the pipeline stages in one single-threaded loop:
// exchange sync, snapshot, feed matching, alert evaluation. Single-threaded
// on purpose: every stage reads what the previous one wrote, and the
// first-match-wins semantics of the matcher depend on deterministic order.
// Any stage may be nil; the loop simply skips it (this is how the reduced
// run modes are assembled).
type Orchestrator struct {
	exchange  *ExchangeSync
	feedSync  *FeedSync
	snapshots *Snapshotter
	engine    *arb.Engine
	store     domain.SelectionStore
	cfg       config.EngineConfig
	now       func() time.Time
	lastMatch time.Time
	logger    *slog.Logger
}

// NewOrchestrator creates an Orchestrator over the given stages.
func NewOrchestrator(ex *ExchangeSync, fs *FeedSync, snap *Snapshotter, engine *arb.Engine, store domain.SelectionStore, cfg config.EngineConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		exchange:  ex,
		feedSync:  fs,
		snapshots: snap,
		engine:    engine,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "orchestrator")),
	}
}

// Run loops until the context is cancelled. Stage errors are logged and the
// loop continues; a venue outage is a pause, not a crash.
func (o *Orchestrator) Run(ctx context.Context) error {
	poll := o.cfg.PollInterval.Duration
	if poll <= 0 {
		poll = time.Second
	}

	o.logger.Info("pipeline starting",
		slog.Duration("poll_interval", poll),
		slog.Duration("match_prematch", o.cfg.MatchPrematch.Duration),
		slog.Duration("match_in_play", o.cfg.MatchInPlay.Duration),
	)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		o.cycle(ctx)

		select {
		case <-ctx.Done():
			o.logger.Info("pipeline stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single pass of every configured stage, forcing the
// matching stage regardless of cadence. Used by the one-shot modes.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	o.lastMatch = time.Time{}
	o.cycle(ctx)
	return ctx.Err()
}

func (o *Orchestrator) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if o.exchange != nil {
		if err := o.exchange.Run(ctx); err != nil {
			o.logger.Error("exchange sync failed", slog.String("error", err.Error()))
		}
	}

	if o.snapshots != nil {
		if err := o.snapshots.Run(ctx); err != nil {
			o.logger.Error("snapshot pass failed", slog.String("error", err.Error()))
		}
	}

	if o.feedSync == nil && o.engine == nil {
		return
	}
	if !o.matchDue(ctx) {
		return
	}
	o.lastMatch = o.now()

	if o.feedSync != nil {
		if err := o.feedSync.Run(ctx); err != nil {
			o.logger.Error("feed sync failed", slog.String("error", err.Error()))
		}
	}

	if o.engine != nil {
		rows, err := o.store.ListAlertable(ctx)
		if err != nil {
			o.logger.Error("list alertable failed", slog.String("error", err.Error()))
			return
		}
		sent, err := o.engine.RunCycle(ctx, rows)
		if err != nil {
			o.logger.Error("alert cycle failed", slog.String("error", err.Error()))
			return
		}
		if sent > 0 {
			o.logger.Info("alert cycle complete", slog.Int("sent", sent))
		}
	}
}

// matchDue applies the adaptive cadence: the tighter in-play interval while
// any tracked market is live, the relaxed pre-match interval otherwise.
func (o *Orchestrator) matchDue(ctx context.Context) bool {
	interval := o.cfg.MatchPrematch.Duration
	live, err := o.store.HasInPlay(ctx)
	if err != nil {
		o.logger.Warn("in-play check failed", slog.String("error", err.Error()))
	} else if live {
		interval = o.cfg.MatchInPlay.Duration
	}
	return o.now().Sub(o.lastMatch) >= interval
}

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arbiterlabs/polyarb/internal/arbitrage"
	"github.com/arbiterlabs/polyarb/internal/cache/redis"
	"github.com/arbiterlabs/polyarb/internal/domain"
	"github.com/arbiterlabs/polyarb/internal/feed"
	"github.com/arbiterlabs/polyarb/internal/paper"
)

// statusInterval is how often the streaming modes log detector counters.
const statusInterval = 60 * time.Second

// finalizeTimeout bounds the persistence and archival work that runs after
// the run context is already cancelled.
const finalizeTimeout = 15 * time.Second

// ScanMode performs a one-shot sweep: discover markets, pull the current best
// bid and ask for every tracked token over REST, and report every mispricing
// found. No WebSocket connection is opened.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	det, err := a.buildDetector(ctx, deps)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	var found []domain.Opportunity
	for _, tokenID := range det.TokenIDs() {
		for _, side := range []domain.Side{domain.SideBid, domain.SideAsk} {
			tick, ok, err := deps.Clob.BestTick(ctx, tokenID, side)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.WarnContext(ctx, "scan: price fetch failed",
					slog.String("token_id", tokenID),
					slog.String("side", string(side)),
					slog.String("error", err.Error()),
				)
				continue
			}
			if !ok {
				continue
			}
			found = append(found, det.Apply(tick)...)
		}
	}

	for _, opp := range found {
		a.handleOpportunity(ctx, deps, opp)
	}

	stats := det.Stats()
	a.logger.InfoContext(ctx, "scan complete",
		slog.Int("markets", stats.MarketsTracked),
		slog.Int("events", stats.EventsTracked),
		slog.Int("opportunities", len(found)),
	)
	return nil
}

// MonitorMode streams order book updates over WebSocket and reports every
// detected opportunity until the context is cancelled. Nothing is traded.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	det, err := a.buildDetector(ctx, deps)
	if err != nil {
		return fmt.Errorf("monitor mode: %w", err)
	}

	feeder := feed.NewFeeder(det, 0, a.logger)
	feeder.OnOpportunity(func(ctx context.Context, opp domain.Opportunity) {
		a.handleOpportunity(ctx, deps, opp)
	})

	g, ctx := errgroup.WithContext(ctx)
	a.startStream(ctx, g, deps, det, feeder)
	return g.Wait()
}

// PaperMode runs monitor mode's detection pipeline and additionally routes
// every opportunity through the paper trading simulator. When the run ends a
// session report is produced, persisted, and archived.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode",
		slog.String("preset", a.cfg.Paper.Preset),
		slog.Float64("initial_balance", a.cfg.Paper.InitialBalance),
	)

	det, err := a.buildDetector(ctx, deps)
	if err != nil {
		return fmt.Errorf("paper mode: %w", err)
	}

	sim := paper.NewSimulator(paper.Config{
		InitialBalance:       a.cfg.Paper.InitialBalance,
		PositionSize:         a.cfg.Paper.PositionSize,
		LiquidityFractionCap: a.cfg.Paper.LiquidityFractionCap,
		FailureRate:          a.cfg.Paper.FailureRate,
		Latency:              a.cfg.Paper.Latency.Duration,
	}, rand.New(rand.NewSource(time.Now().UnixNano())), a.logger)

	exec := paper.NewExecutor(paper.ExecutorConfig{
		QueueSize:     a.cfg.Paper.QueueSize,
		ShutdownGrace: a.cfg.Paper.ShutdownGrace.Duration,
	}, sim, a.logger)

	sessionID := exec.Session().ID
	if deps.TradeStore != nil {
		exec.OnTrade = func(ctx context.Context, trade domain.Trade) {
			if err := deps.TradeStore.InsertTrade(ctx, sessionID, trade); err != nil {
				a.logger.WarnContext(ctx, "paper: persist trade failed",
					slog.String("trade_id", trade.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	feeder := feed.NewFeeder(det, 0, a.logger)
	feeder.OnOpportunity(func(ctx context.Context, opp domain.Opportunity) {
		a.handleOpportunity(ctx, deps, opp)
		exec.Submit(opp)
	})

	g, runCtx := errgroup.WithContext(ctx)
	a.startStream(runCtx, g, deps, det, feeder)
	g.Go(func() error {
		return exec.Run(runCtx)
	})

	runErr := g.Wait()

	session := exec.CloseSession()
	metrics := paper.Summarize(session)
	a.finalizeSession(deps, session, metrics)

	return runErr
}

// startStream adds the WebSocket reader, the feeder loop, and the periodic
// status logger to the errgroup. Ticks are mirrored into Redis when the price
// cache is wired.
func (a *App) startStream(ctx context.Context, g *errgroup.Group, deps *Dependencies, det *arbitrage.Detector, feeder *feed.Feeder) {
	onTick := func(tick domain.Tick) {
		feeder.Push(tick)
		if deps.PriceCache != nil {
			if err := deps.PriceCache.SetPrice(ctx, tick.TokenID, tick.Side, tick.Price, tick.Timestamp); err != nil {
				a.logger.Debug("price mirror failed", slog.String("error", err.Error()))
			}
		}
	}

	ws := feed.NewWSClient(a.cfg.Polymarket.WsHost, det.TokenIDs(), onTick, a.logger)

	g.Go(func() error {
		defer ws.Close()
		return ws.Run(ctx)
	})
	g.Go(func() error {
		return feeder.Run(ctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				stats := det.Stats()
				a.logger.InfoContext(ctx, "detector status",
					slog.Int("markets", stats.MarketsTracked),
					slog.Int("events", stats.EventsTracked),
					slog.Uint64("ticks_applied", stats.TicksApplied),
					slog.Uint64("ticks_dropped", stats.TicksDropped),
					slog.Uint64("emitted", stats.Emitted),
					slog.Uint64("dedup_suppressed", stats.DedupSuppressed),
					slog.Uint64("feed_dropped", feeder.Dropped()),
				)
			}
		}
	})
}

// buildDetector discovers binary markets and neg-risk events from the Gamma
// API and registers them. Individual registration conflicts are logged and
// skipped; discovery only fails when the API itself is unreachable.
func (a *App) buildDetector(ctx context.Context, deps *Dependencies) (*arbitrage.Detector, error) {
	det := arbitrage.New(arbitrage.Config{
		MinProfitFraction: a.cfg.Detector.MinProfitFraction,
		MinLiquidity:      a.cfg.Detector.MinLiquidity,
		StaleTimeout:      a.cfg.Detector.StaleTimeout.Duration,
		DedupWindow:       a.cfg.Detector.DedupWindow.Duration,
		DedupPrecision:    a.cfg.Detector.DedupPrecision,
	}, a.logger)

	markets, err := deps.Gamma.ListBinaryMarkets(ctx, a.cfg.Polymarket.MaxMarkets)
	if err != nil {
		return nil, fmt.Errorf("discover markets: %w", err)
	}
	for _, m := range markets {
		if err := det.RegisterMarket(m); err != nil {
			a.logger.WarnContext(ctx, "register market failed",
				slog.String("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	events, err := deps.Gamma.ListNegRiskEvents(ctx, a.cfg.Polymarket.MaxEvents)
	if err != nil {
		return nil, fmt.Errorf("discover events: %w", err)
	}
	for _, e := range events {
		if err := det.RegisterEvent(e); err != nil {
			a.logger.WarnContext(ctx, "register event failed",
				slog.String("event_id", e.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	stats := det.Stats()
	if stats.TokensIndexed == 0 {
		return nil, errors.New("discovery found nothing to track")
	}
	a.logger.InfoContext(ctx, "discovery complete",
		slog.Int("markets", stats.MarketsTracked),
		slog.Int("events", stats.EventsTracked),
		slog.Int("tokens", stats.TokensIndexed),
		slog.Uint64("skipped", stats.RegistrationSkips),
	)
	return det, nil
}

// handleOpportunity fans a detected opportunity out to every wired sink:
// notification channels, the Redis signal bus, and the Postgres store.
// Failures are logged and do not interrupt detection.
func (a *App) handleOpportunity(ctx context.Context, deps *Dependencies, opp domain.Opportunity) {
	if err := deps.Notifier.NotifyOpportunity(ctx, opp); err != nil {
		a.logger.WarnContext(ctx, "opportunity alert failed",
			slog.String("opportunity_id", opp.ID),
			slog.String("error", err.Error()),
		)
	}

	if deps.SignalBus != nil {
		payload, err := json.Marshal(opp)
		if err != nil {
			a.logger.ErrorContext(ctx, "opportunity marshal failed",
				slog.String("opportunity_id", opp.ID),
				slog.String("error", err.Error()),
			)
		} else {
			if err := deps.SignalBus.Publish(ctx, redis.OpportunityChannel, payload); err != nil {
				a.logger.WarnContext(ctx, "opportunity publish failed", slog.String("error", err.Error()))
			}
			if err := deps.SignalBus.StreamAppend(ctx, redis.OpportunityStream, payload); err != nil {
				a.logger.WarnContext(ctx, "opportunity stream append failed", slog.String("error", err.Error()))
			}
		}
	}

	if deps.OpportunityStore != nil {
		if err := deps.OpportunityStore.InsertOpportunity(ctx, opp); err != nil {
			a.logger.WarnContext(ctx, "opportunity persist failed",
				slog.String("opportunity_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// finalizeSession reports, persists, and archives a finished paper session.
// It runs after the run context is cancelled, so it uses its own deadline.
func (a *App) finalizeSession(deps *Dependencies, session domain.TradingSession, metrics domain.Metrics) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	a.logger.Info("paper session finished",
		slog.String("session_id", session.ID),
		slog.Duration("duration", session.Duration()),
		slog.Int("trades", metrics.TotalTrades),
		slog.Int("filled", metrics.FilledTrades),
		slog.Float64("win_rate", metrics.WinRate),
		slog.Float64("total_pnl", metrics.TotalPnL),
		slog.Float64("max_drawdown", metrics.MaxDrawdown),
		slog.Float64("return_percent", metrics.ReturnPercent),
		slog.Float64("final_balance", metrics.FinalBalance),
	)

	if deps.TradeStore != nil {
		if err := deps.TradeStore.InsertSession(ctx, session, metrics); err != nil {
			a.logger.Error("persist session failed",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if deps.Archiver != nil {
		key, err := deps.Archiver.ArchiveSession(ctx, session, metrics)
		if err != nil {
			a.logger.Error("archive session failed",
				slog.String("session_id", session.ID),
				slog.String("error", err.Error()),
			)
		} else {
			a.logger.Info("session archived", slog.String("key", key))
		}
	}

	if err := deps.Notifier.NotifySessionReport(ctx, session, metrics); err != nil {
		a.logger.Warn("session report notification failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
}

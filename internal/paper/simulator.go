// Package paper simulates execution of detected opportunities against a
// virtual balance, without ever touching an exchange.
package paper

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// Config tunes the paper trading simulator.
type Config struct {
	// InitialBalance is the virtual bankroll in dollars.
	InitialBalance float64
	// PositionSize is the target size per trade in dollars.
	PositionSize float64
	// LiquidityFractionCap limits a trade to this fraction of the
	// opportunity's available liquidity. Zero means the 5% default.
	LiquidityFractionCap float64
	// FailureRate is the probability a trade fails at "execution" to mimic
	// real fills racing other takers.
	FailureRate float64
	// Latency is the simulated round trip before a fill lands.
	Latency time.Duration
}

const defaultLiquidityFractionCap = 0.05

func (c Config) liquidityCap() float64 {
	if c.LiquidityFractionCap <= 0 {
		return defaultLiquidityFractionCap
	}
	return c.LiquidityFractionCap
}

// sleepFunc waits for d or until ctx is done. Injected so tests run without
// real latency.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Simulator executes opportunities against a virtual balance. It is not safe
// for concurrent use; the executor's single consumer goroutine is its only
// intended caller, which also makes it the balance's only writer.
type Simulator struct {
	cfg     Config
	logger  *slog.Logger
	rng     *rand.Rand
	sleep   sleepFunc
	now     func() time.Time
	session *domain.TradingSession
}

// NewSimulator opens a fresh trading session. The rand source is injected so
// tests can pin execution failures.
func NewSimulator(cfg Config, rng *rand.Rand, logger *slog.Logger) *Simulator {
	return &Simulator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "simulator")),
		rng:    rng,
		sleep:  sleepContext,
		now:    time.Now,
		session: &domain.TradingSession{
			ID:             uuid.NewString(),
			StartTime:      time.Now(),
			InitialBalance: cfg.InitialBalance,
			Balance:        cfg.InitialBalance,
		},
	}
}

// Execute runs one opportunity through the simulated fill path and returns
// the resulting trade. Rejected trades never move the balance.
func (s *Simulator) Execute(ctx context.Context, opp domain.Opportunity) domain.Trade {
	s.session.OpportunitiesSeen++

	trade := domain.Trade{
		ID:            uuid.NewString(),
		OpportunityID: opp.ID,
		Kind:          opp.Kind,
		SubjectID:     opp.SubjectID,
	}

	requested := s.cfg.PositionSize
	liquidityBound := opp.AvailableLiquidity * s.cfg.liquidityCap()
	if liquidityBound < requested {
		requested = liquidityBound
	}
	trade.RequestedSize = requested

	if requested <= 0 {
		trade.Outcome = domain.TradeRejectedLiquidity
		trade.ExecutedAt = s.now()
		s.skip(trade, "no executable liquidity")
		return trade
	}

	if s.session.Balance < requested {
		trade.Outcome = domain.TradeRejectedBalance
		trade.ExecutedAt = s.now()
		s.skip(trade, "insufficient balance")
		return trade
	}

	if err := s.sleep(ctx, s.cfg.Latency); err != nil {
		trade.Outcome = domain.TradeCancelled
		trade.ExecutedAt = s.now()
		s.skip(trade, "cancelled during latency")
		return trade
	}

	if s.cfg.FailureRate > 0 && s.rng.Float64() < s.cfg.FailureRate {
		trade.Outcome = domain.TradeRejectedExecution
		trade.ExecutedAt = s.now()
		s.skip(trade, "execution failed")
		return trade
	}

	trade.FilledSize = requested
	trade.RealizedPnL = requested * opp.ProfitFraction
	if requested < s.cfg.PositionSize {
		trade.Outcome = domain.TradePartial
	} else {
		trade.Outcome = domain.TradeFilled
	}
	trade.ExecutedAt = s.now()

	s.session.Balance += trade.RealizedPnL
	s.session.OpportunitiesExecuted++
	s.session.ClosedTrades = append(s.session.ClosedTrades, trade)

	s.logger.Info("trade executed",
		slog.String("trade_id", trade.ID),
		slog.String("outcome", string(trade.Outcome)),
		slog.Float64("size", trade.FilledSize),
		slog.Float64("pnl", trade.RealizedPnL),
		slog.Float64("balance", s.session.Balance),
	)
	return trade
}

func (s *Simulator) skip(trade domain.Trade, reason string) {
	s.session.OpportunitiesSkipped++
	s.session.ClosedTrades = append(s.session.ClosedTrades, trade)
	s.logger.Debug("trade skipped",
		slog.String("trade_id", trade.ID),
		slog.String("outcome", string(trade.Outcome)),
		slog.String("reason", reason),
	)
}

// Cancel records a trade for an opportunity that never reached execution,
// e.g. one still queued when the session shut down.
func (s *Simulator) Cancel(opp domain.Opportunity) domain.Trade {
	s.session.OpportunitiesSeen++
	trade := domain.Trade{
		ID:            uuid.NewString(),
		OpportunityID: opp.ID,
		Kind:          opp.Kind,
		SubjectID:     opp.SubjectID,
		Outcome:       domain.TradeCancelled,
		ExecutedAt:    s.now(),
	}
	s.skip(trade, "session shutdown")
	return trade
}

// Session returns a deep copy of the current session state.
func (s *Simulator) Session() domain.TradingSession {
	return s.session.Snapshot()
}

// CloseSession stamps the end time and returns the final session state.
func (s *Simulator) CloseSession() domain.TradingSession {
	s.session.EndTime = s.now()
	return s.session.Snapshot()
}

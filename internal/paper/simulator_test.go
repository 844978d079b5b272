package paper

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOpportunity(profit, liquidity float64) domain.Opportunity {
	return domain.Opportunity{
		ID:        "opp-1",
		Kind:      domain.BinaryUnderpriced,
		SubjectID: "mkt-1",
		Legs: []domain.Leg{
			{TokenID: "tok-yes", Side: domain.LegBuy, Price: 0.48},
			{TokenID: "tok-no", Side: domain.LegBuy, Price: 0.46},
		},
		ProfitFraction:     profit,
		RequiredCapital:    0.94,
		AvailableLiquidity: liquidity,
		DetectedAt:         time.Now(),
	}
}

func newTestSimulator(cfg Config) *Simulator {
	return NewSimulator(cfg, rand.New(rand.NewSource(1)), discardLogger())
}

func TestSimulatorFilledTrade(t *testing.T) {
	sim := newTestSimulator(Config{
		InitialBalance: 1000,
		PositionSize:   100,
	})

	trade := sim.Execute(context.Background(), testOpportunity(0.05, 1e6))
	if trade.Outcome != domain.TradeFilled {
		t.Fatalf("outcome = %v, want FILLED", trade.Outcome)
	}
	if trade.FilledSize != 100 {
		t.Errorf("filled = %v, want 100", trade.FilledSize)
	}
	if math.Abs(trade.RealizedPnL-5) > 1e-9 {
		t.Errorf("pnl = %v, want 5", trade.RealizedPnL)
	}
	if got := sim.Session().Balance; math.Abs(got-1005) > 1e-9 {
		t.Errorf("balance = %v, want 1005", got)
	}
}

func TestSimulatorRejectsOnInsufficientBalance(t *testing.T) {
	sim := newTestSimulator(Config{
		InitialBalance: 50,
		PositionSize:   100,
	})

	trade := sim.Execute(context.Background(), testOpportunity(0.05, 1e6))
	if trade.Outcome != domain.TradeRejectedBalance {
		t.Fatalf("outcome = %v, want REJECTED_BALANCE", trade.Outcome)
	}
	if trade.FilledSize != 0 || trade.RealizedPnL != 0 {
		t.Errorf("rejected trade mutated fill: %+v", trade)
	}
	sess := sim.Session()
	if sess.Balance != 50 {
		t.Errorf("balance = %v, want untouched 50", sess.Balance)
	}
	if sess.OpportunitiesSkipped != 1 {
		t.Errorf("skipped = %d, want 1", sess.OpportunitiesSkipped)
	}
}

func TestSimulatorLiquidityCapPartialFill(t *testing.T) {
	sim := newTestSimulator(Config{
		InitialBalance: 1000,
		PositionSize:   100,
		// Default 5% cap: liquidity 1000 bounds the trade to 50.
	})

	trade := sim.Execute(context.Background(), testOpportunity(0.05, 1000))
	if trade.Outcome != domain.TradePartial {
		t.Fatalf("outcome = %v, want PARTIAL", trade.Outcome)
	}
	if trade.RequestedSize != 50 || trade.FilledSize != 50 {
		t.Errorf("requested/filled = %v/%v, want 50/50", trade.RequestedSize, trade.FilledSize)
	}
	if math.Abs(trade.RealizedPnL-2.5) > 1e-9 {
		t.Errorf("pnl = %v, want 2.5", trade.RealizedPnL)
	}
}

func TestSimulatorRejectsZeroLiquidity(t *testing.T) {
	sim := newTestSimulator(Config{
		InitialBalance: 1000,
		PositionSize:   100,
		Latency:        time.Hour,
	})

	// One leg reporting no depth bounds the whole trade to zero, which
	// must be skipped up front rather than filled at size zero.
	trade := sim.Execute(context.Background(), testOpportunity(0.05, 0))
	if trade.Outcome != domain.TradeRejectedLiquidity {
		t.Fatalf("outcome = %v, want REJECTED_LIQUIDITY", trade.Outcome)
	}
	if trade.RequestedSize != 0 || trade.FilledSize != 0 || trade.RealizedPnL != 0 {
		t.Errorf("zero-liquidity trade mutated fill: %+v", trade)
	}
	sess := sim.Session()
	if sess.Balance != 1000 {
		t.Errorf("balance = %v, want untouched 1000", sess.Balance)
	}
	if sess.OpportunitiesSkipped != 1 {
		t.Errorf("skipped = %d, want 1", sess.OpportunitiesSkipped)
	}
	if sess.OpportunitiesExecuted != 0 {
		t.Errorf("executed = %d, want 0", sess.OpportunitiesExecuted)
	}
}

func TestSimulatorFailureRate(t *testing.T) {
	sim := newTestSimulator(Config{
		InitialBalance: 1000,
		PositionSize:   100,
		FailureRate:    1.0,
	})

	for i := 0; i < 10; i++ {
		trade := sim.Execute(context.Background(), testOpportunity(0.05, 1e6))
		if trade.Outcome != domain.TradeRejectedExecution {
			t.Fatalf("trade %d outcome = %v, want REJECTED_EXECUTION", i, trade.Outcome)
		}
	}
	if got := sim.Session().Balance; got != 1000 {
		t.Errorf("balance = %v, want untouched 1000", got)
	}
}

func TestSimulatorCancelledDuringLatency(t *testing.T) {
	sim := newTestSimulator(Config{
		InitialBalance: 1000,
		PositionSize:   100,
		Latency:        time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trade := sim.Execute(ctx, testOpportunity(0.05, 1e6))
	if trade.Outcome != domain.TradeCancelled {
		t.Fatalf("outcome = %v, want CANCELLED", trade.Outcome)
	}
	if got := sim.Session().Balance; got != 1000 {
		t.Errorf("balance = %v, want untouched 1000", got)
	}
}

func TestSimulatorSessionSnapshotIsDeepCopy(t *testing.T) {
	sim := newTestSimulator(Config{InitialBalance: 1000, PositionSize: 10})
	sim.Execute(context.Background(), testOpportunity(0.05, 1e6))

	snap := sim.Session()
	snap.ClosedTrades[0].RealizedPnL = -999
	if got := sim.Session().ClosedTrades[0].RealizedPnL; got == -999 {
		t.Error("snapshot shares trade slice with live session")
	}
}

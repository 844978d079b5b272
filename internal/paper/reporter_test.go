package paper

import (
	"math"
	"testing"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

func closedTrade(outcome domain.TradeOutcome, pnl float64) domain.Trade {
	return domain.Trade{Outcome: outcome, RealizedPnL: pnl, FilledSize: 100}
}

func TestSummarize(t *testing.T) {
	session := domain.TradingSession{
		InitialBalance: 1000,
		Balance:        1030,
		ClosedTrades: []domain.Trade{
			closedTrade(domain.TradeFilled, 50),
			closedTrade(domain.TradeFilled, -40),
			closedTrade(domain.TradeRejectedExecution, 0),
			closedTrade(domain.TradePartial, 20),
			closedTrade(domain.TradeRejectedBalance, 0),
		},
	}

	m := Summarize(session)
	if m.TotalTrades != 5 {
		t.Errorf("total = %d, want 5", m.TotalTrades)
	}
	if m.FilledTrades != 3 {
		t.Errorf("filled = %d, want 3", m.FilledTrades)
	}
	if math.Abs(m.WinRate-2.0/3.0) > 1e-9 {
		t.Errorf("win rate = %v, want 2/3", m.WinRate)
	}
	if math.Abs(m.TotalPnL-30) > 1e-9 {
		t.Errorf("total pnl = %v, want 30", m.TotalPnL)
	}
	if math.Abs(m.AvgTradePnL-10) > 1e-9 {
		t.Errorf("avg pnl = %v, want 10", m.AvgTradePnL)
	}
	// Peak 1050 after the win, trough 1010 after the loss.
	wantDD := (1050.0 - 1010.0) / 1050.0
	if math.Abs(m.MaxDrawdown-wantDD) > 1e-9 {
		t.Errorf("max drawdown = %v, want %v", m.MaxDrawdown, wantDD)
	}
	if math.Abs(m.ReturnPercent-3) > 1e-9 {
		t.Errorf("return = %v%%, want 3%%", m.ReturnPercent)
	}
	if m.FinalBalance != 1030 {
		t.Errorf("final balance = %v, want 1030", m.FinalBalance)
	}
}

func TestSummarizeEmptySession(t *testing.T) {
	m := Summarize(domain.TradingSession{InitialBalance: 1000, Balance: 1000})
	if m.TotalTrades != 0 || m.WinRate != 0 || m.MaxDrawdown != 0 {
		t.Errorf("empty session metrics not zero: %+v", m)
	}
	if m.ReturnPercent != 0 {
		t.Errorf("return = %v, want 0", m.ReturnPercent)
	}
}

func TestSummarizeIsPure(t *testing.T) {
	session := domain.TradingSession{
		InitialBalance: 1000,
		Balance:        1010,
		ClosedTrades:   []domain.Trade{closedTrade(domain.TradeFilled, 10)},
	}
	a := Summarize(session)
	b := Summarize(session)
	if a != b {
		t.Errorf("repeated summaries differ: %+v vs %+v", a, b)
	}
}

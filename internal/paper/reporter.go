package paper

import "github.com/arbiterlabs/polyarb/internal/domain"

// Summarize computes session metrics from the closed trades. It is a pure
// function of the session; calling it twice on the same snapshot gives the
// same answer.
func Summarize(session domain.TradingSession) domain.Metrics {
	m := domain.Metrics{
		TotalTrades:  len(session.ClosedTrades),
		FinalBalance: session.Balance,
	}

	var wins int
	balance := session.InitialBalance
	peak := balance
	for _, t := range session.ClosedTrades {
		if !t.Outcome.Succeeded() {
			continue
		}
		m.FilledTrades++
		m.TotalPnL += t.RealizedPnL
		if t.RealizedPnL > 0 {
			wins++
		}

		balance += t.RealizedPnL
		if balance > peak {
			peak = balance
		}
		if peak > 0 {
			if dd := (peak - balance) / peak; dd > m.MaxDrawdown {
				m.MaxDrawdown = dd
			}
		}
	}

	if m.FilledTrades > 0 {
		m.WinRate = float64(wins) / float64(m.FilledTrades)
		m.AvgTradePnL = m.TotalPnL / float64(m.FilledTrades)
	}
	if session.InitialBalance > 0 {
		m.ReturnPercent = (session.Balance - session.InitialBalance) / session.InitialBalance * 100
	}
	return m
}

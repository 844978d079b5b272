package domain

import "time"

// TradingSession is the paper-trading ledger. It is owned and mutated
// exclusively by the simulator; everything else reads snapshots.
type TradingSession struct {
	ID             string
	StartTime      time.Time
	EndTime        time.Time
	InitialBalance float64
	Balance        float64
	ClosedTrades   []Trade

	OpportunitiesSeen     int64
	OpportunitiesExecuted int64
	OpportunitiesSkipped  int64
}

// Snapshot returns a deep copy safe to hand to reporters and archivers
// while the simulator keeps mutating the original.
func (s *TradingSession) Snapshot() TradingSession {
	out := *s
	out.ClosedTrades = make([]Trade, len(s.ClosedTrades))
	copy(out.ClosedTrades, s.ClosedTrades)
	return out
}

// Duration returns the session length, using the current time while the
// session is still open.
func (s *TradingSession) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Metrics summarizes a completed (or snapshotted) trading session.
type Metrics struct {
	TotalTrades   int
	FilledTrades  int
	WinRate       float64
	TotalPnL      float64
	AvgTradePnL   float64
	MaxDrawdown   float64 // peak-to-trough fraction of the cumulative balance
	ReturnPercent float64
	FinalBalance  float64
}

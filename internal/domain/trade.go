package domain

import "time"

// TradeOutcome is the terminal state of one simulated execution.
type TradeOutcome string

const (
	// TradeFilled: every leg filled at the detected size.
	TradeFilled TradeOutcome = "filled"
	// TradePartial: filled, but the liquidity cap bound the size below the
	// configured position size.
	TradePartial TradeOutcome = "partial"
	// TradeRejectedBalance: the session balance could not cover the
	// requested size. No balance mutation.
	TradeRejectedBalance TradeOutcome = "rejected_balance"
	// TradeRejectedLiquidity: the opportunity reported no executable
	// liquidity, leaving nothing to fill. No balance mutation.
	TradeRejectedLiquidity TradeOutcome = "rejected_liquidity"
	// TradeRejectedExecution: the simulated execution failed, modeling one
	// leg of a non-atomic multi-leg trade not filling. No balance mutation.
	TradeRejectedExecution TradeOutcome = "rejected_execution"
	// TradeCancelled: shutdown arrived before the execution completed its
	// grace period. No balance mutation.
	TradeCancelled TradeOutcome = "cancelled"
)

// Succeeded reports whether the outcome moved the session balance.
func (o TradeOutcome) Succeeded() bool {
	return o == TradeFilled || o == TradePartial
}

// Trade is one append-only entry in the paper-trading log.
type Trade struct {
	ID            string
	OpportunityID string
	Kind          OpportunityKind
	SubjectID     string
	RequestedSize float64
	FilledSize    float64
	Outcome       TradeOutcome
	RealizedPnL   float64
	ExecutedAt    time.Time
}

package domain

import (
	"fmt"
	"time"
)

// OpportunityKind classifies a detected arbitrage.
type OpportunityKind string

const (
	// BinaryUnderpriced: YES ask + NO ask < $1. Buy both, merge for $1.
	BinaryUnderpriced OpportunityKind = "binary_underpriced"
	// BinaryOverpriced: YES bid + NO bid > $1. Mint the pair for $1, sell both.
	BinaryOverpriced OpportunityKind = "binary_overpriced"
	// NegRiskUnderpriced: sum of all YES asks of a grouped event < $1.
	// Buy every outcome; exactly one settles to $1.
	NegRiskUnderpriced OpportunityKind = "negrisk_underpriced"
)

// LegSide is the direction of one leg of a multi-leg arbitrage.
type LegSide string

const (
	LegBuy  LegSide = "BUY"
	LegSell LegSide = "SELL"
)

// Leg is one side of the trade required to realize an arbitrage.
type Leg struct {
	TokenID string
	Side    LegSide
	Price   float64
}

// Opportunity is an immutable record of a detected arbitrage. It is emitted
// by the detector and never mutated afterwards; consumers that need to
// annotate it copy it.
type Opportunity struct {
	ID        string
	Kind      OpportunityKind
	SubjectID string // market ID for binary kinds, event ID for negrisk
	Question  string
	URL       string
	Legs      []Leg

	// ProfitFraction is the risk-free profit as a fraction of the cost
	// basis: (1-total)/total for underpriced buys, total-1 for the $1 mint
	// of the overpriced sell.
	ProfitFraction float64

	// RequiredCapital is the cost of one unit of the full leg set.
	RequiredCapital float64

	// AvailableLiquidity is the binding liquidity constraint: the thinnest
	// leg for multi-outcome events, the market's registered liquidity for
	// binary markets.
	AvailableLiquidity float64

	DetectedAt time.Time
}

// Validate checks the kind-specific shape of the opportunity. Kinds are a
// closed set and their leg layout is fixed, so a malformed value is a
// programming error caught at construction rather than at use.
func (o Opportunity) Validate() error {
	if o.SubjectID == "" {
		return fmt.Errorf("opportunity: empty subject id")
	}
	if o.ProfitFraction <= 0 {
		return fmt.Errorf("opportunity: non-positive profit fraction %g", o.ProfitFraction)
	}
	if o.RequiredCapital <= 0 {
		return fmt.Errorf("opportunity: non-positive required capital %g", o.RequiredCapital)
	}
	switch o.Kind {
	case BinaryUnderpriced:
		if len(o.Legs) != 2 || o.Legs[0].Side != LegBuy || o.Legs[1].Side != LegBuy {
			return fmt.Errorf("opportunity: %s requires exactly two BUY legs", o.Kind)
		}
	case BinaryOverpriced:
		if len(o.Legs) != 2 || o.Legs[0].Side != LegSell || o.Legs[1].Side != LegSell {
			return fmt.Errorf("opportunity: %s requires exactly two SELL legs", o.Kind)
		}
	case NegRiskUnderpriced:
		if len(o.Legs) < 3 {
			return fmt.Errorf("opportunity: %s requires at least three legs, got %d", o.Kind, len(o.Legs))
		}
		for _, leg := range o.Legs {
			if leg.Side != LegBuy {
				return fmt.Errorf("opportunity: %s legs must all be BUY", o.Kind)
			}
		}
	default:
		return fmt.Errorf("opportunity: unknown kind %q", o.Kind)
	}
	return nil
}

// ExpectedProfit returns the profit expected for a given invested size.
func (o Opportunity) ExpectedProfit(size float64) float64 {
	return size * o.ProfitFraction
}

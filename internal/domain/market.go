package domain

// BinaryMarket is a two-outcome Polymarket market as reported by discovery.
// The two outcome tokens settle to $1 and $0 respectively, so the YES and NO
// prices of a fairly priced market sum to $1.
type BinaryMarket struct {
	ID         string
	Question   string
	Slug       string
	YesTokenID string
	NoTokenID  string
	Liquidity  float64
	Category   string
}

// URL returns the public market page, or empty when the slug is unknown.
func (m BinaryMarket) URL() string {
	if m.Slug == "" {
		return ""
	}
	return "https://polymarket.com/event/" + m.Slug
}

// EventOutcome is one mutually exclusive outcome of a grouped (negrisk)
// event: the YES token of the underlying binary market.
type EventOutcome struct {
	MarketID  string
	TokenID   string
	Name      string
	Liquidity float64
}

// NegRiskEvent is a grouped event of mutually exclusive binary markets.
// Exactly one outcome settles to $1, so the YES asks of all outcomes of a
// fairly priced event sum to $1.
type NegRiskEvent struct {
	ID       string
	Title    string
	Slug     string
	Outcomes []EventOutcome
}

// URL returns the public event page, or empty when the slug is unknown.
func (e NegRiskEvent) URL() string {
	if e.Slug == "" {
		return ""
	}
	return "https://polymarket.com/event/" + e.Slug
}

// TotalLiquidity sums the per-outcome liquidity of the event.
func (e NegRiskEvent) TotalLiquidity() float64 {
	var total float64
	for _, o := range e.Outcomes {
		total += o.Liquidity
	}
	return total
}

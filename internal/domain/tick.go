package domain

import "time"

// Side identifies which side of the book a tick updates.
type Side string

const (
	SideBid Side = "BID"
	SideAsk Side = "ASK"
)

// Tick is a single best-price update for one tradable token. The transport
// guarantees per-token ordering; nothing is assumed across tokens.
type Tick struct {
	TokenID   string
	Side      Side
	Price     float64
	Timestamp time.Time
}

// Valid reports whether the tick carries a usable price. Prices are
// probabilities of a $1 settlement, so anything outside (0, 1] is feed
// noise. A zero price is treated as "no quote", matching the venue's
// convention of publishing 0 for an empty book side. A zero timestamp
// would defeat the staleness window, so it is rejected too.
func (t Tick) Valid() bool {
	return t.TokenID != "" &&
		t.Price > 0 && t.Price <= 1 &&
		(t.Side == SideBid || t.Side == SideAsk) &&
		!t.Timestamp.IsZero()
}

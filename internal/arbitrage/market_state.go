package arbitrage

import (
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// quote is one side of one token's book. A quote starts unset; a zero or
// out-of-range price never overwrites a real one because such ticks are
// dropped before they reach here.
type quote struct {
	price float64
	ts    time.Time
	set   bool
}

func (q *quote) update(price float64, ts time.Time) {
	q.price = price
	q.ts = ts
	q.set = true
}

func (q *quote) fresh(now time.Time, maxStale time.Duration) bool {
	if !q.set {
		return false
	}
	if maxStale <= 0 {
		return true
	}
	return now.Sub(q.ts) <= maxStale
}

// candidate is a raw detection result before it is deduplicated and turned
// into a domain.Opportunity.
type candidate struct {
	kind      domain.OpportunityKind
	subjectID string
	question  string
	url       string
	legs      []domain.Leg
	profit    float64
	capital   float64
	liquidity float64
}

// MarketState tracks the four best quotes of a binary market: bid and ask on
// both the YES and NO tokens.
type MarketState struct {
	market domain.BinaryMarket

	yesBid quote
	yesAsk quote
	noBid  quote
	noAsk  quote
}

// NewMarketState returns state for a registered binary market with all
// quotes unset.
func NewMarketState(m domain.BinaryMarket) *MarketState {
	return &MarketState{market: m}
}

// Market returns the registered market.
func (s *MarketState) Market() domain.BinaryMarket { return s.market }

// Apply records a tick against the matching token and side. Ticks for tokens
// this market does not own are ignored.
func (s *MarketState) Apply(tick domain.Tick) {
	switch tick.TokenID {
	case s.market.YesTokenID:
		if tick.Side == domain.SideBid {
			s.yesBid.update(tick.Price, tick.Timestamp)
		} else {
			s.yesAsk.update(tick.Price, tick.Timestamp)
		}
	case s.market.NoTokenID:
		if tick.Side == domain.SideBid {
			s.noBid.update(tick.Price, tick.Timestamp)
		} else {
			s.noAsk.update(tick.Price, tick.Timestamp)
		}
	}
}

// Underpriced reports whether buying one YES and one NO share costs strictly
// less than 1-minProfit. Both asks must be set and fresh; partial books
// never fire.
func (s *MarketState) Underpriced(minProfit float64, now time.Time, maxStale time.Duration) (candidate, bool) {
	if !s.yesAsk.fresh(now, maxStale) || !s.noAsk.fresh(now, maxStale) {
		return candidate{}, false
	}
	total := s.yesAsk.price + s.noAsk.price
	if total <= 0 || total >= 1-minProfit {
		return candidate{}, false
	}
	return candidate{
		kind:      domain.BinaryUnderpriced,
		subjectID: s.market.ID,
		question:  s.market.Question,
		url:       s.market.URL(),
		legs: []domain.Leg{
			{TokenID: s.market.YesTokenID, Side: domain.LegBuy, Price: s.yesAsk.price},
			{TokenID: s.market.NoTokenID, Side: domain.LegBuy, Price: s.noAsk.price},
		},
		profit:    (1 - total) / total,
		capital:   total,
		liquidity: s.market.Liquidity,
	}, true
}

// Overpriced reports whether selling one YES and one NO share (minted for $1)
// yields strictly more than 1+minProfit. Both bids must be set and fresh.
func (s *MarketState) Overpriced(minProfit float64, now time.Time, maxStale time.Duration) (candidate, bool) {
	if !s.yesBid.fresh(now, maxStale) || !s.noBid.fresh(now, maxStale) {
		return candidate{}, false
	}
	total := s.yesBid.price + s.noBid.price
	if total <= 1+minProfit {
		return candidate{}, false
	}
	return candidate{
		kind:      domain.BinaryOverpriced,
		subjectID: s.market.ID,
		question:  s.market.Question,
		url:       s.market.URL(),
		legs: []domain.Leg{
			{TokenID: s.market.YesTokenID, Side: domain.LegSell, Price: s.yesBid.price},
			{TokenID: s.market.NoTokenID, Side: domain.LegSell, Price: s.noBid.price},
		},
		profit:    total - 1,
		capital:   1,
		liquidity: s.market.Liquidity,
	}, true
}

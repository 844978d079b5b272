package arbitrage

import (
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// EventState tracks the best YES ask of every outcome in a neg-risk event.
// Exactly one outcome resolves YES, so a full set of YES shares always pays
// out $1.
type EventState struct {
	event domain.NegRiskEvent
	asks  map[string]*quote
}

// NewEventState returns state for a registered neg-risk event with all
// outcome asks unset.
func NewEventState(e domain.NegRiskEvent) *EventState {
	asks := make(map[string]*quote, len(e.Outcomes))
	for _, o := range e.Outcomes {
		asks[o.TokenID] = &quote{}
	}
	return &EventState{event: e, asks: asks}
}

// Event returns the registered event.
func (s *EventState) Event() domain.NegRiskEvent { return s.event }

// Apply records an ask tick for one of the event's outcome tokens. Bid ticks
// are ignored; only asks participate in the full-set buy.
func (s *EventState) Apply(tick domain.Tick) {
	if tick.Side != domain.SideAsk {
		return
	}
	q, ok := s.asks[tick.TokenID]
	if !ok {
		return
	}
	q.update(tick.Price, tick.Timestamp)
}

// Underpriced reports whether buying one YES share of every outcome costs
// strictly less than 1-minProfit. Every outcome must have a set, fresh ask;
// an event with any missing or stale leg never fires.
func (s *EventState) Underpriced(minProfit float64, now time.Time, maxStale time.Duration) (candidate, bool) {
	var sum float64
	legs := make([]domain.Leg, 0, len(s.event.Outcomes))
	minLiquidity := -1.0
	for _, o := range s.event.Outcomes {
		q := s.asks[o.TokenID]
		if !q.fresh(now, maxStale) {
			return candidate{}, false
		}
		sum += q.price
		legs = append(legs, domain.Leg{TokenID: o.TokenID, Side: domain.LegBuy, Price: q.price})
		if minLiquidity < 0 || o.Liquidity < minLiquidity {
			minLiquidity = o.Liquidity
		}
	}
	if sum <= 0 || 1-sum <= minProfit {
		return candidate{}, false
	}
	return candidate{
		kind:      domain.NegRiskUnderpriced,
		subjectID: s.event.ID,
		question:  s.event.Title,
		url:       s.event.URL(),
		legs:      legs,
		profit:    (1 - sum) / sum,
		capital:   sum,
		liquidity: minLiquidity,
	}, true
}

package arbitrage

import (
	"math"
	"testing"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

var testMarket = domain.BinaryMarket{
	ID:         "mkt-1",
	Question:   "Will it rain tomorrow?",
	Slug:       "will-it-rain-tomorrow",
	YesTokenID: "tok-yes",
	NoTokenID:  "tok-no",
	Liquidity:  5000,
}

func applyQuotes(t *testing.T, s *MarketState, at time.Time, quotes map[string]map[domain.Side]float64) {
	t.Helper()
	for token, sides := range quotes {
		for side, price := range sides {
			s.Apply(domain.Tick{TokenID: token, Side: side, Price: price, Timestamp: at})
		}
	}
}

func TestMarketStateUnderpriced(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		yesAsk     float64
		noAsk      float64
		minProfit  float64
		wantFire   bool
		wantProfit float64
	}{
		{
			name:       "clear mispricing",
			yesAsk:     0.48,
			noAsk:      0.46,
			minProfit:  0.01,
			wantFire:   true,
			wantProfit: (1 - 0.94) / 0.94,
		},
		{
			name:      "exactly at threshold does not fire",
			yesAsk:    0.49,
			noAsk:     0.50,
			minProfit: 0.01,
			wantFire:  false,
		},
		{
			name:      "fairly priced",
			yesAsk:    0.50,
			noAsk:     0.50,
			minProfit: 0.01,
			wantFire:  false,
		},
		{
			name:       "just under threshold fires",
			yesAsk:     0.489,
			noAsk:      0.50,
			minProfit:  0.01,
			wantFire:   true,
			wantProfit: (1 - 0.989) / 0.989,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMarketState(testMarket)
			applyQuotes(t, s, now, map[string]map[domain.Side]float64{
				testMarket.YesTokenID: {domain.SideAsk: tt.yesAsk},
				testMarket.NoTokenID:  {domain.SideAsk: tt.noAsk},
			})

			c, fired := s.Underpriced(tt.minProfit, now, time.Minute)
			if fired != tt.wantFire {
				t.Fatalf("Underpriced fired = %v, want %v", fired, tt.wantFire)
			}
			if !fired {
				return
			}
			if math.Abs(c.profit-tt.wantProfit) > 1e-9 {
				t.Errorf("profit = %v, want %v", c.profit, tt.wantProfit)
			}
			if c.kind != domain.BinaryUnderpriced {
				t.Errorf("kind = %v, want %v", c.kind, domain.BinaryUnderpriced)
			}
			if math.Abs(c.capital-(tt.yesAsk+tt.noAsk)) > 1e-9 {
				t.Errorf("capital = %v, want %v", c.capital, tt.yesAsk+tt.noAsk)
			}
			for _, leg := range c.legs {
				if leg.Side != domain.LegBuy {
					t.Errorf("leg %s side = %v, want BUY", leg.TokenID, leg.Side)
				}
			}
		})
	}
}

func TestMarketStateOverpriced(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		yesBid     float64
		noBid      float64
		minProfit  float64
		wantFire   bool
		wantProfit float64
	}{
		{
			name:       "clear mispricing",
			yesBid:     0.55,
			noBid:      0.52,
			minProfit:  0.01,
			wantFire:   true,
			wantProfit: 0.07,
		},
		{
			name:      "exactly at threshold does not fire",
			yesBid:    0.51,
			noBid:     0.50,
			minProfit: 0.01,
			wantFire:  false,
		},
		{
			name:      "fairly priced",
			yesBid:    0.50,
			noBid:     0.49,
			minProfit: 0.01,
			wantFire:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMarketState(testMarket)
			applyQuotes(t, s, now, map[string]map[domain.Side]float64{
				testMarket.YesTokenID: {domain.SideBid: tt.yesBid},
				testMarket.NoTokenID:  {domain.SideBid: tt.noBid},
			})

			c, fired := s.Overpriced(tt.minProfit, now, time.Minute)
			if fired != tt.wantFire {
				t.Fatalf("Overpriced fired = %v, want %v", fired, tt.wantFire)
			}
			if !fired {
				return
			}
			if math.Abs(c.profit-tt.wantProfit) > 1e-9 {
				t.Errorf("profit = %v, want %v", c.profit, tt.wantProfit)
			}
			if c.capital != 1 {
				t.Errorf("capital = %v, want 1 (mint cost)", c.capital)
			}
			for _, leg := range c.legs {
				if leg.Side != domain.LegSell {
					t.Errorf("leg %s side = %v, want SELL", leg.TokenID, leg.Side)
				}
			}
		})
	}
}

func TestMarketStatePartialBookNeverFires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMarketState(testMarket)

	// Only the YES ask is known; even a price of 0.01 must not fire alone.
	s.Apply(domain.Tick{TokenID: testMarket.YesTokenID, Side: domain.SideAsk, Price: 0.01, Timestamp: now})
	if _, fired := s.Underpriced(0.01, now, time.Minute); fired {
		t.Fatal("fired with unset NO ask")
	}

	s.Apply(domain.Tick{TokenID: testMarket.YesTokenID, Side: domain.SideBid, Price: 0.99, Timestamp: now})
	if _, fired := s.Overpriced(0.01, now, time.Minute); fired {
		t.Fatal("fired with unset NO bid")
	}
}

func TestMarketStateStaleLegNeverFires(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMarketState(testMarket)

	s.Apply(domain.Tick{TokenID: testMarket.YesTokenID, Side: domain.SideAsk, Price: 0.40, Timestamp: start})
	later := start.Add(2 * time.Minute)
	s.Apply(domain.Tick{TokenID: testMarket.NoTokenID, Side: domain.SideAsk, Price: 0.40, Timestamp: later})

	if _, fired := s.Underpriced(0.01, later, time.Minute); fired {
		t.Fatal("fired with a stale YES ask")
	}

	// Refreshing the stale leg makes it fire.
	s.Apply(domain.Tick{TokenID: testMarket.YesTokenID, Side: domain.SideAsk, Price: 0.40, Timestamp: later})
	if _, fired := s.Underpriced(0.01, later, time.Minute); !fired {
		t.Fatal("did not fire after both legs refreshed")
	}
}

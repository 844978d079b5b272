package feed

import (
	"testing"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

func TestBookMessageTicks(t *testing.T) {
	book := bookMessage{
		EventType: "book",
		AssetID:   "tok-1",
		Bids: []wsLevel{
			{Price: "0.45", Size: "100"},
			{Price: "0.47", Size: "50"},
			{Price: "0.40", Size: "200"},
		},
		Asks: []wsLevel{
			{Price: "0.52", Size: "80"},
			{Price: "0.50", Size: "30"},
			{Price: "0.55", Size: "500"},
		},
		Timestamp: "1756700000000",
	}

	ticks := book.ticks()
	if len(ticks) != 2 {
		t.Fatalf("ticks = %d, want 2", len(ticks))
	}
	if ticks[0].Side != domain.SideBid || ticks[0].Price != 0.47 {
		t.Errorf("bid tick = %+v, want best bid 0.47", ticks[0])
	}
	if ticks[1].Side != domain.SideAsk || ticks[1].Price != 0.50 {
		t.Errorf("ask tick = %+v, want best ask 0.50", ticks[1])
	}
	for _, tick := range ticks {
		if !tick.Valid() {
			t.Errorf("tick %+v not valid", tick)
		}
	}
}

func TestBookMessageOneSided(t *testing.T) {
	book := bookMessage{
		AssetID:   "tok-1",
		Asks:      []wsLevel{{Price: "0.30", Size: "10"}},
		Timestamp: "1756700000",
	}
	ticks := book.ticks()
	if len(ticks) != 1 {
		t.Fatalf("ticks = %d, want 1", len(ticks))
	}
	if ticks[0].Side != domain.SideAsk {
		t.Errorf("side = %v, want ASK", ticks[0].Side)
	}
}

func TestPriceChangeMessageTicks(t *testing.T) {
	pc := priceChangeMessage{
		EventType: "price_change",
		AssetID:   "tok-1",
		Changes: []wsChange{
			{Price: "0.48", Side: "BUY", Size: "100"},
			{Price: "0.52", Side: "SELL", Size: "60"},
			{Price: "junk", Side: "BUY", Size: "10"},
			{Price: "0.50", Side: "MID", Size: "10"},
		},
		Timestamp: "1756700000000",
	}

	ticks := pc.ticks()
	if len(ticks) != 2 {
		t.Fatalf("ticks = %d, want 2 (junk entries dropped)", len(ticks))
	}
	if ticks[0].Side != domain.SideBid || ticks[0].Price != 0.48 {
		t.Errorf("tick 0 = %+v, want BID 0.48", ticks[0])
	}
	if ticks[1].Side != domain.SideAsk || ticks[1].Price != 0.52 {
		t.Errorf("tick 1 = %+v, want ASK 0.52", ticks[1])
	}
}

func TestParseWSTime(t *testing.T) {
	if ts := parseWSTime("1756700000000"); ts.Year() != 2025 {
		t.Errorf("millisecond epoch parsed to %v", ts)
	}
	if ts := parseWSTime("2026-03-01T12:00:00Z"); ts.Year() != 2026 {
		t.Errorf("RFC3339 parsed to %v", ts)
	}
}

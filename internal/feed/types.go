// Package feed streams live best prices from the Polymarket CLOB WebSocket
// into the detector.
package feed

import (
	"strconv"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// wsSubscribe is the JSON payload sent to the market channel on connect.
type wsSubscribe struct {
	Type     string   `json:"type"`
	AssetIDs []string `json:"assets_ids"`
}

// wsLevel is a single bid/ask level in WebSocket orderbook data.
type wsLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// bookMessage is a full orderbook snapshot delivered on the market channel.
type bookMessage struct {
	EventType string    `json:"event_type"`
	AssetID   string    `json:"asset_id"`
	Bids      []wsLevel `json:"bids"`
	Asks      []wsLevel `json:"asks"`
	Timestamp string    `json:"timestamp"`
}

// priceChangeMessage carries incremental level updates for one asset.
type priceChangeMessage struct {
	EventType string     `json:"event_type"`
	AssetID   string     `json:"asset_id"`
	Changes   []wsChange `json:"changes"`
	Timestamp string     `json:"timestamp"`
}

// wsChange is one level update inside a price_change message.
type wsChange struct {
	Price string `json:"price"`
	Side  string `json:"side"` // "BUY" or "SELL"
	Size  string `json:"size"`
}

// parseWSTime handles both millisecond-epoch strings and RFC3339; the feed
// sends the former, but be lenient.
func parseWSTime(s string) time.Time {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Values this large are milliseconds, smaller ones seconds.
		if ms > 1e12 {
			return time.UnixMilli(ms)
		}
		return time.Unix(ms, 0)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Now()
}

// ticks converts a book snapshot into best bid and best ask ticks. Either
// side may be absent when the book is one-sided.
func (b *bookMessage) ticks() []domain.Tick {
	ts := parseWSTime(b.Timestamp)
	var out []domain.Tick

	bestBid := 0.0
	for _, lvl := range b.Bids {
		if p, err := strconv.ParseFloat(lvl.Price, 64); err == nil && p > bestBid {
			bestBid = p
		}
	}
	if bestBid > 0 {
		out = append(out, domain.Tick{TokenID: b.AssetID, Side: domain.SideBid, Price: bestBid, Timestamp: ts})
	}

	bestAsk := 0.0
	for _, lvl := range b.Asks {
		if p, err := strconv.ParseFloat(lvl.Price, 64); err == nil && p > 0 && (bestAsk == 0 || p < bestAsk) {
			bestAsk = p
		}
	}
	if bestAsk > 0 {
		out = append(out, domain.Tick{TokenID: b.AssetID, Side: domain.SideAsk, Price: bestAsk, Timestamp: ts})
	}

	return out
}

// ticks converts a price_change message into one tick per level update. A
// BUY-side change moves the bid, a SELL-side change the ask.
func (p *priceChangeMessage) ticks() []domain.Tick {
	ts := parseWSTime(p.Timestamp)
	out := make([]domain.Tick, 0, len(p.Changes))
	for _, ch := range p.Changes {
		price, err := strconv.ParseFloat(ch.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		var side domain.Side
		switch ch.Side {
		case "BUY":
			side = domain.SideBid
		case "SELL":
			side = domain.SideAsk
		default:
			continue
		}
		out = append(out, domain.Tick{TokenID: p.AssetID, Side: side, Price: price, Timestamp: ts})
	}
	return out
}

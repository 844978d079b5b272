package domain

import (
	"context"
	"time"
)

// PriceCache mirrors the latest observed best prices so external consumers
// (dashboards, other processes) can read them without touching the detector.
type PriceCache interface {
	SetPrice(ctx context.Context, tokenID string, side Side, price float64, ts time.Time) error
	GetPrice(ctx context.Context, tokenID string, side Side) (float64, time.Time, error)
}

// SignalBus provides pub/sub for emitted opportunities plus a durable,
// capped stream for consumers that cannot keep up in real time.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
}

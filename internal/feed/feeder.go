package feed

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/arbiterlabs/polyarb/internal/arbitrage"
	"github.com/arbiterlabs/polyarb/internal/domain"
)

// OpportunityHandler consumes an emitted opportunity. Handlers run on the
// feeder goroutine in registration order; slow handlers stall detection.
type OpportunityHandler func(ctx context.Context, opp domain.Opportunity)

// Feeder is the single serialization point between the WebSocket reader and
// the detector. Ticks enter through Push on the reader goroutine, cross a
// bounded channel, and are applied to the detector by the one goroutine
// running Run. Emitted opportunities fan out to the registered handlers.
type Feeder struct {
	detector *arbitrage.Detector
	logger   *slog.Logger
	ticks    chan domain.Tick
	handlers []OpportunityHandler

	pushed  atomic.Uint64
	dropped atomic.Uint64
}

// NewFeeder creates a feeder over the given detector. bufferSize bounds the
// tick channel; a full buffer drops incoming ticks rather than blocking the
// reader, the next book snapshot heals any gap.
func NewFeeder(detector *arbitrage.Detector, bufferSize int, logger *slog.Logger) *Feeder {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Feeder{
		detector: detector,
		logger:   logger.With(slog.String("component", "feeder")),
		ticks:    make(chan domain.Tick, bufferSize),
	}
}

// OnOpportunity registers a handler. Not safe to call once Run has started.
func (f *Feeder) OnOpportunity(h OpportunityHandler) {
	f.handlers = append(f.handlers, h)
}

// Push enqueues a tick for processing. Never blocks.
func (f *Feeder) Push(tick domain.Tick) {
	select {
	case f.ticks <- tick:
		f.pushed.Add(1)
	default:
		f.dropped.Add(1)
	}
}

// Run applies queued ticks to the detector until ctx is cancelled.
func (f *Feeder) Run(ctx context.Context) error {
	f.logger.Info("feeder started", slog.Int("buffer", cap(f.ticks)))
	defer f.logger.Info("feeder stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick := <-f.ticks:
			for _, opp := range f.detector.Apply(tick) {
				for _, h := range f.handlers {
					h(ctx, opp)
				}
			}
		}
	}
}

// Pushed reports how many ticks entered the queue.
func (f *Feeder) Pushed() uint64 { return f.pushed.Load() }

// Dropped reports how many ticks were discarded on a full queue.
func (f *Feeder) Dropped() uint64 { return f.dropped.Load() }

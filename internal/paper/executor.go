package paper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// ExecutorConfig tunes the async execution queue.
type ExecutorConfig struct {
	// QueueSize bounds the number of opportunities waiting for execution.
	QueueSize int
	// ShutdownGrace is how long the consumer keeps executing after
	// shutdown begins, covering both the in-flight trade and anything
	// still queued. Work not completed when it expires is recorded as
	// cancelled.
	ShutdownGrace time.Duration
}

// Executor feeds opportunities to the simulator through a bounded queue with
// a single consumer goroutine, so the virtual balance has exactly one
// writer. When the queue is full the oldest entry is dropped; a fresh
// sighting of a mispricing is worth more than a stale one.
type Executor struct {
	cfg    ExecutorConfig
	logger *slog.Logger
	queue  chan domain.Opportunity

	mu  sync.Mutex
	sim *Simulator

	// OnTrade, when set, is called after every recorded trade. It runs on
	// the consumer goroutine; keep it quick.
	OnTrade func(ctx context.Context, trade domain.Trade)

	dropped atomic.Uint64
}

// NewExecutor wraps a simulator with a bounded execution queue.
func NewExecutor(cfg ExecutorConfig, sim *Simulator, logger *slog.Logger) *Executor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Executor{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "executor")),
		queue:  make(chan domain.Opportunity, cfg.QueueSize),
		sim:    sim,
	}
}

// Submit enqueues an opportunity for execution. On a full queue the oldest
// queued entry is evicted to make room; Submit itself never blocks the feed.
func (e *Executor) Submit(opp domain.Opportunity) {
	for {
		select {
		case e.queue <- opp:
			return
		default:
		}
		select {
		case old := <-e.queue:
			e.dropped.Add(1)
			e.logger.Warn("execution queue full, dropped oldest",
				slog.String("opportunity_id", old.ID),
				slog.String("subject_id", old.SubjectID),
			)
		default:
		}
	}
}

// Run consumes the queue until ctx is cancelled, then drains it within the
// shutdown grace period. It is the only goroutine that touches the
// simulator's balance.
func (e *Executor) Run(ctx context.Context) error {
	e.logger.Info("executor started", slog.Int("queue_size", e.cfg.QueueSize))
	defer e.logger.Info("executor stopped")

	// graceCtx outlives ctx by the shutdown grace, so a trade that is
	// mid-latency when shutdown begins finishes its fill instead of being
	// cut off. The same window then bounds the queue drain.
	graceCtx, cancelGrace := context.WithCancel(context.Background())
	defer cancelGrace()
	go func() {
		select {
		case <-graceCtx.Done():
			return
		case <-ctx.Done():
		}
		t := time.NewTimer(e.cfg.ShutdownGrace)
		defer t.Stop()
		select {
		case <-graceCtx.Done():
		case <-t.C:
			cancelGrace()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			e.drain(graceCtx)
			return ctx.Err()
		case opp := <-e.queue:
			e.execute(graceCtx, opp)
		}
	}
}

func (e *Executor) drain(graceCtx context.Context) {
	for {
		select {
		case opp := <-e.queue:
			select {
			case <-graceCtx.Done():
				e.cancel(context.Background(), opp)
			default:
				e.execute(graceCtx, opp)
			}
		default:
			return
		}
	}
}

func (e *Executor) execute(ctx context.Context, opp domain.Opportunity) {
	e.mu.Lock()
	trade := e.sim.Execute(ctx, opp)
	e.mu.Unlock()
	if e.OnTrade != nil {
		e.OnTrade(ctx, trade)
	}
}

func (e *Executor) cancel(ctx context.Context, opp domain.Opportunity) {
	e.mu.Lock()
	trade := e.sim.Cancel(opp)
	e.mu.Unlock()
	if e.OnTrade != nil {
		e.OnTrade(ctx, trade)
	}
}

// Session returns a snapshot of the simulator's session, safe to call while
// the consumer runs.
func (e *Executor) Session() domain.TradingSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.Session()
}

// CloseSession finalizes and returns the session. Call after Run has
// returned.
func (e *Executor) CloseSession() domain.TradingSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sim.CloseSession()
}

// Dropped reports how many queued opportunities were evicted under
// backpressure.
func (e *Executor) Dropped() uint64 { return e.dropped.Load() }

package arbitrage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// Config tunes the detector.
type Config struct {
	// MinProfitFraction is the strict lower bound on profit for an
	// opportunity to fire, e.g. 0.01 for 1%.
	MinProfitFraction float64
	// MinLiquidity filters markets and events at registration time; anything
	// below it is skipped without error.
	MinLiquidity float64
	// StaleTimeout is the maximum quote age that still counts as priced.
	// Zero disables staleness checks.
	StaleTimeout time.Duration
	// DedupWindow suppresses repeat emissions of an unchanged opportunity.
	DedupWindow time.Duration
	// DedupPrecision is the number of decimal places of the profit fraction
	// that must match for two sightings to collide.
	DedupPrecision int
}

// Stats are cumulative detector counters, safe to read while ticks flow.
type Stats struct {
	MarketsTracked    int
	EventsTracked     int
	TokensIndexed     int
	TicksApplied      uint64
	TicksDropped      uint64
	TicksUnknown      uint64
	Emitted           uint64
	DedupSuppressed   uint64
	RegistrationSkips uint64
}

// tokenOwner binds a token to the single binary market or the neg-risk
// events that price it. A token never belongs to both.
type tokenOwner struct {
	market *MarketState
	events []*EventState
}

// Detector holds the live state of every registered market and event,
// applies ticks, and emits deduplicated opportunities. All methods are safe
// for concurrent use, though in practice a single feed goroutine drives
// Apply.
type Detector struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	markets map[string]*MarketState
	events  map[string]*EventState
	tokens  map[string]*tokenOwner
	dedup   *deduper

	ticksApplied uint64
	ticksDropped uint64
	ticksUnknown uint64
	emitted      uint64
	regSkips     uint64
}

// New creates a detector with no registered markets.
func New(cfg Config, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "detector")),
		now:     time.Now,
		markets: make(map[string]*MarketState),
		events:  make(map[string]*EventState),
		tokens:  make(map[string]*tokenOwner),
		dedup:   newDeduper(cfg.DedupWindow, cfg.DedupPrecision),
	}
}

// RegisterMarket adds a binary market to the detector. Markets below the
// liquidity floor are skipped silently. Registering a token that already
// belongs to a neg-risk event or another market fails with
// domain.ErrTokenConflict.
func (d *Detector) RegisterMarket(m domain.BinaryMarket) error {
	if m.YesTokenID == "" || m.NoTokenID == "" || m.YesTokenID == m.NoTokenID {
		return fmt.Errorf("register market %s: malformed token pair: %w", m.ID, domain.ErrInvalidConfig)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if m.Liquidity < d.cfg.MinLiquidity {
		d.regSkips++
		d.logger.Debug("market below liquidity floor, skipped",
			slog.String("market_id", m.ID),
			slog.Float64("liquidity", m.Liquidity),
		)
		return nil
	}
	if _, ok := d.markets[m.ID]; ok {
		return fmt.Errorf("register market %s: %w", m.ID, domain.ErrAlreadyExists)
	}
	for _, tok := range []string{m.YesTokenID, m.NoTokenID} {
		if owner, ok := d.tokens[tok]; ok {
			if owner.market != nil {
				return fmt.Errorf("register market %s: token %s already bound to market %s: %w",
					m.ID, tok, owner.market.market.ID, domain.ErrTokenConflict)
			}
			return fmt.Errorf("register market %s: token %s already bound to an event: %w",
				m.ID, tok, domain.ErrTokenConflict)
		}
	}

	st := NewMarketState(m)
	d.markets[m.ID] = st
	d.tokens[m.YesTokenID] = &tokenOwner{market: st}
	d.tokens[m.NoTokenID] = &tokenOwner{market: st}
	return nil
}

// RegisterEvent adds a neg-risk event to the detector. Events need at least
// three outcomes; thinner groups are just binary markets in disguise. Events
// below the liquidity floor are skipped silently. A token already bound to a
// binary market fails with domain.ErrTokenConflict; sharing tokens across
// events is allowed.
func (d *Detector) RegisterEvent(e domain.NegRiskEvent) error {
	if len(e.Outcomes) < 3 {
		return fmt.Errorf("register event %s: %d outcomes, need at least 3: %w",
			e.ID, len(e.Outcomes), domain.ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(e.Outcomes))
	for _, o := range e.Outcomes {
		if o.TokenID == "" {
			return fmt.Errorf("register event %s: outcome %q has no token: %w", e.ID, o.Name, domain.ErrInvalidConfig)
		}
		if _, dup := seen[o.TokenID]; dup {
			return fmt.Errorf("register event %s: duplicate outcome token %s: %w", e.ID, o.TokenID, domain.ErrInvalidConfig)
		}
		seen[o.TokenID] = struct{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if e.TotalLiquidity() < d.cfg.MinLiquidity {
		d.regSkips++
		d.logger.Debug("event below liquidity floor, skipped",
			slog.String("event_id", e.ID),
			slog.Float64("liquidity", e.TotalLiquidity()),
		)
		return nil
	}
	if _, ok := d.events[e.ID]; ok {
		return fmt.Errorf("register event %s: %w", e.ID, domain.ErrAlreadyExists)
	}
	for _, o := range e.Outcomes {
		if owner, ok := d.tokens[o.TokenID]; ok && owner.market != nil {
			return fmt.Errorf("register event %s: token %s already bound to market %s: %w",
				e.ID, o.TokenID, owner.market.market.ID, domain.ErrTokenConflict)
		}
	}

	st := NewEventState(e)
	d.events[e.ID] = st
	for _, o := range e.Outcomes {
		owner, ok := d.tokens[o.TokenID]
		if !ok {
			owner = &tokenOwner{}
			d.tokens[o.TokenID] = owner
		}
		owner.events = append(owner.events, st)
	}
	return nil
}

// TokenIDs returns every token the detector tracks, for feed subscription.
func (d *Detector) TokenIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.tokens))
	for id := range d.tokens {
		ids = append(ids, id)
	}
	return ids
}

// Apply feeds one tick through the detector and returns any opportunities it
// uncovered. Malformed ticks and ticks for unknown tokens are dropped.
// Evaluation touches only the states that own the tick's token.
func (d *Detector) Apply(tick domain.Tick) []domain.Opportunity {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !tick.Valid() {
		d.ticksDropped++
		return nil
	}
	owner, ok := d.tokens[tick.TokenID]
	if !ok {
		d.ticksUnknown++
		return nil
	}
	d.ticksApplied++

	now := d.now()
	var out []domain.Opportunity
	if owner.market != nil {
		owner.market.Apply(tick)
		if c, ok := owner.market.Underpriced(d.cfg.MinProfitFraction, now, d.cfg.StaleTimeout); ok {
			out = d.emit(out, c, now)
		}
		if c, ok := owner.market.Overpriced(d.cfg.MinProfitFraction, now, d.cfg.StaleTimeout); ok {
			out = d.emit(out, c, now)
		}
	}
	for _, ev := range owner.events {
		ev.Apply(tick)
		if c, ok := ev.Underpriced(d.cfg.MinProfitFraction, now, d.cfg.StaleTimeout); ok {
			out = d.emit(out, c, now)
		}
	}
	return out
}

func (d *Detector) emit(out []domain.Opportunity, c candidate, now time.Time) []domain.Opportunity {
	if d.dedup.Suppress(c.subjectID, c.kind, c.profit, now) {
		return out
	}
	opp := domain.Opportunity{
		ID:                 uuid.NewString(),
		Kind:               c.kind,
		SubjectID:          c.subjectID,
		Question:           c.question,
		URL:                c.url,
		Legs:               c.legs,
		ProfitFraction:     c.profit,
		RequiredCapital:    c.capital,
		AvailableLiquidity: c.liquidity,
		DetectedAt:         now,
	}
	d.emitted++
	d.logger.Info("opportunity detected",
		slog.String("kind", string(opp.Kind)),
		slog.String("subject_id", opp.SubjectID),
		slog.Float64("profit_fraction", opp.ProfitFraction),
		slog.Float64("liquidity", opp.AvailableLiquidity),
	)
	return append(out, opp)
}

// Stats returns a snapshot of the detector's counters.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		MarketsTracked:    len(d.markets),
		EventsTracked:     len(d.events),
		TokensIndexed:     len(d.tokens),
		TicksApplied:      d.ticksApplied,
		TicksDropped:      d.ticksDropped,
		TicksUnknown:      d.ticksUnknown,
		Emitted:           d.emitted,
		DedupSuppressed:   d.dedup.suppressed,
		RegistrationSkips: d.regSkips,
	}
}

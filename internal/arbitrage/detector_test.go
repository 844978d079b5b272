package arbitrage

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

func newTestDetector(t *testing.T, cfg Config) *Detector {
	t.Helper()
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func defaultConfig() Config {
	return Config{
		MinProfitFraction: 0.01,
		MinLiquidity:      0,
		StaleTimeout:      time.Minute,
		DedupWindow:       30 * time.Second,
		DedupPrecision:    4,
	}
}

func TestDetectorRegisterMarketTokenConflict(t *testing.T) {
	d := newTestDetector(t, defaultConfig())

	if err := d.RegisterMarket(testMarket); err != nil {
		t.Fatalf("RegisterMarket: %v", err)
	}
	if err := d.RegisterMarket(testMarket); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("re-register same market: err = %v, want ErrAlreadyExists", err)
	}

	other := testMarket
	other.ID = "mkt-2"
	other.NoTokenID = "tok-other"
	if err := d.RegisterMarket(other); !errors.Is(err, domain.ErrTokenConflict) {
		t.Errorf("register market sharing a token: err = %v, want ErrTokenConflict", err)
	}

	e := testEvent(3)
	e.Outcomes[0].TokenID = testMarket.YesTokenID
	if err := d.RegisterEvent(e); !errors.Is(err, domain.ErrTokenConflict) {
		t.Errorf("register event over a market token: err = %v, want ErrTokenConflict", err)
	}
}

func TestDetectorRegisterEventValidation(t *testing.T) {
	d := newTestDetector(t, defaultConfig())

	if err := d.RegisterEvent(testEvent(2)); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("two-outcome event: err = %v, want ErrInvalidConfig", err)
	}

	e := testEvent(3)
	e.Outcomes[2].TokenID = e.Outcomes[0].TokenID
	if err := d.RegisterEvent(e); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("duplicate outcome token: err = %v, want ErrInvalidConfig", err)
	}

	if err := d.RegisterEvent(testEvent(3)); err != nil {
		t.Fatalf("valid event: %v", err)
	}
	// Registering a market over an event token also conflicts.
	m := testMarket
	m.ID = "mkt-conflict"
	m.YesTokenID = "tok-0"
	if err := d.RegisterMarket(m); !errors.Is(err, domain.ErrTokenConflict) {
		t.Errorf("market over event token: err = %v, want ErrTokenConflict", err)
	}
}

func TestDetectorLiquidityFloorSkipsSilently(t *testing.T) {
	cfg := defaultConfig()
	cfg.MinLiquidity = 10000
	d := newTestDetector(t, cfg)

	if err := d.RegisterMarket(testMarket); err != nil {
		t.Fatalf("thin market must be skipped, not rejected: %v", err)
	}
	if got := d.Stats().MarketsTracked; got != 0 {
		t.Errorf("markets tracked = %d, want 0", got)
	}
	if got := d.Stats().RegistrationSkips; got != 1 {
		t.Errorf("registration skips = %d, want 1", got)
	}
}

func TestDetectorApplyEmitsBinaryUnderpriced(t *testing.T) {
	d := newTestDetector(t, defaultConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	if err := d.RegisterMarket(testMarket); err != nil {
		t.Fatal(err)
	}

	if opps := d.Apply(domain.Tick{TokenID: testMarket.YesTokenID, Side: domain.SideAsk, Price: 0.48, Timestamp: now}); len(opps) != 0 {
		t.Fatalf("fired on half a book: %+v", opps)
	}
	opps := d.Apply(domain.Tick{TokenID: testMarket.NoTokenID, Side: domain.SideAsk, Price: 0.46, Timestamp: now})
	if len(opps) != 1 {
		t.Fatalf("opportunities = %d, want 1", len(opps))
	}

	opp := opps[0]
	if err := opp.Validate(); err != nil {
		t.Errorf("emitted opportunity invalid: %v", err)
	}
	if opp.Kind != domain.BinaryUnderpriced {
		t.Errorf("kind = %v, want %v", opp.Kind, domain.BinaryUnderpriced)
	}
	if opp.SubjectID != testMarket.ID {
		t.Errorf("subject = %q, want %q", opp.SubjectID, testMarket.ID)
	}
	if opp.ID == "" {
		t.Error("opportunity ID is empty")
	}
	if !opp.DetectedAt.Equal(now) {
		t.Errorf("detected at %v, want %v", opp.DetectedAt, now)
	}
}

func TestDetectorDedupWindow(t *testing.T) {
	d := newTestDetector(t, defaultConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	if err := d.RegisterMarket(testMarket); err != nil {
		t.Fatal(err)
	}
	d.Apply(domain.Tick{TokenID: testMarket.YesTokenID, Side: domain.SideAsk, Price: 0.48, Timestamp: now})
	first := d.Apply(domain.Tick{TokenID: testMarket.NoTokenID, Side: domain.SideAsk, Price: 0.46, Timestamp: now})
	if len(first) != 1 {
		t.Fatalf("first sighting: %d opportunities, want 1", len(first))
	}

	// Same prices again inside the window: suppressed.
	again := d.Apply(domain.Tick{TokenID: testMarket.NoTokenID, Side: domain.SideAsk, Price: 0.46, Timestamp: now})
	if len(again) != 0 {
		t.Fatalf("repeat inside window emitted %d opportunities", len(again))
	}
	if got := d.Stats().DedupSuppressed; got != 1 {
		t.Errorf("dedup suppressed = %d, want 1", got)
	}

	// A different profit is a different opportunity.
	moved := d.Apply(domain.Tick{TokenID: testMarket.NoTokenID, Side: domain.SideAsk, Price: 0.40, Timestamp: now})
	if len(moved) != 1 {
		t.Fatalf("changed profit emitted %d opportunities, want 1", len(moved))
	}

	// After the window expires the original profit emits again.
	now = now.Add(defaultConfig().DedupWindow + time.Second)
	expired := d.Apply(domain.Tick{TokenID: testMarket.NoTokenID, Side: domain.SideAsk, Price: 0.46, Timestamp: now})
	if len(expired) != 1 {
		t.Fatalf("post-window sighting emitted %d opportunities, want 1", len(expired))
	}
}

func TestDetectorDropsMalformedAndUnknownTicks(t *testing.T) {
	d := newTestDetector(t, defaultConfig())
	now := time.Now()

	if err := d.RegisterMarket(testMarket); err != nil {
		t.Fatal(err)
	}

	bad := []domain.Tick{
		{TokenID: "", Side: domain.SideAsk, Price: 0.5, Timestamp: now},
		{TokenID: testMarket.YesTokenID, Side: domain.SideAsk, Price: 0, Timestamp: now},
		{TokenID: testMarket.YesTokenID, Side: domain.SideAsk, Price: 1.5, Timestamp: now},
		{TokenID: testMarket.YesTokenID, Side: "MID", Price: 0.5, Timestamp: now},
		{TokenID: testMarket.YesTokenID, Side: domain.SideAsk, Price: 0.5},
	}
	for _, tick := range bad {
		if opps := d.Apply(tick); len(opps) != 0 {
			t.Errorf("malformed tick %+v emitted opportunities", tick)
		}
	}
	if got := d.Stats().TicksDropped; got != uint64(len(bad)) {
		t.Errorf("ticks dropped = %d, want %d", got, len(bad))
	}

	d.Apply(domain.Tick{TokenID: "tok-nobody", Side: domain.SideAsk, Price: 0.5, Timestamp: now})
	if got := d.Stats().TicksUnknown; got != 1 {
		t.Errorf("ticks unknown = %d, want 1", got)
	}
}

func TestDetectorNegRiskAcrossEvent(t *testing.T) {
	d := newTestDetector(t, defaultConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	e := testEvent(5)
	if err := d.RegisterEvent(e); err != nil {
		t.Fatal(err)
	}

	prices := []float64{0.30, 0.25, 0.20, 0.10, 0.07}
	var opps []domain.Opportunity
	for i, p := range prices {
		opps = d.Apply(domain.Tick{TokenID: e.Outcomes[i].TokenID, Side: domain.SideAsk, Price: p, Timestamp: now})
		if i < len(prices)-1 && len(opps) != 0 {
			t.Fatalf("fired before all outcomes priced (outcome %d)", i)
		}
	}
	if len(opps) != 1 {
		t.Fatalf("opportunities = %d, want 1", len(opps))
	}
	if opps[0].Kind != domain.NegRiskUnderpriced {
		t.Errorf("kind = %v, want %v", opps[0].Kind, domain.NegRiskUnderpriced)
	}
	if err := opps[0].Validate(); err != nil {
		t.Errorf("emitted opportunity invalid: %v", err)
	}
	if len(opps[0].Legs) != 5 {
		t.Errorf("legs = %d, want 5", len(opps[0].Legs))
	}
}

func TestDetectorTokenIDs(t *testing.T) {
	d := newTestDetector(t, defaultConfig())
	if err := d.RegisterMarket(testMarket); err != nil {
		t.Fatal(err)
	}
	if err := d.RegisterEvent(testEvent(3)); err != nil {
		t.Fatal(err)
	}
	if got := len(d.TokenIDs()); got != 5 {
		t.Errorf("token IDs = %d, want 5", got)
	}
}

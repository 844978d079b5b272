package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

type fakeSender struct {
	name     string
	err      error
	titles   []string
	messages []string
}

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOpportunity(profit float64) domain.Opportunity {
	return domain.Opportunity{
		ID:        "opp-1",
		Kind:      domain.BinaryUnderpriced,
		SubjectID: "mkt-1",
		Question:  "Will it rain tomorrow?",
		URL:       "https://polymarket.com/market/rain-tomorrow",
		Legs: []domain.Leg{
			{TokenID: "11111111111111111111", Side: domain.LegBuy, Price: 0.45},
			{TokenID: "22222222222222222222", Side: domain.LegBuy, Price: 0.48},
		},
		ProfitFraction:     profit,
		RequiredCapital:    0.93,
		AvailableLiquidity: 5000,
		DetectedAt:         time.Now(),
	}
}

func TestNotifyOpportunityThreshold(t *testing.T) {
	fs := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{fs}, 0.05, testLogger())

	if err := n.NotifyOpportunity(context.Background(), testOpportunity(0.02)); err != nil {
		t.Fatalf("NotifyOpportunity below threshold: %v", err)
	}
	if len(fs.titles) != 0 {
		t.Fatalf("below-threshold opportunity was dispatched: %v", fs.titles)
	}

	if err := n.NotifyOpportunity(context.Background(), testOpportunity(0.07)); err != nil {
		t.Fatalf("NotifyOpportunity above threshold: %v", err)
	}
	if len(fs.titles) != 1 {
		t.Fatalf("got %d dispatches, want 1", len(fs.titles))
	}
	if fs.titles[0] != "Arbitrage: Binary Underpriced" {
		t.Errorf("title = %q", fs.titles[0])
	}
	for _, want := range []string{"Will it rain tomorrow?", "7.00%", "BUY", "11111111...1111"} {
		if !strings.Contains(fs.messages[0], want) {
			t.Errorf("message missing %q:\n%s", want, fs.messages[0])
		}
	}
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	broken := &fakeSender{name: "broken", err: errors.New("webhook down")}
	working := &fakeSender{name: "working"}
	n := NewNotifier([]Sender{broken, working}, 0, testLogger())

	err := n.NotifyOpportunity(context.Background(), testOpportunity(0.05))
	if err == nil {
		t.Fatal("expected combined error from failed sender")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error does not name failed sender: %v", err)
	}
	if len(working.titles) != 1 {
		t.Errorf("working sender got %d dispatches, want 1", len(working.titles))
	}
}

func TestNotifySessionReport(t *testing.T) {
	fs := &fakeSender{name: "fake"}
	// Threshold must not apply to session reports.
	n := NewNotifier([]Sender{fs}, 0.99, testLogger())

	session := domain.TradingSession{
		ID:             "sess-1",
		StartTime:      time.Now().Add(-time.Hour),
		EndTime:        time.Now(),
		InitialBalance: 1000,
	}
	metrics := domain.Metrics{
		TotalTrades:   4,
		FilledTrades:  3,
		WinRate:       0.75,
		TotalPnL:      42.5,
		ReturnPercent: 4.25,
		FinalBalance:  1042.5,
	}

	if err := n.NotifySessionReport(context.Background(), session, metrics); err != nil {
		t.Fatalf("NotifySessionReport: %v", err)
	}
	if len(fs.messages) != 1 {
		t.Fatalf("got %d dispatches, want 1", len(fs.messages))
	}
	for _, want := range []string{"sess-1", "$1042.50", "75.0%", "4 (3 filled)"} {
		if !strings.Contains(fs.messages[0], want) {
			t.Errorf("report missing %q:\n%s", want, fs.messages[0])
		}
	}
}

func TestNotifierNoSenders(t *testing.T) {
	n := NewNotifier(nil, 0, testLogger())
	if err := n.NotifyOpportunity(context.Background(), testOpportunity(0.05)); err != nil {
		t.Fatalf("NotifyOpportunity with no senders: %v", err)
	}
}

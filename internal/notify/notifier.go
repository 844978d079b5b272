// Package notify delivers arbitrage alerts and session reports to external
// channels. Alerts are dispatched to all registered senders (Telegram,
// Discord) and can be filtered by a minimum profit threshold so operators
// only hear about opportunities worth acting on.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches alerts to one or more Senders. Opportunities below the
// configured profit threshold are dropped before dispatch; session reports
// always go out.
type Notifier struct {
	senders   []Sender
	minProfit float64
	logger    *slog.Logger
}

// NewNotifier creates a Notifier that delivers to the given senders. Only
// opportunities with a profit fraction of at least minProfit are forwarded;
// zero forwards everything the detector emits.
func NewNotifier(senders []Sender, minProfit float64, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders:   senders,
		minProfit: minProfit,
		logger:    logger.With(slog.String("component", "notifier")),
	}
}

// NotifyOpportunity formats and dispatches an arbitrage alert. Opportunities
// below the profit threshold are silently skipped.
func (n *Notifier) NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error {
	if opp.ProfitFraction < n.minProfit {
		n.logger.DebugContext(ctx, "opportunity below alert threshold",
			slog.String("id", opp.ID),
			slog.Float64("profit_fraction", opp.ProfitFraction),
		)
		return nil
	}

	return n.dispatch(ctx, opportunityTitle(opp), formatOpportunity(opp))
}

// NotifySessionReport dispatches a paper-trading session summary to all
// senders regardless of thresholds.
func (n *Notifier) NotifySessionReport(ctx context.Context, session domain.TradingSession, metrics domain.Metrics) error {
	return n.dispatch(ctx, "Paper Trading Session Report", formatSessionReport(session, metrics))
}

// dispatch iterates over all senders and sends the notification. Errors from
// individual senders are collected and returned as a combined error; a single
// sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

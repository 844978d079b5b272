package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// opportunityTitle returns a short headline for an alert, keyed by kind.
func opportunityTitle(opp domain.Opportunity) string {
	switch opp.Kind {
	case domain.BinaryUnderpriced:
		return "Arbitrage: Binary Underpriced"
	case domain.BinaryOverpriced:
		return "Arbitrage: Binary Overpriced"
	case domain.NegRiskUnderpriced:
		return "Arbitrage: Multi-Outcome Underpriced"
	default:
		return "Arbitrage Opportunity"
	}
}

// formatOpportunity renders a detected opportunity as a plain-text message
// suitable for both Telegram and Discord. The leg list is kept short: every
// leg on its own line with side, token, and price.
func formatOpportunity(opp domain.Opportunity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", opp.Question)
	fmt.Fprintf(&b, "Profit: %.2f%%\n", opp.ProfitFraction*100)
	fmt.Fprintf(&b, "Capital per unit: $%.4f\n", opp.RequiredCapital)
	fmt.Fprintf(&b, "Liquidity: $%.2f\n", opp.AvailableLiquidity)

	b.WriteString("Legs:\n")
	for _, leg := range opp.Legs {
		fmt.Fprintf(&b, "  %s %s @ %.4f\n", leg.Side, shortToken(leg.TokenID), leg.Price)
	}

	if opp.URL != "" {
		fmt.Fprintf(&b, "%s", opp.URL)
	}

	return strings.TrimRight(b.String(), "\n")
}

// formatSessionReport renders the end-of-run summary for a paper session.
func formatSessionReport(session domain.TradingSession, metrics domain.Metrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session %s\n", session.ID)
	fmt.Fprintf(&b, "Duration: %s\n", session.Duration().Round(time.Second))
	fmt.Fprintf(&b, "Balance: $%.2f -> $%.2f (%+.2f%%)\n",
		session.InitialBalance, metrics.FinalBalance, metrics.ReturnPercent)
	fmt.Fprintf(&b, "Trades: %d (%d filled)\n", metrics.TotalTrades, metrics.FilledTrades)
	fmt.Fprintf(&b, "Win rate: %.1f%%\n", metrics.WinRate*100)
	fmt.Fprintf(&b, "Total PnL: $%.2f\n", metrics.TotalPnL)
	fmt.Fprintf(&b, "Max drawdown: %.2f%%", metrics.MaxDrawdown*100)

	return b.String()
}

// shortToken truncates a CLOB token ID for display. Full token IDs are
// 77-digit decimals and would dominate the message.
func shortToken(tokenID string) string {
	if len(tokenID) <= 12 {
		return tokenID
	}
	return tokenID[:8] + "..." + tokenID[len(tokenID)-4:]
}

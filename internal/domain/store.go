package domain

import "context"

// OpportunityStore persists emitted opportunities for post-session analysis.
type OpportunityStore interface {
	InsertOpportunity(ctx context.Context, opp Opportunity) error
	ListOpportunities(ctx context.Context, limit int) ([]Opportunity, error)
}

// TradeStore persists simulated trades and session summaries.
type TradeStore interface {
	InsertTrade(ctx context.Context, sessionID string, trade Trade) error
	ListTrades(ctx context.Context, sessionID string, limit int) ([]Trade, error)
	InsertSession(ctx context.Context, session TradingSession, metrics Metrics) error
}

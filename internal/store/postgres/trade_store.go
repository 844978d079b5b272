package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// InsertTrade persists one simulated trade under its session.
func (s *TradeStore) InsertTrade(ctx context.Context, sessionID string, trade domain.Trade) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trades (id, session_id, opportunity_id, kind, subject_id, requested_size, filled_size, outcome, realized_pnl, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		trade.ID, sessionID, trade.OpportunityID, string(trade.Kind), trade.SubjectID,
		trade.RequestedSize, trade.FilledSize, string(trade.Outcome), trade.RealizedPnL, trade.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade: %w", err)
	}
	return nil
}

// ListTrades returns a session's trades in execution order.
func (s *TradeStore) ListTrades(ctx context.Context, sessionID string, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, opportunity_id, kind, subject_id, requested_size, filled_size, outcome, realized_pnl, executed_at
		FROM trades WHERE session_id = $1 ORDER BY executed_at LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	var list []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var kind, outcome string
		if err := rows.Scan(&t.ID, &t.OpportunityID, &kind, &t.SubjectID,
			&t.RequestedSize, &t.FilledSize, &outcome, &t.RealizedPnL, &t.ExecutedAt); err != nil {
			return nil, err
		}
		t.Kind = domain.OpportunityKind(kind)
		t.Outcome = domain.TradeOutcome(outcome)
		list = append(list, t)
	}
	return list, rows.Err()
}

// InsertSession persists the final state and metrics of a finished session.
func (s *TradeStore) InsertSession(ctx context.Context, session domain.TradingSession, metrics domain.Metrics) error {
	var endTime interface{}
	if !session.EndTime.IsZero() {
		endTime = session.EndTime
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, start_time, end_time, initial_balance, final_balance,
			opportunities_seen, opportunities_executed, opportunities_skipped,
			total_trades, filled_trades, win_rate, total_pnl, avg_trade_pnl, max_drawdown, return_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			end_time = EXCLUDED.end_time,
			final_balance = EXCLUDED.final_balance,
			opportunities_seen = EXCLUDED.opportunities_seen,
			opportunities_executed = EXCLUDED.opportunities_executed,
			opportunities_skipped = EXCLUDED.opportunities_skipped,
			total_trades = EXCLUDED.total_trades,
			filled_trades = EXCLUDED.filled_trades,
			win_rate = EXCLUDED.win_rate,
			total_pnl = EXCLUDED.total_pnl,
			avg_trade_pnl = EXCLUDED.avg_trade_pnl,
			max_drawdown = EXCLUDED.max_drawdown,
			return_percent = EXCLUDED.return_percent`,
		session.ID, session.StartTime, endTime, session.InitialBalance, session.Balance,
		session.OpportunitiesSeen, session.OpportunitiesExecuted, session.OpportunitiesSkipped,
		metrics.TotalTrades, metrics.FilledTrades, metrics.WinRate, metrics.TotalPnL,
		metrics.AvgTradePnL, metrics.MaxDrawdown, metrics.ReturnPercent,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert session: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Legs are stored as a JSONB column; nothing queries into them.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// InsertOpportunity persists one emitted opportunity.
func (s *OpportunityStore) InsertOpportunity(ctx context.Context, opp domain.Opportunity) error {
	legs, err := json.Marshal(opp.Legs)
	if err != nil {
		return fmt.Errorf("postgres: marshal legs: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO opportunities (id, kind, subject_id, question, url, legs, profit_fraction, required_capital, available_liquidity, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		opp.ID, string(opp.Kind), opp.SubjectID, opp.Question, opp.URL, legs,
		opp.ProfitFraction, opp.RequiredCapital, opp.AvailableLiquidity, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity: %w", err)
	}
	return nil
}

// ListOpportunities returns the most recently detected opportunities.
func (s *OpportunityStore) ListOpportunities(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, subject_id, question, url, legs, profit_fraction, required_capital, available_liquidity, detected_at
		FROM opportunities ORDER BY detected_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var list []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var kind string
		var legs []byte
		if err := rows.Scan(&opp.ID, &kind, &opp.SubjectID, &opp.Question, &opp.URL, &legs,
			&opp.ProfitFraction, &opp.RequiredCapital, &opp.AvailableLiquidity, &opp.DetectedAt); err != nil {
			return nil, err
		}
		opp.Kind = domain.OpportunityKind(kind)
		if err := json.Unmarshal(legs, &opp.Legs); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal legs for %s: %w", opp.ID, err)
		}
		list = append(list, opp)
	}
	return list, rows.Err()
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/slipsmith/internal/database"
	"github.com/yourusername/slipsmith/internal/models"
)

// PostgresOutcomeRepository implements OutcomeRepository for PostgreSQL.
// The settled_outcomes table is written by the external settlement process;
// this core only reads it.
type PostgresOutcomeRepository struct {
	db *database.DB
}

// NewPostgresOutcomeRepository creates a new outcome repository
func NewPostgresOutcomeRepository(db *database.DB) OutcomeRepository {
	return &PostgresOutcomeRepository{db: db}
}

// GetSettledSince retrieves settled leg outcomes since the given time
func (r *PostgresOutcomeRepository) GetSettledSince(ctx context.Context, since time.Time) ([]*models.SettledOutcome, error) {
	query := `
		SELECT subject, category, side, line, result, engine, opponent_tier, settled_at
		FROM settled_outcomes
		WHERE settled_at >= $1
		ORDER BY settled_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*models.SettledOutcome
	for rows.Next() {
		o := &models.SettledOutcome{}
		err := rows.Scan(&o.Subject, &o.Category, &o.Side, &o.Line, &o.Result, &o.Engine, &o.OpponentTier, &o.SettledAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settled outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}

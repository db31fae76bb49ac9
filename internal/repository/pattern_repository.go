package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/slipsmith/internal/database"
	"github.com/yourusername/slipsmith/internal/models"
)

// PostgresPatternRepository implements PatternRepository for PostgreSQL
type PostgresPatternRepository struct {
	db *database.DB
}

// NewPostgresPatternRepository creates a new pattern repository
func NewPostgresPatternRepository(db *database.DB) PatternRepository {
	return &PostgresPatternRepository{db: db}
}

// GetActiveLossPatterns retrieves the loss patterns consulted by the scorer
func (r *PostgresPatternRepository) GetActiveLossPatterns(ctx context.Context) ([]*models.LossPattern, error) {
	query := `
		SELECT id, kind, key, hits, misses, penalty, mode, active, updated_at
		FROM loss_patterns
		WHERE active = true
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query loss patterns: %w", err)
	}
	defer rows.Close()

	var patterns []*models.LossPattern
	for rows.Next() {
		p := &models.LossPattern{}
		err := rows.Scan(&p.ID, &p.Kind, &p.Key, &p.Hits, &p.Misses, &p.Penalty, &p.Mode, &p.Active, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loss pattern: %w", err)
		}
		patterns = append(patterns, p)
	}

	return patterns, rows.Err()
}

// UpsertLossPattern inserts or updates a loss pattern keyed by (kind, key)
func (r *PostgresPatternRepository) UpsertLossPattern(ctx context.Context, p *models.LossPattern) error {
	query := `
		INSERT INTO loss_patterns (id, kind, key, hits, misses, penalty, mode, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (kind, key) DO UPDATE SET
			hits = EXCLUDED.hits, misses = EXCLUDED.misses, penalty = EXCLUDED.penalty,
			mode = EXCLUDED.mode, active = EXCLUDED.active, updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		p.ID, p.Kind, p.Key, p.Hits, p.Misses, p.Penalty, p.Mode, p.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert loss pattern: %w", err)
	}

	return nil
}

// GetActiveMatchupPatterns retrieves the matchup patterns consulted by the scorer
func (r *PostgresPatternRepository) GetActiveMatchupPatterns(ctx context.Context) ([]*models.MatchupPattern, error) {
	query := `
		SELECT id, category, side, opponent_tier, hits, misses, adjustment, boost, active, updated_at
		FROM matchup_patterns
		WHERE active = true
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query matchup patterns: %w", err)
	}
	defer rows.Close()

	var patterns []*models.MatchupPattern
	for rows.Next() {
		p := &models.MatchupPattern{}
		err := rows.Scan(&p.ID, &p.Category, &p.Side, &p.OpponentTier, &p.Hits, &p.Misses, &p.Adjustment, &p.Boost, &p.Active, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matchup pattern: %w", err)
		}
		patterns = append(patterns, p)
	}

	return patterns, rows.Err()
}

// UpsertMatchupPattern inserts or updates a matchup pattern keyed by
// (category, side, opponent_tier)
func (r *PostgresPatternRepository) UpsertMatchupPattern(ctx context.Context, p *models.MatchupPattern) error {
	query := `
		INSERT INTO matchup_patterns (id, category, side, opponent_tier, hits, misses, adjustment, boost, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (category, side, opponent_tier) DO UPDATE SET
			hits = EXCLUDED.hits, misses = EXCLUDED.misses, adjustment = EXCLUDED.adjustment,
			boost = EXCLUDED.boost, active = EXCLUDED.active, updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		p.ID, p.Category, p.Side, p.OpponentTier, p.Hits, p.Misses, p.Adjustment, p.Boost, p.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert matchup pattern: %w", err)
	}

	return nil
}

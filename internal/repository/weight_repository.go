package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/slipsmith/internal/database"
	"github.com/yourusername/slipsmith/internal/models"
)

// PostgresWeightRepository implements WeightRepository for PostgreSQL
type PostgresWeightRepository struct {
	db *database.DB
}

// NewPostgresWeightRepository creates a new category weight repository
func NewPostgresWeightRepository(db *database.DB) WeightRepository {
	return &PostgresWeightRepository{db: db}
}

const weightColumns = `category, side, weight, raw_hit_rate, recency_hit_rate, smoothed_hit_rate,
	       sample_count, current_streak, best_streak, worst_streak, blocked, block_reason,
	       regime_multiplier, updated_at`

// GetAll retrieves every category weight record
func (r *PostgresWeightRepository) GetAll(ctx context.Context) ([]*models.CategoryWeight, error) {
	query := fmt.Sprintf(`SELECT %s FROM category_weights ORDER BY category, side`, weightColumns)

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category weights: %w", err)
	}
	defer rows.Close()

	return scanWeights(rows)
}

// Get retrieves the weight record for one (category, side) pair
func (r *PostgresWeightRepository) Get(ctx context.Context, category string, side models.Side) (*models.CategoryWeight, error) {
	query := fmt.Sprintf(`SELECT %s FROM category_weights WHERE category = $1 AND side = $2`, weightColumns)

	weight, err := scanWeight(r.db.GetPool().QueryRow(ctx, query, category, side))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category weight: %w", err)
	}

	return weight, nil
}

// Upsert inserts or updates a weight record keyed by (category, side)
func (r *PostgresWeightRepository) Upsert(ctx context.Context, w *models.CategoryWeight) error {
	query := `
		INSERT INTO category_weights (category, side, weight, raw_hit_rate, recency_hit_rate,
		                              smoothed_hit_rate, sample_count, current_streak, best_streak,
		                              worst_streak, blocked, block_reason, regime_multiplier, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (category, side) DO UPDATE SET
			weight = EXCLUDED.weight, raw_hit_rate = EXCLUDED.raw_hit_rate,
			recency_hit_rate = EXCLUDED.recency_hit_rate, smoothed_hit_rate = EXCLUDED.smoothed_hit_rate,
			sample_count = EXCLUDED.sample_count, current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak, worst_streak = EXCLUDED.worst_streak,
			blocked = EXCLUDED.blocked, block_reason = EXCLUDED.block_reason,
			regime_multiplier = EXCLUDED.regime_multiplier, updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		w.Category, w.Side, w.Weight, w.RawHitRate, w.RecencyHitRate,
		w.SmoothedHitRate, w.SampleCount, w.CurrentStreak, w.BestStreak,
		w.WorstStreak, w.Blocked, w.BlockReason, w.RegimeMultiplier,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert category weight: %w", err)
	}

	return nil
}

// GetBlocked retrieves the weight records currently blocked from selection
func (r *PostgresWeightRepository) GetBlocked(ctx context.Context) ([]*models.CategoryWeight, error) {
	query := fmt.Sprintf(`SELECT %s FROM category_weights WHERE blocked = true`, weightColumns)

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked categories: %w", err)
	}
	defer rows.Close()

	return scanWeights(rows)
}

func scanWeight(row rowScanner) (*models.CategoryWeight, error) {
	w := &models.CategoryWeight{}
	err := row.Scan(
		&w.Category, &w.Side, &w.Weight, &w.RawHitRate, &w.RecencyHitRate, &w.SmoothedHitRate,
		&w.SampleCount, &w.CurrentStreak, &w.BestStreak, &w.WorstStreak, &w.Blocked, &w.BlockReason,
		&w.RegimeMultiplier, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func scanWeights(rows pgx.Rows) ([]*models.CategoryWeight, error) {
	var weights []*models.CategoryWeight
	for rows.Next() {
		w, err := scanWeight(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category weight: %w", err)
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}

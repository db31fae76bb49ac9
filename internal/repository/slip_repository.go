package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yourusername/slipsmith/internal/database"
	"github.com/yourusername/slipsmith/internal/models"
)

// PostgreSQL unique_violation error code
const uniqueViolationCode = "23505"

// PostgresSlipRepository implements SlipRepository for PostgreSQL
type PostgresSlipRepository struct {
	db *database.DB
}

// NewPostgresSlipRepository creates a new slip repository
func NewPostgresSlipRepository(db *database.DB) SlipRepository {
	return &PostgresSlipRepository{db: db}
}

const slipColumns = `id, cycle_id, legs, combined_probability, total_edge, variance_penalty,
	       diversity_bonus, pattern_penalty, matchup_adjustment, weight_adjustment, score, rank, tier,
	       combined_price, outcome, created_at, settled_at`

// Create inserts a new slip. Legs are stored as a JSONB document since they
// are immutable once the slip is finalized.
func (r *PostgresSlipRepository) Create(ctx context.Context, slip *models.Slip) error {
	legsJSON, err := json.Marshal(slip.Legs)
	if err != nil {
		return fmt.Errorf("failed to marshal slip legs: %w", err)
	}

	query := `
		INSERT INTO slips (id, cycle_id, legs, combined_probability, total_edge, variance_penalty,
		                   diversity_bonus, pattern_penalty, matchup_adjustment, weight_adjustment, score, rank, tier,
		                   combined_price, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		slip.ID, slip.CycleID, legsJSON, slip.CombinedProbability, slip.TotalEdge, slip.VariancePenalty,
		slip.DiversityBonus, slip.PatternPenalty, slip.MatchupAdjustment, slip.WeightAdjustment, slip.Score, slip.Rank, slip.Tier,
		slip.CombinedPrice, slip.Outcome, slip.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("failed to create slip: %w", models.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create slip: %w", err)
	}

	return nil
}

// GetByID retrieves a slip by ID
func (r *PostgresSlipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Slip, error) {
	query := fmt.Sprintf(`SELECT %s FROM slips WHERE id = $1`, slipColumns)

	slip, err := scanSlip(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slip: %w", err)
	}

	return slip, nil
}

// GetByCycleID retrieves all slips produced in one selection cycle
func (r *PostgresSlipRepository) GetByCycleID(ctx context.Context, cycleID uuid.UUID) ([]*models.Slip, error) {
	query := fmt.Sprintf(`SELECT %s FROM slips WHERE cycle_id = $1 ORDER BY rank ASC`, slipColumns)

	rows, err := r.db.GetPool().Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query slips by cycle: %w", err)
	}
	defer rows.Close()

	return scanSlips(rows)
}

// GetSettledSince retrieves all settled slips since the given time
func (r *PostgresSlipRepository) GetSettledSince(ctx context.Context, since time.Time) ([]*models.Slip, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM slips
		WHERE outcome IN ('win', 'loss') AND settled_at >= $1
		ORDER BY settled_at DESC
	`, slipColumns)

	rows, err := r.db.GetPool().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled slips: %w", err)
	}
	defer rows.Close()

	return scanSlips(rows)
}

// GetSettledByTierSince retrieves settled slips of one quality tier
func (r *PostgresSlipRepository) GetSettledByTierSince(ctx context.Context, tier models.SlipTier, since time.Time) ([]*models.Slip, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM slips
		WHERE tier = $1 AND outcome IN ('win', 'loss') AND settled_at >= $2
		ORDER BY settled_at DESC
	`, slipColumns)

	rows, err := r.db.GetPool().Query(ctx, query, tier, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query settled slips by tier: %w", err)
	}
	defer rows.Close()

	return scanSlips(rows)
}

// ExistsForPeriod reports whether any slip was already produced in the period
func (r *PostgresSlipRepository) ExistsForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM slips WHERE created_at >= $1 AND created_at < $2)`

	var exists bool
	if err := r.db.GetPool().QueryRow(ctx, query, periodStart, periodEnd).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slips for period: %w", err)
	}

	return exists, nil
}

// GetMostRecentCycle retrieves the slips of the most recently produced cycle
func (r *PostgresSlipRepository) GetMostRecentCycle(ctx context.Context) ([]*models.Slip, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM slips
		WHERE cycle_id = (SELECT cycle_id FROM slips ORDER BY created_at DESC LIMIT 1)
		ORDER BY rank ASC
	`, slipColumns)

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query most recent cycle: %w", err)
	}
	defer rows.Close()

	return scanSlips(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlip(row rowScanner) (*models.Slip, error) {
	slip := &models.Slip{}
	var legsJSON []byte

	err := row.Scan(
		&slip.ID, &slip.CycleID, &legsJSON, &slip.CombinedProbability, &slip.TotalEdge, &slip.VariancePenalty,
		&slip.DiversityBonus, &slip.PatternPenalty, &slip.MatchupAdjustment, &slip.WeightAdjustment, &slip.Score, &slip.Rank, &slip.Tier,
		&slip.CombinedPrice, &slip.Outcome, &slip.CreatedAt, &slip.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(legsJSON, &slip.Legs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slip legs: %w", err)
	}

	return slip, nil
}

func scanSlips(rows pgx.Rows) ([]*models.Slip, error) {
	var slips []*models.Slip
	for rows.Next() {
		slip, err := scanSlip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slip: %w", err)
		}
		slips = append(slips, slip)
	}
	return slips, rows.Err()
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/slipsmith/internal/database"
	"github.com/yourusername/slipsmith/internal/models"
)

// PostgresAdaptationRepository implements AdaptationRepository for PostgreSQL
type PostgresAdaptationRepository struct {
	db *database.DB
}

// NewPostgresAdaptationRepository creates a new adaptation state repository
func NewPostgresAdaptationRepository(db *database.DB) AdaptationRepository {
	return &PostgresAdaptationRepository{db: db}
}

// Create appends one adaptation state record. The history is append-only;
// there is no update path.
func (r *PostgresAdaptationRepository) Create(ctx context.Context, state *models.AdaptationState) error {
	gatesJSON, err := json.Marshal(state.Gates)
	if err != nil {
		return fmt.Errorf("failed to marshal gates: %w", err)
	}
	correlationsJSON, err := json.Marshal(state.Correlations)
	if err != nil {
		return fmt.Errorf("failed to marshal correlations: %w", err)
	}
	stagesJSON, err := json.Marshal(state.StageResults)
	if err != nil {
		return fmt.Errorf("failed to marshal stage results: %w", err)
	}

	query := `
		INSERT INTO adaptation_states (id, regime, regime_confidence, gates, correlations,
		                               recommended_size, trailing_win_rate, stage_results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		state.ID, state.Regime, state.RegimeConfidence, gatesJSON, correlationsJSON,
		state.RecommendedSize, state.TrailingWinRate, stagesJSON, state.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create adaptation state: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recently committed adaptation state. The
// selector always reads latest-committed; there is no cross-process locking.
func (r *PostgresAdaptationRepository) GetLatest(ctx context.Context) (*models.AdaptationState, error) {
	query := `
		SELECT id, regime, regime_confidence, gates, correlations, recommended_size,
		       trailing_win_rate, stage_results, created_at
		FROM adaptation_states
		ORDER BY created_at DESC
		LIMIT 1
	`

	state, err := scanAdaptationState(r.db.GetPool().QueryRow(ctx, query))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest adaptation state: %w", err)
	}

	return state, nil
}

// GetHistory retrieves recent adaptation states, newest first
func (r *PostgresAdaptationRepository) GetHistory(ctx context.Context, limit int) ([]*models.AdaptationState, error) {
	query := `
		SELECT id, regime, regime_confidence, gates, correlations, recommended_size,
		       trailing_win_rate, stage_results, created_at
		FROM adaptation_states
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query adaptation history: %w", err)
	}
	defer rows.Close()

	var states []*models.AdaptationState
	for rows.Next() {
		state, err := scanAdaptationState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adaptation state: %w", err)
		}
		states = append(states, state)
	}

	return states, rows.Err()
}

func scanAdaptationState(row rowScanner) (*models.AdaptationState, error) {
	state := &models.AdaptationState{}
	var gatesJSON, correlationsJSON, stagesJSON []byte

	err := row.Scan(
		&state.ID, &state.Regime, &state.RegimeConfidence, &gatesJSON, &correlationsJSON,
		&state.RecommendedSize, &state.TrailingWinRate, &stagesJSON, &state.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(gatesJSON, &state.Gates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gates: %w", err)
	}
	if len(correlationsJSON) > 0 {
		if err := json.Unmarshal(correlationsJSON, &state.Correlations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal correlations: %w", err)
		}
	}
	if len(stagesJSON) > 0 {
		if err := json.Unmarshal(stagesJSON, &state.StageResults); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stage results: %w", err)
		}
	}

	return state, nil
}

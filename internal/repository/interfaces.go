// Package repository provides data access interfaces and PostgreSQL implementations.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/slipsmith/internal/models"
)

// SlipRepository persists produced slips and reads settlement history
type SlipRepository interface {
	Create(ctx context.Context, slip *models.Slip) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Slip, error)
	GetByCycleID(ctx context.Context, cycleID uuid.UUID) ([]*models.Slip, error)
	GetSettledSince(ctx context.Context, since time.Time) ([]*models.Slip, error)
	GetSettledByTierSince(ctx context.Context, tier models.SlipTier, since time.Time) ([]*models.Slip, error)
	ExistsForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (bool, error)
	GetMostRecentCycle(ctx context.Context) ([]*models.Slip, error)
}

// OutcomeRepository reads settled leg outcomes written by the external
// settlement collaborator
type OutcomeRepository interface {
	GetSettledSince(ctx context.Context, since time.Time) ([]*models.SettledOutcome, error)
}

// WeightRepository persists per-(category, side) calibration state
type WeightRepository interface {
	GetAll(ctx context.Context) ([]*models.CategoryWeight, error)
	Get(ctx context.Context, category string, side models.Side) (*models.CategoryWeight, error)
	Upsert(ctx context.Context, weight *models.CategoryWeight) error
	GetBlocked(ctx context.Context) ([]*models.CategoryWeight, error)
}

// PatternRepository persists learned loss and matchup patterns
type PatternRepository interface {
	GetActiveLossPatterns(ctx context.Context) ([]*models.LossPattern, error)
	UpsertLossPattern(ctx context.Context, pattern *models.LossPattern) error
	GetActiveMatchupPatterns(ctx context.Context) ([]*models.MatchupPattern, error)
	UpsertMatchupPattern(ctx context.Context, pattern *models.MatchupPattern) error
}

// AdaptationRepository persists the append-only calibration state history
type AdaptationRepository interface {
	Create(ctx context.Context, state *models.AdaptationState) error
	GetLatest(ctx context.Context) (*models.AdaptationState, error)
	GetHistory(ctx context.Context, limit int) ([]*models.AdaptationState, error)
}

// Repositories bundles all repositories for dependency injection
type Repositories struct {
	Slip       SlipRepository
	Outcome    OutcomeRepository
	Weight     WeightRepository
	Pattern    PatternRepository
	Adaptation AdaptationRepository
}

package calibration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/models"
	"github.com/yourusername/slipsmith/internal/repository"
)

// MockSlipRepository mocks slip persistence
type MockSlipRepository struct {
	mock.Mock
}

func (m *MockSlipRepository) Create(ctx context.Context, slip *models.Slip) error {
	args := m.Called(ctx, slip)
	return args.Error(0)
}

func (m *MockSlipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Slip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Slip), args.Error(1)
}

func (m *MockSlipRepository) GetByCycleID(ctx context.Context, cycleID uuid.UUID) ([]*models.Slip, error) {
	args := m.Called(ctx, cycleID)
	return args.Get(0).([]*models.Slip), args.Error(1)
}

func (m *MockSlipRepository) GetSettledSince(ctx context.Context, since time.Time) ([]*models.Slip, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]*models.Slip), args.Error(1)
}

func (m *MockSlipRepository) GetSettledByTierSince(ctx context.Context, tier models.SlipTier, since time.Time) ([]*models.Slip, error) {
	args := m.Called(ctx, tier, since)
	return args.Get(0).([]*models.Slip), args.Error(1)
}

func (m *MockSlipRepository) ExistsForPeriod(ctx context.Context, periodStart, periodEnd time.Time) (bool, error) {
	args := m.Called(ctx, periodStart, periodEnd)
	return args.Bool(0), args.Error(1)
}

func (m *MockSlipRepository) GetMostRecentCycle(ctx context.Context) ([]*models.Slip, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Slip), args.Error(1)
}

// MockOutcomeRepository mocks settled outcome reads
type MockOutcomeRepository struct {
	mock.Mock
}

func (m *MockOutcomeRepository) GetSettledSince(ctx context.Context, since time.Time) ([]*models.SettledOutcome, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]*models.SettledOutcome), args.Error(1)
}

// MockWeightRepository mocks category weight persistence
type MockWeightRepository struct {
	mock.Mock
}

func (m *MockWeightRepository) GetAll(ctx context.Context) ([]*models.CategoryWeight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.CategoryWeight), args.Error(1)
}

func (m *MockWeightRepository) Get(ctx context.Context, category string, side models.Side) (*models.CategoryWeight, error) {
	args := m.Called(ctx, category, side)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CategoryWeight), args.Error(1)
}

func (m *MockWeightRepository) Upsert(ctx context.Context, weight *models.CategoryWeight) error {
	args := m.Called(ctx, weight)
	return args.Error(0)
}

func (m *MockWeightRepository) GetBlocked(ctx context.Context) ([]*models.CategoryWeight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.CategoryWeight), args.Error(1)
}

// MockPatternRepository mocks pattern persistence
type MockPatternRepository struct {
	mock.Mock
}

func (m *MockPatternRepository) GetActiveLossPatterns(ctx context.Context) ([]*models.LossPattern, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.LossPattern), args.Error(1)
}

func (m *MockPatternRepository) UpsertLossPattern(ctx context.Context, pattern *models.LossPattern) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func (m *MockPatternRepository) GetActiveMatchupPatterns(ctx context.Context) ([]*models.MatchupPattern, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.MatchupPattern), args.Error(1)
}

func (m *MockPatternRepository) UpsertMatchupPattern(ctx context.Context, pattern *models.MatchupPattern) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

// MockAdaptationRepository mocks the append-only state history
type MockAdaptationRepository struct {
	mock.Mock
}

func (m *MockAdaptationRepository) Create(ctx context.Context, state *models.AdaptationState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockAdaptationRepository) GetLatest(ctx context.Context) (*models.AdaptationState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdaptationState), args.Error(1)
}

func (m *MockAdaptationRepository) GetHistory(ctx context.Context, limit int) ([]*models.AdaptationState, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*models.AdaptationState), args.Error(1)
}

func testLoopConfig() *config.Config {
	return &config.Config{
		Gates: config.GatesConfig{
			MinEdge:         config.GateBand{Initial: 0.03, Floor: 0.01, Ceiling: 0.10, Step: 0.005},
			MinHitRate:      config.GateBand{Initial: 0.52, Floor: 0.45, Ceiling: 0.65, Step: 0.01},
			MinScore:        config.GateBand{Initial: -2.5, Floor: -4.0, Ceiling: -1.0, Step: 0.1},
			MinCombinedProb: config.GateBand{Initial: 0.15, Floor: 0.08, Ceiling: 0.30, Step: 0.01},
		},
		Calibration: testCalibConfig(),
	}
}

func newLoopFixture() (*Loop, *MockSlipRepository, *MockOutcomeRepository, *MockWeightRepository, *MockPatternRepository, *MockAdaptationRepository) {
	slipRepo := new(MockSlipRepository)
	outcomeRepo := new(MockOutcomeRepository)
	weightRepo := new(MockWeightRepository)
	patternRepo := new(MockPatternRepository)
	adaptationRepo := new(MockAdaptationRepository)

	repos := &repository.Repositories{
		Slip:       slipRepo,
		Outcome:    outcomeRepo,
		Weight:     weightRepo,
		Pattern:    patternRepo,
		Adaptation: adaptationRepo,
	}

	loop := NewLoop(repos, testLoopConfig(), nil, testLogger())
	return loop, slipRepo, outcomeRepo, weightRepo, patternRepo, adaptationRepo
}

func TestLoopRunEmptyHistory(t *testing.T) {
	loop, slipRepo, outcomeRepo, _, _, adaptationRepo := newLoopFixture()
	ctx := context.Background()

	outcomeRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.SettledOutcome{}, nil)
	slipRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.Slip{}, nil)
	slipRepo.On("GetSettledByTierSince", ctx, models.SlipTierPrimary, mock.Anything).Return([]*models.Slip{}, nil)
	adaptationRepo.On("GetLatest", ctx).Return(nil, models.ErrNotFound)
	adaptationRepo.On("Create", ctx, mock.Anything).Return(nil)

	state, err := loop.Run(ctx)
	require.NoError(t, err)

	for _, r := range state.StageResults {
		assert.True(t, r.OK, "stage %s should succeed on empty history", r.Stage)
	}
	assert.Equal(t, models.RegimeNormal, state.Regime)
	assert.Equal(t, 0, state.RecommendedSize)

	// No history means gates hold at their initial values
	assert.Equal(t, InitialGates(testLoopConfig().Gates), state.Gates)
	adaptationRepo.AssertCalled(t, "Create", ctx, mock.Anything)
}

func TestLoopRunSmoothsAndUpsertsWeights(t *testing.T) {
	loop, slipRepo, outcomeRepo, weightRepo, patternRepo, adaptationRepo := newLoopFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	outcomes := outcomeBatch("points", models.SideOver, 6, 4)
	for i := range outcomes {
		// Spread settle times so the chronological streak replay matters
		outcomes[i].SettledAt = now.AddDate(0, 0, -len(outcomes)+i)
	}

	outcomeRepo.On("GetSettledSince", ctx, mock.Anything).Return(outcomes, nil)
	slipRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.Slip{}, nil)
	slipRepo.On("GetSettledByTierSince", ctx, models.SlipTierPrimary, mock.Anything).Return([]*models.Slip{}, nil)
	weightRepo.On("Get", ctx, "points", models.SideOver).Return(nil, models.ErrNotFound)

	var saved *models.CategoryWeight
	weightRepo.On("Upsert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*models.CategoryWeight)
	}).Return(nil)
	patternRepo.On("UpsertLossPattern", ctx, mock.Anything).Return(nil)
	adaptationRepo.On("GetLatest", ctx).Return(nil, models.ErrNotFound)
	adaptationRepo.On("Create", ctx, mock.Anything).Return(nil)

	state, err := loop.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, 10, saved.SampleCount)
	assert.InDelta(t, 0.6, saved.RawHitRate, 1e-9)

	// Smoothed toward the low-volatility prior of 0.55 with strength 20
	expected := (0.55*20 + 6) / (20 + 10)
	assert.InDelta(t, expected, saved.SmoothedHitRate, 1e-9)
	assert.InDelta(t, expected*2, saved.Weight, 1e-9)
	assert.False(t, saved.Blocked)

	assert.False(t, state.StageFailed("bayesian_smoothing"))
}

func TestLoopStageFailureDoesNotAbortRun(t *testing.T) {
	loop, slipRepo, outcomeRepo, _, _, adaptationRepo := newLoopFixture()
	ctx := context.Background()

	outcomeRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.SettledOutcome{}, assert.AnError)
	slipRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.Slip{}, nil)
	slipRepo.On("GetSettledByTierSince", ctx, models.SlipTierPrimary, mock.Anything).Return([]*models.Slip{}, nil)
	adaptationRepo.On("GetLatest", ctx).Return(nil, models.ErrNotFound)
	adaptationRepo.On("Create", ctx, mock.Anything).Return(nil)

	state, err := loop.Run(ctx)
	require.NoError(t, err, "a stage failure is recorded, not returned")
	assert.True(t, state.StageFailed("load_history"))
	assert.False(t, state.StageFailed("gate_tuning"))
	adaptationRepo.AssertCalled(t, "Create", ctx, mock.Anything)
}

func TestLoopStateWriteFailureReturnsError(t *testing.T) {
	loop, slipRepo, outcomeRepo, _, _, adaptationRepo := newLoopFixture()
	ctx := context.Background()

	outcomeRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.SettledOutcome{}, nil)
	slipRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.Slip{}, nil)
	slipRepo.On("GetSettledByTierSince", ctx, models.SlipTierPrimary, mock.Anything).Return([]*models.Slip{}, nil)
	adaptationRepo.On("GetLatest", ctx).Return(nil, models.ErrNotFound)
	adaptationRepo.On("Create", ctx, mock.Anything).Return(assert.AnError)

	_, err := loop.Run(ctx)
	assert.Error(t, err)
}

func TestLoopBlocksCategoryAndAuditsTransition(t *testing.T) {
	log, hook := logrustest.NewNullLogger()

	slipRepo := new(MockSlipRepository)
	outcomeRepo := new(MockOutcomeRepository)
	weightRepo := new(MockWeightRepository)
	patternRepo := new(MockPatternRepository)
	adaptationRepo := new(MockAdaptationRepository)
	repos := &repository.Repositories{
		Slip:       slipRepo,
		Outcome:    outcomeRepo,
		Weight:     weightRepo,
		Pattern:    patternRepo,
		Adaptation: adaptationRepo,
	}
	loop := NewLoop(repos, testLoopConfig(), nil, log)
	ctx := context.Background()

	// Two wins in thirty samples smooths well below the block floor
	outcomes := outcomeBatch("points", models.SideOver, 2, 28)

	outcomeRepo.On("GetSettledSince", ctx, mock.Anything).Return(outcomes, nil)
	slipRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.Slip{}, nil)
	slipRepo.On("GetSettledByTierSince", ctx, models.SlipTierPrimary, mock.Anything).Return([]*models.Slip{}, nil)
	weightRepo.On("Get", ctx, "points", models.SideOver).Return(nil, models.ErrNotFound)

	var saved *models.CategoryWeight
	weightRepo.On("Upsert", ctx, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*models.CategoryWeight)
	}).Return(nil)
	patternRepo.On("UpsertLossPattern", ctx, mock.Anything).Return(nil)
	adaptationRepo.On("GetLatest", ctx).Return(nil, models.ErrNotFound)
	adaptationRepo.On("Create", ctx, mock.Anything).Return(nil)

	_, err := loop.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.True(t, saved.Blocked)
	assert.NotEmpty(t, saved.BlockReason)

	var audited bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Category block state changed" {
			audited = true
			assert.Equal(t, "points", entry.Data["category"])
			assert.Equal(t, true, entry.Data["blocked"])
		}
	}
	assert.True(t, audited, "block transition must hit the audit trail")
}

func TestLoopGateTuningUsesPreviousState(t *testing.T) {
	loop, slipRepo, outcomeRepo, _, _, adaptationRepo := newLoopFixture()
	ctx := context.Background()

	// Twenty settled primary losses push the gates one tightening step
	// from the previous cycle's values.
	losing := make([]*models.Slip, 0, 20)
	for i := 0; i < 20; i++ {
		losing = append(losing, &models.Slip{
			Legs:    []models.CandidateLeg{{NormalizedSubject: "a"}, {NormalizedSubject: "b"}},
			Tier:    models.SlipTierPrimary,
			Outcome: models.SlipOutcomeLoss,
		})
	}

	prev := &models.AdaptationState{
		Gates: models.Gates{MinEdge: 0.05, MinHitRate: 0.55, MinScore: -2.0, MinCombinedProb: 0.20},
	}

	outcomeRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.SettledOutcome{}, nil)
	slipRepo.On("GetSettledSince", ctx, mock.Anything).Return([]*models.Slip{}, nil)
	slipRepo.On("GetSettledByTierSince", ctx, models.SlipTierPrimary, mock.Anything).Return(losing, nil)
	adaptationRepo.On("GetLatest", ctx).Return(prev, nil)
	adaptationRepo.On("Create", ctx, mock.Anything).Return(nil)

	state, err := loop.Run(ctx)
	require.NoError(t, err)

	assert.InDelta(t, 0.055, state.Gates.MinEdge, 1e-9)
	assert.InDelta(t, 0.56, state.Gates.MinHitRate, 1e-9)
	assert.InDelta(t, -1.9, state.Gates.MinScore, 1e-9)
	assert.InDelta(t, 0.21, state.Gates.MinCombinedProb, 1e-9)
	assert.Equal(t, 0.0, state.TrailingWinRate)
}

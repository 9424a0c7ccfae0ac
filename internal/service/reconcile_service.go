package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"playlearn/internal/models"
	"playlearn/internal/progression"
	"playlearn/internal/repository"
)

// Drift is a child whose stored aggregates disagree with the progress log
type Drift struct {
	ChildID       int64 `json:"childId"`
	StoredXP      int   `json:"storedXp"`
	LoggedXP      int   `json:"loggedXp"`
	StoredCoins   int   `json:"storedCoins"`
	LoggedCoins   int   `json:"loggedCoins"`
	Level         int   `json:"level"`
	ExpectedLevel int   `json:"expectedLevel"`
}

// ReconcileReport is the result of one reconciliation pass
type ReconcileReport struct {
	CheckedAt       time.Time `json:"checkedAt"`
	ChildrenChecked int       `json:"childrenChecked"`
	Drifts          []Drift   `json:"drifts"`
}

// ReconcileService compares child aggregates against the append-only
// progress log. It reports drift and never rewrites either side.
type ReconcileService struct {
	childRepo    *repository.ChildRepository
	progressRepo *repository.ProgressRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(childRepo *repository.ChildRepository, progressRepo *repository.ProgressRepository, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{
		childRepo:    childRepo,
		progressRepo: progressRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Run checks every child once
func (s *ReconcileService) Run(ctx context.Context) (*ReconcileReport, error) {
	children, err := s.childRepo.GetAllChildren()
	if err != nil {
		return nil, fmt.Errorf("failed to load children: %w", err)
	}
	totals, err := s.progressRepo.SumRewardsByChild()
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{
		CheckedAt: s.now().UTC(),
		Drifts:    []Drift{},
	}

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.ChildrenChecked++

		if drift, ok := checkDrift(child, totals[child.ID]); ok {
			report.Drifts = append(report.Drifts, drift)
			s.logger.Warn("Child aggregates drifted from progress log",
				zap.Int64("child_id", drift.ChildID),
				zap.Int("stored_xp", drift.StoredXP),
				zap.Int("logged_xp", drift.LoggedXP),
				zap.Int("stored_coins", drift.StoredCoins),
				zap.Int("logged_coins", drift.LoggedCoins),
				zap.Int("level", drift.Level),
				zap.Int("expected_level", drift.ExpectedLevel),
			)
		}
	}

	s.logger.Info("Reconciliation finished",
		zap.Int("children_checked", report.ChildrenChecked),
		zap.Int("drifts", len(report.Drifts)),
	)
	return report, nil
}

func checkDrift(child models.Child, logged models.RewardTotals) (Drift, bool) {
	expectedLevel := progression.LevelForXP(child.XP)
	if child.XP == logged.XP && child.Coins == logged.Coins && child.Level == expectedLevel {
		return Drift{}, false
	}
	return Drift{
		ChildID:       child.ID,
		StoredXP:      child.XP,
		LoggedXP:      logged.XP,
		StoredCoins:   child.Coins,
		LoggedCoins:   logged.Coins,
		Level:         child.Level,
		ExpectedLevel: expectedLevel,
	}, true
}

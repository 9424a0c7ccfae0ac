package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"playlearn/internal/database"
	"playlearn/internal/models"
	"playlearn/internal/progression"
	"playlearn/internal/repository"
	"playlearn/internal/validation"
)

// maxSettlementAttempts bounds how often a settlement is replayed after a
// version conflict.
const maxSettlementAttempts = 4

// PlayStatus tells the client whether a child may start a game right now
type PlayStatus struct {
	Child            *models.Child           `json:"child"`
	Game             *models.Game            `json:"game"`
	CanPlay          bool                    `json:"canPlay"`
	MinutesLeftToday float64                 `json:"minutesLeftToday"`
	Reason           string                  `json:"reason"`
	IsPremium        bool                    `json:"isPremium"`
	CompletedLevels  []models.CompletedLevel `json:"completedLevels"`
}

// SubmitRequest is one finished game round reported by the client
type SubmitRequest struct {
	ChildID          int64           `json:"childId" validate:"required,gt=0"`
	GameSlug         string          `json:"gameSlug" validate:"required,max=128"`
	Score            int             `json:"score" validate:"gte=0"`
	Accuracy         float64         `json:"accuracy" validate:"gte=0,lte=100"`
	TimeSpentSeconds int             `json:"timeSpentSeconds" validate:"gte=0,lte=86400"`
	GameLevel        int             `json:"gameLevel" validate:"gte=0"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

// RewardSummary describes what a settled round earned
type RewardSummary struct {
	XP                int                  `json:"xp"`
	Coins             int                  `json:"coins"`
	LevelUp           bool                 `json:"levelUp"`
	PreviousLevel     int                  `json:"previousLevel"`
	NewLevel          int                  `json:"newLevel"`
	NewAchievements   []models.Achievement `json:"newAchievements"`
	IsReplay          bool                 `json:"isReplay"`
	DailyBonusApplied bool                 `json:"dailyBonusApplied"`
}

// SubmitResult is the outcome of a settled round
type SubmitResult struct {
	Progress *models.Progress `json:"progress"`
	Child    *models.Child    `json:"child"`
	Rewards  RewardSummary    `json:"rewards"`
}

// SettlementService applies game results to a child's gamification state
type SettlementService struct {
	db              *database.DB
	childRepo       *repository.ChildRepository
	userRepo        *repository.UserRepository
	progressRepo    *repository.ProgressRepository
	completedRepo   *repository.CompletedLevelRepository
	achievementRepo *repository.AchievementRepository
	catalog         *CatalogService
	logger          *zap.Logger

	now          func() time.Time
	retryBackoff func() backoff.BackOff
}

// NewSettlementService creates a new settlement service
func NewSettlementService(db *database.DB, catalog *CatalogService, logger *zap.Logger) *SettlementService {
	return &SettlementService{
		db:              db,
		childRepo:       repository.NewChildRepository(db),
		userRepo:        repository.NewUserRepository(db),
		progressRepo:    repository.NewProgressRepository(db),
		completedRepo:   repository.NewCompletedLevelRepository(db),
		achievementRepo: repository.NewAchievementRepository(db),
		catalog:         catalog,
		logger:          logger,
		now:             time.Now,
		retryBackoff:    defaultRetryBackoff,
	}
}

func defaultRetryBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return b
}

// PlayStatus reports whether the child may play gameSlug now. A pending
// daily reset is persisted before the budget is read.
func (s *SettlementService) PlayStatus(ctx context.Context, actor Actor, childID int64, gameSlug string) (*PlayStatus, error) {
	if gameSlug == "" {
		return nil, &validation.Error{Fields: []validation.FieldError{{Field: "gameSlug", Message: "is required"}}}
	}

	game, err := s.catalog.GameBySlug(ctx, gameSlug)
	if err != nil {
		return nil, err
	}

	var child *models.Child
	err = s.withRetry(ctx, func() error {
		c, err := s.loadChild(s.childRepo, actor, childID)
		if err != nil {
			return err
		}
		if progression.EnsureDailyReset(c, s.now()) {
			if err := s.childRepo.UpdateAggregates(c); err != nil {
				return err
			}
		}
		child = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	premium, err := s.isPremium(s.userRepo, child)
	if err != nil {
		return nil, err
	}

	completed, err := s.completedRepo.GetChildCompletedLevels(child.ID, game.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed levels: %w", err)
	}

	status := &PlayStatus{
		Child:            child,
		Game:             game,
		CanPlay:          true,
		MinutesLeftToday: progression.MinutesLeft(child, premium),
		IsPremium:        premium,
		CompletedLevels:  completed.ForGame(game.Slug),
	}

	switch {
	case game.IsPremium && !premium:
		status.CanPlay = false
		status.Reason = progression.CodePremiumRequired
	case status.MinutesLeftToday <= 0:
		status.CanPlay = false
		status.Reason = progression.CodeDailyLimitReached
	}

	return status, nil
}

// SubmitProgress settles one game round. The whole settlement runs in a
// single transaction guarded by the child's version and is replayed from a
// fresh read when another settlement for the same child commits first.
func (s *SettlementService) SubmitProgress(ctx context.Context, actor Actor, req SubmitRequest) (*SubmitResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.GameLevel == 0 {
		req.GameLevel = 1
	}

	game, err := s.catalog.GameBySlug(ctx, req.GameSlug)
	if err != nil {
		return nil, err
	}
	if req.GameLevel > game.MaxLevel {
		return nil, &validation.Error{Fields: []validation.FieldError{{
			Field:   "gameLevel",
			Message: fmt.Sprintf("must be at most %d", game.MaxLevel),
		}}}
	}

	achievements, err := s.catalog.Achievements(ctx)
	if err != nil {
		return nil, err
	}

	var result *SubmitResult
	err = s.withRetry(ctx, func() error {
		r, err := s.settle(actor, req, game, achievements)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Rewards.LevelUp {
		s.logger.Info("Child leveled up",
			zap.Int64("child_id", result.Child.ID),
			zap.Int("previous_level", result.Rewards.PreviousLevel),
			zap.Int("new_level", result.Rewards.NewLevel),
		)
	}
	for _, a := range result.Rewards.NewAchievements {
		s.logger.Info("Achievement unlocked",
			zap.Int64("child_id", result.Child.ID),
			zap.String("achievement", a.Slug),
		)
	}

	return result, nil
}

// CompletedLevels lists a child's completed levels, for one game when
// gameSlug is set or for all games otherwise.
func (s *SettlementService) CompletedLevels(ctx context.Context, actor Actor, childID int64, gameSlug string) ([]models.CompletedLevel, error) {
	child, err := s.loadChild(s.childRepo, actor, childID)
	if err != nil {
		return nil, err
	}

	completed, err := s.completedRepo.GetChildCompletedLevels(child.ID, gameSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed levels: %w", err)
	}
	if gameSlug != "" {
		return completed.ForGame(gameSlug), nil
	}
	return completed.All(), nil
}

func (s *SettlementService) settle(actor Actor, req SubmitRequest, game *models.Game, achievements []models.Achievement) (*SubmitResult, error) {
	now := s.now()
	var result *SubmitResult

	err := s.db.WithTx(func(tx *database.Tx) error {
		childRepo := s.childRepo.WithTx(tx)
		progressRepo := s.progressRepo.WithTx(tx)
		completedRepo := s.completedRepo.WithTx(tx)
		achievementRepo := s.achievementRepo.WithTx(tx)

		child, err := s.loadChild(childRepo, actor, req.ChildID)
		if err != nil {
			return err
		}

		premium, err := s.isPremium(s.userRepo.WithTx(tx), child)
		if err != nil {
			return err
		}

		progression.EnsureDailyReset(child, now)

		completed, err := completedRepo.GetChildCompletedLevels(child.ID, game.Slug)
		if err != nil {
			return fmt.Errorf("failed to get completed levels: %w", err)
		}

		if err := progression.CheckLevelAccess(progression.GateRequest{
			GameSlug:        game.Slug,
			GameLevel:       req.GameLevel,
			Premium:         premium,
			GamePremiumOnly: game.IsPremium,
			Completed:       completed,
		}); err != nil {
			return err
		}

		isReplay := completed.Has(game.Slug, req.GameLevel)
		// The first submission of the day consumes the bonus even when it is
		// a replay that earns nothing.
		firstToday := progression.IsFirstToday(child, now)
		if firstToday {
			progression.MarkDailyBonus(child, now)
		}
		reward := progression.ComputeReward(game.Rewards, req.GameLevel, req.Accuracy, isReplay, firstToday)

		charged := progression.ChargeMinutes(child, req.TimeSpentSeconds, premium)
		progression.UpdateStreak(child, now)

		previousLevel := child.Level
		child.XP += reward.XP
		child.Coins += reward.Coins
		child.Level = progression.LevelForXP(child.XP)

		if err := childRepo.UpdateAggregates(child); err != nil {
			return err
		}

		entry := &models.Progress{
			ChildID:           child.ID,
			GameID:            game.ID,
			GameSlug:          game.Slug,
			GameLevel:         req.GameLevel,
			Score:             req.Score,
			Accuracy:          req.Accuracy,
			TimeSpentSeconds:  req.TimeSpentSeconds,
			XPEarned:          reward.XP,
			CoinsEarned:       reward.Coins,
			MinutesCharged:    charged,
			IsReplay:          isReplay,
			DailyBonusApplied: reward.DailyBonusApplied,
			Metadata:          string(req.Metadata),
			CreatedAt:         now.UTC(),
		}
		if err := progressRepo.CreateProgress(entry); err != nil {
			return err
		}

		if progression.IsCompletion(req.Accuracy) || isReplay {
			if _, err := completedRepo.UpsertCompletedLevel(models.CompletedLevel{
				ChildID:      child.ID,
				GameSlug:     game.Slug,
				Level:        req.GameLevel,
				BestAccuracy: req.Accuracy,
				BestScore:    req.Score,
				CompletedAt:  now.UTC(),
			}); err != nil {
				return err
			}
		}

		unlocked, err := s.scanAchievements(progressRepo, achievementRepo, child, achievements, now)
		if err != nil {
			return err
		}

		result = &SubmitResult{
			Progress: entry,
			Child:    child,
			Rewards: RewardSummary{
				XP:                reward.XP,
				Coins:             reward.Coins,
				LevelUp:           child.Level > previousLevel,
				PreviousLevel:     previousLevel,
				NewLevel:          child.Level,
				NewAchievements:   unlocked,
				IsReplay:          isReplay,
				DailyBonusApplied: reward.DailyBonusApplied,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// scanAchievements unlocks every catalog achievement the child now satisfies
func (s *SettlementService) scanAchievements(progressRepo *repository.ProgressRepository, achievementRepo *repository.AchievementRepository,
	child *models.Child, catalog []models.Achievement, now time.Time) ([]models.Achievement, error) {
	unlocked, err := achievementRepo.GetUnlockedSlugs(child.ID)
	if err != nil {
		return nil, err
	}

	gamesPlayed, err := progressRepo.CountChildProgress(child.ID)
	if err != nil {
		return nil, err
	}
	bestAccuracy, err := progressRepo.GetBestAccuracy(child.ID)
	if err != nil {
		return nil, err
	}
	categories, err := progressRepo.CountDistinctCategories(child.ID)
	if err != nil {
		return nil, err
	}

	stats := progression.Stats{
		GamesPlayed:  gamesPlayed,
		BestAccuracy: bestAccuracy,
		Streak:       child.CurrentStreak,
		Categories:   categories,
		Level:        child.Level,
		TotalXP:      child.XP,
	}

	newly := progression.NewlyUnlocked(catalog, unlocked, stats)
	for _, a := range newly {
		if err := achievementRepo.UnlockAchievement(child.ID, a.Slug, now); err != nil {
			return nil, err
		}
	}
	if newly == nil {
		newly = []models.Achievement{}
	}
	return newly, nil
}

func (s *SettlementService) loadChild(repo *repository.ChildRepository, actor Actor, childID int64) (*models.Child, error) {
	child, err := repo.GetChildByID(childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if !actor.canAccess(child) {
		return nil, ErrForbidden
	}
	return child, nil
}

func (s *SettlementService) isPremium(repo *repository.UserRepository, child *models.Child) (bool, error) {
	parent, err := repo.GetUserByID(child.ParentID)
	if err != nil {
		return false, err
	}
	return parent.IsPremium(s.now()), nil
}

// withRetry runs op until it succeeds, fails with anything other than a
// version conflict, or runs out of attempts.
func (s *SettlementService) withRetry(ctx context.Context, op func() error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := op()
		if err == nil || errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.retryBackoff(), maxSettlementAttempts-1), ctx)
	return backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		s.logger.Warn("Settlement conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"playlearn/internal/cache"
	"playlearn/internal/models"
	"playlearn/internal/repository"
)

var ErrGameNotFound = errors.New("game not found")

const (
	gamesCacheKey        = "catalog:games"
	achievementsCacheKey = "catalog:achievements"
)

// CatalogService serves the static game and achievement catalogs through a cache
type CatalogService struct {
	gameRepo        *repository.GameRepository
	achievementRepo *repository.AchievementRepository
	cache           cache.Cache
	ttl             time.Duration
	logger          *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(gameRepo *repository.GameRepository, achievementRepo *repository.AchievementRepository,
	c cache.Cache, ttl time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		gameRepo:        gameRepo,
		achievementRepo: achievementRepo,
		cache:           c,
		ttl:             ttl,
		logger:          logger,
	}
}

// Seed writes the built-in games and achievements and drops cached copies
func (s *CatalogService) Seed(ctx context.Context) error {
	for _, def := range builtinGames {
		game := &models.Game{
			Slug:      slug.Make(def.Title),
			Title:     def.Title,
			Category:  def.Category,
			IsPremium: def.IsPremium,
			Rewards:   def.Rewards,
			MaxLevel:  def.MaxLevel,
		}
		if err := s.gameRepo.UpsertGame(game); err != nil {
			return fmt.Errorf("failed to seed games: %w", err)
		}
	}

	for _, a := range builtinAchievements {
		a := a
		if err := s.achievementRepo.UpsertAchievement(&a); err != nil {
			return fmt.Errorf("failed to seed achievements: %w", err)
		}
	}

	s.invalidate(ctx)
	s.logger.Info("Catalog seeded",
		zap.Int("games", len(builtinGames)),
		zap.Int("achievements", len(builtinAchievements)),
	)
	return nil
}

// Games returns the whole game catalog
func (s *CatalogService) Games(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if s.fromCache(ctx, gamesCacheKey, &games) {
		return games, nil
	}

	games, err := s.gameRepo.GetAllGames()
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	s.toCache(ctx, gamesCacheKey, games)
	return games, nil
}

// GameBySlug returns one game or ErrGameNotFound
func (s *CatalogService) GameBySlug(ctx context.Context, gameSlug string) (*models.Game, error) {
	games, err := s.Games(ctx)
	if err != nil {
		return nil, err
	}
	for i := range games {
		if games[i].Slug == gameSlug {
			game := games[i]
			return &game, nil
		}
	}
	return nil, ErrGameNotFound
}

// Achievements returns the achievement catalog
func (s *CatalogService) Achievements(ctx context.Context) ([]models.Achievement, error) {
	var achievements []models.Achievement
	if s.fromCache(ctx, achievementsCacheKey, &achievements) {
		return achievements, nil
	}

	achievements, err := s.achievementRepo.GetAllAchievements()
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	s.toCache(ctx, achievementsCacheKey, achievements)
	return achievements, nil
}

// fromCache decodes a cached value into dest. Cache errors are logged and
// treated as a miss.
func (s *CatalogService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("Catalog cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *CatalogService) toCache(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Failed to encode catalog for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context) {
	for _, key := range []string{gamesCacheKey, achievementsCacheKey} {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Catalog cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

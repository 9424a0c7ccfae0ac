package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"playlearn/internal/models"
	"playlearn/internal/nickname"
	"playlearn/internal/progression"
	"playlearn/internal/repository"
	"playlearn/internal/validation"
)

var (
	ErrChildNotFound  = errors.New("child not found")
	ErrParentNotFound = errors.New("parent account not found")
	ErrForbidden      = errors.New("you do not have access to this child")
)

// Actor is the authenticated caller of a service operation
type Actor struct {
	UserID int64
	Admin  bool
}

// canAccess reports whether the actor may read or change child
func (a Actor) canAccess(child *models.Child) bool {
	return a.Admin || child.ParentID == a.UserID
}

// CreateChildRequest holds the fields a parent sets on a new profile
type CreateChildRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=50"`
	Nickname    string `json:"nickname" validate:"max=60"`
	Age         int    `json:"age" validate:"gte=0,lte=18"`
	AvatarColor string `json:"avatarColor" validate:"omitempty,hexcolor"`
}

// UpdateChildRequest holds the editable profile fields
type UpdateChildRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=50"`
	Nickname    string `json:"nickname" validate:"max=60"`
	Age         int    `json:"age" validate:"gte=0,lte=18"`
	AvatarColor string `json:"avatarColor" validate:"omitempty,hexcolor"`
}

// UnlockedAchievement pairs an achievement with when it was unlocked
type UnlockedAchievement struct {
	models.Achievement
	UnlockedAt time.Time `json:"unlockedAt"`
}

// ChildService handles child profile business logic
type ChildService struct {
	childRepo       *repository.ChildRepository
	userRepo        *repository.UserRepository
	progressRepo    *repository.ProgressRepository
	achievementRepo *repository.AchievementRepository
	catalog         *CatalogService
	now             func() time.Time
}

// NewChildService creates a new child service
func NewChildService(childRepo *repository.ChildRepository, userRepo *repository.UserRepository,
	progressRepo *repository.ProgressRepository, achievementRepo *repository.AchievementRepository,
	catalog *CatalogService) *ChildService {
	return &ChildService{
		childRepo:       childRepo,
		userRepo:        userRepo,
		progressRepo:    progressRepo,
		achievementRepo: achievementRepo,
		catalog:         catalog,
		now:             time.Now,
	}
}

// CreateChild creates a child profile for the actor. A nickname and avatar
// color are generated when not supplied.
func (s *ChildService) CreateChild(actor Actor, req CreateChildRequest) (*models.Child, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	parent, err := s.userRepo.GetUserByID(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return nil, ErrParentNotFound
	}

	nick := nickname.Normalize(req.Nickname)
	if nick == "" {
		if nick, err = nickname.Generate(); err != nil {
			return nil, fmt.Errorf("failed to generate nickname: %w", err)
		}
	}

	color := req.AvatarColor
	if color == "" {
		if color, err = nickname.RandomAvatarColor(); err != nil {
			return nil, fmt.Errorf("failed to pick avatar color: %w", err)
		}
	}

	child, err := s.childRepo.CreateChild(parent.ID, req.Name, nick, req.Age, color)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}
	return child, nil
}

// ListChildren returns the actor's children with level progress
func (s *ChildService) ListChildren(actor Actor) ([]models.ChildWithProgress, error) {
	children, err := s.childRepo.GetParentChildren(actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	result := make([]models.ChildWithProgress, 0, len(children))
	for i := range children {
		view, err := s.withProgress(&children[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *view)
	}
	return result, nil
}

// GetChild returns one child the actor may access
func (s *ChildService) GetChild(actor Actor, childID int64) (*models.ChildWithProgress, error) {
	child, err := s.loadChild(actor, childID)
	if err != nil {
		return nil, err
	}
	return s.withProgress(child)
}

// UpdateChild changes a child's profile fields
func (s *ChildService) UpdateChild(actor Actor, childID int64, req UpdateChildRequest) (*models.Child, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	child, err := s.loadChild(actor, childID)
	if err != nil {
		return nil, err
	}

	nick := nickname.Normalize(req.Nickname)
	if nick == "" {
		nick = child.Nickname
	}
	color := req.AvatarColor
	if color == "" {
		color = child.AvatarColor
	}

	if err := s.childRepo.UpdateChildProfile(child.ID, req.Name, nick, req.Age, color); err != nil {
		return nil, fmt.Errorf("failed to update child: %w", err)
	}

	child.Name = req.Name
	child.Nickname = nick
	child.Age = req.Age
	child.AvatarColor = color
	return child, nil
}

// DeleteChild removes a child profile and its history
func (s *ChildService) DeleteChild(actor Actor, childID int64) error {
	child, err := s.loadChild(actor, childID)
	if err != nil {
		return err
	}
	if err := s.childRepo.DeleteChild(child.ID); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

// GetAchievements lists the achievements a child has unlocked
func (s *ChildService) GetAchievements(ctx context.Context, actor Actor, childID int64) ([]UnlockedAchievement, error) {
	child, err := s.loadChild(actor, childID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.catalog.Achievements(ctx)
	if err != nil {
		return nil, err
	}

	unlocks, err := s.achievementRepo.GetChildAchievements(child.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}

	bySlug := make(map[string]models.Achievement, len(catalog))
	for _, a := range catalog {
		bySlug[a.Slug] = a
	}

	result := make([]UnlockedAchievement, 0, len(unlocks))
	for _, u := range unlocks {
		a, ok := bySlug[u.AchievementSlug]
		if !ok {
			a = models.Achievement{Slug: u.AchievementSlug, Title: u.AchievementSlug}
		}
		result = append(result, UnlockedAchievement{
			Achievement: a,
			UnlockedAt:  u.UnlockedAt,
		})
	}
	return result, nil
}

// GetHistory returns a page of a child's settled rounds, newest first
func (s *ChildService) GetHistory(actor Actor, childID int64, limit, offset int) ([]models.Progress, error) {
	child, err := s.loadChild(actor, childID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	history, err := s.progressRepo.GetChildProgress(child.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return history, nil
}

func (s *ChildService) loadChild(actor Actor, childID int64) (*models.Child, error) {
	child, err := s.childRepo.GetChildByID(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if !actor.canAccess(child) {
		return nil, ErrForbidden
	}
	return child, nil
}

// withProgress builds the read view of a child. The daily counter is reset
// on the returned copy when the stored one belongs to an earlier day; the
// next settlement persists the reset.
func (s *ChildService) withProgress(child *models.Child) (*models.ChildWithProgress, error) {
	progression.EnsureDailyReset(child, s.now())

	unlocks, err := s.achievementRepo.GetChildAchievements(child.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count achievements: %w", err)
	}

	return &models.ChildWithProgress{
		Child:            *child,
		LevelProgress:    progression.ProgressFraction(child.XP),
		NextLevelXP:      progression.NextLevelXP(child.XP),
		AchievementCount: len(unlocks),
	}, nil
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"playlearn/internal/database"
	"playlearn/internal/models"
)

// AchievementRepository handles the achievement catalog and unlocks
type AchievementRepository struct {
	db database.Querier
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.Querier) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *AchievementRepository) WithTx(tx *database.Tx) *AchievementRepository {
	return &AchievementRepository{db: tx}
}

// GetAllAchievements retrieves the catalog ordered by criteria and threshold
func (r *AchievementRepository) GetAllAchievements() ([]models.Achievement, error) {
	query := `SELECT id, slug, title, description, icon, criteria_type, threshold
		FROM achievements
		ORDER BY criteria_type ASC, threshold ASC, slug ASC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	achievements := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.Slug, &a.Title, &a.Description, &a.Icon, &a.CriteriaType, &a.Threshold); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// UpsertAchievement inserts a catalog entry or updates the one with the same slug
func (r *AchievementRepository) UpsertAchievement(a *models.Achievement) error {
	var id int64
	err := r.db.QueryRow("SELECT id FROM achievements WHERE slug = ?", a.Slug).Scan(&id)
	if err == nil {
		query := "UPDATE achievements SET title = ?, description = ?, icon = ?, criteria_type = ?, threshold = ? WHERE id = ?"
		if _, err := r.db.Exec(query, a.Title, a.Description, a.Icon, a.CriteriaType, a.Threshold, id); err != nil {
			return fmt.Errorf("failed to update achievement %s: %w", a.Slug, err)
		}
		a.ID = id
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to get achievement %s: %w", a.Slug, err)
	}

	query := "INSERT INTO achievements (slug, title, description, icon, criteria_type, threshold) VALUES (?, ?, ?, ?, ?, ?)"
	id, err = r.db.ExecReturningID(query, a.Slug, a.Title, a.Description, a.Icon, a.CriteriaType, a.Threshold)
	if err != nil {
		return fmt.Errorf("failed to insert achievement %s: %w", a.Slug, err)
	}
	a.ID = id
	return nil
}

// GetChildAchievements retrieves a child's unlocks, oldest first
func (r *AchievementRepository) GetChildAchievements(childID int64) ([]models.ChildAchievement, error) {
	return r.queryUnlocks(`SELECT child_id, achievement_slug, unlocked_at FROM child_achievements
		WHERE child_id = ? ORDER BY unlocked_at ASC, achievement_slug ASC`, childID)
}

// GetAllChildAchievements retrieves every unlock for export
func (r *AchievementRepository) GetAllChildAchievements() ([]models.ChildAchievement, error) {
	return r.queryUnlocks("SELECT child_id, achievement_slug, unlocked_at FROM child_achievements ORDER BY child_id, achievement_slug")
}

func (r *AchievementRepository) queryUnlocks(query string, args ...interface{}) ([]models.ChildAchievement, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query child achievements: %w", err)
	}
	defer rows.Close()

	unlocks := []models.ChildAchievement{}
	for rows.Next() {
		var ca models.ChildAchievement
		if err := rows.Scan(&ca.ChildID, &ca.AchievementSlug, &ca.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan child achievement: %w", err)
		}
		unlocks = append(unlocks, ca)
	}
	return unlocks, rows.Err()
}

// GetUnlockedSlugs returns the set of achievement slugs a child has unlocked
func (r *AchievementRepository) GetUnlockedSlugs(childID int64) (map[string]bool, error) {
	unlocks, err := r.GetChildAchievements(childID)
	if err != nil {
		return nil, err
	}
	slugs := make(map[string]bool, len(unlocks))
	for _, u := range unlocks {
		slugs[u.AchievementSlug] = true
	}
	return slugs, nil
}

// UnlockAchievement records an unlock. Unlocks are write-once.
func (r *AchievementRepository) UnlockAchievement(childID int64, slug string, unlockedAt time.Time) error {
	query := "INSERT INTO child_achievements (child_id, achievement_slug, unlocked_at) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, childID, slug, unlockedAt.UTC()); err != nil {
		return fmt.Errorf("failed to unlock achievement %s: %w", slug, err)
	}
	return nil
}

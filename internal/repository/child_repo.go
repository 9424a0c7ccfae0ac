package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"playlearn/internal/database"
	"playlearn/internal/models"
)

// ErrVersionConflict is returned when a child changed since it was read
var ErrVersionConflict = errors.New("child was modified concurrently")

const childColumns = `id, parent_id, name, nickname, age, avatar_color, xp, coins, level,
	daily_play_minutes_used, last_daily_reset, current_streak, longest_streak, last_played_date,
	last_daily_challenge_date, daily_challenge_used, version, created_at, updated_at`

// ChildRepository handles database operations for children
type ChildRepository struct {
	db database.Querier
}

// NewChildRepository creates a new child repository
func NewChildRepository(db database.Querier) *ChildRepository {
	return &ChildRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ChildRepository) WithTx(tx *database.Tx) *ChildRepository {
	return &ChildRepository{db: tx}
}

func scanChild(row rowScanner) (*models.Child, error) {
	child := &models.Child{}
	var lastReset, lastPlayed sql.NullTime
	err := row.Scan(
		&child.ID,
		&child.ParentID,
		&child.Name,
		&child.Nickname,
		&child.Age,
		&child.AvatarColor,
		&child.XP,
		&child.Coins,
		&child.Level,
		&child.DailyPlayMinutesUsed,
		&lastReset,
		&child.CurrentStreak,
		&child.LongestStreak,
		&lastPlayed,
		&child.LastDailyChallengeDate,
		&child.DailyChallengeUsed,
		&child.Version,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	child.LastDailyReset = timePtr(lastReset)
	child.LastPlayedDate = timePtr(lastPlayed)
	return child, nil
}

// CreateChild creates a new child profile
func (r *ChildRepository) CreateChild(parentID int64, name, nickname string, age int, avatarColor string) (*models.Child, error) {
	now := time.Now().UTC()
	query := `INSERT INTO children (parent_id, name, nickname, age, avatar_color, level, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, 1, ?, ?)`
	childID, err := r.db.ExecReturningID(query, parentID, name, nickname, age, avatarColor, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return &models.Child{
		ID:          childID,
		ParentID:    parentID,
		Name:        name,
		Nickname:    nickname,
		Age:         age,
		AvatarColor: avatarColor,
		Level:       1,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetChildByID retrieves a child by ID. It returns nil when no child exists.
func (r *ChildRepository) GetChildByID(childID int64) (*models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE id = ?"
	child, err := scanChild(r.db.QueryRow(query, childID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetParentChildren retrieves all children of a parent
func (r *ChildRepository) GetParentChildren(parentID int64) ([]models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE parent_id = ? ORDER BY created_at ASC, id ASC"
	return r.queryChildren(query, parentID)
}

// GetAllChildren retrieves every child ordered by ID
func (r *ChildRepository) GetAllChildren() ([]models.Child, error) {
	return r.queryChildren("SELECT " + childColumns + " FROM children ORDER BY id ASC")
}

func (r *ChildRepository) queryChildren(query string, args ...interface{}) ([]models.Child, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	children := []models.Child{}
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}
	return children, rows.Err()
}

// UpdateChildProfile updates the editable profile fields of a child
func (r *ChildRepository) UpdateChildProfile(childID int64, name, nickname string, age int, avatarColor string) error {
	query := "UPDATE children SET name = ?, nickname = ?, age = ?, avatar_color = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.Exec(query, name, nickname, age, avatarColor, time.Now().UTC(), childID)
	if err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	return nil
}

// UpdateAggregates writes the gamification counters of child if its version
// still matches the stored one, and bumps the version. It returns
// ErrVersionConflict when another writer got there first.
func (r *ChildRepository) UpdateAggregates(child *models.Child) error {
	now := time.Now().UTC()
	query := `UPDATE children SET
			xp = ?, coins = ?, level = ?,
			daily_play_minutes_used = ?, last_daily_reset = ?,
			current_streak = ?, longest_streak = ?, last_played_date = ?,
			last_daily_challenge_date = ?, daily_challenge_used = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`
	result, err := r.db.Exec(query,
		child.XP, child.Coins, child.Level,
		child.DailyPlayMinutesUsed, nullTime(child.LastDailyReset),
		child.CurrentStreak, child.LongestStreak, nullTime(child.LastPlayedDate),
		child.LastDailyChallengeDate, child.DailyChallengeUsed,
		now,
		child.ID, child.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update child aggregates: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	child.Version++
	child.UpdatedAt = now
	return nil
}

// DeleteChild deletes a child and, through cascades, its history
func (r *ChildRepository) DeleteChild(childID int64) error {
	query := "DELETE FROM children WHERE id = ?"
	_, err := r.db.Exec(query, childID)
	if err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

package repository

import (
	"fmt"
	"time"

	"playlearn/internal/database"
	"playlearn/internal/models"
)

// ProgressRepository handles the append-only progress log
type ProgressRepository struct {
	db database.Querier
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.Querier) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *ProgressRepository) WithTx(tx *database.Tx) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

const progressColumns = `id, child_id, game_id, game_slug, game_level, score, accuracy, time_spent_seconds,
	xp_earned, coins_earned, minutes_charged, is_replay, daily_bonus_applied, metadata, created_at`

// CreateProgress appends a settled round and sets its ID
func (r *ProgressRepository) CreateProgress(p *models.Progress) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Metadata == "" {
		p.Metadata = "{}"
	}

	query := `INSERT INTO progress (child_id, game_id, game_slug, game_level, score, accuracy, time_spent_seconds,
			xp_earned, coins_earned, minutes_charged, is_replay, daily_bonus_applied, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query,
		p.ChildID, p.GameID, p.GameSlug, p.GameLevel, p.Score, p.Accuracy, p.TimeSpentSeconds,
		p.XPEarned, p.CoinsEarned, p.MinutesCharged, p.IsReplay, p.DailyBonusApplied, p.Metadata, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create progress: %w", err)
	}
	p.ID = id
	return nil
}

// GetChildProgress retrieves a page of a child's rounds, newest first
func (r *ProgressRepository) GetChildProgress(childID int64, limit, offset int) ([]models.Progress, error) {
	query := "SELECT " + progressColumns + ` FROM progress
		WHERE child_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	return r.queryProgress(query, childID, limit, offset)
}

// GetAllProgress retrieves the whole log ordered by ID
func (r *ProgressRepository) GetAllProgress() ([]models.Progress, error) {
	return r.queryProgress("SELECT " + progressColumns + " FROM progress ORDER BY id ASC")
}

func (r *ProgressRepository) queryProgress(query string, args ...interface{}) ([]models.Progress, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	entries := []models.Progress{}
	for rows.Next() {
		var p models.Progress
		if err := rows.Scan(
			&p.ID,
			&p.ChildID,
			&p.GameID,
			&p.GameSlug,
			&p.GameLevel,
			&p.Score,
			&p.Accuracy,
			&p.TimeSpentSeconds,
			&p.XPEarned,
			&p.CoinsEarned,
			&p.MinutesCharged,
			&p.IsReplay,
			&p.DailyBonusApplied,
			&p.Metadata,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}

// CountChildProgress returns how many rounds a child has played
func (r *ProgressRepository) CountChildProgress(childID int64) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM progress WHERE child_id = ?", childID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count progress: %w", err)
	}
	return count, nil
}

// GetBestAccuracy returns the highest accuracy a child has recorded
func (r *ProgressRepository) GetBestAccuracy(childID int64) (float64, error) {
	var best float64
	query := "SELECT COALESCE(MAX(accuracy), 0) FROM progress WHERE child_id = ?"
	if err := r.db.QueryRow(query, childID).Scan(&best); err != nil {
		return 0, fmt.Errorf("failed to get best accuracy: %w", err)
	}
	return best, nil
}

// CountDistinctCategories returns how many game categories a child has played
func (r *ProgressRepository) CountDistinctCategories(childID int64) (int, error) {
	query := `SELECT COUNT(DISTINCT g.category)
		FROM progress p
		JOIN games g ON g.id = p.game_id
		WHERE p.child_id = ?`
	var count int
	if err := r.db.QueryRow(query, childID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// SumRewardsByChild totals the rewards in the log per child
func (r *ProgressRepository) SumRewardsByChild() (map[int64]models.RewardTotals, error) {
	query := `SELECT child_id, COALESCE(SUM(xp_earned), 0), COALESCE(SUM(coins_earned), 0), COUNT(*)
		FROM progress
		GROUP BY child_id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to sum rewards: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]models.RewardTotals)
	for rows.Next() {
		var t models.RewardTotals
		if err := rows.Scan(&t.ChildID, &t.XP, &t.Coins, &t.Rounds); err != nil {
			return nil, fmt.Errorf("failed to scan reward totals: %w", err)
		}
		totals[t.ChildID] = t
	}
	return totals, rows.Err()
}

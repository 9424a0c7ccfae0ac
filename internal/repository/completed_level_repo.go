package repository

import (
	"database/sql"
	"fmt"
	"time"

	"playlearn/internal/database"
	"playlearn/internal/models"
	"playlearn/internal/progression"
)

// CompletedLevelRepository stores the best result per child, game and level
type CompletedLevelRepository struct {
	db database.Querier
}

// NewCompletedLevelRepository creates a new completed level repository
func NewCompletedLevelRepository(db database.Querier) *CompletedLevelRepository {
	return &CompletedLevelRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *CompletedLevelRepository) WithTx(tx *database.Tx) *CompletedLevelRepository {
	return &CompletedLevelRepository{db: tx}
}

const completedLevelColumns = "child_id, game_slug, level, best_accuracy, best_score, completed_at, updated_at"

// GetChildCompletedLevels loads a child's completed levels. An empty gameSlug
// loads every game.
func (r *CompletedLevelRepository) GetChildCompletedLevels(childID int64, gameSlug string) (progression.CompletedLevels, error) {
	query := "SELECT " + completedLevelColumns + " FROM completed_levels WHERE child_id = ?"
	args := []interface{}{childID}
	if gameSlug != "" {
		query += " AND game_slug = ?"
		args = append(args, gameSlug)
	}

	entries, err := r.query(query, args...)
	if err != nil {
		return nil, err
	}
	return progression.NewCompletedLevels(entries...), nil
}

// GetAllCompletedLevels retrieves every row for export
func (r *CompletedLevelRepository) GetAllCompletedLevels() ([]models.CompletedLevel, error) {
	return r.query("SELECT " + completedLevelColumns + " FROM completed_levels ORDER BY child_id, game_slug, level")
}

func (r *CompletedLevelRepository) query(query string, args ...interface{}) ([]models.CompletedLevel, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed levels: %w", err)
	}
	defer rows.Close()

	entries := []models.CompletedLevel{}
	for rows.Next() {
		var e models.CompletedLevel
		if err := rows.Scan(&e.ChildID, &e.GameSlug, &e.Level, &e.BestAccuracy, &e.BestScore, &e.CompletedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completed level: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertCompletedLevel records a result for a level, keeping the best
// accuracy and best score already stored. It returns the merged entry.
func (r *CompletedLevelRepository) UpsertCompletedLevel(entry models.CompletedLevel) (models.CompletedLevel, error) {
	now := time.Now().UTC()
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = now
	}
	entry.UpdatedAt = now

	var existing models.CompletedLevel
	query := "SELECT " + completedLevelColumns + " FROM completed_levels WHERE child_id = ? AND game_slug = ? AND level = ?"
	err := r.db.QueryRow(query, entry.ChildID, entry.GameSlug, entry.Level).Scan(
		&existing.ChildID, &existing.GameSlug, &existing.Level,
		&existing.BestAccuracy, &existing.BestScore, &existing.CompletedAt, &existing.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		insert := `INSERT INTO completed_levels (child_id, game_slug, level, best_accuracy, best_score, completed_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`
		if _, err := r.db.Exec(insert, entry.ChildID, entry.GameSlug, entry.Level,
			entry.BestAccuracy, entry.BestScore, entry.CompletedAt, entry.UpdatedAt); err != nil {
			return models.CompletedLevel{}, fmt.Errorf("failed to insert completed level: %w", err)
		}
		return entry, nil
	}
	if err != nil {
		return models.CompletedLevel{}, fmt.Errorf("failed to get completed level: %w", err)
	}

	merged := progression.NewCompletedLevels(existing)
	best := merged.Record(entry)

	update := `UPDATE completed_levels SET best_accuracy = ?, best_score = ?, updated_at = ?
		WHERE child_id = ? AND game_slug = ? AND level = ?`
	if _, err := r.db.Exec(update, best.BestAccuracy, best.BestScore, best.UpdatedAt,
		entry.ChildID, entry.GameSlug, entry.Level); err != nil {
		return models.CompletedLevel{}, fmt.Errorf("failed to update completed level: %w", err)
	}
	return best, nil
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"playlearn/internal/database"
	"playlearn/internal/models"
)

// GameRepository handles database operations for the game catalog
type GameRepository struct {
	db database.Querier
}

// NewGameRepository creates a new game repository
func NewGameRepository(db database.Querier) *GameRepository {
	return &GameRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *GameRepository) WithTx(tx *database.Tx) *GameRepository {
	return &GameRepository{db: tx}
}

const gameColumns = "id, slug, title, category, is_premium, reward_xp, reward_coins, max_level, created_at"

func scanGame(row rowScanner) (*models.Game, error) {
	game := &models.Game{}
	if err := row.Scan(
		&game.ID,
		&game.Slug,
		&game.Title,
		&game.Category,
		&game.IsPremium,
		&game.Rewards.XP,
		&game.Rewards.Coins,
		&game.MaxLevel,
		&game.CreatedAt,
	); err != nil {
		return nil, err
	}
	return game, nil
}

// GetGameBySlug retrieves a game by slug. It returns nil when no game exists.
func (r *GameRepository) GetGameBySlug(slug string) (*models.Game, error) {
	query := "SELECT " + gameColumns + " FROM games WHERE slug = ?"
	game, err := scanGame(r.db.QueryRow(query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// GetAllGames retrieves the catalog ordered by category and title
func (r *GameRepository) GetAllGames() ([]models.Game, error) {
	rows, err := r.db.Query("SELECT " + gameColumns + " FROM games ORDER BY category ASC, title ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

// UpsertGame inserts a catalog entry or updates the existing one with the same slug
func (r *GameRepository) UpsertGame(game *models.Game) error {
	existing, err := r.GetGameBySlug(game.Slug)
	if err != nil {
		return err
	}

	if existing != nil {
		query := `UPDATE games SET title = ?, category = ?, is_premium = ?, reward_xp = ?, reward_coins = ?, max_level = ?
			WHERE id = ?`
		if _, err := r.db.Exec(query, game.Title, game.Category, game.IsPremium,
			game.Rewards.XP, game.Rewards.Coins, game.MaxLevel, existing.ID); err != nil {
			return fmt.Errorf("failed to update game %s: %w", game.Slug, err)
		}
		game.ID = existing.ID
		game.CreatedAt = existing.CreatedAt
		return nil
	}

	now := time.Now().UTC()
	query := `INSERT INTO games (slug, title, category, is_premium, reward_xp, reward_coins, max_level, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query, game.Slug, game.Title, game.Category, game.IsPremium,
		game.Rewards.XP, game.Rewards.Coins, game.MaxLevel, now)
	if err != nil {
		return fmt.Errorf("failed to insert game %s: %w", game.Slug, err)
	}
	game.ID = id
	game.CreatedAt = now
	return nil
}

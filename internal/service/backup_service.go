package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"playlearn/internal/database"
	"playlearn/internal/models"
	"playlearn/internal/repository"
)

// backupFormatVersion is bumped whenever BackupData changes shape
const backupFormatVersion = "2.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version         string                    `json:"version"`
	ExportedAt      time.Time                 `json:"exported_at"`
	DatabaseType    string                    `json:"database_type"`
	Users           []models.User             `json:"users"`
	Children        []ChildBackup             `json:"children"`
	Games           []models.Game             `json:"games"`
	Progress        []models.Progress         `json:"progress"`
	CompletedLevels []CompletedLevelBackup    `json:"completed_levels"`
	Achievements    []models.ChildAchievement `json:"child_achievements"`
}

// ChildBackup is a child row including its concurrency version
type ChildBackup struct {
	models.Child
	Version int64 `json:"version"`
}

// CompletedLevelBackup is a completed level row with its owning child
type CompletedLevelBackup struct {
	ChildID int64 `json:"child_id"`
	models.CompletedLevel
}

// ObjectStore receives uploaded backups
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db     *database.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, logger *zap.Logger) *BackupService {
	return &BackupService{db: db, logger: logger, now: time.Now}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}
	s.logger.Info("Database exported", zap.String("path", outputPath))
	return nil
}

// ExportToWriter exports the database to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup, err := s.collect()
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("Backup written",
		zap.Int("users", len(backup.Users)),
		zap.Int("children", len(backup.Children)),
		zap.Int("progress", len(backup.Progress)),
		zap.Int("completed_levels", len(backup.CompletedLevels)),
		zap.Int("achievements", len(backup.Achievements)),
	)
	return nil
}

// Upload exports the database and stores it under a timestamped key. It
// returns the key.
func (s *BackupService) Upload(ctx context.Context, store ObjectStore, prefix string) (string, error) {
	var buf bytes.Buffer
	if err := s.ExportToWriter(&buf); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%sbackup_%s.json", prefix, s.now().UTC().Format("20060102_150405"))
	if err := store.Put(ctx, key, &buf, "application/json"); err != nil {
		return "", err
	}
	s.logger.Info("Backup uploaded", zap.String("key", key))
	return key, nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader. The import is
// all or nothing.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupFormatVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.logger.Info("Importing backup",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt),
	)

	err := s.db.WithTx(func(tx *database.Tx) error {
		if err := importUsers(tx, backup.Users); err != nil {
			return fmt.Errorf("failed to import users: %w", err)
		}
		if err := importChildren(tx, backup.Children); err != nil {
			return fmt.Errorf("failed to import children: %w", err)
		}
		gameIDs, err := importGames(tx, backup.Games)
		if err != nil {
			return fmt.Errorf("failed to import games: %w", err)
		}
		if err := importProgress(tx, backup.Progress, gameIDs); err != nil {
			return fmt.Errorf("failed to import progress: %w", err)
		}
		if err := importCompletedLevels(tx, backup.CompletedLevels); err != nil {
			return fmt.Errorf("failed to import completed levels: %w", err)
		}
		if err := importAchievements(tx, backup.Achievements); err != nil {
			return fmt.Errorf("failed to import achievements: %w", err)
		}
		return resetSequences(tx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Database import completed")
	return nil
}

func (s *BackupService) collect() (*BackupData, error) {
	backup := &BackupData{
		Version:      backupFormatVersion,
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.db.GetDialect().Name(),
	}

	users, err := repository.NewUserRepository(s.db).GetAllUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	backup.Users = users

	children, err := repository.NewChildRepository(s.db).GetAllChildren()
	if err != nil {
		return nil, fmt.Errorf("failed to export children: %w", err)
	}
	backup.Children = make([]ChildBackup, 0, len(children))
	for _, c := range children {
		backup.Children = append(backup.Children, ChildBackup{Child: c, Version: c.Version})
	}

	games, err := repository.NewGameRepository(s.db).GetAllGames()
	if err != nil {
		return nil, fmt.Errorf("failed to export games: %w", err)
	}
	backup.Games = games

	progress, err := repository.NewProgressRepository(s.db).GetAllProgress()
	if err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	backup.Progress = progress

	completed, err := repository.NewCompletedLevelRepository(s.db).GetAllCompletedLevels()
	if err != nil {
		return nil, fmt.Errorf("failed to export completed levels: %w", err)
	}
	backup.CompletedLevels = make([]CompletedLevelBackup, 0, len(completed))
	for _, c := range completed {
		backup.CompletedLevels = append(backup.CompletedLevels, CompletedLevelBackup{ChildID: c.ChildID, CompletedLevel: c})
	}

	unlocks, err := repository.NewAchievementRepository(s.db).GetAllChildAchievements()
	if err != nil {
		return nil, fmt.Errorf("failed to export achievements: %w", err)
	}
	backup.Achievements = unlocks

	return backup, nil
}

func importUsers(tx *database.Tx, users []models.User) error {
	query := `INSERT INTO users (id, email, name, role, subscription_status, subscription_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, u := range users {
		var expiresAt interface{}
		if u.SubscriptionExpiresAt != nil {
			expiresAt = *u.SubscriptionExpiresAt
		}
		if _, err := tx.Exec(query, u.ID, u.Email, u.Name, u.Role, u.SubscriptionStatus, expiresAt, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importChildren(tx *database.Tx, children []ChildBackup) error {
	query := `INSERT INTO children (id, parent_id, name, nickname, age, avatar_color, xp, coins, level,
			daily_play_minutes_used, last_daily_reset, current_streak, longest_streak, last_played_date,
			last_daily_challenge_date, daily_challenge_used, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, c := range children {
		version := c.Version
		if version < 1 {
			version = 1
		}
		if _, err := tx.Exec(query, c.ID, c.ParentID, c.Name, c.Nickname, c.Age, c.AvatarColor, c.XP, c.Coins, c.Level,
			c.DailyPlayMinutesUsed, timeOrNil(c.LastDailyReset), c.CurrentStreak, c.LongestStreak, timeOrNil(c.LastPlayedDate),
			c.LastDailyChallengeDate, c.DailyChallengeUsed, version, c.CreatedAt, c.UpdatedAt); err != nil {
			return fmt.Errorf("child %d: %w", c.ID, err)
		}
	}
	return nil
}

// importGames upserts the backed-up catalog by slug and returns the local
// game ID for every slug, since a seeded target may number games differently.
func importGames(tx *database.Tx, games []models.Game) (map[string]int64, error) {
	repo := repository.NewGameRepository(tx)
	for i := range games {
		if err := repo.UpsertGame(&games[i]); err != nil {
			return nil, err
		}
	}

	all, err := repo.GetAllGames()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(all))
	for _, g := range all {
		ids[g.Slug] = g.ID
	}
	return ids, nil
}

func importProgress(tx *database.Tx, entries []models.Progress, gameIDs map[string]int64) error {
	query := `INSERT INTO progress (id, child_id, game_id, game_slug, game_level, score, accuracy, time_spent_seconds,
			xp_earned, coins_earned, minutes_charged, is_replay, daily_bonus_applied, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range entries {
		gameID, ok := gameIDs[p.GameSlug]
		if !ok {
			return fmt.Errorf("progress %d references unknown game %q", p.ID, p.GameSlug)
		}
		metadata := p.Metadata
		if metadata == "" {
			metadata = "{}"
		}
		if _, err := tx.Exec(query, p.ID, p.ChildID, gameID, p.GameSlug, p.GameLevel, p.Score, p.Accuracy, p.TimeSpentSeconds,
			p.XPEarned, p.CoinsEarned, p.MinutesCharged, p.IsReplay, p.DailyBonusApplied, metadata, p.CreatedAt); err != nil {
			return fmt.Errorf("progress %d: %w", p.ID, err)
		}
	}
	return nil
}

func importCompletedLevels(tx *database.Tx, entries []CompletedLevelBackup) error {
	query := `INSERT INTO completed_levels (child_id, game_slug, level, best_accuracy, best_score, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, e := range entries {
		if _, err := tx.Exec(query, e.ChildID, e.GameSlug, e.Level, e.BestAccuracy, e.BestScore, e.CompletedAt, e.UpdatedAt); err != nil {
			return fmt.Errorf("completed level %s/%d for child %d: %w", e.GameSlug, e.Level, e.ChildID, err)
		}
	}
	return nil
}

func importAchievements(tx *database.Tx, unlocks []models.ChildAchievement) error {
	repo := repository.NewAchievementRepository(tx)
	for _, u := range unlocks {
		if err := repo.UnlockAchievement(u.ChildID, u.AchievementSlug, u.UnlockedAt); err != nil {
			return fmt.Errorf("achievement %s for child %d: %w", u.AchievementSlug, u.ChildID, err)
		}
	}
	return nil
}

// resetSequences moves Postgres serial counters past the imported IDs.
// SQLite and MySQL advance their counters on explicit inserts.
func resetSequences(tx *database.Tx) error {
	if tx.GetDialect().Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "children", "progress"} {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s", table, table)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}
	return nil
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

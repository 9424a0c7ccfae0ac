package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations("../../migrations"))
	return db
}

func TestMigrationsCreateSchema(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"users", "children", "games", "progress", "completed_levels", "achievements", "child_achievements"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestMigrationsRunOnce(t *testing.T) {
	db := openTestDB(t)

	var before int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&before))
	require.NoError(t, db.RunMigrations("../../migrations"))

	var after int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&after))
	assert.Equal(t, before, after)
	assert.Greater(t, after, 0)
}

func TestMigrationsMissingDirectory(t *testing.T) {
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	err = db.RunMigrations(t.TempDir())
	assert.ErrorContains(t, err, "no migration files")
}

func TestExecReturningID(t *testing.T) {
	db := openTestDB(t)

	first, err := db.ExecReturningID("INSERT INTO users (email, name) VALUES (?, ?)", "a@example.com", "A")
	require.NoError(t, err)
	second, err := db.ExecReturningID("INSERT INTO users (email, name) VALUES (?, ?)", "b@example.com", "B")
	require.NoError(t, err)

	assert.Greater(t, first, int64(0))
	assert.Equal(t, first+1, second)
}

func TestWithTx(t *testing.T) {
	db := openTestDB(t)

	countUsers := func() int {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n))
		return n
	}

	t.Run("commit", func(t *testing.T) {
		err := db.WithTx(func(tx *Tx) error {
			_, err := tx.ExecReturningID("INSERT INTO users (email) VALUES (?)", "commit@example.com")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countUsers())
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(func(tx *Tx) error {
			if _, err := tx.Exec("INSERT INTO users (email) VALUES (?)", "rollback@example.com"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, countUsers())
	})

	t.Run("rollback on panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.WithTx(func(tx *Tx) error {
				if _, err := tx.Exec("INSERT INTO users (email) VALUES (?)", "panic@example.com"); err != nil {
					return err
				}
				panic("boom")
			})
		})
		assert.Equal(t, 1, countUsers())
	})
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec("INSERT INTO children (parent_id, name) VALUES (?, ?)", 999, "Orphan")
	assert.Error(t, err)
}

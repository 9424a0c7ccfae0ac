package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"playlearn/internal/models"
)

func TestCompletedLevelsRecord(t *testing.T) {
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	levels := NewCompletedLevels()
	levels.Record(models.CompletedLevel{GameSlug: "letters", Level: 1, BestAccuracy: 60, BestScore: 80, CompletedAt: first, UpdatedAt: first})

	merged := levels.Record(models.CompletedLevel{GameSlug: "letters", Level: 1, BestAccuracy: 90, BestScore: 40, CompletedAt: later, UpdatedAt: later})

	assert.Len(t, levels, 1)
	assert.Equal(t, 90.0, merged.BestAccuracy)
	assert.Equal(t, 80, merged.BestScore)
	assert.Equal(t, first, merged.CompletedAt)
	assert.Equal(t, later, merged.UpdatedAt)

	stored, ok := levels.Get("letters", 1)
	assert.True(t, ok)
	assert.Equal(t, merged, stored)
}

func TestCompletedLevelsMergesDuplicates(t *testing.T) {
	levels := NewCompletedLevels(
		models.CompletedLevel{GameSlug: "numbers", Level: 2, BestAccuracy: 70, BestScore: 10},
		models.CompletedLevel{GameSlug: "numbers", Level: 2, BestAccuracy: 55, BestScore: 30},
	)

	entry, ok := levels.Get("numbers", 2)
	assert.True(t, ok)
	assert.Equal(t, 70.0, entry.BestAccuracy)
	assert.Equal(t, 30, entry.BestScore)
}

func TestCompletedLevelsOrdering(t *testing.T) {
	levels := NewCompletedLevels(
		models.CompletedLevel{GameSlug: "numbers", Level: 3},
		models.CompletedLevel{GameSlug: "letters", Level: 2},
		models.CompletedLevel{GameSlug: "numbers", Level: 1},
		models.CompletedLevel{GameSlug: "letters", Level: 1},
	)

	forGame := levels.ForGame("numbers")
	assert.Len(t, forGame, 2)
	assert.Equal(t, 1, forGame[0].Level)
	assert.Equal(t, 3, forGame[1].Level)

	all := levels.All()
	var keys []LevelKey
	for _, e := range all {
		keys = append(keys, LevelKey{GameSlug: e.GameSlug, Level: e.Level})
	}
	assert.Equal(t, []LevelKey{
		{GameSlug: "letters", Level: 1},
		{GameSlug: "letters", Level: 2},
		{GameSlug: "numbers", Level: 1},
		{GameSlug: "numbers", Level: 3},
	}, keys)

	assert.Empty(t, levels.ForGame("colors"))
	assert.NotNil(t, levels.ForGame("colors"))
}

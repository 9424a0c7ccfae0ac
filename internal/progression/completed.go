package progression

import (
	"sort"

	"playlearn/internal/models"
)

// LevelKey identifies one level of one game
type LevelKey struct {
	GameSlug string
	Level    int
}

// CompletedLevels holds at most one best result per game level
type CompletedLevels map[LevelKey]models.CompletedLevel

// NewCompletedLevels builds a set from stored entries, merging duplicates
func NewCompletedLevels(entries ...models.CompletedLevel) CompletedLevels {
	levels := make(CompletedLevels, len(entries))
	for _, entry := range entries {
		levels.Record(entry)
	}
	return levels
}

// Has reports whether the level was completed
func (c CompletedLevels) Has(gameSlug string, level int) bool {
	_, ok := c[LevelKey{GameSlug: gameSlug, Level: level}]
	return ok
}

// Get returns the stored entry for a level
func (c CompletedLevels) Get(gameSlug string, level int) (models.CompletedLevel, bool) {
	entry, ok := c[LevelKey{GameSlug: gameSlug, Level: level}]
	return entry, ok
}

// Record stores entry, keeping the best accuracy and best score seen for its
// level. The original completion time is preserved. It returns the merged entry.
func (c CompletedLevels) Record(entry models.CompletedLevel) models.CompletedLevel {
	key := LevelKey{GameSlug: entry.GameSlug, Level: entry.Level}
	existing, ok := c[key]
	if !ok {
		c[key] = entry
		return entry
	}

	if entry.BestAccuracy > existing.BestAccuracy {
		existing.BestAccuracy = entry.BestAccuracy
	}
	if entry.BestScore > existing.BestScore {
		existing.BestScore = entry.BestScore
	}
	if entry.UpdatedAt.After(existing.UpdatedAt) {
		existing.UpdatedAt = entry.UpdatedAt
	}
	c[key] = existing
	return existing
}

// ForGame returns the completed levels of one game ordered by level
func (c CompletedLevels) ForGame(gameSlug string) []models.CompletedLevel {
	result := make([]models.CompletedLevel, 0)
	for key, entry := range c {
		if key.GameSlug == gameSlug {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Level < result[j].Level })
	return result
}

// All returns every entry ordered by game slug and level
func (c CompletedLevels) All() []models.CompletedLevel {
	result := make([]models.CompletedLevel, 0, len(c))
	for _, entry := range c {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].GameSlug != result[j].GameSlug {
			return result[i].GameSlug < result[j].GameSlug
		}
		return result[i].Level < result[j].Level
	})
	return result
}

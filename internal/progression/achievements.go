package progression

import "playlearn/internal/models"

// Stats are the cumulative figures achievement criteria are checked against
type Stats struct {
	GamesPlayed  int
	BestAccuracy float64
	Streak       int
	Categories   int
	Level        int
	TotalXP      int
}

// Satisfied reports whether stats meet the achievement's criterion.
// Unknown criteria types are never satisfied.
func Satisfied(a models.Achievement, s Stats) bool {
	switch a.CriteriaType {
	case models.CriteriaGamesPlayed:
		return s.GamesPlayed >= a.Threshold
	case models.CriteriaAccuracy:
		return s.GamesPlayed > 0 && s.BestAccuracy >= float64(a.Threshold)
	case models.CriteriaStreak:
		return s.Streak >= a.Threshold
	case models.CriteriaCategories:
		return s.Categories >= a.Threshold
	case models.CriteriaLevel:
		return s.Level >= a.Threshold
	case models.CriteriaTotalXP:
		return s.TotalXP >= a.Threshold
	default:
		return false
	}
}

// NewlyUnlocked returns the catalog entries satisfied by stats that are not
// in unlocked yet, in catalog order.
func NewlyUnlocked(catalog []models.Achievement, unlocked map[string]bool, s Stats) []models.Achievement {
	var result []models.Achievement
	for _, a := range catalog {
		if unlocked[a.Slug] {
			continue
		}
		if Satisfied(a, s) {
			result = append(result, a)
		}
	}
	return result
}

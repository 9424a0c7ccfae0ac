package models

import "time"

// Achievement criteria types
const (
	CriteriaGamesPlayed = "games_played"
	CriteriaAccuracy    = "accuracy"
	CriteriaStreak      = "streak"
	CriteriaCategories  = "categories"
	CriteriaLevel       = "level"
	CriteriaTotalXP     = "total_xp"
)

// Achievement is a static rule in the achievement catalog
type Achievement struct {
	ID           int64  `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	CriteriaType string `json:"criteriaType"`
	Threshold    int    `json:"threshold"`
}

// ChildAchievement records when a child unlocked an achievement
type ChildAchievement struct {
	ChildID         int64     `json:"childId"`
	AchievementSlug string    `json:"achievementSlug"`
	UnlockedAt      time.Time `json:"unlockedAt"`
}

package models

import "time"

// Child represents a learner profile owned by a parent account
type Child struct {
	ID          int64  `json:"id"`
	ParentID    int64  `json:"parentId"`
	Name        string `json:"name"`
	Nickname    string `json:"nickname"`
	Age         int    `json:"age"`
	AvatarColor string `json:"avatarColor"`

	XP    int `json:"xp"`
	Coins int `json:"coins"`
	Level int `json:"level"`

	DailyPlayMinutesUsed float64    `json:"dailyPlayMinutesUsed"`
	LastDailyReset       *time.Time `json:"lastDailyReset,omitempty"`

	CurrentStreak  int        `json:"currentStreak"`
	LongestStreak  int        `json:"longestStreak"`
	LastPlayedDate *time.Time `json:"lastPlayedDate,omitempty"`

	// LastDailyChallengeDate is the UTC date key (2006-01-02) of the last
	// submission that received the daily bonus.
	LastDailyChallengeDate string `json:"lastDailyChallengeDate"`
	DailyChallengeUsed     bool   `json:"dailyChallengeUsed"`

	// Version is the optimistic concurrency token for aggregate updates.
	Version int64 `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChildWithProgress combines a child with level progress for display
type ChildWithProgress struct {
	Child
	LevelProgress    float64 `json:"levelProgress"`
	NextLevelXP      int     `json:"nextLevelXp"`
	AchievementCount int     `json:"achievementCount"`
}

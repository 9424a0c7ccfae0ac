package models

import "time"

// Progress is one settled game round. Rows are append-only.
type Progress struct {
	ID                int64     `json:"id"`
	ChildID           int64     `json:"childId"`
	GameID            int64     `json:"gameId"`
	GameSlug          string    `json:"gameSlug"`
	GameLevel         int       `json:"gameLevel"`
	Score             int       `json:"score"`
	Accuracy          float64   `json:"accuracy"`
	TimeSpentSeconds  int       `json:"timeSpentSeconds"`
	XPEarned          int       `json:"xpEarned"`
	CoinsEarned       int       `json:"coinsEarned"`
	MinutesCharged    float64   `json:"minutesCharged"`
	IsReplay          bool      `json:"isReplay"`
	DailyBonusApplied bool      `json:"dailyBonusApplied"`
	Metadata          string    `json:"metadata,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// CompletedLevel is the best result a child has reached on one game level
type CompletedLevel struct {
	ChildID      int64     `json:"-"`
	GameSlug     string    `json:"gameSlug"`
	Level        int       `json:"level"`
	BestAccuracy float64   `json:"bestAccuracy"`
	BestScore    int       `json:"bestScore"`
	CompletedAt  time.Time `json:"completedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RewardTotals sums the rewards recorded in a child's progress log
type RewardTotals struct {
	ChildID int64 `json:"childId"`
	XP      int   `json:"xp"`
	Coins   int   `json:"coins"`
	Rounds  int   `json:"rounds"`
}

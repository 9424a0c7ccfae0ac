package models

import "time"

// Rewards are the base XP and coins a game grants before multipliers
type Rewards struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
}

// Game is a static catalog entry
type Game struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	IsPremium bool      `json:"isPremium"`
	Rewards   Rewards   `json:"rewards"`
	MaxLevel  int       `json:"maxLevel"`
	CreatedAt time.Time `json:"createdAt"`
}

package service

import "playlearn/internal/models"

type gameDefinition struct {
	Title     string
	Category  string
	IsPremium bool
	Rewards   models.Rewards
	MaxLevel  int
}

// builtinGames is the catalog seeded at startup. Slugs are derived from titles.
var builtinGames = []gameDefinition{
	{Title: "Letter Match", Category: "letters", Rewards: models.Rewards{XP: 10, Coins: 5}, MaxLevel: 30},
	{Title: "Alphabet Train", Category: "letters", Rewards: models.Rewards{XP: 12, Coins: 6}, MaxLevel: 30},
	{Title: "Phonics Pop", Category: "letters", IsPremium: true, Rewards: models.Rewards{XP: 15, Coins: 8}, MaxLevel: 40},
	{Title: "Counting Stars", Category: "numbers", Rewards: models.Rewards{XP: 10, Coins: 5}, MaxLevel: 30},
	{Title: "Number Bonds", Category: "numbers", Rewards: models.Rewards{XP: 14, Coins: 7}, MaxLevel: 30},
	{Title: "Color Mixer", Category: "colors", Rewards: models.Rewards{XP: 8, Coins: 4}, MaxLevel: 20},
	{Title: "Shape Sorter", Category: "shapes", Rewards: models.Rewards{XP: 10, Coins: 5}, MaxLevel: 25},
	{Title: "Feelings Faces", Category: "emotions", Rewards: models.Rewards{XP: 10, Coins: 5}, MaxLevel: 20},
	{Title: "Animal Sounds", Category: "animals", Rewards: models.Rewards{XP: 8, Coins: 4}, MaxLevel: 20},
	{Title: "Memory Garden", Category: "memory", IsPremium: true, Rewards: models.Rewards{XP: 16, Coins: 8}, MaxLevel: 40},
	{Title: "Rhythm Drums", Category: "music", IsPremium: true, Rewards: models.Rewards{XP: 12, Coins: 6}, MaxLevel: 30},
}

var builtinAchievements = []models.Achievement{
	{Slug: "first_game", Title: "First Steps", Description: "Finish your first game", Icon: "footprints", CriteriaType: models.CriteriaGamesPlayed, Threshold: 1},
	{Slug: "ten_games", Title: "Getting Warm", Description: "Finish 10 games", Icon: "fire", CriteriaType: models.CriteriaGamesPlayed, Threshold: 10},
	{Slug: "fifty_games", Title: "Game Marathon", Description: "Finish 50 games", Icon: "medal", CriteriaType: models.CriteriaGamesPlayed, Threshold: 50},
	{Slug: "perfect_score", Title: "Perfect!", Description: "Get every answer right in a game", Icon: "star", CriteriaType: models.CriteriaAccuracy, Threshold: 100},
	{Slug: "streak_3", Title: "Three in a Row", Description: "Play three days in a row", Icon: "calendar", CriteriaType: models.CriteriaStreak, Threshold: 3},
	{Slug: "streak_7", Title: "Week Warrior", Description: "Play seven days in a row", Icon: "trophy", CriteriaType: models.CriteriaStreak, Threshold: 7},
	{Slug: "explorer", Title: "Explorer", Description: "Play games from three different categories", Icon: "compass", CriteriaType: models.CriteriaCategories, Threshold: 3},
	{Slug: "level_5", Title: "Rising Star", Description: "Reach level 5", Icon: "rocket", CriteriaType: models.CriteriaLevel, Threshold: 5},
	{Slug: "level_10", Title: "Superstar", Description: "Reach level 10", Icon: "crown", CriteriaType: models.CriteriaLevel, Threshold: 10},
	{Slug: "xp_1000", Title: "XP Collector", Description: "Earn 1000 XP", Icon: "gem", CriteriaType: models.CriteriaTotalXP, Threshold: 1000},
}

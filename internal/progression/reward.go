package progression

import (
	"math"
	"time"

	"playlearn/internal/models"
)

// CompletionAccuracy is the accuracy a round needs to count as completing its level
const CompletionAccuracy = 50.0

// Reward is the XP and coins granted for one round
type Reward struct {
	XP                int  `json:"xp"`
	Coins             int  `json:"coins"`
	DailyBonusApplied bool `json:"dailyBonusApplied"`
}

// ComputeReward scales a game's base rewards by level and accuracy. The first
// rewarded round of the day is doubled. Replays earn nothing.
func ComputeReward(base models.Rewards, gameLevel int, accuracy float64, isReplay, firstToday bool) Reward {
	if isReplay {
		return Reward{}
	}

	levelMultiplier := 0.5 + float64(gameLevel-1)*0.1
	accuracyMultiplier := 0.3 + (accuracy/100)*0.9
	factor := levelMultiplier * accuracyMultiplier

	xp := int(math.Round(math.Max(1, float64(base.XP)*factor)))
	coins := int(math.Round(math.Max(0, float64(base.Coins)*factor)))

	if !firstToday {
		return Reward{XP: xp, Coins: coins}
	}
	return Reward{XP: xp * 2, Coins: coins * 2, DailyBonusApplied: true}
}

// IsCompletion reports whether accuracy is enough to complete a level
func IsCompletion(accuracy float64) bool {
	return accuracy >= CompletionAccuracy
}

// IsFirstToday reports whether the child has not received the daily bonus
// on the UTC date of now.
func IsFirstToday(child *models.Child, now time.Time) bool {
	return child.LastDailyChallengeDate != DateKey(now)
}

// MarkDailyBonus stamps the daily bonus as used for the UTC date of now
func MarkDailyBonus(child *models.Child, now time.Time) {
	child.LastDailyChallengeDate = DateKey(now)
	child.DailyChallengeUsed = true
}

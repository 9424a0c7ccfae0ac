package progression

import (
	"time"

	"playlearn/internal/models"
)

// UpdateStreak advances the consecutive-day streak for a play on today.
// Playing again on the same UTC day leaves the streak as it is.
func UpdateStreak(child *models.Child, today time.Time) {
	day := utcDay(today)

	switch {
	case child.LastPlayedDate == nil:
		child.CurrentStreak = 1
	case daysBetween(*child.LastPlayedDate, day) == 0:
		return
	case daysBetween(*child.LastPlayedDate, day) == 1:
		child.CurrentStreak++
	default:
		child.CurrentStreak = 1
	}

	if child.CurrentStreak > child.LongestStreak {
		child.LongestStreak = child.CurrentStreak
	}
	child.LastPlayedDate = &day
}

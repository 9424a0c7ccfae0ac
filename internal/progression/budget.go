package progression

import (
	"time"

	"playlearn/internal/models"
)

const (
	// FreeDailyMinutes is the daily play allowance without a subscription
	FreeDailyMinutes = 15.0
	// UnlimitedMinutes is reported for premium children
	UnlimitedMinutes = 1440.0
)

// EnsureDailyReset zeroes the daily play counter when the UTC date of now
// differs from the last reset. It reports whether a reset happened and is
// idempotent within a UTC day.
func EnsureDailyReset(child *models.Child, now time.Time) bool {
	if child.LastDailyReset != nil && daysBetween(*child.LastDailyReset, now) == 0 {
		return false
	}

	stamp := now.UTC()
	child.DailyPlayMinutesUsed = 0
	child.LastDailyReset = &stamp
	child.DailyChallengeUsed = child.LastDailyChallengeDate == DateKey(now)
	return true
}

// MinutesLeft returns the play time remaining today
func MinutesLeft(child *models.Child, premium bool) float64 {
	if premium {
		return UnlimitedMinutes
	}
	left := FreeDailyMinutes - child.DailyPlayMinutesUsed
	if left < 0 {
		return 0
	}
	return left
}

// ChargeMinutes adds a session's play time to the daily counter and returns
// the minutes charged. Free children are charged at most what is left today.
func ChargeMinutes(child *models.Child, timeSpentSeconds int, premium bool) float64 {
	if timeSpentSeconds <= 0 {
		return 0
	}

	minutes := float64(timeSpentSeconds) / 60
	if !premium {
		if left := MinutesLeft(child, false); minutes > left {
			minutes = left
		}
	}
	child.DailyPlayMinutesUsed += minutes
	return minutes
}

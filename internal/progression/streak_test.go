package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlearn/internal/models"
)

func TestUpdateStreak(t *testing.T) {
	today := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	day := func(offset int) *time.Time {
		d := time.Date(2025, 3, 10+offset, 0, 0, 0, 0, time.UTC)
		return &d
	}

	tests := []struct {
		name        string
		lastPlayed  *time.Time
		streak      int
		longest     int
		wantStreak  int
		wantLongest int
	}{
		{name: "first play", wantStreak: 1, wantLongest: 1},
		{name: "played yesterday", lastPlayed: day(-1), streak: 4, longest: 4, wantStreak: 5, wantLongest: 5},
		{name: "played earlier today", lastPlayed: day(0), streak: 4, longest: 6, wantStreak: 4, wantLongest: 6},
		{name: "played earlier today with no streak", lastPlayed: day(0), wantStreak: 0, wantLongest: 0},
		{name: "gap of two days", lastPlayed: day(-2), streak: 9, longest: 9, wantStreak: 1, wantLongest: 9},
		{name: "last played in the future", lastPlayed: day(2), streak: 3, longest: 3, wantStreak: 1, wantLongest: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child := &models.Child{LastPlayedDate: tt.lastPlayed, CurrentStreak: tt.streak, LongestStreak: tt.longest}
			UpdateStreak(child, today)

			assert.Equal(t, tt.wantStreak, child.CurrentStreak)
			assert.Equal(t, tt.wantLongest, child.LongestStreak)
			require.NotNil(t, child.LastPlayedDate)
			assert.Equal(t, *day(0), *child.LastPlayedDate)
		})
	}
}

func TestUpdateStreakSameDayTwice(t *testing.T) {
	child := &models.Child{}
	morning := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

	UpdateStreak(child, morning)
	UpdateStreak(child, morning.Add(10*time.Hour))

	assert.Equal(t, 1, child.CurrentStreak)
}

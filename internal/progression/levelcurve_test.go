package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPThreshold(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{level: 0, want: 0},
		{level: 1, want: 0},
		{level: 2, want: 100},
		{level: 3, want: 300},
		{level: 4, want: 600},
		{level: 10, want: 4500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, XPThreshold(tt.level), "level %d", tt.level)
	}
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{xp: -10, want: 1},
		{xp: 0, want: 1},
		{xp: 99, want: 1},
		{xp: 100, want: 2},
		{xp: 299, want: 2},
		{xp: 300, want: 3},
		{xp: 10_000_000, want: MaxLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.xp), "xp %d", tt.xp)
	}
}

func TestLevelForXPRoundTrip(t *testing.T) {
	for level := 1; level <= MaxLevel; level++ {
		assert.Equal(t, level, LevelForXP(XPThreshold(level)), "level %d", level)
	}
}

func TestLevelForXPMonotonic(t *testing.T) {
	previous := LevelForXP(0)
	for xp := 1; xp <= XPThreshold(MaxLevel)+500; xp += 7 {
		level := LevelForXP(xp)
		if level < previous {
			t.Fatalf("LevelForXP(%d) = %d, lower than %d", xp, level, previous)
		}
		previous = level
	}
}

func TestProgressFraction(t *testing.T) {
	assert.Equal(t, 0.0, ProgressFraction(-5))
	assert.Equal(t, 0.0, ProgressFraction(0))
	assert.InDelta(t, 0.5, ProgressFraction(50), 1e-9)
	assert.InDelta(t, 0.0, ProgressFraction(100), 1e-9)
	assert.InDelta(t, 0.25, ProgressFraction(150), 1e-9)
	assert.Equal(t, 1.0, ProgressFraction(XPThreshold(MaxLevel)))

	for xp := 0; xp < 5000; xp += 13 {
		f := ProgressFraction(xp)
		assert.True(t, f >= 0 && f < 1, "fraction %v for xp %d", f, xp)
	}
}

func TestNextLevelXP(t *testing.T) {
	assert.Equal(t, 100, NextLevelXP(0))
	assert.Equal(t, 300, NextLevelXP(150))
	assert.Equal(t, XPThreshold(MaxLevel), NextLevelXP(XPThreshold(MaxLevel)+1))
}

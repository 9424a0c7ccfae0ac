package progression

// MaxLevel caps the child level derived from XP
const MaxLevel = 50

// XPThreshold returns the cumulative XP needed to reach level.
// Level 1 starts at 0, then 100, 300, 600 and so on.
func XPThreshold(level int) int {
	if level < 1 {
		return 0
	}
	return level * (level - 1) / 2 * 100
}

// LevelForXP returns the level reached with totalXP
func LevelForXP(totalXP int) int {
	level := 1
	for level < MaxLevel && XPThreshold(level+1) <= totalXP {
		level++
	}
	return level
}

// NextLevelXP returns the cumulative XP of the next level, or the last
// threshold once MaxLevel is reached.
func NextLevelXP(totalXP int) int {
	level := LevelForXP(totalXP)
	if level >= MaxLevel {
		return XPThreshold(MaxLevel)
	}
	return XPThreshold(level + 1)
}

// ProgressFraction returns how far totalXP is between the current level and
// the next one, in [0, 1].
func ProgressFraction(totalXP int) float64 {
	if totalXP <= 0 {
		return 0
	}
	level := LevelForXP(totalXP)
	if level >= MaxLevel {
		return 1
	}
	current := XPThreshold(level)
	next := XPThreshold(level + 1)
	return float64(totalXP-current) / float64(next-current)
}

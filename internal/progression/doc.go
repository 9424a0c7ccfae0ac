// Package progression holds the pure gamification rules applied when a game
// round is settled: the XP level curve, the daily play-time budget, level
// unlocking, reward computation, streaks and achievement criteria.
//
// Nothing in this package performs I/O. Every function that depends on the
// current time takes it as an argument.
package progression

package progression

import "time"

const dateKeyLayout = "2006-01-02"

// DateKey formats t as its UTC calendar date
func DateKey(t time.Time) string {
	return t.UTC().Format(dateKeyLayout)
}

// utcDay truncates t to midnight of its UTC calendar date
func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the number of UTC calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int(utcDay(b).Sub(utcDay(a)).Hours() / 24)
}

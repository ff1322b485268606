package games

import (
	"time"

	"turfbuddy/backend/internal/models"
)

// DeriveStatus computes a game's status. A game is played once its calendar
// day is behind today's (UTC); a game dated today is still open or full.
func DeriveStatus(date time.Time, joined, capacity int, now time.Time) models.GameStatus {
	if day(date).Before(day(now)) {
		return models.StatusPlayed
	}
	if joined >= capacity {
		return models.StatusFull
	}
	return models.StatusOpen
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the UTC calendar day.
func ParseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return day(t), true
	}
	return time.Time{}, false
}

// Package store persists users and games with gorm. Membership changes use
// conditional updates so capacity checks and writes happen as one unit.
package store

import (
	"errors"
	"strings"
	"time"

	"turfbuddy/backend/internal/models"
)

var (
	ErrNotFound        = errors.New("store: record not found")
	ErrDuplicate       = errors.New("store: duplicate key")
	ErrCapacityReached = errors.New("store: game capacity reached")
	ErrAlreadyMember   = errors.New("store: user already a member")
	ErrNotMember       = errors.New("store: user not a member")
	ErrBelowMembership = errors.New("store: capacity below current membership")
)

// StatusFunc derives a game's status from its date and membership size.
type StatusFunc func(date time.Time, joined, capacity int) models.GameStatus

// GameFilter narrows a game listing. Empty fields are ignored.
type GameFilter struct {
	Sport string
	City  string
	Date  *time.Time
}

// GameChanges lists the editable game fields; nil means unchanged.
type GameChanges struct {
	Sport        *string
	Address      *string
	City         *string
	Date         *time.Time
	Time         *string
	PlayerNeeded *int
}

// Empty reports whether no field is set.
func (c GameChanges) Empty() bool {
	return c.Sport == nil && c.Address == nil && c.City == nil &&
		c.Date == nil && c.Time == nil && c.PlayerNeeded == nil
}

// Apply copies the set fields onto g.
func (c GameChanges) Apply(g *models.Game) {
	if c.Sport != nil {
		g.Sport = *c.Sport
	}
	if c.Address != nil {
		g.Location.Address = *c.Address
	}
	if c.City != nil {
		g.Location.City = *c.City
	}
	if c.Date != nil {
		g.Date = *c.Date
	}
	if c.Time != nil {
		g.Time = *c.Time
	}
	if c.PlayerNeeded != nil {
		g.PlayerNeeded = *c.PlayerNeeded
	}
}

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// DateKey formats a calendar date the way it is stored.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

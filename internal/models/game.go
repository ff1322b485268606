package models

import "time"

// GameStatus is derived from a game's date and membership, never set by clients.
type GameStatus string

const (
	StatusOpen   GameStatus = "open"
	StatusFull   GameStatus = "full"
	StatusPlayed GameStatus = "played"
)

// Location is where a game takes place.
type Location struct {
	Address string `gorm:"size:255;not null"`
	City    string `gorm:"size:120;not null;index"`
}

// Game represents one scheduled pickup game.
type Game struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	Sport        string     `gorm:"size:100;not null;index"`
	Location     Location   `gorm:"embedded;embeddedPrefix:location_"`
	Date         time.Time  `gorm:"type:date;not null;index"`
	Time         string     `gorm:"size:50;not null"`
	PlayerNeeded int        `gorm:"not null"`
	HostID       string     `gorm:"type:uuid;not null;index"`
	HostContact  string     `gorm:"size:20;not null"`
	JoinedCount  int        `gorm:"not null;default:0"`
	Status       GameStatus `gorm:"size:20;not null;default:'open';index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Host    User         `gorm:"foreignKey:HostID"`
	Players []GamePlayer `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE;"`
}

// HasPlayer reports whether userID is in the loaded membership.
func (g *Game) HasPlayer(userID string) bool {
	for _, p := range g.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

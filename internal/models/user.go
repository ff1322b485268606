package models

import (
	"time"

	"github.com/lib/pq"
)

// User represents an account.
type User struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	Name            string         `gorm:"size:255;not null"`
	Email           string         `gorm:"size:255;unique;not null"`
	PasswordHash    string         `gorm:"size:255;not null"`
	ContactNumber   string         `gorm:"size:20;not null"`
	PreferredSports pq.StringArray `gorm:"type:text[]"`
	ProfileImage    string         `gorm:"size:512;not null;default:''"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Hosted games come from games.host_id, joined games from game_players.
	HostedGames []Game       `gorm:"foreignKey:HostID"`
	Memberships []GamePlayer `gorm:"foreignKey:UserID"`
}

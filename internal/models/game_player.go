package models

import "time"

// GamePlayer is one membership row. ID gives the join order; the
// (GameID, UserID) pair is unique so a user can join a game only once.
type GamePlayer struct {
	ID       uint      `gorm:"primaryKey"`
	GameID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_game_player"`
	UserID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_game_player;index"`
	JoinedAt time.Time `gorm:"not null"`

	Game Game `gorm:"foreignKey:GameID"`
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}

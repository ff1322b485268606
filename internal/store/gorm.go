package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"turfbuddy/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the postgres-backed store.
type Gorm struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGorm wraps an open connection. The caller owns its lifecycle.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db, now: time.Now}
}

// region --- Users ---

func (s *Gorm) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *Gorm) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Gorm) User(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UserProfile loads a user with the games they host and the games they joined.
func (s *Gorm) UserProfile(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("HostedGames", func(db *gorm.DB) *gorm.DB {
			return db.Order("games.date ASC, games.created_at ASC")
		}).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB {
			return db.Order("game_players.id ASC")
		}).
		Preload("Memberships.Game").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// endregion

// region --- Games ---

func (s *Gorm) CreateGame(ctx context.Context, game *models.Game) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(game).Error
}

// Game loads a game with its host and members in join order.
func (s *Gorm) Game(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	if err := withMembers(s.db.WithContext(ctx)).First(&game, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &game, nil
}

func (s *Gorm) Games(ctx context.Context, filter GameFilter) ([]models.Game, error) {
	query := withMembers(s.db.WithContext(ctx).Model(&models.Game{}))

	if filter.Sport != "" {
		query = query.Where("sport ILIKE ?", "%"+escapeLike(filter.Sport)+"%")
	}
	if filter.City != "" {
		query = query.Where("location_city ILIKE ?", "%"+escapeLike(filter.City)+"%")
	}
	if filter.Date != nil {
		query = query.Where("date = ?", DateKey(*filter.Date))
	}

	var games []models.Game
	if err := query.Order("date ASC, created_at ASC").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

// AddPlayer appends userID to the game's membership. The counter update only
// matches while a slot is free, so two joins racing for the last slot cannot
// both succeed.
func (s *Gorm) AddPlayer(ctx context.Context, gameID, userID string, derive StatusFunc) (*models.Game, error) {
	now := s.now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`UPDATE games SET joined_count = joined_count + 1, updated_at = ? WHERE id = ? AND joined_count < player_needed`, now, gameID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOr(tx, gameID, ErrCapacityReached)
		}

		member := models.GamePlayer{GameID: gameID, UserID: userID, JoinedAt: now}
		if err := tx.Omit(clause.Associations).Create(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyMember
			}
			return err
		}

		return refreshStatus(tx, gameID, derive)
	})
	if err != nil {
		return nil, err
	}
	return s.Game(ctx, gameID)
}

// RemovePlayer deletes userID's membership row and releases the slot.
func (s *Gorm) RemovePlayer(ctx context.Context, gameID, userID string, derive StatusFunc) (*models.Game, error) {
	now := s.now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("game_id = ? AND user_id = ?", gameID, userID).Delete(&models.GamePlayer{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOr(tx, gameID, ErrNotMember)
		}

		if err := tx.Exec(`UPDATE games SET joined_count = joined_count - 1, updated_at = ? WHERE id = ? AND joined_count > 0`, now, gameID).Error; err != nil {
			return err
		}

		return refreshStatus(tx, gameID, derive)
	})
	if err != nil {
		return nil, err
	}
	return s.Game(ctx, gameID)
}

// UpdateGame applies changes under a row lock so the capacity check sees the
// membership count that concurrent joins have committed.
func (s *Gorm) UpdateGame(ctx context.Context, gameID string, changes GameChanges, derive StatusFunc) (*models.Game, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, "id = ?", gameID).Error; err != nil {
			return notFound(err)
		}

		changes.Apply(&game)
		if game.PlayerNeeded < game.JoinedCount {
			return ErrBelowMembership
		}
		game.Status = derive(game.Date, game.JoinedCount, game.PlayerNeeded)

		return tx.Model(&models.Game{}).Where("id = ?", gameID).Updates(map[string]any{
			"sport":            game.Sport,
			"location_address": game.Location.Address,
			"location_city":    game.Location.City,
			"date":             DateKey(game.Date),
			"time":             game.Time,
			"player_needed":    game.PlayerNeeded,
			"status":           game.Status,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Game(ctx, gameID)
}

// DeleteGame removes a game and its memberships if hostID hosts it.
func (s *Gorm) DeleteGame(ctx context.Context, gameID, hostID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "host_id").First(&game, "id = ?", gameID).Error; err != nil {
			return notFound(err)
		}
		if game.HostID != hostID {
			return ErrNotFound
		}

		if err := tx.Where("game_id = ?", gameID).Delete(&models.GamePlayer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Game{}, "id = ?", gameID).Error
	})
}

// MarkPlayed stores the played status for games dated before the given day.
func (s *Gorm) MarkPlayed(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Game{}).
		Where("date < ? AND status <> ?", DateKey(before), models.StatusPlayed).
		Update("status", models.StatusPlayed)
	return res.RowsAffected, res.Error
}

// endregion

func withMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Host").
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("game_players.id ASC")
		}).
		Preload("Players.User")
}

func refreshStatus(tx *gorm.DB, gameID string, derive StatusFunc) error {
	var game models.Game
	if err := tx.Select("id", "date", "player_needed", "joined_count").First(&game, "id = ?", gameID).Error; err != nil {
		return notFound(err)
	}
	status := derive(game.Date, game.JoinedCount, game.PlayerNeeded)
	return tx.Model(&models.Game{}).Where("id = ?", gameID).Update("status", status).Error
}

// missingOr tells a vanished game apart from a failed condition.
func missingOr(tx *gorm.DB, gameID string, err error) error {
	var n int64
	if cerr := tx.Model(&models.Game{}).Where("id = ?", gameID).Count(&n).Error; cerr != nil {
		return fmt.Errorf("count game: %w", cerr)
	}
	if n == 0 {
		return ErrNotFound
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

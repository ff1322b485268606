// Package games owns the lifecycle of a pickup game: creation, membership and
// the derived open/full/played status.
package games

import (
	"context"
	"errors"
	"fmt"
	"time"

	"turfbuddy/backend/internal/models"
	"turfbuddy/backend/internal/store"
	"turfbuddy/backend/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the persistence the manager needs. AddPlayer, RemovePlayer
// and UpdateGame must check and write as one atomic unit per game.
type Repository interface {
	User(ctx context.Context, id string) (*models.User, error)
	CreateGame(ctx context.Context, game *models.Game) error
	Game(ctx context.Context, id string) (*models.Game, error)
	Games(ctx context.Context, filter store.GameFilter) ([]models.Game, error)
	AddPlayer(ctx context.Context, gameID, userID string, derive store.StatusFunc) (*models.Game, error)
	RemovePlayer(ctx context.Context, gameID, userID string, derive store.StatusFunc) (*models.Game, error)
	UpdateGame(ctx context.Context, gameID string, changes store.GameChanges, derive store.StatusFunc) (*models.Game, error)
	DeleteGame(ctx context.Context, gameID, hostID string) error
	MarkPlayed(ctx context.Context, before time.Time) (int64, error)
}

// Notifier receives lifecycle events for a game.
type Notifier interface {
	Publish(gameID, eventType string, payload any)
}

const (
	EventGameCreated  = "game.created"
	EventGameUpdated  = "game.updated"
	EventGameDeleted  = "game.deleted"
	EventPlayerJoined = "player.joined"
	EventPlayerLeft   = "player.left"
)

// Event is the payload published for every lifecycle change.
type Event struct {
	GameID        string            `json:"gameId"`
	UserID        string            `json:"userId,omitempty"`
	Status        models.GameStatus `json:"status,omitempty"`
	PlayersJoined int               `json:"playersJoined"`
	PlayerNeeded  int               `json:"playerNeeded"`
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, string, any) {}

type Manager struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Manager)

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source used for status derivation.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(repo Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:     repo,
		notifier: nopNotifier{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates the input and stores a new game hosted by hostID.
func (m *Manager) Create(ctx context.Context, hostID string, in CreateInput) (*models.Game, error) {
	if !validID(hostID) {
		return nil, ErrInvalidID
	}
	date, err := in.validate()
	if err != nil {
		return nil, err
	}

	host, err := m.repo.User(ctx, hostID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, m.fail("load host", err)
	}

	game := &models.Game{
		ID:           uuid.NewString(),
		Sport:        in.Sport,
		Location:     models.Location{Address: in.Location.Address, City: in.Location.City},
		Date:         date,
		Time:         in.Time,
		PlayerNeeded: *in.PlayerNeeded,
		HostID:       host.ID,
		HostContact:  host.ContactNumber,
		Status:       DeriveStatus(date, 0, *in.PlayerNeeded, m.now()),
	}
	if err := m.repo.CreateGame(ctx, game); err != nil {
		return nil, m.fail("create game", err)
	}
	game.Host = *host
	game.Players = []models.GamePlayer{}

	m.publish(EventGameCreated, game, host.ID)
	return game, nil
}

// List returns every game matching all of the filter's criteria.
func (m *Manager) List(ctx context.Context, filter ListFilter) ([]models.Game, error) {
	f, err := filter.toStore()
	if err != nil {
		return nil, err
	}

	games, err := m.repo.Games(ctx, f)
	if err != nil {
		return nil, m.fail("list games", err)
	}
	now := m.now()
	for i := range games {
		refresh(&games[i], now)
	}
	return games, nil
}

func (m *Manager) Get(ctx context.Context, gameID string) (*models.Game, error) {
	return m.load(ctx, gameID)
}

// Join adds userID to the game. The checks run in a fixed order and the
// first failure wins; the store repeats the capacity and duplicate checks
// atomically with the write.
func (m *Manager) Join(ctx context.Context, gameID, userID string) (*models.Game, error) {
	game, err := m.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, ErrInvalidID
	}

	switch {
	case game.HostID == userID:
		return nil, ErrSelfJoin
	case game.HasPlayer(userID):
		return nil, ErrAlreadyJoined
	case game.JoinedCount >= game.PlayerNeeded:
		return nil, ErrGameFull
	}

	updated, err := m.repo.AddPlayer(ctx, gameID, userID, m.derive())
	switch {
	case errors.Is(err, store.ErrCapacityReached):
		return nil, ErrGameFull
	case errors.Is(err, store.ErrAlreadyMember):
		return nil, ErrAlreadyJoined
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, m.fail("add player", err)
	}

	refresh(updated, m.now())
	m.publish(EventPlayerJoined, updated, userID)
	return updated, nil
}

// Leave removes userID from the game; a full game drops back to open.
func (m *Manager) Leave(ctx context.Context, gameID, userID string) (*models.Game, error) {
	game, err := m.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, ErrInvalidID
	}

	if game.HostID == userID {
		return nil, ErrHostCannotLeave
	}
	if !game.HasPlayer(userID) {
		return nil, ErrNotAMember
	}

	updated, err := m.repo.RemovePlayer(ctx, gameID, userID, m.derive())
	switch {
	case errors.Is(err, store.ErrNotMember):
		return nil, ErrNotAMember
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, m.fail("remove player", err)
	}

	refresh(updated, m.now())
	m.publish(EventPlayerLeft, updated, userID)
	return updated, nil
}

// Delete removes the game. Only its host may do so.
func (m *Manager) Delete(ctx context.Context, gameID, userID string) error {
	game, err := m.load(ctx, gameID)
	if err != nil {
		return err
	}
	if game.HostID != userID {
		return ErrForbidden
	}

	err = m.repo.DeleteGame(ctx, gameID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return m.fail("delete game", err)
	}

	m.publish(EventGameDeleted, game, userID)
	return nil
}

// Update applies the host's partial edit and recomputes the status.
func (m *Manager) Update(ctx context.Context, gameID, userID string, in UpdateInput) (*models.Game, error) {
	game, err := m.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.HostID != userID {
		return nil, ErrForbidden
	}

	changes, err := in.changes(game)
	if err != nil {
		return nil, err
	}
	if changes.Date != nil && !day(*changes.Date).Equal(day(game.Date)) && game.Status == models.StatusPlayed {
		return nil, validation.Errorf("date", "a game that has been played cannot be rescheduled")
	}
	if changes.PlayerNeeded != nil && *changes.PlayerNeeded < game.JoinedCount {
		return nil, errBelowMembership()
	}

	updated, err := m.repo.UpdateGame(ctx, gameID, changes, m.derive())
	switch {
	case errors.Is(err, store.ErrBelowMembership):
		return nil, errBelowMembership()
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, m.fail("update game", err)
	}

	refresh(updated, m.now())
	m.publish(EventGameUpdated, updated, userID)
	return updated, nil
}

// SweepPlayed stores the played status for games dated before today.
// Reads derive the status themselves, so this only matters to consumers of
// the stored column.
func (m *Manager) SweepPlayed(ctx context.Context) (int64, error) {
	n, err := m.repo.MarkPlayed(ctx, m.now())
	if err != nil {
		return 0, m.fail("mark played", err)
	}
	return n, nil
}

func (m *Manager) load(ctx context.Context, gameID string) (*models.Game, error) {
	if !validID(gameID) {
		return nil, ErrInvalidID
	}
	game, err := m.repo.Game(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, m.fail("load game", err)
	}
	refresh(game, m.now())
	return game, nil
}

func (m *Manager) derive() store.StatusFunc {
	now := m.now()
	return func(date time.Time, joined, capacity int) models.GameStatus {
		return DeriveStatus(date, joined, capacity, now)
	}
}

func (m *Manager) fail(op string, err error) error {
	m.logger.Error("game store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, ErrUnavailable)
}

func (m *Manager) publish(eventType string, game *models.Game, userID string) {
	m.notifier.Publish(game.ID, eventType, Event{
		GameID:        game.ID,
		UserID:        userID,
		Status:        game.Status,
		PlayersJoined: game.JoinedCount,
		PlayerNeeded:  game.PlayerNeeded,
	})
}

// refresh recomputes the status at read time; a game whose date has passed
// reads as played even if nothing has written it since.
func refresh(game *models.Game, now time.Time) {
	game.Status = DeriveStatus(game.Date, game.JoinedCount, game.PlayerNeeded, now)
}

func errBelowMembership() error {
	return validation.Errorf("playerNeeded", "playerNeeded cannot be lower than the number of joined players")
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

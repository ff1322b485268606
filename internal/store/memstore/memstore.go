// Package memstore keeps users and games in process memory. It honours the
// same contract as the postgres store, with one mutex serializing writes, and
// backs local runs (STORE_DRIVER=memory) and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"turfbuddy/backend/internal/models"
	"turfbuddy/backend/internal/store"
)

type Store struct {
	mu sync.Mutex

	users   map[string]models.User
	emails  map[string]string
	games   map[string]models.Game
	members map[string][]models.GamePlayer
	created map[string]uint64

	seq uint64
	now func() time.Time
}

func New() *Store {
	return &Store{
		users:   make(map[string]models.User),
		emails:  make(map[string]string),
		games:   make(map[string]models.Game),
		members: make(map[string][]models.GamePlayer),
		created: make(map[string]uint64),
		now:     time.Now,
	}
}

func (s *Store) next() uint64 {
	s.seq++
	return s.seq
}

// region --- Users ---

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return store.ErrDuplicate
	}
	if _, taken := s.users[user.ID]; taken {
		return store.ErrDuplicate
	}

	now := s.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	stored.HostedGames, stored.Memberships = nil, nil
	s.users[user.ID] = stored
	s.emails[user.Email] = user.ID
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *Store) User(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) UserProfile(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	for _, gameID := range s.sortedGameIDs() {
		game := s.games[gameID]
		if game.HostID == user.ID {
			user.HostedGames = append(user.HostedGames, game)
		}
	}

	var joined []models.GamePlayer
	for gameID, members := range s.members {
		for _, m := range members {
			if m.UserID == user.ID {
				m.Game = s.games[gameID]
				joined = append(joined, m)
			}
		}
	}
	sort.Slice(joined, func(i, j int) bool { return joined[i].ID < joined[j].ID })
	user.Memberships = joined

	return &user, nil
}

// endregion

// region --- Games ---

func (s *Store) CreateGame(_ context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.games[game.ID]; taken {
		return store.ErrDuplicate
	}

	now := s.now().UTC()
	game.CreatedAt, game.UpdatedAt = now, now
	stored := *game
	stored.Host, stored.Players = models.User{}, nil
	s.games[game.ID] = stored
	s.created[game.ID] = s.next()
	return nil
}

func (s *Store) Game(_ context.Context, id string) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolve(id)
}

func (s *Store) Games(_ context.Context, filter store.GameFilter) ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sport := strings.ToLower(filter.Sport)
	city := strings.ToLower(filter.City)

	games := []models.Game{}
	for _, id := range s.sortedGameIDs() {
		game := s.games[id]
		if sport != "" && !strings.Contains(strings.ToLower(game.Sport), sport) {
			continue
		}
		if city != "" && !strings.Contains(strings.ToLower(game.Location.City), city) {
			continue
		}
		if filter.Date != nil && store.DateKey(game.Date) != store.DateKey(*filter.Date) {
			continue
		}
		resolved, _ := s.resolve(id)
		games = append(games, *resolved)
	}
	return games, nil
}

func (s *Store) AddPlayer(_ context.Context, gameID, userID string, derive store.StatusFunc) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[gameID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if game.JoinedCount >= game.PlayerNeeded {
		return nil, store.ErrCapacityReached
	}
	for _, m := range s.members[gameID] {
		if m.UserID == userID {
			return nil, store.ErrAlreadyMember
		}
	}

	now := s.now().UTC()
	s.members[gameID] = append(s.members[gameID], models.GamePlayer{
		ID:       uint(s.next()),
		GameID:   gameID,
		UserID:   userID,
		JoinedAt: now,
	})
	game.JoinedCount++
	game.Status = derive(game.Date, game.JoinedCount, game.PlayerNeeded)
	game.UpdatedAt = now
	s.games[gameID] = game

	return s.resolve(gameID)
}

func (s *Store) RemovePlayer(_ context.Context, gameID, userID string, derive store.StatusFunc) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[gameID]
	if !ok {
		return nil, store.ErrNotFound
	}

	members := s.members[gameID]
	idx := -1
	for i, m := range members {
		if m.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, store.ErrNotMember
	}
	s.members[gameID] = append(members[:idx:idx], members[idx+1:]...)

	if game.JoinedCount > 0 {
		game.JoinedCount--
	}
	game.Status = derive(game.Date, game.JoinedCount, game.PlayerNeeded)
	game.UpdatedAt = s.now().UTC()
	s.games[gameID] = game

	return s.resolve(gameID)
}

func (s *Store) UpdateGame(_ context.Context, gameID string, changes store.GameChanges, derive store.StatusFunc) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[gameID]
	if !ok {
		return nil, store.ErrNotFound
	}

	changes.Apply(&game)
	if game.PlayerNeeded < game.JoinedCount {
		return nil, store.ErrBelowMembership
	}
	game.Status = derive(game.Date, game.JoinedCount, game.PlayerNeeded)
	game.UpdatedAt = s.now().UTC()
	s.games[gameID] = game

	return s.resolve(gameID)
}

func (s *Store) DeleteGame(_ context.Context, gameID, hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, ok := s.games[gameID]
	if !ok || game.HostID != hostID {
		return store.ErrNotFound
	}
	delete(s.games, gameID)
	delete(s.members, gameID)
	delete(s.created, gameID)
	return nil
}

func (s *Store) MarkPlayed(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := store.DateKey(before)
	var n int64
	for id, game := range s.games {
		if store.DateKey(game.Date) < cutoff && game.Status != models.StatusPlayed {
			game.Status = models.StatusPlayed
			s.games[id] = game
			n++
		}
	}
	return n, nil
}

// endregion

// resolve copies a game with its host and members filled in. mu must be held.
func (s *Store) resolve(id string) (*models.Game, error) {
	game, ok := s.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	game.Host = s.users[game.HostID]
	members := s.members[id]
	game.Players = make([]models.GamePlayer, len(members))
	for i, m := range members {
		m.User = s.users[m.UserID]
		game.Players[i] = m
	}
	return &game, nil
}

// sortedGameIDs orders games by date, then creation. mu must be held.
func (s *Store) sortedGameIDs() []string {
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.games[ids[i]], s.games[ids[j]]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return s.created[ids[i]] < s.created[ids[j]]
	})
	return ids
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"turfbuddy/backend/internal/auth"
	"turfbuddy/backend/internal/games"
	"turfbuddy/backend/internal/hub"
	"turfbuddy/backend/internal/store/memstore"
	"turfbuddy/backend/internal/users"
	"turfbuddy/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *gin.Engine
	hub    *hub.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	st := memstore.New()
	events := hub.NewHub(nil)
	tokens := jwt.NewManager("handler-test-secret", time.Hour)
	revoked := auth.NewMemoryDenylist()

	manager := games.NewManager(st, games.WithNotifier(events), games.WithClock(clock))
	userSvc := users.NewService(st, users.WithPasswordCost(bcrypt.MinCost), users.WithClock(clock))

	router := NewRouter(RouterConfig{
		Games:          NewGameHandler(manager, events),
		Users:          NewUserHandler(userSvc, tokens, revoked, false, zap.NewNop()),
		Auth:           auth.NewAuthenticator(tokens, revoked, st),
		Logger:         zap.NewNop(),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{router: router, hub: events}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, name, email string) (token, id string) {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/users/register", "", gin.H{
		"name":          name,
		"email":         email,
		"password":      "password123",
		"contactNumber": "9876543210",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[AuthResponse](t, w)
	return resp.Token, resp.User.ID
}

func (s *testServer) createGame(t *testing.T, token string, playerNeeded int) GameResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/games", token, gameBody(playerNeeded))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[GameMessageResponse](t, w).Game
}

func gameBody(playerNeeded any) gin.H {
	return gin.H{
		"sport":        "Football",
		"location":     gin.H{"address": "12 Park Street", "city": "Pune"},
		"date":         "2026-10-20",
		"time":         "18:00",
		"playerNeeded": playerNeeded,
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/users/register", "", gin.H{
		"name":            "Asha",
		"email":           "asha@example.com",
		"password":        "password123",
		"contactNumber":   "9876543210",
		"preferredSports": []string{"football"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[AuthResponse](t, w)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.Equal(t, []string{"football"}, resp.User.PreferredSports)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Header().Get("Set-Cookie"), auth.CookieName+"=")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")

	w = s.do(http.MethodPost, "/api/v1/users/register", "", gin.H{
		"name": "Other", "email": "ASHA@example.com", "password": "password123", "contactNumber": "9876543210",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/users/register", "", gin.H{
		"name": "Short", "email": "short@example.com", "password": "password123", "contactNumber": "123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "contactNumber", decode[ErrorResponse](t, w).Field)

	w = s.do(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "asha@example.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login successfully", decode[AuthResponse](t, w).Message)

	w = s.do(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "asha@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPassword := decode[ErrorResponse](t, w).Error

	w = s.do(http.MethodPost, "/api/v1/users/login", "", gin.H{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPassword, decode[ErrorResponse](t, w).Error)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token, id := s.register(t, "Asha", "asha@example.com")

	w := s.do(http.MethodGet, "/api/v1/users/check", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode[UserResponse](t, w).ID)

	w = s.do(http.MethodPost, "/api/v1/users/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")

	w = s.do(http.MethodGet, "/api/v1/users/check", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// logging out without a session still clears the cookie
	w = s.do(http.MethodPost, "/api/v1/users/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateGame(t *testing.T) {
	s := newTestServer(t)
	token, hostID := s.register(t, "Asha", "asha@example.com")

	w := s.do(http.MethodPost, "/api/v1/games", "", gameBody(4))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/games", token, gameBody(4))
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[GameMessageResponse](t, w)
	assert.Equal(t, "Game created successfully", resp.Message)
	assert.Equal(t, "2026-10-20", resp.Game.Date)
	assert.Equal(t, hostID, resp.Game.Host.ID)
	assert.Equal(t, "9876543210", resp.Game.HostContact)
	assert.Equal(t, "open", string(resp.Game.Status))
	assert.Empty(t, resp.Game.PlayerJoined)
	require.NotNil(t, resp.Game.IsHost)
	assert.True(t, *resp.Game.IsHost)

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"wrong type", gameBody("four"), "playerNeeded"},
		{"zero players", gameBody(0), "playerNeeded"},
		{"missing city", gin.H{"sport": "x", "location": gin.H{"address": "a"}, "date": "2026-10-20", "time": "1", "playerNeeded": 2}, "location.city"},
		{"bad date", gin.H{"sport": "x", "location": gin.H{"address": "a", "city": "b"}, "date": "someday", "time": "1", "playerNeeded": 2}, "date"},
		{"empty body", nil, "sport"},
		{"broken json", `{"sport":`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/games", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.field, decode[ErrorResponse](t, w).Field)
		})
	}
}

func TestListAndGetGames(t *testing.T) {
	s := newTestServer(t)
	hostToken, _ := s.register(t, "Asha", "asha@example.com")
	game := s.createGame(t, hostToken, 4)

	w := s.do(http.MethodGet, "/api/v1/games?sport=foot&city=PUNE", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[GameListResponse](t, w)
	assert.True(t, list.Success)
	require.Len(t, list.Games, 1)
	assert.Nil(t, list.Games[0].IsHost)

	w = s.do(http.MethodGet, "/api/v1/games?sport=cricket", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"games":[]}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/games?date=not-a-date", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/games/"+game.ID, hostToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[GameResponse](t, w)
	assert.Equal(t, game.ID, got.ID)
	require.NotNil(t, got.HasJoined)
	assert.False(t, *got.HasJoined)

	w = s.do(http.MethodGet, "/api/v1/games/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/games/00000000-0000-0000-0000-000000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJoinAndLeave(t *testing.T) {
	s := newTestServer(t)
	hostToken, _ := s.register(t, "Asha", "asha@example.com")
	p1, p1ID := s.register(t, "Ravi", "ravi@example.com")
	p2, _ := s.register(t, "Meera", "meera@example.com")
	game := s.createGame(t, hostToken, 1)
	path := "/api/v1/games/" + game.ID

	w := s.do(http.MethodPost, path+"/join", hostToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path+"/join", p1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	joined := decode[GameMessageResponse](t, w).Game
	assert.Equal(t, "full", string(joined.Status))
	require.Len(t, joined.PlayerJoined, 1)
	assert.Equal(t, p1ID, joined.PlayerJoined[0].ID)
	assert.True(t, *joined.HasJoined)

	w = s.do(http.MethodPost, path+"/join", p1, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, games.ErrAlreadyJoined.Error(), decode[ErrorResponse](t, w).Error)

	w = s.do(http.MethodPost, path+"/join", p2, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, games.ErrGameFull.Error(), decode[ErrorResponse](t, w).Error)

	w = s.do(http.MethodPost, path+"/leave", hostToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path+"/leave", p2, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, path+"/leave", p1, nil)
	require.Equal(t, http.StatusOK, w.Code)
	left := decode[GameMessageResponse](t, w).Game
	assert.Equal(t, "open", string(left.Status))
	assert.Empty(t, left.PlayerJoined)

	w = s.do(http.MethodPost, path+"/join", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateGame(t *testing.T) {
	s := newTestServer(t)
	hostToken, hostID := s.register(t, "Asha", "asha@example.com")
	other, otherID := s.register(t, "Ravi", "ravi@example.com")
	game := s.createGame(t, hostToken, 2)
	path := "/api/v1/games/" + game.ID

	w := s.do(http.MethodPatch, path, other, gin.H{"sport": "cricket"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, path+"/join", other, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPatch, path, hostToken, gin.H{
		"playerNeeded": 1,
		"status":       "played",
		"host":         otherID,
		"playerJoined": []string{},
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[GameMessageResponse](t, w).Game
	assert.Equal(t, 1, updated.PlayerNeeded)
	assert.Equal(t, "full", string(updated.Status))
	assert.Equal(t, hostID, updated.Host.ID)
	assert.Len(t, updated.PlayerJoined, 1)

	w = s.do(http.MethodPatch, path, hostToken, gin.H{"playerNeeded": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "playerNeeded", decode[ErrorResponse](t, w).Field)

	w = s.do(http.MethodPatch, path, hostToken, gin.H{"location": gin.H{"city": "Mumbai"}})
	require.Equal(t, http.StatusOK, w.Code)
	loc := decode[GameMessageResponse](t, w).Game.Location
	assert.Equal(t, "Mumbai", loc.City)
	assert.Equal(t, "12 Park Street", loc.Address)
}

func TestDeleteGame(t *testing.T) {
	s := newTestServer(t)
	hostToken, _ := s.register(t, "Asha", "asha@example.com")
	other, _ := s.register(t, "Ravi", "ravi@example.com")
	game := s.createGame(t, hostToken, 2)
	path := "/api/v1/games/" + game.ID

	w := s.do(http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, path, hostToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, path, hostToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)
	hostToken, _ := s.register(t, "Asha", "asha@example.com")
	player, _ := s.register(t, "Ravi", "ravi@example.com")
	game := s.createGame(t, hostToken, 3)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/games/"+game.ID+"/join", player, nil).Code)

	w := s.do(http.MethodGet, "/api/v1/users/profile", hostToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[ProfileResponse](t, w)
	require.Len(t, profile.GameHosted, 1)
	assert.Equal(t, game.ID, profile.GameHosted[0].ID)
	assert.Equal(t, 1, profile.GameHosted[0].PlayersJoined)
	assert.Empty(t, profile.GameJoined)

	w = s.do(http.MethodGet, "/api/v1/users/profile", player, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile = decode[ProfileResponse](t, w)
	assert.Empty(t, profile.GameHosted)
	require.Len(t, profile.GameJoined, 1)
	assert.Equal(t, game.ID, profile.GameJoined[0].ID)

	w = s.do(http.MethodGet, "/api/v1/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGameEvents(t *testing.T) {
	s := newTestServer(t)
	hostToken, _ := s.register(t, "Asha", "asha@example.com")
	player, _ := s.register(t, "Ravi", "ravi@example.com")
	game := s.createGame(t, hostToken, 3)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/"+game.ID+"/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return s.hub.Subscribers(game.ID) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/games/"+game.ID+"/join", player, nil).Code)

	// the join event is buffered in the client channel; give the stream a moment to write it
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", strings.Split(w.Header().Get("Content-Type"), ";")[0])
	assert.Contains(t, body, "event:ready")
	assert.Contains(t, body, games.EventPlayerJoined)
	assert.Zero(t, s.hub.Subscribers(game.ID))

	w = s.do(http.MethodGet, "/api/v1/games/00000000-0000-0000-0000-000000000000/events", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGameEventsEndAfterDelete(t *testing.T) {
	s := newTestServer(t)
	hostToken, _ := s.register(t, "Asha", "asha@example.com")
	game := s.createGame(t, hostToken, 3)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/"+game.ID+"/events", nil)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return s.hub.Subscribers(game.ID) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/v1/games/"+game.ID, hostToken, nil).Code)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after the game was deleted")
	}
	assert.Contains(t, w.Body.String(), games.EventGameDeleted)
	assert.Zero(t, s.hub.Subscribers(game.ID))
}

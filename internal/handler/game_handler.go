package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"turfbuddy/backend/internal/auth"
	"turfbuddy/backend/internal/games"
	"turfbuddy/backend/internal/hub"
	"turfbuddy/backend/internal/models"
	"turfbuddy/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type LocationResponse struct {
	Address string `json:"address" example:"12 Park Street"`
	City    string `json:"city" example:"Pune"`
}

type HostResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name" example:"Asha Rao"`
	Email         string `json:"email" example:"asha@example.com"`
	ContactNumber string `json:"contactNumber" example:"9876543210"`
}

type PlayerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name" example:"Ravi"`
	Email string `json:"email" example:"ravi@example.com"`
}

// GameResponse is a game as clients see it. IsHost and HasJoined are only
// set when the request is authenticated.
type GameResponse struct {
	ID           string            `json:"id"`
	Sport        string            `json:"sport" example:"football"`
	Location     LocationResponse  `json:"location"`
	Date         string            `json:"date" example:"2026-10-20"`
	Time         string            `json:"time" example:"18:00"`
	PlayerNeeded int               `json:"playerNeeded" example:"10"`
	Host         HostResponse      `json:"host"`
	HostContact  string            `json:"hostContact" example:"9876543210"`
	PlayerJoined []PlayerResponse  `json:"playerJoined"`
	Status       models.GameStatus `json:"status" example:"open"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	IsHost       *bool             `json:"isHost,omitempty"`
	HasJoined    *bool             `json:"hasJoined,omitempty"`
}

func newGameResponse(game models.Game, viewerID string) GameResponse {
	players := make([]PlayerResponse, 0, len(game.Players))
	for _, p := range game.Players {
		players = append(players, PlayerResponse{ID: p.User.ID, Name: p.User.Name, Email: p.User.Email})
	}

	resp := GameResponse{
		ID:           game.ID,
		Sport:        game.Sport,
		Location:     LocationResponse{Address: game.Location.Address, City: game.Location.City},
		Date:         store.DateKey(game.Date),
		Time:         game.Time,
		PlayerNeeded: game.PlayerNeeded,
		Host: HostResponse{
			ID:            game.Host.ID,
			Name:          game.Host.Name,
			Email:         game.Host.Email,
			ContactNumber: game.Host.ContactNumber,
		},
		HostContact:  game.HostContact,
		PlayerJoined: players,
		Status:       game.Status,
		CreatedAt:    game.CreatedAt,
		UpdatedAt:    game.UpdatedAt,
	}
	if viewerID != "" {
		isHost := game.HostID == viewerID
		hasJoined := game.HasPlayer(viewerID)
		resp.IsHost, resp.HasJoined = &isHost, &hasJoined
	}
	return resp
}

type GameListResponse struct {
	Success bool           `json:"success" example:"true"`
	Games   []GameResponse `json:"games"`
}

type GameMessageResponse struct {
	Message string       `json:"message" example:"Game created successfully"`
	Game    GameResponse `json:"game"`
}

// endregion

type GameHandler struct {
	games *games.Manager
	hub   *hub.Hub
}

func NewGameHandler(manager *games.Manager, h *hub.Hub) *GameHandler {
	return &GameHandler{games: manager, hub: h}
}

// CreateGame godoc
// @Summary      Host a new game
// @Description  Creates a game hosted by the authenticated user.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body games.CreateInput true "Game Info"
// @Success      201  {object}  GameMessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	var input games.CreateInput
	if err := bindJSON(c, &input); err != nil {
		writeError(c, err)
		return
	}

	userID := auth.UserID(c)
	game, err := h.games.Create(c.Request.Context(), userID, input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, GameMessageResponse{
		Message: "Game created successfully",
		Game:    newGameResponse(*game, userID),
	})
}

// GetGames godoc
// @Summary      List games
// @Description  Lists games, optionally filtered by sport, city and date.
// @Tags         games
// @Produce      json
// @Param        sport query string false "Sport (case-insensitive substring)"
// @Param        city  query string false "City (case-insensitive substring)"
// @Param        date  query string false "Calendar day, YYYY-MM-DD"
// @Success      200  {object}  GameListResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /games [get]
func (h *GameHandler) GetGames(c *gin.Context) {
	var filter games.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameters"})
		return
	}

	list, err := h.games.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	viewerID := auth.UserID(c)
	resp := GameListResponse{Success: true, Games: make([]GameResponse, 0, len(list))}
	for _, g := range list {
		resp.Games = append(resp.Games, newGameResponse(g, viewerID))
	}
	c.JSON(http.StatusOK, resp)
}

// GetGameByID godoc
// @Summary      Get a game
// @Description  Returns one game with its host and players.
// @Tags         games
// @Produce      json
// @Param        id path string true "Game ID"
// @Success      200  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse "Invalid game ID"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [get]
func (h *GameHandler) GetGameByID(c *gin.Context) {
	game, err := h.games.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameResponse(*game, auth.UserID(c)))
}

// JoinGame godoc
// @Summary      Join a game
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200  {object}  GameMessageResponse
// @Failure      400  {object}  ErrorResponse "Invalid ID or own game"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Failure      409  {object}  ErrorResponse "Already joined or game full"
// @Router       /games/{id}/join [post]
func (h *GameHandler) JoinGame(c *gin.Context) {
	userID := auth.UserID(c)
	game, err := h.games.Join(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GameMessageResponse{Message: "Joined game successfully", Game: newGameResponse(*game, userID)})
}

// LeaveGame godoc
// @Summary      Leave a game
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200  {object}  GameMessageResponse
// @Failure      400  {object}  ErrorResponse "Invalid ID or host leaving"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Failure      409  {object}  ErrorResponse "Not a member"
// @Router       /games/{id}/leave [post]
func (h *GameHandler) LeaveGame(c *gin.Context) {
	userID := auth.UserID(c)
	game, err := h.games.Leave(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GameMessageResponse{Message: "Left game successfully", Game: newGameResponse(*game, userID)})
}

// UpdateGame godoc
// @Summary      Update a game
// @Description  Applies a partial edit. Only the host may update; host, players and status cannot be set.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string            true "Game ID"
// @Param        input body games.UpdateInput true "Fields to change"
// @Success      200  {object}  GameMessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the host"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [patch]
func (h *GameHandler) UpdateGame(c *gin.Context) {
	var input games.UpdateInput
	if err := bindJSON(c, &input); err != nil {
		writeError(c, err)
		return
	}

	userID := auth.UserID(c)
	game, err := h.games.Update(c.Request.Context(), c.Param("id"), userID, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GameMessageResponse{Message: "Game updated successfully", Game: newGameResponse(*game, userID)})
}

// DeleteGame godoc
// @Summary      Delete a game
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200 {object} map[string]string "{"message": "Game deleted"}"
// @Failure      403 {object} ErrorResponse "Not the host"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{id} [delete]
func (h *GameHandler) DeleteGame(c *gin.Context) {
	if err := h.games.Delete(c.Request.Context(), c.Param("id"), auth.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}

// GameEvents godoc
// @Summary      Stream game events
// @Description  Server-sent events for joins, leaves, edits and deletion of one game.
// @Tags         games
// @Produce      text/event-stream
// @Param        id path string true "Game ID"
// @Success      200
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{id}/events [get]
func (h *GameHandler) GameEvents(c *gin.Context) {
	ctx := c.Request.Context()
	game, err := h.games.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	client := make(hub.Client, 16)
	h.hub.Subscribe(game.ID, client)
	defer h.hub.Unsubscribe(game.ID, client)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("ready", gin.H{"gameId": game.ID})
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client:
			if !ok {
				return
			}
			c.SSEvent("message", string(msg))
			c.Writer.Flush()
			if eventType(msg) == games.EventGameDeleted {
				return
			}
		}
	}
}

func eventType(msg []byte) string {
	var ev struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil {
		return ""
	}
	return ev.Type
}

package handler

import (
	"net/http"

	"turfbuddy/backend/internal/auth"
	"turfbuddy/backend/internal/models"
	"turfbuddy/backend/internal/store"
	"turfbuddy/backend/internal/users"
	"turfbuddy/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// region --- DTOs ---

// UserResponse is the account as shown to its owner.
type UserResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name" example:"Asha Rao"`
	Email           string   `json:"email" example:"asha@example.com"`
	ContactNumber   string   `json:"contactNumber" example:"9876543210"`
	PreferredSports []string `json:"preferredSports"`
	ProfileImage    string   `json:"profileImage"`
}

func newUserResponse(u models.User) UserResponse {
	sports := []string(u.PreferredSports)
	if sports == nil {
		sports = []string{}
	}
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ContactNumber:   u.ContactNumber,
		PreferredSports: sports,
		ProfileImage:    u.ProfileImage,
	}
}

type AuthResponse struct {
	Message string       `json:"message" example:"Login successfully"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

// GameSummary is a game listed on a profile.
type GameSummary struct {
	ID            string            `json:"id"`
	Sport         string            `json:"sport" example:"football"`
	Location      LocationResponse  `json:"location"`
	Date          string            `json:"date" example:"2026-10-20"`
	Time          string            `json:"time" example:"18:00"`
	PlayerNeeded  int               `json:"playerNeeded" example:"10"`
	PlayersJoined int               `json:"playersJoined" example:"4"`
	Status        models.GameStatus `json:"status" example:"open"`
}

func newGameSummary(g models.Game) GameSummary {
	return GameSummary{
		ID:            g.ID,
		Sport:         g.Sport,
		Location:      LocationResponse{Address: g.Location.Address, City: g.Location.City},
		Date:          store.DateKey(g.Date),
		Time:          g.Time,
		PlayerNeeded:  g.PlayerNeeded,
		PlayersJoined: g.JoinedCount,
		Status:        g.Status,
	}
}

type ProfileResponse struct {
	UserResponse
	GameHosted []GameSummary `json:"gameHosted"`
	GameJoined []GameSummary `json:"gameJoined"`
}

// endregion

type UserHandler struct {
	users        *users.Service
	tokens       *jwt.Manager
	revoked      auth.Denylist
	cookieSecure bool
	logger       *zap.Logger
}

func NewUserHandler(svc *users.Service, tokens *jwt.Manager, revoked auth.Denylist, cookieSecure bool, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: svc, tokens: tokens, revoked: revoked, cookieSecure: cookieSecure, logger: logger}
}

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new user, sets the session cookie and returns a token.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input body users.RegisterInput true "Registration Info"
// @Success      201  {object}  AuthResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /users/register [post]
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var input users.RegisterInput
	if err := bindJSON(c, &input); err != nil {
		writeError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	h.issue(c, http.StatusCreated, "User registered successfully", user)
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates with email and password, sets the session cookie and returns a token.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        input body users.LoginInput true "Login Info"
// @Success      200  {object}  AuthResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Router       /users/login [post]
func (h *UserHandler) LoginUser(c *gin.Context) {
	var input users.LoginInput
	if err := bindJSON(c, &input); err != nil {
		writeError(c, err)
		return
	}

	user, err := h.users.Login(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	h.issue(c, http.StatusOK, "Login successfully", user)
}

func (h *UserHandler) issue(c *gin.Context, status int, message string, user *models.User) {
	token, _, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.tokens.TTL().Seconds()), "/", "", h.cookieSecure, true)
	c.JSON(status, AuthResponse{Message: message, User: newUserResponse(*user), Token: token})
}

// LogoutUser godoc
// @Summary      Log out
// @Description  Revokes the presented token, if any, and clears the session cookie.
// @Tags         users
// @Produce      json
// @Success      200 {object} map[string]string "{"message": "Logged out successfully"}"
// @Failure      503 {object} ErrorResponse
// @Router       /users/logout [post]
func (h *UserHandler) LogoutUser(c *gin.Context) {
	if claims, ok := auth.Claims(c); ok {
		if err := h.revoked.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			h.logger.Error("revoke token", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service temporarily unavailable"})
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetProfile godoc
// @Summary      Get the authenticated user's profile
// @Description  Returns the account with the games it hosts and has joined.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ProfileResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.users.Profile(c.Request.Context(), auth.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := ProfileResponse{
		UserResponse: newUserResponse(*profile),
		GameHosted:   make([]GameSummary, 0, len(profile.HostedGames)),
		GameJoined:   make([]GameSummary, 0, len(profile.Memberships)),
	}
	for _, g := range profile.HostedGames {
		resp.GameHosted = append(resp.GameHosted, newGameSummary(g))
	}
	for _, m := range profile.Memberships {
		resp.GameJoined = append(resp.GameJoined, newGameSummary(m.Game))
	}
	c.JSON(http.StatusOK, resp)
}

// CheckAuth godoc
// @Summary      Check the session
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/check [get]
func (h *UserHandler) CheckAuth(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user))
}

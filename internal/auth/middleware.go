package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"turfbuddy/backend/internal/models"
	"turfbuddy/backend/internal/store"
	"turfbuddy/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// CookieName is the cookie that carries the session token.
const CookieName = "jwt"

const (
	userIDKey = "userID"
	userKey   = "user"
	claimsKey = "claims"
)

var (
	errNoToken      = errors.New("not authorized, no token found")
	errInvalidToken = errors.New("not authorized, invalid token")
	errRevoked      = errors.New("not authorized, token revoked")
	errUnknownUser  = errors.New("not authorized, user no longer exists")
)

// UserLookup loads the account a token refers to.
type UserLookup interface {
	User(ctx context.Context, id string) (*models.User, error)
}

// Authenticator turns a bearer header or session cookie into a verified user.
type Authenticator struct {
	tokens  *jwt.Manager
	revoked Denylist
	users   UserLookup
}

func NewAuthenticator(tokens *jwt.Manager, revoked Denylist, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, revoked: revoked, users: users}
}

// Required rejects the request unless it carries a valid, unrevoked token for
// an existing user.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := a.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

// Optional sets the user if a valid token is present, but does not fail if
// the token is missing or invalid.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, _ = a.authenticate(c)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (int, error) {
	raw := tokenFromRequest(c)
	if raw == "" {
		return http.StatusUnauthorized, errNoToken
	}

	claims, err := a.tokens.ParseToken(raw)
	if err != nil {
		return http.StatusUnauthorized, errInvalidToken
	}

	revoked, err := a.revoked.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		return http.StatusServiceUnavailable, errors.New("service temporarily unavailable")
	}
	if revoked {
		return http.StatusUnauthorized, errRevoked
	}

	user, err := a.users.User(c.Request.Context(), claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusUnauthorized, errUnknownUser
	}
	if err != nil {
		return http.StatusServiceUnavailable, errors.New("service temporarily unavailable")
	}

	c.Set(userIDKey, user.ID)
	c.Set(userKey, user)
	c.Set(claimsKey, claims)
	return http.StatusOK, nil
}

func tokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// CurrentUser returns the user loaded by the middleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// Claims returns the verified token claims.
func Claims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"turfbuddy/backend/internal/games"
	"turfbuddy/backend/internal/users"
	"turfbuddy/backend/internal/validation"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
	Field string `json:"field,omitempty" example:"sport"`
}

func statusFor(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr), errors.Is(err, games.ErrInvalidID),
		errors.Is(err, games.ErrSelfJoin), errors.Is(err, games.ErrHostCannotLeave):
		return http.StatusBadRequest
	case errors.Is(err, games.ErrUnknownUser), errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, games.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, games.ErrNotFound), errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, games.ErrAlreadyJoined), errors.Is(err, games.ErrGameFull),
		errors.Is(err, games.ErrNotAMember), errors.Is(err, users.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, games.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its status and a JSON body. Anything
// unexpected gets a generic message; the detail is kept on the gin context
// for the request logger.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		resp = ErrorResponse{Error: verr.Message, Field: verr.Field}
	case status == http.StatusServiceUnavailable:
		resp.Error = games.ErrUnavailable.Error()
	case status == http.StatusInternalServerError:
		resp.Error = "Internal server error"
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp)
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched so
// that required-field validation reports the first missing field.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return validation.Errorf(typeErr.Field, "%s has the wrong type", typeErr.Field)
	}
	return validation.Errorf("body", "request body must be valid JSON")
}

package games

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrNotFound        = errors.New("game not found")
	ErrUnknownUser     = errors.New("user not found")
	ErrForbidden       = errors.New("only the host can modify this game")
	ErrSelfJoin        = errors.New("you cannot join your own game")
	ErrHostCannotLeave = errors.New("the host cannot leave their own game")
	ErrAlreadyJoined   = errors.New("you have already joined this game")
	ErrGameFull        = errors.New("game is full, no player can join now")
	ErrNotAMember      = errors.New("you have not joined this game")

	// ErrUnavailable hides persistence failures from callers.
	ErrUnavailable = errors.New("service temporarily unavailable")
)

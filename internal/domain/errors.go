package domain

import "errors"

// Domain errors
var (
	// ErrStateAccess is returned when the player state lock is unusable
	// because an earlier mutation failed while holding it.
	ErrStateAccess    = errors.New("failed to lock player state")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInternalError  = errors.New("internal server error")
)

// IsStateAccessError checks if an error is a state access failure
func IsStateAccessError(err error) bool {
	return errors.Is(err, ErrStateAccess)
}

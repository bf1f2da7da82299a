package repository

import "errors"

// ErrRunNotFound indicates the requested pipeline run does not exist
var ErrRunNotFound = errors.New("pipeline run not found")

// ErrAlreadyNotified indicates the notification guard was already claimed by
// another caller; the run must not be notified again
var ErrAlreadyNotified = errors.New("run already notified")

// IsNotFoundError checks if an error indicates a missing run
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

package session

import "errors"

// Domain-specific errors for the session package.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoContainer      = errors.New("session has no container")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotTerminal    = errors.New("session has not reached a terminal state")
)

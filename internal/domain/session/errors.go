package session

import "errors"

var (
	// ErrNotFound is returned when no live session exists for a key.
	ErrNotFound = errors.New("session not found")
	// ErrCapacity is returned when key generation exhausts its retry budget.
	ErrCapacity = errors.New("no free session key available")
	// ErrForbidden is returned when a request's device identity does not
	// match the identity recorded at session creation.
	ErrForbidden = errors.New("device identity mismatch")
)

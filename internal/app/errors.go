package service

import "errors"

// Sentinel errors returned by Service operations.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrInvalidGame     = errors.New("invalid game")
	ErrInvalidFeedback = errors.New("invalid feedback")
	ErrNoPlayers       = errors.New("no players")
)

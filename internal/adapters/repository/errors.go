package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("player not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrInvalidName  = errors.New("invalid player name")
	ErrLoadRoster   = errors.New("load roster")
)

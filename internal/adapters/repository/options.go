package repository

import (
	"time"

	"github.com/okian/rally/internal/domain/model"
)

// Option applies a configuration option to the InMemoryRoster.
type Option func(*InMemoryRoster)

// WithClock sets the time source used for newly created players.
func WithClock(now func() time.Time) Option {
	return func(r *InMemoryRoster) {
		if now != nil {
			r.now = now
		}
	}
}

// WithMaxGames bounds the game log; the oldest games are dropped first.
// Zero or less keeps every game.
func WithMaxGames(n int) Option {
	return func(r *InMemoryRoster) {
		r.maxGames = n
	}
}

// WithPlayers seeds the roster. Later duplicates replace earlier ones.
func WithPlayers(players []*model.Player) Option {
	return func(r *InMemoryRoster) {
		for _, p := range players {
			if p != nil && p.Name != "" {
				r.players[p.Name] = p.Clone()
			}
		}
	}
}

// Package repository owns the player population and the game log.
package repository

import (
	"context"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
)

// Roster provides read/write access to players and recorded games.
//
// Reads return copies. All writes go through Mutate, which runs with the
// roster locked so a recorded game is applied as one step.
type Roster interface {
	// Snapshot returns copies of all players ordered by name.
	Snapshot(ctx context.Context) []*model.Player
	// Select returns copies of the named players, creating unknown names as
	// default players. Names are returned in the order given.
	Select(ctx context.Context, names []string) ([]*model.Player, error)
	// Player returns a copy of one player or ErrNotFound.
	Player(ctx context.Context, name string) (*model.Player, error)
	// Mutate runs fn with exclusive access to the live players.
	Mutate(ctx context.Context, fn func(tx Tx) error) error

	// Rank returns the leaderboard entry of a player or ErrNotFound.
	Rank(ctx context.Context, name string) (types.Entry, error)
	// TopN returns the top n entries ordered by conservative rating.
	TopN(ctx context.Context, n int) ([]types.Entry, error)
	// Count returns the number of players.
	Count(ctx context.Context) int

	// Games returns the most recent games involving name, newest first.
	// An empty name matches every game; limit <= 0 returns all of them.
	Games(ctx context.Context, name string, limit int) []model.GameResult
}

// Tx is the live view of the roster inside Mutate. Players returned by Tx
// may be modified in place; they must not be retained after fn returns.
type Tx interface {
	// Player returns the live player, creating a default one if unknown.
	Player(name string) *model.Player
	// Lookup returns the live player if present.
	Lookup(name string) (*model.Player, bool)
	// Put inserts or replaces a player.
	Put(p *model.Player)
	// All returns every live player ordered by name.
	All() []*model.Player
	// AppendGame adds a game to the log.
	AppendGame(g model.GameResult)
}

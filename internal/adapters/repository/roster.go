package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/metrics"
)

// InMemoryRoster is a Roster held in process memory.
type InMemoryRoster struct {
	mu       sync.RWMutex
	players  map[string]*model.Player
	games    []model.GameResult
	maxGames int
	now      func() time.Time
}

// NewInMemoryRoster constructs an empty roster with configuration options.
func NewInMemoryRoster(opts ...Option) *InMemoryRoster {
	r := &InMemoryRoster{
		players: make(map[string]*model.Player),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	metrics.UpdatePlayersTotal(len(r.players))
	return r
}

// Snapshot implements Roster.Snapshot.
func (r *InMemoryRoster) Snapshot(_ context.Context) []*model.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(sortedPlayers(r.players))
}

// Select implements Roster.Select.
func (r *InMemoryRoster) Select(ctx context.Context, names []string) ([]*model.Player, error) {
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return nil, fmt.Errorf("select: %w", ErrInvalidName)
		}
	}
	var out []*model.Player
	err := r.Mutate(ctx, func(tx Tx) error {
		out = make([]*model.Player, len(names))
		for i, n := range names {
			out[i] = tx.Player(strings.TrimSpace(n)).Clone()
		}
		return nil
	})
	return out, err
}

// Player implements Roster.Player.
func (r *InMemoryRoster) Player(_ context.Context, name string) (*model.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[name]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return p.Clone(), nil
}

// Mutate implements Roster.Mutate.
func (r *InMemoryRoster) Mutate(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{r: r}
	count, err := r.apply(fn, tx)
	if tx.created {
		metrics.UpdatePlayersTotal(count)
	}
	return err
}

// apply runs fn under the write lock. The lock is released even if fn panics.
func (r *InMemoryRoster) apply(fn func(tx Tx) error, tx *memTx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := fn(tx)
	return len(r.players), err
}

// Count implements Roster.Count.
func (r *InMemoryRoster) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Games implements Roster.Games.
func (r *InMemoryRoster) Games(_ context.Context, name string, limit int) []model.GameResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.GameResult
	for i := len(r.games) - 1; i >= 0; i-- {
		g := r.games[i]
		if name != "" && g.Side(name) == 0 {
			continue
		}
		out = append(out, g)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// memTx is the Tx handed to Mutate callbacks. The roster lock is held.
type memTx struct {
	r       *InMemoryRoster
	created bool
}

func (t *memTx) Player(name string) *model.Player {
	if p, ok := t.r.players[name]; ok {
		return p
	}
	p := model.NewPlayer(name, model.DefaultSkillGroup, t.r.now())
	t.r.players[name] = p
	t.created = true
	return p
}

func (t *memTx) Lookup(name string) (*model.Player, bool) {
	p, ok := t.r.players[name]
	return p, ok
}

func (t *memTx) Put(p *model.Player) {
	if _, ok := t.r.players[p.Name]; !ok {
		t.created = true
	}
	t.r.players[p.Name] = p
}

func (t *memTx) All() []*model.Player {
	return sortedPlayers(t.r.players)
}

func (t *memTx) AppendGame(g model.GameResult) {
	g.Team1 = append([]string(nil), g.Team1...)
	g.Team2 = append([]string(nil), g.Team2...)
	t.r.games = append(t.r.games, g)
	if t.r.maxGames > 0 && len(t.r.games) > t.r.maxGames {
		drop := len(t.r.games) - t.r.maxGames
		t.r.games = append(t.r.games[:0:0], t.r.games[drop:]...)
	}
}

func sortedPlayers(m map[string]*model.Player) []*model.Player {
	out := make([]*model.Player, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func cloneAll(players []*model.Player) []*model.Player {
	out := make([]*model.Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	return out
}

var _ Roster = (*InMemoryRoster)(nil)

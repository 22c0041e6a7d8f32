package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
	"github.com/okian/rally/internal/domain/types"
	"github.com/okian/rally/pkg/metrics"
)

// Rank implements Roster.Rank.
func (r *InMemoryRoster) Rank(_ context.Context, name string) (types.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.players[name]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	for _, e := range leaderboard(r.players) {
		if e.Name == name {
			return e, nil
		}
	}
	return types.Entry{}, ErrNotFound
}

// TopN implements Roster.TopN.
func (r *InMemoryRoster) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := leaderboard(r.players)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// leaderboard orders players by conservative rating desc, then name asc.
// Ranking is dense: equal scores share a rank and the next score takes the
// following rank.
func leaderboard(players map[string]*model.Player) []types.Entry {
	entries := make([]types.Entry, 0, len(players))
	for _, p := range players {
		entries = append(entries, types.Entry{
			Name:         p.Name,
			SkillGroup:   p.SkillGroup.String(),
			Rating:       p.Rating,
			Sigma:        p.Sigma,
			Conservative: rating.Conservative(p),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Conservative != entries[j].Conservative {
			return entries[i].Conservative > entries[j].Conservative
		}
		return entries[i].Name < entries[j].Name
	})

	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Conservative != entries[i-1].Conservative {
			rank++
		}
		entries[i].Rank = rank
	}
	return entries
}

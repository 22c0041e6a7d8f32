// Package chemistry tracks pairwise teammate affinity.
//
// Affinity is stored on each player (Player.Chemistry) so it travels with the
// roster; the Tracker only owns the optional per-pair win/loss history.
package chemistry

import (
	"sort"
	"sync"

	"github.com/okian/rally/internal/domain/model"
)

// Update constants.
const (
	WinBoost  = 5.0
	LossBoost = -2.0
	retention = 0.95
)

// Pair is an unordered pair of player names, stored sorted.
type Pair struct {
	A, B string
}

// NewPair returns the normalized pair of two names.
func NewPair(a, b string) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Tracker applies chemistry updates and records per-pair outcomes.
type Tracker struct {
	mu      sync.RWMutex
	history map[Pair][]bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{history: make(map[Pair][]bool)}
}

// Update adjusts chemistry for every unordered pair of teammates after a
// game. Both directions are computed with the same formula so they stay
// equal; values are not clamped.
func (t *Tracker) Update(team model.Team, won bool) {
	boost := LossBoost
	if won {
		boost = WinBoost
	}
	for i := 0; i < len(team); i++ {
		for j := i + 1; j < len(team); j++ {
			p1, p2 := team[i], team[j]
			if p1.Chemistry == nil {
				p1.Chemistry = make(map[string]float64)
			}
			if p2.Chemistry == nil {
				p2.Chemistry = make(map[string]float64)
			}
			p1.Chemistry[p2.Name] = p1.Chemistry[p2.Name]*retention + boost
			p2.Chemistry[p1.Name] = p2.Chemistry[p1.Name]*retention + boost
			t.record(NewPair(p1.Name, p2.Name), won)
		}
	}
}

func (t *Tracker) record(pair Pair, won bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.history[pair] = append(t.history[pair], won)
	t.mu.Unlock()
}

// History returns the recorded outcomes of two players as teammates, oldest first.
func (t *Tracker) History(a, b string) []bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h := t.history[NewPair(a, b)]
	out := make([]bool, len(h))
	copy(out, h)
	return out
}

// WinRate returns the share of won games two players played together and
// the number of such games.
func (t *Tracker) WinRate(a, b string) (float64, int) {
	h := t.History(a, b)
	if len(h) == 0 {
		return 0, 0
	}
	wins := 0
	for _, w := range h {
		if w {
			wins++
		}
	}
	return float64(wins) / float64(len(h)), len(h)
}

// Reset forgets the history of every pair involving name, or all history
// when name is empty.
func (t *Tracker) Reset(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == "" {
		t.history = make(map[Pair][]bool)
		return
	}
	for pair := range t.history {
		if pair.A == name || pair.B == name {
			delete(t.history, pair)
		}
	}
}

// TeamScore is the mean recorded chemistry over teammate pairs. Pairs with no
// recorded chemistry are skipped; teams of one and teams without any record
// score 0.
func TeamScore(team model.Team) float64 {
	if len(team) <= 1 {
		return 0
	}
	total := 0.0
	pairs := 0
	for i := 0; i < len(team); i++ {
		for j := i + 1; j < len(team); j++ {
			if v, ok := team[i].Chemistry[team[j].Name]; ok {
				total += v
				pairs++
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return total / float64(pairs)
}

// Teammate is a peer with its chemistry score.
type Teammate struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// BestTeammates returns up to n peers of p ordered by chemistry, highest
// first, ties by name.
func BestTeammates(p *model.Player, n int) []Teammate {
	mates := make([]Teammate, 0, len(p.Chemistry))
	for name, score := range p.Chemistry {
		mates = append(mates, Teammate{Name: name, Score: score})
	}
	sort.Slice(mates, func(i, j int) bool {
		if mates[i].Score != mates[j].Score {
			return mates[i].Score > mates[j].Score
		}
		return mates[i].Name < mates[j].Name
	})
	if n >= 0 && len(mates) > n {
		mates = mates[:n]
	}
	return mates
}

// Package schedule pairs teams into rounds.
package schedule

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/scoring"
)

// ErrInfeasibleSchedule indicates more rounds were requested than can be
// played without repeating a pairing. The schedule is capped, not failed.
var ErrInfeasibleSchedule = errors.New("infeasible schedule")

// Match is a pairing of two team indices, lower index first.
type Match struct {
	Team1   int     `json:"team1"`
	Team2   int     `json:"team2"`
	Quality float64 `json:"quality"`
}

// Round is a set of matches played at the same time.
type Round []Match

// Schedule is the outcome of round-robin generation.
type Schedule struct {
	Rounds      []Round `json:"rounds"`
	Requested   int     `json:"requested"`
	MaxRounds   int     `json:"max_rounds"`
	Diagnostics []error `json:"-"`
}

// Byes returns the team idle in each round, or -1 when every team plays.
func (s Schedule) Byes(teams int) []int {
	out := make([]int, len(s.Rounds))
	for i, r := range s.Rounds {
		out[i] = -1
		playing := make([]bool, teams)
		for _, m := range r {
			playing[m.Team1] = true
			playing[m.Team2] = true
		}
		for t, ok := range playing {
			if !ok {
				out[i] = t
				break
			}
		}
	}
	return out
}

// MaxRounds returns how many rounds k teams can play without a repeat.
func MaxRounds(k int) int {
	if k < 2 {
		return 0
	}
	if k%2 == 0 {
		return k - 1
	}
	return k
}

// Create builds up to rounds rounds with the circle method. Team 0 stays in
// place while the others rotate one slot per round; with an odd team count a
// virtual bye slot idles one team each round. Matches within a round are
// ordered by quality, best first.
func Create(teams []model.Team, rounds int, scorer scoring.Scorer) Schedule {
	k := len(teams)
	s := Schedule{Requested: rounds, MaxRounds: MaxRounds(k)}
	if rounds > s.MaxRounds {
		s.Diagnostics = append(s.Diagnostics, fmt.Errorf("%w: %d rounds requested, %d teams allow %d",
			ErrInfeasibleSchedule, rounds, k, s.MaxRounds))
		rounds = s.MaxRounds
	}
	if rounds <= 0 {
		return s
	}

	slots := k
	bye := -1
	if k%2 == 1 {
		bye = k
		slots++
	}
	order := make([]int, slots)
	for i := range order {
		order[i] = i
	}

	for r := 0; r < rounds; r++ {
		if r > 0 {
			rotate(order)
		}
		round := make(Round, 0, slots/2)
		for i := 0; i < slots/2; i++ {
			a, b := order[i], order[slots-1-i]
			if a == bye || b == bye {
				continue
			}
			if a > b {
				a, b = b, a
			}
			round = append(round, Match{Team1: a, Team2: b, Quality: scorer.Quality(teams[a], teams[b])})
		}
		sort.SliceStable(round, func(i, j int) bool { return round[i].Quality > round[j].Quality })
		s.Rounds = append(s.Rounds, round)
	}
	return s
}

// rotate keeps order[0] fixed and moves the last slot to position 1.
func rotate(order []int) {
	if len(order) < 3 {
		return
	}
	last := order[len(order)-1]
	copy(order[2:], order[1:len(order)-1])
	order[1] = last
}

// OptimalMatchups greedily picks the best disjoint pairings for a single
// round: all pairs are ranked by quality and taken while both teams are free.
// With an odd team count one team sits out.
func OptimalMatchups(teams []model.Team, scorer scoring.Scorer) Round {
	k := len(teams)
	if k < 2 {
		return nil
	}
	all := make(Round, 0, k*(k-1)/2)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			all = append(all, Match{Team1: i, Team2: j, Quality: scorer.Quality(teams[i], teams[j])})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Quality > all[j].Quality })

	used := make([]bool, k)
	paired := 0
	var out Round
	for _, m := range all {
		if used[m.Team1] || used[m.Team2] {
			continue
		}
		out = append(out, m)
		used[m.Team1], used[m.Team2] = true, true
		paired += 2
		if paired >= k-k%2 {
			break
		}
	}
	return out
}

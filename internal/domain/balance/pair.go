package balance

import (
	"fmt"
	"math/rand"

	"github.com/okian/rally/internal/domain/model"
)

// PairResult is the outcome of a two-team search.
type PairResult struct {
	Team1       TeamReport `json:"team1"`
	Team2       TeamReport `json:"team2"`
	Quality     float64    `json:"quality"`
	TeamSize    int        `json:"team_size"`
	Trials      int        `json:"trials"`
	Fallback    bool       `json:"fallback"`
	Diagnostics []error    `json:"-"`
}

type split struct {
	team1, team2 model.Team
}

// Pair splits the roster into two teams of size players, keeping the split
// with the highest match quality. Rosters smaller than two full teams shrink
// the size to half the roster. Players left over are not assigned.
func (o *Optimizer) Pair(rng *rand.Rand, roster []*model.Player, size int) PairResult {
	rng = source(rng)
	if size <= 0 {
		size = DefaultTeamSize
	}
	res := PairResult{TeamSize: size}
	if len(roster) < 2*size {
		res.TeamSize = len(roster) / 2
		res.Diagnostics = append(res.Diagnostics, fmt.Errorf("%w: %d players for two teams of %d, using teams of %d",
			ErrInsufficientRoster, len(roster), size, res.TeamSize))
	}
	if res.TeamSize == 0 {
		return res
	}
	n := res.TeamSize

	cut := func(players []*model.Player) split {
		return split{
			team1: model.Team(players[:n:n]),
			team2: model.Team(players[n : 2*n : 2*n]),
		}
	}

	best, found, stats := search(rng, o.pairIterations, o.workers,
		func(r *rand.Rand) (split, float64, bool) {
			s := cut(shuffled(r, roster))
			return s, o.scorer.Quality(s.team1, s.team2), true
		},
		func(a, b float64) bool { return a > b },
	)
	res.Trials = stats.Trials
	if !found {
		best = cut(shuffled(rng, roster))
		res.Fallback = true
		res.Diagnostics = append(res.Diagnostics, fmt.Errorf("%w: no trials evaluated", ErrDegenerateOptimization))
	}

	res.Team1 = report(best.team1, 0)
	res.Team2 = report(best.team2, 0)
	res.Team1.NormalizedRating = res.Team1.AverageRating
	res.Team2.NormalizedRating = res.Team2.AverageRating
	res.Quality = o.scorer.Quality(best.team1, best.team2)
	return res
}

package balance

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/rally/internal/domain/chemistry"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
)

// Balance score weights. Lower scores are better.
const (
	varianceWeight   = 10.0
	rangeWeight      = 3.0
	qualityDivisor   = 100.0
	chemistryDivisor = 10.0
)

// MultiResult is the outcome of a multi-team search.
type MultiResult struct {
	Teams         []TeamReport `json:"teams"`
	TeamSize      int          `json:"team_size"`
	TeamCount     int          `json:"team_count"`
	BaseSize      int          `json:"base_size"`
	GlobalAverage float64      `json:"global_average"`
	Variance      float64      `json:"variance"`
	Range         float64      `json:"range"`
	Score         float64      `json:"score"`
	Balanced      bool         `json:"balanced"`
	Matchups      []Matchup    `json:"matchups"`
	Trials        int          `json:"trials"`
	Skipped       int          `json:"skipped"`
	Fallback      bool         `json:"fallback"`
	Diagnostics   []error      `json:"-"`
}

// Members returns the players of every team in order.
func (r MultiResult) Members() []model.Team {
	out := make([]model.Team, len(r.Teams))
	for i, t := range r.Teams {
		out[i] = t.Members
	}
	return out
}

// layout is the team count and per-team target sizes for a roster.
type layout struct {
	size    int
	count   int
	base    int
	targets []int
}

// plan resolves the team count for a roster of n players. A count of zero
// or less derives it from the target size.
func plan(n, size, count int) (layout, []error) {
	var diags []error
	k := count
	switch {
	case k <= 0:
		k = (n + size - 1) / size
	case k < 2:
		diags = append(diags, fmt.Errorf("%w: at least 2 teams required, got %d", ErrInsufficientRoster, k))
		k = 2
	}
	// every team may be one short of the target size, no more
	if size > 1 && n < k*(size-1) {
		reduced := max(2, n/(size-1))
		diags = append(diags, fmt.Errorf("%w: %d players cannot fill %d teams of at least %d, using %d teams",
			ErrInsufficientRoster, n, k, size-1, reduced))
		k = reduced
	}
	if k > n {
		diags = append(diags, fmt.Errorf("%w: %d teams for %d players, using %d teams", ErrInsufficientRoster, k, n, n))
		k = n
	}

	l := layout{size: size, count: k, base: n / k, targets: make([]int, k)}
	extra := n % k
	for i := range l.targets {
		l.targets[i] = l.base
		if i < extra {
			l.targets[i]++
		}
	}
	return l, diags
}

// evaluation holds the per-trial measures of a set of teams.
type evaluation struct {
	normalized []float64
	variance   float64
	spread     float64
	quality    float64
	chemistry  float64
	score      float64
}

// Multi partitions the whole roster into balanced teams of about size
// players. count fixes the number of teams; zero derives it from the size.
//
// Top-tier players are spread at most one per team while teams remain; any
// surplus joins the general pool and is placed like everyone else.
func (o *Optimizer) Multi(rng *rand.Rand, roster []*model.Player, size, count int) MultiResult {
	rng = source(rng)
	if size <= 0 {
		size = DefaultTeamSize
	}
	res := MultiResult{TeamSize: size}
	if len(roster) < 2 {
		res.Diagnostics = append(res.Diagnostics, fmt.Errorf("%w: %d players", ErrInsufficientRoster, len(roster)))
		return res
	}

	l, diags := plan(len(roster), size, count)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.TeamCount = l.count
	res.BaseSize = l.base
	res.GlobalAverage = globalAverage(roster)

	best, found, stats := search(rng, o.multiIterations, o.workers,
		func(r *rand.Rand) ([]model.Team, float64, bool) {
			teams, ok := o.deal(r, roster, l)
			if !ok {
				return nil, 0, false
			}
			return teams, o.evaluate(teams, l.size, res.GlobalAverage).score, true
		},
		func(a, b float64) bool { return a < b },
	)
	res.Trials = stats.Trials
	res.Skipped = stats.Skipped
	if !found {
		best = contiguous(shuffled(rng, roster), l)
		res.Fallback = true
		res.Diagnostics = append(res.Diagnostics, fmt.Errorf("%w: none of %d trials kept every team at %d or more players",
			ErrDegenerateOptimization, stats.Trials, l.base-1))
	}

	ev := o.evaluate(best, l.size, res.GlobalAverage)
	res.Teams = make([]TeamReport, len(best))
	for i, team := range best {
		res.Teams[i] = report(team, ev.normalized[i])
	}
	res.Variance = ev.variance
	res.Range = ev.spread
	res.Score = ev.score
	res.Balanced = ev.spread < balancedRange
	res.Matchups = o.matchups(res.Teams)
	return res
}

// deal runs one trial assignment. It reports false when a team ends up more
// than one player below the base size.
func (o *Optimizer) deal(r *rand.Rand, roster []*model.Player, l layout) ([]model.Team, bool) {
	players := shuffled(r, roster)
	teams := make([]model.Team, l.count)

	pool := make([]*model.Player, 0, len(players))
	var top []*model.Player
	for _, p := range players {
		if p.SkillGroup.TopTier() {
			top = append(top, p)
		} else {
			pool = append(pool, p)
		}
	}
	for i, p := range top {
		if i < l.count {
			teams[i] = append(teams[i], p)
		} else {
			pool = append(pool, p)
		}
	}
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	next := 0
	for i := range teams {
		spots := l.targets[i] - len(teams[i])
		// a team is filled completely or not at all
		if spots > 0 && next+spots <= len(pool) {
			teams[i] = append(teams[i], pool[next:next+spots]...)
			next += spots
		}
	}

	for _, t := range teams {
		if len(t) < l.base-1 {
			return nil, false
		}
	}
	return teams, true
}

func contiguous(players []*model.Player, l layout) []model.Team {
	teams := make([]model.Team, 0, l.count)
	next := 0
	for _, n := range l.targets {
		if next+n > len(players) {
			break
		}
		teams = append(teams, model.Team(players[next:next+n:next+n]))
		next += n
	}
	return teams
}

func (o *Optimizer) evaluate(teams []model.Team, size int, global float64) evaluation {
	ev := evaluation{normalized: make([]float64, len(teams))}
	if len(teams) == 0 {
		return ev
	}
	for i, t := range teams {
		ev.normalized[i] = Normalized(t, size, global)
	}
	ev.variance = stat.PopVariance(ev.normalized, nil)
	ev.spread = floats.Max(ev.normalized) - floats.Min(ev.normalized)

	total, pairs := 0.0, 0
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			total += o.scorer.Quality(teams[i], teams[j])
			pairs++
		}
	}
	ev.quality = total / float64(max(1, pairs))

	chem := make([]float64, len(teams))
	for i, t := range teams {
		chem[i] = chemistry.TeamScore(t)
	}
	ev.chemistry = stat.Mean(chem, nil)

	ev.score = varianceWeight*ev.variance + rangeWeight*ev.spread - ev.quality/qualityDivisor - ev.chemistry/chemistryDivisor
	return ev
}

// matchups lists every pair of teams ordered by quality, best first.
func (o *Optimizer) matchups(teams []TeamReport) []Matchup {
	var out []Matchup
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			out = append(out, Matchup{
				Team1:      i,
				Team2:      j,
				Quality:    o.scorer.Quality(teams[i].Members, teams[j].Members),
				RatingDiff: math.Abs(teams[i].AverageRating - teams[j].AverageRating),
			})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Quality > out[b].Quality })
	return out
}

// Normalized returns the team rating as if it had size players, padding
// missing slots with global.
func Normalized(team model.Team, size int, global float64) float64 {
	sum := 0.0
	for _, p := range team {
		sum += rating.Weighted(p)
	}
	if len(team) == size {
		return sum / float64(size)
	}
	return (sum + float64(size-len(team))*global) / float64(size)
}

func globalAverage(roster []*model.Player) float64 {
	ratings := make([]float64, len(roster))
	for i, p := range roster {
		ratings[i] = rating.Weighted(p)
	}
	return stat.Mean(ratings, nil)
}

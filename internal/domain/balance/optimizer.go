// Package balance partitions a roster into balanced teams by randomized
// search. Each trial is an independent computation over a shuffled copy of
// the roster, so trials run on a small worker pool and reduce to the best
// score.
package balance

import (
	"math/rand"

	"github.com/okian/rally/internal/domain/chemistry"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
	"github.com/okian/rally/internal/domain/scoring"
)

// Optimizer builds balanced teams. It does not mutate players.
type Optimizer struct {
	scorer          scoring.Scorer
	pairIterations  int
	multiIterations int
	workers         int
}

// New creates an Optimizer with the default configuration.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		scorer:          scoring.NewEstimator(),
		pairIterations:  DefaultPairIterations,
		multiIterations: DefaultMultiIterations,
		workers:         defaultWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scorer returns the scorer used to rate matchups.
func (o *Optimizer) Scorer() scoring.Scorer {
	return o.scorer
}

// TeamReport describes one generated team.
type TeamReport struct {
	Members          model.Team `json:"-"`
	Players          []string   `json:"players"`
	AverageRating    float64    `json:"average_rating"`
	NormalizedRating float64    `json:"normalized_rating"`
	Chemistry        float64    `json:"chemistry"`
}

// Matchup is a pairing of two teams by index.
type Matchup struct {
	Team1      int     `json:"team1"`
	Team2      int     `json:"team2"`
	Quality    float64 `json:"quality"`
	RatingDiff float64 `json:"rating_diff"`
}

func report(team model.Team, normalized float64) TeamReport {
	return TeamReport{
		Members:          team,
		Players:          team.Names(),
		AverageRating:    rating.TeamSkill(team),
		NormalizedRating: normalized,
		Chemistry:        chemistry.TeamScore(team),
	}
}

func source(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		return rand.New(rand.NewSource(0)) //nolint:gosec // reproducible search
	}
	return rng
}

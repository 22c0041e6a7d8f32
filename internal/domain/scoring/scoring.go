// Package scoring estimates how close and how predictable a matchup is.
package scoring

import (
	"github.com/okian/rally/internal/domain/chemistry"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
)

// Default estimator parameters.
const (
	defaultChemistryWeight = 0.2
	// rating points per predicted scored point
	defaultPointsPerRating = 2.5
	qualityScale           = 3.0
	maxQuality             = 100.0
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithChemistryWeight sets how much team chemistry adds to effective team skill.
func WithChemistryWeight(w float64) Option {
	return func(e *Estimator) {
		if w >= 0 {
			e.chemistryWeight = w
		}
	}
}

// Scorer scores a hypothetical matchup between two teams.
type Scorer interface {
	Quality(team1, team2 model.Team) float64
}

// Estimator implements Scorer. It is stateless and safe for concurrent use.
type Estimator struct {
	chemistryWeight float64
}

// NewEstimator creates an Estimator with the default parameters.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{chemistryWeight: defaultChemistryWeight}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Effective returns the mean weighted rating of a team plus its weighted chemistry.
func (e *Estimator) Effective(team model.Team) float64 {
	return rating.TeamSkill(team) + e.chemistryWeight*chemistry.TeamScore(team)
}

// Quality returns a score in (0, 100]. Equal teams with low uncertainty
// approach 100. Either team being empty yields 0.
func (e *Estimator) Quality(team1, team2 model.Team) float64 {
	if len(team1) == 0 || len(team2) == 0 {
		return 0
	}
	diff := e.Effective(team1) - e.Effective(team2)
	if diff < 0 {
		diff = -diff
	}
	predicted := diff / defaultPointsPerRating
	quality := maxQuality / (1 + predicted/qualityScale)

	avgUncertainty := (meanSigma(team1) + meanSigma(team2)) / 2
	return quality * (maxQuality / (maxQuality + avgUncertainty))
}

func meanSigma(team model.Team) float64 {
	sum := 0.0
	for _, p := range team {
		sum += p.Sigma
	}
	return sum / float64(len(team))
}

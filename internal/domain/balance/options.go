package balance

import "github.com/okian/rally/internal/domain/scoring"

// Default optimizer configuration constants.
const (
	DefaultTeamSize        = 6
	DefaultPairIterations  = 500
	DefaultMultiIterations = 200
	defaultWorkers         = 1
	// teams whose normalized ratings span less than this are reported balanced
	balancedRange = 5.0
)

// Option applies a configuration option to the Optimizer.
type Option func(*Optimizer)

// WithScorer sets the matchup scorer.
func WithScorer(s scoring.Scorer) Option {
	return func(o *Optimizer) {
		if s != nil {
			o.scorer = s
		}
	}
}

// WithPairIterations sets the number of trials of the two-team search.
// Zero is allowed and forces the contiguous fallback.
func WithPairIterations(n int) Option {
	return func(o *Optimizer) {
		if n >= 0 {
			o.pairIterations = n
		}
	}
}

// WithMultiIterations sets the number of trials of the multi-team search.
func WithMultiIterations(n int) Option {
	return func(o *Optimizer) {
		if n >= 0 {
			o.multiIterations = n
		}
	}
}

// WithWorkers sets how many goroutines evaluate trials. Results do not
// depend on it.
func WithWorkers(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

package service

import (
	"time"

	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/rating"
	"github.com/okian/rally/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithQueueSize sets the maximum number of games waiting to be recorded.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many game IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSeed fixes the random source of team searches. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithTrialWorkers sets the goroutines evaluating search trials.
func WithTrialWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trialWorkers = n
		}
	}
}

// WithPairIterations sets the trial count of the two-team search.
func WithPairIterations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pairIterations = n
		}
	}
}

// WithMultiIterations sets the trial count of the multi-team search.
func WithMultiIterations(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.multiIterations = n
		}
	}
}

// WithTeamSize sets the team size used when a request leaves it out.
func WithTeamSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.teamSize = n
		}
	}
}

// WithRatingOptions configures the rating model.
func WithRatingOptions(opts ...rating.Option) Option {
	return func(s *Service) {
		s.ratingOpts = append(s.ratingOpts, opts...)
	}
}

// WithClock sets the time source. "Today" for activity and decay is taken
// from it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRoster replaces the default in-memory roster.
func WithRoster(r repository.Roster) Option {
	return func(s *Service) {
		if r != nil {
			s.roster = r
		}
	}
}

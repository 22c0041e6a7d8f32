// Package config defines service configuration and its defaults.
//
// Values are layered: defaults from New, then an optional YAML file, then
// RALLY_* environment variables. Nested keys use a double underscore in env
// names, e.g. RALLY_RATING__BETA sets rating.beta.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the queue of submitted games.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many game IDs are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// TeamSize is the default number of players per team.
	TeamSize int `koanf:"team_size"`

	// PairIterations and MultiIterations bound the randomized team searches.
	PairIterations  int `koanf:"pair_iterations"`
	MultiIterations int `koanf:"multi_iterations"`

	// TrialWorkers is the number of goroutines evaluating search trials.
	TrialWorkers int `koanf:"trial_workers"`

	// Seed fixes the random source of team searches. Zero seeds from the clock.
	Seed int64 `koanf:"seed"`

	// RosterFile optionally seeds the roster from a YAML file.
	RosterFile string `koanf:"roster_file"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxGames bounds the in-memory game log. Zero keeps every game.
	MaxGames int `koanf:"max_games"`

	Rating Rating `koanf:"rating"`
}

// Rating holds the rating model parameters.
type Rating struct {
	// Beta is the number of rating points per point of expected score gap.
	Beta float64 `koanf:"beta"`
	// DynamicFactor is the base size of a rating adjustment.
	DynamicFactor float64 `koanf:"dynamic_factor"`
	// UncertaintyFactor pulls individual ratings towards the team mean.
	UncertaintyFactor float64 `koanf:"uncertainty_factor"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           1024,
		DedupeSize:          10_000,
		TeamSize:            6,
		PairIterations:      500,
		MultiIterations:     200,
		TrialWorkers:        1,
		MaxLeaderboardLimit: 100,
		MaxGames:            10_000,
		Rating: Rating{
			Beta:              20,
			DynamicFactor:     5,
			UncertaintyFactor: 0.5,
		},
	}
}

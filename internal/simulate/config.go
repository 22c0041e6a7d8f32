// Package simulate drives a running rally service with synthetic games and
// checks that the leaderboard recovers the players' hidden strengths.
package simulate

import (
	"errors"
	"time"
)

// Defaults for a simulation run.
const (
	DefaultPlayers        = 24
	DefaultGames          = 300
	DefaultTeamSize       = 4
	DefaultWorkers        = 4
	DefaultTimeout        = 10 * time.Second
	DefaultProcessTimeout = time.Minute
	DefaultMinCorrelation = 0.5
)

// ErrVerification is returned when the leaderboard does not track strength.
var ErrVerification = errors.New("verification failed")

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Players        int           // Size of the synthetic population
	Games          int           // Number of games to submit
	TeamSize       int           // Players per team in each game
	Workers        int           // Concurrent submitters
	Seed           int64         // Seed of the population and game generator
	Timeout        time.Duration // HTTP request timeout
	ProcessTimeout time.Duration // How long to wait for queued games to be applied
	MinCorrelation float64       // Lowest accepted rank correlation
	Verbose        bool          // Log every failed submission
}

func (c *Config) withDefaults() {
	if c.Players <= 0 {
		c.Players = DefaultPlayers
	}
	if c.Games <= 0 {
		c.Games = DefaultGames
	}
	if c.TeamSize <= 0 {
		c.TeamSize = DefaultTeamSize
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ProcessTimeout <= 0 {
		c.ProcessTimeout = DefaultProcessTimeout
	}
	if c.MinCorrelation == 0 {
		c.MinCorrelation = DefaultMinCorrelation
	}
}

// Report summarizes a simulation run.
type Report struct {
	Players     int           `json:"players"`
	Submitted   int           `json:"submitted"`
	Accepted    int           `json:"accepted"`
	Duplicate   int           `json:"duplicate"`
	Failed      int           `json:"failed"`
	Processed   int           `json:"processed"`
	Ranked      int           `json:"ranked"`
	Correlation float64       `json:"correlation"`
	Duration    time.Duration `json:"duration"`
}

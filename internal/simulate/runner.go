package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/rally/pkg/logger"
)

const (
	pollInterval   = 50 * time.Millisecond
	maxLeaderboard = 100
)

// Run executes a complete simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (Report, error) {
	cfg.withDefaults()
	log := logger.Get().Named("simulate")
	start := time.Now()

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("games", cfg.Games),
		logger.Int("teamSize", cfg.TeamSize),
		logger.Int("workers", cfg.Workers),
	)

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.checkHealth(ctx); err != nil {
		return Report{}, fmt.Errorf("service health check failed: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // synthetic data
	players := generatePlayers(rng, cfg.Players)
	games := generateGames(rng, players, cfg.Games, cfg.TeamSize)

	counts := client.submitGames(ctx, log, games, cfg.Workers, cfg.Verbose)
	report := Report{
		Players:   len(players),
		Submitted: counts.submitted,
		Accepted:  counts.accepted,
		Duplicate: counts.duplicate,
		Failed:    counts.failed,
	}
	log.Info(ctx, "games submitted",
		logger.Int("accepted", report.Accepted),
		logger.Int("duplicate", report.Duplicate),
		logger.Int("failed", report.Failed),
	)

	processed, err := client.waitProcessed(ctx, report.Accepted, cfg.ProcessTimeout)
	report.Processed = processed
	if err != nil {
		return report, fmt.Errorf("games were not processed: %w", err)
	}

	board, err := client.leaderboard(ctx, len(players))
	if err != nil {
		return report, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	report.Correlation, report.Ranked, err = rankCorrelation(players, board)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	report.Duration = time.Since(start)

	log.Info(ctx, "simulation finished",
		logger.Int("processed", report.Processed),
		logger.Int("ranked", report.Ranked),
		logger.Float64("correlation", report.Correlation),
		logger.Duration("duration", report.Duration),
	)
	return report, verify(report, cfg.MinCorrelation)
}

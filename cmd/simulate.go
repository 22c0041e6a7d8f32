package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/simulate"
	"github.com/okian/rally/pkg/logger"
)

func newSimulateCmd() *cobra.Command {
	var cfg simulate.Config
	cmd := &cobra.Command{
		Use:          "simulate",
		Short:        "Drive a running service with synthetic games and verify the leaderboard",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			report, err := simulate.Run(cmd.Context(), cfg)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(report); encErr != nil && err == nil {
				err = encErr
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Players, "players", simulate.DefaultPlayers, "Synthetic players")
	f.IntVar(&cfg.Games, "games", simulate.DefaultGames, "Games to submit")
	f.IntVar(&cfg.TeamSize, "team-size", simulate.DefaultTeamSize, "Players per team")
	f.IntVar(&cfg.Workers, "workers", simulate.DefaultWorkers, "Concurrent submitters")
	f.Int64Var(&cfg.Seed, "seed", 1, "Seed of the synthetic population")
	f.DurationVar(&cfg.Timeout, "timeout", simulate.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.ProcessTimeout, "process-timeout", simulate.DefaultProcessTimeout, "How long to wait for games to be applied")
	f.Float64Var(&cfg.MinCorrelation, "min-correlation", simulate.DefaultMinCorrelation, "Lowest accepted rank correlation")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Log failed submissions")
	return cmd
}

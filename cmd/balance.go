package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/adapters/repository"
	app "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/domain/balance"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
)

type balanceOptions struct {
	roster     string
	size       int
	teams      int
	rounds     int
	seed       int64
	iterations int
	workers    int
	pair       bool
}

func newBalanceCmd() *cobra.Command {
	var opts balanceOptions
	cmd := &cobra.Command{
		Use:          "balance",
		Short:        "Split a roster file into balanced teams and print them as JSON",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBalance(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.roster, "roster", "", "YAML roster file")
	f.IntVar(&opts.size, "size", balance.DefaultTeamSize, "Players per team")
	f.IntVar(&opts.teams, "teams", 0, "Number of teams (0 derives it from --size)")
	f.IntVar(&opts.rounds, "rounds", 0, "Round-robin rounds to schedule (0 prints one round of matchups)")
	f.Int64Var(&opts.seed, "seed", 0, "Random seed (0 seeds from the clock)")
	f.IntVar(&opts.iterations, "iterations", 0, "Search trials (0 uses the default for the mode)")
	f.IntVar(&opts.workers, "workers", 1, "Goroutines evaluating trials")
	f.BoolVar(&opts.pair, "pair", false, "Split into exactly two teams instead")
	_ = cmd.MarkFlagRequired("roster")
	return cmd
}

func runBalance(ctx context.Context, out io.Writer, opts balanceOptions) error {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	players, err := repository.LoadRoster(opts.roster, time.Now())
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return errors.New("roster has no players")
	}

	svc := app.New(
		app.WithLogger(logger.Get()),
		app.WithRoster(repository.NewInMemoryRoster(repository.WithPlayers(players))),
		app.WithSeed(opts.seed),
		app.WithTrialWorkers(opts.workers),
		app.WithPairIterations(opts.iterations),
		app.WithMultiIterations(opts.iterations),
		app.WithTeamSize(opts.size),
	)
	names := model.Team(players).Names()

	var result any
	if opts.pair {
		result, err = svc.CreateTeams(ctx, names, opts.size)
	} else {
		result, err = svc.CreateMultipleTeams(ctx, app.MultiRequest{
			Players:   names,
			TeamSize:  opts.size,
			TeamCount: opts.teams,
			Rounds:    opts.rounds,
		})
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/adapters/http/api"
	"github.com/okian/rally/internal/adapters/http/swagger"
	"github.com/okian/rally/internal/adapters/repository"
	app "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/config"
	"github.com/okian/rally/internal/domain/rating"
	"github.com/okian/rally/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP matchmaking service",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Root context with cancel on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, configFile)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file (default: $RALLY_CONFIG)")
	return cmd
}

func runServe(ctx context.Context, configFile string) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the service described by cfg, seeding the roster from
// cfg.RosterFile when set.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	rosterOpts := []repository.Option{repository.WithMaxGames(cfg.MaxGames)}
	if cfg.RosterFile != "" {
		players, err := repository.LoadRoster(cfg.RosterFile, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to load roster: %w", err)
		}
		log.Info(context.Background(), "roster loaded",
			logger.String("file", cfg.RosterFile),
			logger.Int("players", len(players)),
		)
		rosterOpts = append(rosterOpts, repository.WithPlayers(players))
	}

	return app.New(
		app.WithLogger(log),
		app.WithRoster(repository.NewInMemoryRoster(rosterOpts...)),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithTeamSize(cfg.TeamSize),
		app.WithPairIterations(cfg.PairIterations),
		app.WithMultiIterations(cfg.MultiIterations),
		app.WithTrialWorkers(cfg.TrialWorkers),
		app.WithSeed(cfg.Seed),
		app.WithRatingOptions(
			rating.WithBeta(cfg.Rating.Beta),
			rating.WithDynamicFactor(cfg.Rating.DynamicFactor),
			rating.WithUncertaintyFactor(cfg.Rating.UncertaintyFactor),
		),
	), nil
}

func newMux(ctx context.Context, svc *app.Service, cfg *config.Config, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// API docs at /api-docs and /openapi.yaml
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	api.NewServer(svc,
		api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		api.WithLogger(log.Named("http")),
	).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater refreshes gauges derived from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats updates the queue and roster gauges as a side effect.
			_ = svc.GetStats()
		}
	}
}

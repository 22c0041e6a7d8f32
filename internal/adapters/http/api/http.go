// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/rally/internal/adapters/mq/queue"
	"github.com/okian/rally/internal/adapters/repository"
	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/domain/types"
	"github.com/okian/rally/pkg/logger"
)

const (
	defaultMaxLimit     = 100
	defaultLeaderboard  = 10
	maxRequestBodyBytes = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	GameDependencies
	TeamDependencies
	PlayerDependencies
	LeaderboardDependencies
	RankDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	gamesHandler       *GamesHandler
	teamsHandler       *TeamsHandler
	playersHandler     *PlayersHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	logger             logger.Logger
}

// Option configures the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
	logger   logger.Logger
}

// WithMaxLeaderboardLimit caps the limit accepted by GET /leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithLogger sets the logger used for handler panics.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Nop()
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		gamesHandler:       NewGamesHandler(deps),
		teamsHandler:       NewTeamsHandler(deps),
		playersHandler:     NewPlayersHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
		rankHandler:        NewRankHandler(deps),
		logger:             cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", instrument(s.logger, "healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("/stats", instrument(s.logger, "stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/checkin", instrument(s.logger, "checkin", s.playersHandler.HandleCheckIn))
	mux.HandleFunc("/games", instrument(s.logger, "games", s.gamesHandler.HandlePostGame))
	mux.HandleFunc("/feedback", instrument(s.logger, "feedback", s.gamesHandler.HandleFeedback))
	mux.HandleFunc("/teams", instrument(s.logger, "teams", s.teamsHandler.HandleCreateTeams))
	mux.HandleFunc("/teams/multi", instrument(s.logger, "teams_multi", s.teamsHandler.HandleCreateMultiple))
	mux.HandleFunc("/players/", instrument(s.logger, "players", s.playersHandler.HandleGetPlayer))
	mux.HandleFunc("/reset", instrument(s.logger, "reset", s.playersHandler.HandleReset))
	mux.HandleFunc("/leaderboard", instrument(s.logger, "leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("/rank/", instrument(s.logger, "rank", s.rankHandler.HandleGetRank))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeFailure translates upstream errors to a status code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidGame),
		errors.Is(err, service.ErrInvalidFeedback),
		errors.Is(err, service.ErrNoPlayers),
		errors.Is(err, repository.ErrInvalidName),
		errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

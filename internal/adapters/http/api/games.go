package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
)

// GameDependencies defines the interface for recording results.
type GameDependencies interface {
	// SubmitGame queues a game. Returns the assigned ID and whether it was
	// already known.
	SubmitGame(ctx context.Context, g model.GameResult) (string, bool, error)
	// RecordGameOnce applies a game immediately unless its ID was seen.
	RecordGameOnce(ctx context.Context, g model.GameResult) (string, bool, error)
	ManualFeedback(ctx context.Context, team1, team2 []string, predictedWinner int) (rating.Outcome, error)
}

// GamesHandler handles game result and feedback requests.
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// gameRequest is the body of POST /games.
type gameRequest struct {
	ID       string   `json:"id"`
	Team1    []string `json:"team1"`
	Team2    []string `json:"team2"`
	Score1   int      `json:"score1"`
	Score2   int      `json:"score2"`
	PlayedAt string   `json:"played_at"`
}

func (g gameRequest) result() (model.GameResult, error) {
	switch {
	case len(g.Team1) == 0:
		return model.GameResult{}, errors.New("missing team1")
	case len(g.Team2) == 0:
		return model.GameResult{}, errors.New("missing team2")
	case g.Score1 < 0 || g.Score2 < 0:
		return model.GameResult{}, errors.New("scores must not be negative")
	}
	res := model.GameResult{
		ID:     strings.TrimSpace(g.ID),
		Team1:  g.Team1,
		Team2:  g.Team2,
		Score1: g.Score1,
		Score2: g.Score2,
	}
	if g.PlayedAt != "" {
		ts, err := time.Parse(time.RFC3339, g.PlayedAt)
		if err != nil {
			return model.GameResult{}, errors.New("invalid played_at; must be RFC3339")
		}
		res.PlayedAt = ts
	}
	return res, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostGame handles POST /games requests. Games are queued unless
// ?sync=true asks for them to be applied before responding.
func (h *GamesHandler) HandlePostGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req gameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	game, err := req.result()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if r.URL.Query().Get("sync") == "true" {
		id, duplicate, err := h.deps.RecordGameOnce(r.Context(), game)
		if err != nil {
			writeFailure(w, op, err)
			return
		}
		if duplicate {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: id, Duplicate: true})
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "recorded", ID: id})
		return
	}

	id, duplicate, err := h.deps.SubmitGame(r.Context(), game)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: id, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: id})
}

// feedbackRequest is the body of POST /feedback.
type feedbackRequest struct {
	Team1  []string `json:"team1"`
	Team2  []string `json:"team2"`
	Winner int      `json:"winner"`
}

// HandleFeedback handles POST /feedback requests.
func (h *GamesHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_feedback"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.ManualFeedback(r.Context(), req.Team1, req.Team2, req.Winner)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
)

// PlayerDependencies defines the interface for player operations.
type PlayerDependencies interface {
	CheckIn(ctx context.Context, names []string) ([]*model.Player, error)
	PlayerStats(ctx context.Context, name string) (types.PlayerStats, error)
	ResetPlayer(ctx context.Context, name string) error
	ResetAll(ctx context.Context) (int, error)
}

// PlayersHandler handles check-in, player stats and reset requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type checkInRequest struct {
	Players []string `json:"players"`
}

type checkInResponse struct {
	CheckedIn int      `json:"checked_in"`
	Players   []string `json:"players"`
}

// HandleCheckIn handles POST /checkin requests.
func (h *PlayersHandler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	const op = "api.checkin"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req checkInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	players, err := h.deps.CheckIn(r.Context(), req.Players)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	resp := checkInResponse{CheckedIn: len(players), Players: model.Team(players).Names()}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetPlayer handles GET /players/{name} requests.
func (h *PlayersHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/players/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	stats, err := h.deps.PlayerStats(r.Context(), name)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type resetRequest struct {
	// Name selects one player; empty resets everyone.
	Name string `json:"name"`
}

type resetResponse struct {
	Reset int `json:"reset"`
}

// HandleReset handles POST /reset requests.
func (h *PlayersHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		n, err := h.deps.ResetAll(r.Context())
		if err != nil {
			writeFailure(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, resetResponse{Reset: n})
		return
	}
	if err := h.deps.ResetPlayer(r.Context(), req.Name); err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Reset: 1})
}

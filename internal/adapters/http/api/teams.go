package api

import (
	"context"
	"net/http"

	service "github.com/okian/rally/internal/app"
)

// TeamDependencies defines the interface for team balancing.
type TeamDependencies interface {
	CreateTeams(ctx context.Context, names []string, size int) (service.TeamsResult, error)
	CreateMultipleTeams(ctx context.Context, req service.MultiRequest) (service.MultiTeams, error)
}

// TeamsHandler handles team creation requests.
type TeamsHandler struct {
	deps TeamDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

type teamsRequest struct {
	Players  []string `json:"players"`
	TeamSize int      `json:"team_size"`
}

// HandleCreateTeams handles POST /teams requests.
func (h *TeamsHandler) HandleCreateTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_teams"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req teamsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.CreateTeams(r.Context(), req.Players, req.TeamSize)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCreateMultiple handles POST /teams/multi requests.
func (h *TeamsHandler) HandleCreateMultiple(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_multiple_teams"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req service.MultiRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Rounds < 0 || req.TeamCount < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	res, err := h.deps.CreateMultipleTeams(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

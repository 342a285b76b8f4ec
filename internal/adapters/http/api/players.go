package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/dinger/internal/domain/types"
)

// PlayersHandler serves per-player reads.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

type similarResponse struct {
	Player  string           `json:"player"`
	Limit   int              `json:"limit"`
	Similar []types.Neighbor `json:"similar"`
}

// HandleProfile handles GET /players/{name}/profile.
func (h *PlayersHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	p, err := h.deps.Profile(r.Context(), r.PathValue("name"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleSimilar handles GET /players/{name}/similar?limit=N.
func (h *PlayersHandler) HandleSimilar(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_similar"
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fail(w, op, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}

	name := r.PathValue("name")
	similar, err := h.deps.Similar(r.Context(), name, limit)
	if err != nil {
		fail(w, op, err)
		return
	}
	if limit == 0 {
		limit = h.deps.DefaultTopN()
	}
	writeJSON(w, http.StatusOK, similarResponse{Player: name, Limit: limit, Similar: similar})
}

// HandleMedia handles GET /players/{name}/media.
func (h *PlayersHandler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_media"
	list, err := h.deps.Media(r.Context(), r.PathValue("name"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleRandomMedia handles GET /players/{name}/media/random.
func (h *PlayersHandler) HandleRandomMedia(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_random_media"
	clip, err := h.deps.RandomMedia(r.Context(), r.PathValue("name"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

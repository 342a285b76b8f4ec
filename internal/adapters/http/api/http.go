// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	service "github.com/okian/dinger/internal/app"
	"github.com/okian/dinger/internal/domain/model"
	"github.com/okian/dinger/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	DatasetDependencies
	DigestDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	playersHandler *PlayersHandler
	datasetHandler *DatasetHandler
	digestsHandler *DigestsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	v := validator.New()
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		playersHandler: NewPlayersHandler(deps),
		datasetHandler: NewDatasetHandler(deps),
		digestsHandler: NewDigestsHandler(deps, v),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /players/{name}/profile", MetricsMiddleware(s.playersHandler.HandleProfile, "profile"))
	mux.HandleFunc("GET /players/{name}/similar", MetricsMiddleware(s.playersHandler.HandleSimilar, "similar"))
	mux.HandleFunc("GET /players/{name}/media", MetricsMiddleware(s.playersHandler.HandleMedia, "media"))
	mux.HandleFunc("GET /players/{name}/media/random", MetricsMiddleware(s.playersHandler.HandleRandomMedia, "media_random"))
	mux.HandleFunc("GET /dataset", MetricsMiddleware(s.datasetHandler.HandleInfo, "dataset"))
	mux.HandleFunc("POST /dataset/reload", MetricsMiddleware(s.datasetHandler.HandleReload, "dataset_reload"))
	mux.HandleFunc("POST /digests", MetricsMiddleware(s.digestsHandler.HandleSubmit, "digests_submit"))
	mux.HandleFunc("GET /digests/{id}", MetricsMiddleware(s.digestsHandler.HandleGet, "digests_get"))
}

// PlayerDependencies answers per-player queries.
type PlayerDependencies interface {
	Profile(ctx context.Context, name string) (types.Profile, error)
	Similar(ctx context.Context, name string, limit int) ([]types.Neighbor, error)
	Media(ctx context.Context, name string) (types.MediaList, error)
	RandomMedia(ctx context.Context, name string) (types.Clip, error)
	DefaultTopN() int
}

// DatasetDependencies manages the served dataset.
type DatasetDependencies interface {
	Reload(ctx context.Context) (types.DatasetInfo, error)
	DatasetInfo(ctx context.Context) (types.DatasetInfo, error)
}

// DigestDependencies submits and reads follower digests.
type DigestDependencies interface {
	SubmitDigest(ctx context.Context, job model.DigestJob) (model.DigestJob, bool, error)
	Digest(ctx context.Context, jobID string) (types.Digest, error)
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

// classify maps service and API errors onto an API error kind.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidLimit):
		return ErrBadRequest
	case errors.Is(err, ErrNotFound),
		errors.Is(err, service.ErrNoMedia),
		errors.Is(err, service.ErrDigestNotFound):
		return ErrNotFound
	case errors.Is(err, ErrBackpressure),
		errors.Is(err, service.ErrBackpressure):
		return ErrBackpressure
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, service.ErrDatasetUnavailable),
		errors.Is(err, service.ErrReloadFailed),
		errors.Is(err, service.ErrNotStarted):
		return ErrUnavailable
	default:
		return ErrInternal
	}
}

// fail writes the error body matching err's kind.
func fail(w http.ResponseWriter, op string, err error) {
	kind := classify(err)
	err = WrapKind(op, kind, err)
	switch kind {
	case ErrBadRequest:
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case ErrNotFound:
		writeError(w, http.StatusNotFound, "not_found", err)
	case ErrBackpressure:
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case ErrUnavailable:
		writeError(w, http.StatusServiceUnavailable, "dataset_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

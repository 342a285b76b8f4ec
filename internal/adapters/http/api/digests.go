package api

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/okian/dinger/internal/domain/model"
)

// digestRequest mirrors the OpenAPI schema for POST /digests.
type digestRequest struct {
	JobID  string `json:"job_id" validate:"omitempty,max=128,printascii"`
	Player string `json:"player" validate:"required,max=200"`
	TopN   int    `json:"top_n" validate:"omitempty,min=1"`
}

type ackResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

// DigestsHandler accepts digest jobs and serves their results.
type DigestsHandler struct {
	deps     DigestDependencies
	validate *validator.Validate
}

// NewDigestsHandler creates a new digests handler.
func NewDigestsHandler(deps DigestDependencies, v *validator.Validate) *DigestsHandler {
	if v == nil {
		v = validator.New()
	}
	return &DigestsHandler{deps: deps, validate: v}
}

// HandleSubmit handles POST /digests.
func (h *DigestsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_digest"
	var req digestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		fail(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	job, duplicate, err := h.deps.SubmitDigest(r.Context(), model.DigestJob{
		JobID:     req.JobID,
		Player:    req.Player,
		TopN:      req.TopN,
		Requested: time.Now().UTC(),
	})
	if err != nil {
		fail(w, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", JobID: job.JobID, Duplicate: true})
		return
	}
	w.Header().Set("Location", "/digests/"+job.JobID)
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: job.JobID})
}

// HandleGet handles GET /digests/{id}.
func (h *DigestsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_digest"
	d, err := h.deps.Digest(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

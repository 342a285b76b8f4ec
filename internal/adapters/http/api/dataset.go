package api

import "net/http"

// DatasetHandler manages the served dataset.
type DatasetHandler struct {
	deps DatasetDependencies
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps DatasetDependencies) *DatasetHandler {
	return &DatasetHandler{deps: deps}
}

// HandleInfo handles GET /dataset.
func (h *DatasetHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dataset"
	info, err := h.deps.DatasetInfo(r.Context())
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleReload handles POST /dataset/reload. A failed reload answers 503 and
// the previous snapshot stays in service.
func (h *DatasetHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload_dataset"
	info, err := h.deps.Reload(r.Context())
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

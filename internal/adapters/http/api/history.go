package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultSnapshotLimit = 20

// HistoryHandler lists recorded snapshots.
type HistoryHandler struct {
	history History
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(h History) *HistoryHandler {
	return &HistoryHandler{history: h}
}

// HandleSnapshots handles GET /api/snapshots?limit=N requests.
func (h *HistoryHandler) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	const op = "api.snapshots"
	n, ok := intParam(r.URL.Query().Get("limit"), defaultSnapshotLimit)
	if !ok || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	runs, err := h.history.Runs(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(runs))
}

// HandleSnapshotBalance handles GET /api/snapshots/{run_id}/balance requests.
func (h *HistoryHandler) HandleSnapshotBalance(w http.ResponseWriter, r *http.Request) {
	const op = "api.snapshot_balance"
	id, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	rows, err := h.history.Balances(r.Context(), id.String())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(rows))
}

package api

import (
	"context"
	"net/http"

	"github.com/okian/fantaledger/internal/domain/model"
)

// ReportDependencies builds a full ledger report.
type ReportDependencies interface {
	Report(ctx context.Context) (*model.Report, error)
}

// ReportHandler serves the report and each of its tables.
type ReportHandler struct {
	deps ReportDependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleReport handles GET /api/report requests.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.report", func(rep *model.Report) any { return rep })
}

// HandleBalance handles GET /api/balance requests.
func (h *ReportHandler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.balance", func(rep *model.Report) any { return orEmpty(rep.Balance) })
}

// HandleSales handles GET /api/sales requests.
func (h *ReportHandler) HandleSales(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.sales", func(rep *model.Report) any { return orEmpty(rep.Sales) })
}

// HandleRounds handles GET /api/rounds requests.
func (h *ReportHandler) HandleRounds(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.rounds", func(rep *model.Report) any { return orEmpty(rep.Rounds) })
}

// HandleLinks handles GET /api/links requests.
func (h *ReportHandler) HandleLinks(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.links", func(rep *model.Report) any { return orEmpty(rep.Links) })
}

// HandleSignings handles GET /api/signings requests.
func (h *ReportHandler) HandleSignings(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.signings", func(rep *model.Report) any { return orEmpty(rep.Signings) })
}

func (h *ReportHandler) serve(w http.ResponseWriter, r *http.Request, op string, pick func(*model.Report) any) {
	rep, err := h.deps.Report(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pick(rep))
}

// orEmpty keeps empty tables encoded as [] rather than null.
func orEmpty[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

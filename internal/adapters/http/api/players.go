package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/fantaledger/internal/domain/model"
)

const (
	defaultTopN       = 10
	defaultMaxMillion = 1000.0
)

// PlayersDependencies defines the roster and market queries.
type PlayersDependencies interface {
	Players(ctx context.Context) ([]model.PlayerRecord, error)
	TopLastSeason(ctx context.Context, position model.Position, minMillions, maxMillions float64, n int) ([]model.PlayerRecord, error)
	Performance(ctx context.Context) ([]model.PerformanceRow, error)
	Market(ctx context.Context) ([]model.MarketOffer, error)
}

// PlayersHandler handles roster requests.
type PlayersHandler struct {
	deps     PlayersDependencies
	maxLimit int
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayersDependencies, maxLimit int) *PlayersHandler {
	return &PlayersHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandlePlayers handles GET /api/players requests.
func (h *PlayersHandler) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	const op = "api.players"
	players, err := h.deps.Players(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(players))
}

// HandleTop handles GET /api/players/top?position=P&min=A&max=B&limit=N requests.
func (h *PlayersHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.players_top"
	q := r.URL.Query()

	position, err := model.ParsePosition(q.Get("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	minM, okMin := floatParam(q.Get("min"), 0)
	maxM, okMax := floatParam(q.Get("max"), defaultMaxMillion)
	n, okN := intParam(q.Get("limit"), min(defaultTopN, h.maxLimit))
	if !okMin || !okMax || !okN || n < 1 || minM > maxM {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	top, err := h.deps.TopLastSeason(r.Context(), position, minM, maxM, n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(top))
}

// HandlePerformance handles GET /api/performance requests.
func (h *PlayersHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	const op = "api.performance"
	rows, err := h.deps.Performance(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(rows))
}

// HandleMarket handles GET /api/market requests.
func (h *PlayersHandler) HandleMarket(w http.ResponseWriter, r *http.Request) {
	const op = "api.market"
	offers, err := h.deps.Market(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(offers))
}

func floatParam(raw string, def float64) (float64, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

func intParam(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"

	"github.com/okian/fantaledger/internal/adapters/recorder"
	service "github.com/okian/fantaledger/internal/app"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/pkg/logger"
)

const defaultMaxTopN = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Report runs the pipeline and returns every derived table.
	Report(ctx context.Context) (*model.Report, error)

	// Roster queries.
	Players(ctx context.Context) ([]model.PlayerRecord, error)
	TopLastSeason(ctx context.Context, position model.Position, minMillions, maxMillions float64, n int) ([]model.PlayerRecord, error)
	Performance(ctx context.Context) ([]model.PerformanceRow, error)
	Market(ctx context.Context) ([]model.MarketOffer, error)
}

// History lists stored snapshots.
type History interface {
	Runs(ctx context.Context, limit int) ([]recorder.RunSummary, error)
	Balances(ctx context.Context, runID string) ([]model.BalanceRow, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	reportHandler  *ReportHandler
	playersHandler *PlayersHandler
	historyHandler *HistoryHandler
	allowedOrigins []string
	log            logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxTopN caps the limit accepted by /api/players/top.
func WithMaxTopN(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.playersHandler.maxLimit = n
		}
	}
}

// WithHistory enables /api/snapshots and /api/snapshots/{run_id}/balance.
func WithHistory(h History) Option {
	return func(s *Server) {
		if h != nil {
			s.historyHandler = NewHistoryHandler(h)
		}
	}
}

// WithAllowedOrigins sets the CORS origins; defaults to any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		reportHandler:  NewReportHandler(deps),
		playersHandler: NewPlayersHandler(deps, defaultMaxTopN),
		historyHandler: NewHistoryHandler(recorder.NoopRecorder{}),
		allowedOrigins: []string{"*"},
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/report", MetricsMiddleware(s.reportHandler.HandleReport, "report"))
		r.Get("/balance", MetricsMiddleware(s.reportHandler.HandleBalance, "balance"))
		r.Get("/sales", MetricsMiddleware(s.reportHandler.HandleSales, "sales"))
		r.Get("/rounds", MetricsMiddleware(s.reportHandler.HandleRounds, "rounds"))
		r.Get("/links", MetricsMiddleware(s.reportHandler.HandleLinks, "links"))
		r.Get("/signings", MetricsMiddleware(s.reportHandler.HandleSignings, "signings"))

		r.Get("/players", MetricsMiddleware(s.playersHandler.HandlePlayers, "players"))
		r.Get("/players/top", MetricsMiddleware(s.playersHandler.HandleTop, "players_top"))
		r.Get("/performance", MetricsMiddleware(s.playersHandler.HandlePerformance, "performance"))
		r.Get("/market", MetricsMiddleware(s.playersHandler.HandleMarket, "market"))

		r.Get("/snapshots", MetricsMiddleware(s.historyHandler.HandleSnapshots, "snapshots"))
		r.Get("/snapshots/{run_id}/balance", MetricsMiddleware(s.historyHandler.HandleSnapshotBalance, "snapshot_balance"))
	})
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

// writeFailure maps a handler error to its response.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, recorder.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

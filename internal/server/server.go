package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/trackplan/internal/ingest/notes"
	trackmcp "github.com/claude/trackplan/internal/mcp"
	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the persistence the HTTP API needs. *storage.DB satisfies it.
type Store interface {
	notes.PlanStore
	GetPlan(ctx context.Context, id uuid.UUID, userID int) (*models.PlanRecord, error)
	ListPlans(ctx context.Context, userID, limit int) ([]models.PlanSummary, error)
	DeletePlan(ctx context.Context, id uuid.UUID, userID int) error
	GetPlanStats(ctx context.Context, userID int) (*storage.PlanStats, error)
	InsertConversionLog(ctx context.Context, log storage.ConversionLog) (int64, error)
	QueryConversionLogs(ctx context.Context, userID, limit int) ([]storage.ConversionLog, error)
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	Ping(ctx context.Context) error
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  Store
	notes  *notes.Provider
	log    *slog.Logger
	apiKey string
	whois  WhoIser
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, provider *notes.Provider, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		notes:  provider,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches request identity from the dev user to Tailscale WhoIs.
// Call before serving.
func (s *Server) SetTailscale(who WhoIser) {
	s.whois = who
}

// MountMCP serves the MCP streamable HTTP transport at /mcp. Tool calls run as
// the user resolved by the identity middleware.
func (s *Server) MountMCP(mcpSrv *mcpserver.MCPServer) {
	h := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return trackmcp.WithUserID(ctx, userIDFromContext(r))
		}),
	)
	s.router.With(s.identify).Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identify)

		// Stateless conversion, no API key: tsnet handles access
		r.Post("/convert", s.handleConvert)
		r.Post("/validate", s.handleValidate)
		r.Post("/fix", s.handleFix)

		// Storing plans requires the API key
		r.With(APIKeyAuth(s.apiKey)).Post("/plans", s.handleStorePlan)

		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/{id}", s.handleGetPlan)
		r.Get("/plans/{id}/download", s.handleDownloadPlan)
		r.With(APIKeyAuth(s.apiKey)).Delete("/plans/{id}", s.handleDeletePlan)

		r.Get("/conversions", s.handleConversionLogs)
		r.Get("/stats", s.handleStats)
		r.Get("/lexicon", s.handleLexicon)
		r.Get("/me", s.handleMe)
	})
}

// identify picks the identity middleware at request time so SetTailscale can
// be called after New.
func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.store, s.log)(next).ServeHTTP(w, r)
	})
}

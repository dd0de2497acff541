package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/trackplan/internal/ingest/notes"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// Conversion always runs in-process through provider; ds serves stored plans.
func New(ds DataSource, provider *notes.Provider, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("trackplan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("trackplan converts French track session notes (\"Bloc GROUPE\", \"Bloc N\", \"3x 1200 75%-80%-85%\", \"2'30'' actif\") into structured training plans, validates plan documents and serves previously stored plans. All stored data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, notes: provider, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolConvertNotes, Handler: h.convertNotes},
		server.ServerTool{Tool: toolValidatePlan, Handler: h.validatePlan},
		server.ServerTool{Tool: toolFixPlan, Handler: h.fixPlan},
		server.ServerTool{Tool: toolListPlans, Handler: h.listPlans},
		server.ServerTool{Tool: toolGetPlan, Handler: h.getPlan},
		server.ServerTool{Tool: toolGetPlanStats, Handler: h.getPlanStats},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentPlans, Handler: h.recentPlans},
		server.ServerResource{Resource: resRecoveryLexicon, Handler: h.recoveryLexicon},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds    DataSource
	notes *notes.Provider
	log   *slog.Logger
}

// --- Resource definitions ---

var resRecentPlans = mcp.NewResource(
	"trackplan://recent_plans",
	"Recent Plans",
	mcp.WithResourceDescription("Summaries of the 10 most recently stored training plans"),
	mcp.WithMIMEType("application/json"),
)

var resRecoveryLexicon = mcp.NewResource(
	"trackplan://recovery_lexicon",
	"Recovery Lexicon",
	mcp.WithResourceDescription("French recovery phrases and the recovery type each maps to, in match order"),
	mcp.WithMIMEType("application/json"),
)

package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/trackplan/internal/ingest/notes"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) recentPlans(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	plans, err := h.ds.ListPlans(ctx, UserIDFromContext(ctx), 10)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, plans)
}

func (h *handlers) recoveryLexicon(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, notes.Lexicon())
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

package mcp

import (
	"context"

	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the plan store for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListPlans(ctx context.Context, userID, limit int) ([]models.PlanSummary, error)
	GetPlan(ctx context.Context, id uuid.UUID, userID int) (*models.PlanRecord, error)
	GetPlanStats(ctx context.Context, userID int) (*storage.PlanStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

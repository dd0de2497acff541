package notes

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/claude/trackplan/internal/ingest"
	"github.com/claude/trackplan/internal/models"
	"github.com/claude/trackplan/internal/observability"
	"github.com/claude/trackplan/internal/validate"
)

// PlanStore persists converted plans. *storage.DB satisfies it.
type PlanStore interface {
	InsertPlan(ctx context.Context, rec *models.PlanRecord) error
}

// Provider converts session notes, validates the result and optionally stores it.
type Provider struct {
	parser *Parser
	store  PlanStore
	log    *slog.Logger
}

// NewProvider creates a notes provider. A nil store disables persistence.
func NewProvider(parser *Parser, store PlanStore, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Provider{parser: parser, store: store, log: log}
}

// Parser returns the underlying parser.
func (p *Provider) Parser() *Parser {
	return p.parser
}

// ConvertText parses a note and validates the plan it yields.
func (p *Provider) ConvertText(text, source string) (models.Plan, []string) {
	plan := p.parser.Parse(text)
	issues := validate.Struct(plan)
	_, _, sets := plan.Counts()
	observability.RecordConversion(source, sets, len(issues))
	if len(issues) > 0 {
		p.log.Warn("converted plan has issues", "source", source, "issues", len(issues))
	}
	return plan, issues
}

// Convert reads a whole note and converts it.
func (p *Provider) Convert(r io.Reader, source string) (models.Plan, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Plan{}, nil, fmt.Errorf("reading notes: %w", err)
	}
	plan, issues := p.ConvertText(string(data), source)
	return plan, issues, nil
}

// Ingest converts a note and stores the plan for userID.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int, source string) (*ingest.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}
	_, result, err := p.IngestText(ctx, string(data), userID, source)
	return result, err
}

// IngestText converts text, stores the plan and returns both the plan and the
// ingest result. Without a store the plan is converted but not persisted.
func (p *Provider) IngestText(ctx context.Context, text string, userID int, source string) (models.Plan, *ingest.Result, error) {
	plan, issues := p.ConvertText(text, source)

	rec := models.NewPlanRecord(userID, source, text, plan, issues)
	result := &ingest.Result{
		Source: source,
		Title:  plan.Title,
		Groups: rec.GroupCount,
		Blocks: rec.BlockCount,
		Sets:   rec.SetCount,
		Issues: rec.Issues,
	}
	if p.store == nil {
		result.Message = "storage disabled"
		return plan, result, nil
	}

	if err := p.store.InsertPlan(ctx, &rec); err != nil {
		return plan, nil, fmt.Errorf("storing plan: %w", err)
	}
	observability.RecordPlanStored()
	result.PlanID = rec.ID.String()
	result.Stored = true

	p.log.Info("plan stored",
		"plan_id", result.PlanID,
		"user_id", userID,
		"source", source,
		"groups", result.Groups,
		"sets", result.Sets,
	)
	return plan, result, nil
}

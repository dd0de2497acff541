package mcp

import (
	"context"
	"errors"

	"github.com/claude/trackplan/internal/storage"
	"github.com/claude/trackplan/internal/validate"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// --- Tool definitions ---

var toolConvertNotes = mcp.NewTool("convert_training_notes",
	mcp.WithDescription("Convert free-form French track session notes into a structured training plan (groups, blocks, interval sets with VMA percentages and recoveries). Returns the plan and any structural issues."),
	mcp.WithString("notes", mcp.Required(), mcp.Description("The raw session notes, including 'Bloc GROUPE N :' and 'Bloc N' headings")),
	mcp.WithBoolean("store", mcp.Description("Also store the plan for later retrieval. Defaults to false.")),
)

var toolValidatePlan = mcp.NewTool("validate_training_plan",
	mcp.WithDescription("Check a training plan JSON document for missing required fields. Returns valid=true with no issues when well-formed."),
	mcp.WithString("plan_json", mcp.Required(), mcp.Description("The plan document as a JSON string")),
	mcp.WithBoolean("strict", mcp.Description("Also check value types, ranges and recovery types against the plan schema. Defaults to false.")),
)

var toolFixPlan = mcp.NewTool("fix_training_plan",
	mcp.WithDescription("Apply corrective rewrites to a plan JSON document: recovery_types replaces unknown recovery types with rest, missing_fields adds recoveryType rest and recoverySeconds 60 where absent."),
	mcp.WithString("plan_json", mcp.Required(), mcp.Description("The plan document as a JSON string")),
	mcp.WithString("ops", mcp.Description("Comma-separated fixups to apply. Defaults to all: recovery_types,missing_fields")),
)

var toolListPlans = mcp.NewTool("list_training_plans",
	mcp.WithDescription("List stored training plans, newest first, with group/block/set counts."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of plans. Defaults to 20.")),
)

var toolGetPlan = mcp.NewTool("get_training_plan",
	mcp.WithDescription("Retrieve a stored training plan by ID, including the original notes."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Plan UUID")),
	mcp.WithString("format", mcp.Description("Output format. Defaults to json."), mcp.Enum("json", "yaml")),
)

var toolGetPlanStats = mcp.NewTool("get_plan_stats",
	mcp.WithDescription("Aggregate statistics over stored plans: totals, plans with issues, conversions and plans per source."),
)

// --- Tool handlers ---

func (h *handlers) convertNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError("notes parameter is required"), nil
	}

	if !req.GetBool("store", false) {
		plan, issues := h.notes.ConvertText(text, "mcp")
		return jsonResult(map[string]any{"plan": plan, "issues": issues})
	}

	plan, result, err := h.notes.IngestText(ctx, text, UserIDFromContext(ctx), "mcp")
	if err != nil {
		h.log.Error("mcp convert_training_notes", "error", err)
		return mcp.NewToolResultError("storing plan failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{"plan": plan, "issues": result.Issues, "result": result})
}

func (h *handlers) validatePlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("plan_json")
	if err != nil {
		return mcp.NewToolResultError("plan_json parameter is required"), nil
	}
	report, err := validate.Check([]byte(doc), req.GetBool("strict", false))
	if err != nil {
		return mcp.NewToolResultError("invalid JSON: " + err.Error()), nil
	}
	return jsonResult(report)
}

func (h *handlers) fixPlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("plan_json")
	if err != nil {
		return mcp.NewToolResultError("plan_json parameter is required"), nil
	}
	ops, err := validate.ParseOps(req.GetString("ops", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := validate.Fix([]byte(doc), ops)
	if err != nil {
		return mcp.NewToolResultError("invalid JSON: " + err.Error()), nil
	}
	return jsonResult(report)
}

func (h *handlers) listPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	plans, err := h.ds.ListPlans(ctx, UserIDFromContext(ctx), limit)
	if err != nil {
		h.log.Error("mcp list_training_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(plans)
}

func (h *handlers) getPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid plan ID: " + err.Error()), nil
	}

	rec, err := h.ds.GetPlan(ctx, id, UserIDFromContext(ctx))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return mcp.NewToolResultError("plan not found"), nil
		}
		h.log.Error("mcp get_training_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if req.GetString("format", "json") == "yaml" {
		out, err := yaml.Marshal(rec.Plan)
		if err != nil {
			return mcp.NewToolResultError("serialization failed"), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
	return jsonResult(rec)
}

func (h *handlers) getPlanStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetPlanStats(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_plan_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

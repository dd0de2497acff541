package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanRecord is a converted plan as stored in the plans table.
type PlanRecord struct {
	ID         uuid.UUID `json:"id"`
	UserID     int       `json:"user_id"`
	Source     string    `json:"source"`
	Notes      string    `json:"notes"`
	Plan       Plan      `json:"plan"`
	GroupCount int       `json:"group_count"`
	BlockCount int       `json:"block_count"`
	SetCount   int       `json:"set_count"`
	Issues     []string  `json:"issues"`
	CreatedAt  time.Time `json:"created_at"`
}

// PlanSummary is the listing view of a stored plan.
type PlanSummary struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	GroupCount int       `json:"group_count"`
	BlockCount int       `json:"block_count"`
	SetCount   int       `json:"set_count"`
	IssueCount int       `json:"issue_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPlanRecord builds a record for a freshly converted plan, filling the counts.
func NewPlanRecord(userID int, source, notes string, plan Plan, issues []string) PlanRecord {
	g, b, s := plan.Counts()
	if issues == nil {
		issues = []string{}
	}
	return PlanRecord{
		ID:         uuid.New(),
		UserID:     userID,
		Source:     source,
		Notes:      notes,
		Plan:       plan,
		GroupCount: g,
		BlockCount: b,
		SetCount:   s,
		Issues:     issues,
	}
}

// Summary returns the listing view of the record.
func (r PlanRecord) Summary() PlanSummary {
	return PlanSummary{
		ID:         r.ID,
		Title:      r.Plan.Title,
		Source:     r.Source,
		GroupCount: r.GroupCount,
		BlockCount: r.BlockCount,
		SetCount:   r.SetCount,
		IssueCount: len(r.Issues),
		CreatedAt:  r.CreatedAt,
	}
}

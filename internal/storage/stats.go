package storage

import (
	"context"
	"fmt"
	"time"
)

// PlanStats holds aggregate statistics about a user's stored plans.
type PlanStats struct {
	TotalPlans        int64        `json:"total_plans"`
	TotalSets         int64        `json:"total_sets"`
	PlansWithIssues   int64        `json:"plans_with_issues"`
	TotalConversions  int64        `json:"total_conversions"`
	FailedConversions int64        `json:"failed_conversions"`
	EarliestPlan      *time.Time   `json:"earliest_plan"`
	LatestPlan        *time.Time   `json:"latest_plan"`
	PlansBySource     []SourceStat `json:"plans_by_source"`
}

// SourceStat counts stored plans per submission source.
type SourceStat struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// GetPlanStats returns aggregate statistics for a user's stored plans.
func (db *DB) GetPlanStats(ctx context.Context, userID int) (*PlanStats, error) {
	stats := &PlanStats{PlansBySource: []SourceStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(set_count), 0),
		 COUNT(*) FILTER (WHERE cardinality(issues) > 0),
		 MIN(created_at), MAX(created_at)
		 FROM plans WHERE user_id = $1`, userID,
	).Scan(&stats.TotalPlans, &stats.TotalSets, &stats.PlansWithIssues, &stats.EarliestPlan, &stats.LatestPlan)
	if err != nil {
		return nil, fmt.Errorf("counting plans: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'error')
		 FROM conversion_logs WHERE user_id = $1`, userID,
	).Scan(&stats.TotalConversions, &stats.FailedConversions)
	if err != nil {
		return nil, fmt.Errorf("counting conversions: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT source, COUNT(*) FROM plans WHERE user_id = $1
		 GROUP BY source ORDER BY COUNT(*) DESC, source`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying plans by source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s SourceStat
		if err := rows.Scan(&s.Source, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning source stat: %w", err)
		}
		stats.PlansBySource = append(stats.PlansBySource, s)
	}
	return stats, rows.Err()
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/trackplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertPlan stores a converted plan. The document is kept as JSONB so it can
// be served back byte-for-byte compatible with the converter output.
func (db *DB) InsertPlan(ctx context.Context, rec *models.PlanRecord) error {
	doc, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("encoding plan %s: %w", rec.ID, err)
	}
	issues := rec.Issues
	if issues == nil {
		issues = []string{}
	}

	err = db.Pool.QueryRow(ctx,
		`INSERT INTO plans (id, user_id, source, title, notes, document,
		 group_count, block_count, set_count, issues)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING created_at`,
		rec.ID, rec.UserID, rec.Source, rec.Plan.Title, rec.Notes, doc,
		rec.GroupCount, rec.BlockCount, rec.SetCount, issues,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting plan %s: %w", rec.ID, err)
	}
	return nil
}

// GetPlan returns a single plan owned by userID, or ErrNotFound.
func (db *DB) GetPlan(ctx context.Context, id uuid.UUID, userID int) (*models.PlanRecord, error) {
	var rec models.PlanRecord
	var doc []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, source, notes, document, group_count, block_count, set_count, issues, created_at
		 FROM plans
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&rec.ID, &rec.UserID, &rec.Source, &rec.Notes, &doc,
		&rec.GroupCount, &rec.BlockCount, &rec.SetCount, &rec.Issues, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying plan %s: %w", id, err)
	}
	if err := json.Unmarshal(doc, &rec.Plan); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", id, err)
	}
	return &rec, nil
}

// ListPlans returns summaries of the most recent plans for a user, newest first.
func (db *DB) ListPlans(ctx context.Context, userID, limit int) ([]models.PlanSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, title, source, group_count, block_count, set_count, cardinality(issues), created_at
		 FROM plans
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	result := []models.PlanSummary{}
	for rows.Next() {
		var s models.PlanSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Source, &s.GroupCount, &s.BlockCount,
			&s.SetCount, &s.IssueCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// DeletePlan removes a plan owned by userID. Returns ErrNotFound when nothing matched.
func (db *DB) DeletePlan(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

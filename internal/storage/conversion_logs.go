package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversionLog represents a single conversion's outcome.
type ConversionLog struct {
	ID           int64      `json:"id"`
	UserID       int        `json:"user_id"`
	CreatedAt    time.Time  `json:"created_at"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	PlanID       *uuid.UUID `json:"plan_id"`
	Groups       int        `json:"groups"`
	Blocks       int        `json:"blocks"`
	Sets         int        `json:"sets"`
	Issues       int        `json:"issues"`
	DurationMs   *int       `json:"duration_ms"`
	ErrorMessage *string    `json:"error_message"`
}

// InsertConversionLog creates a new conversion log entry and returns its ID.
func (db *DB) InsertConversionLog(ctx context.Context, log ConversionLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO conversion_logs (user_id, source, status, plan_id, group_count, block_count, set_count,
		 issue_count, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id`,
		log.UserID, log.Source, log.Status, log.PlanID, log.Groups, log.Blocks, log.Sets,
		log.Issues, log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting conversion log: %w", err)
	}
	return id, nil
}

// QueryConversionLogs returns the most recent conversion logs for a user.
func (db *DB) QueryConversionLogs(ctx context.Context, userID, limit int) ([]ConversionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, source, status, plan_id, group_count, block_count, set_count,
		 issue_count, duration_ms, error_message
		 FROM conversion_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversion logs: %w", err)
	}
	defer rows.Close()

	result := []ConversionLog{}
	for rows.Next() {
		var l ConversionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Source, &l.Status, &l.PlanID,
			&l.Groups, &l.Blocks, &l.Sets, &l.Issues, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning conversion log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

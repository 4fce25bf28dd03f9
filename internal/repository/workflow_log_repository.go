package repository

import (
	"context"
	"fmt"
	"time"

	"iris/internal/models"
)

// WorkflowLogRepository appends status-change history
type WorkflowLogRepository struct {
	db Querier
}

// NewWorkflowLogRepository creates a new workflow log repository
func NewWorkflowLogRepository(db Querier) *WorkflowLogRepository {
	return &WorkflowLogRepository{db: db}
}

// Create appends a log entry
func (r *WorkflowLogRepository) Create(ctx context.Context, e *models.WorkflowLog) error {
	query := `
		INSERT INTO workflow_logs (id, entity_type, entity_id, previous_status, new_status, changed_by, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.EntityType, e.EntityID, e.PreviousStatus, e.NewStatus, e.ChangedBy, e.Remarks, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workflow log: %w", err)
	}
	return nil
}

// ListByEntity returns the history of one entity in order
func (r *WorkflowLogRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.WorkflowLog, error) {
	query := `
		SELECT id, entity_type, entity_id, previous_status, new_status, changed_by, remarks, created_at
		FROM workflow_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow logs: %w", err)
	}
	defer closeRows(rows)

	var entries []models.WorkflowLog
	for rows.Next() {
		var e models.WorkflowLog
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.PreviousStatus, &e.NewStatus,
			&e.ChangedBy, &e.Remarks, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workflow log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

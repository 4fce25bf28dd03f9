package repository

import (
	"context"
	"fmt"
	"time"

	"iris/internal/models"
)

// ReportRepository runs the export queries
type ReportRepository struct {
	db Querier
}

// NewReportRepository creates a new report repository
func NewReportRepository(db Querier) *ReportRepository {
	return &ReportRepository{db: db}
}

// ChallengeRows returns challenges created in [from, to)
func (r *ReportRepository) ChallengeRows(ctx context.Context, from, to time.Time) ([]models.ChallengeReportRow, error) {
	query := `
		SELECT c.title, c.status, c.start_date, c.end_date, u.full_name, c.target_audience, c.visibility
		FROM challenges c
		LEFT JOIN users u ON u.id = c.created_by
		WHERE c.created_at >= $1 AND c.created_at < $2
		ORDER BY c.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenge report: %w", err)
	}
	defer closeRows(rows)

	var out []models.ChallengeReportRow
	for rows.Next() {
		var row models.ChallengeReportRow
		if err := rows.Scan(&row.Title, &row.Status, &row.StartDate, &row.EndDate,
			&row.CreatedBy, &row.TargetAudience, &row.Visibility); err != nil {
			return nil, fmt.Errorf("failed to scan challenge report row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// IdeaRows returns ideas submitted in [from, to)
func (r *ReportRepository) IdeaRows(ctx context.Context, from, to time.Time) ([]models.IdeaReportRow, error) {
	query := `
		SELECT i.title, u.full_name, c.title, i.status, i.submission_date, i.sharing_scope
		FROM ideas i
		LEFT JOIN users u ON u.id = i.submitter_id
		LEFT JOIN challenges c ON c.id = i.challenge_id
		WHERE i.submission_date >= $1 AND i.submission_date < $2
		ORDER BY i.submission_date
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query idea report: %w", err)
	}
	defer closeRows(rows)

	var out []models.IdeaReportRow
	for rows.Next() {
		var row models.IdeaReportRow
		if err := rows.Scan(&row.Title, &row.Submitter, &row.Challenge, &row.Status,
			&row.SubmissionDate, &row.SharingScope); err != nil {
			return nil, fmt.Errorf("failed to scan idea report row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GrassrootRows returns grassroot ideas created in [from, to)
func (r *ReportRepository) GrassrootRows(ctx context.Context, from, to time.Time) ([]models.GrassrootReportRow, error) {
	query := `
		SELECT u.full_name, cat.name, sub.name, g.status, g.created_at, g.proposed_idea
		FROM grassroot_ideas g
		INNER JOIN users u ON u.id = g.ideator_id
		LEFT JOIN improvement_categories cat ON cat.id = g.category_id
		LEFT JOIN improvement_subcategories sub ON sub.id = g.subcategory_id
		WHERE g.created_at >= $1 AND g.created_at < $2
		ORDER BY g.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query grassroot report: %w", err)
	}
	defer closeRows(rows)

	var out []models.GrassrootReportRow
	for rows.Next() {
		var row models.GrassrootReportRow
		if err := rows.Scan(&row.Ideator, &row.Category, &row.Subcategory, &row.Status,
			&row.CreatedAt, &row.ProposedIdea); err != nil {
			return nil, fmt.Errorf("failed to scan grassroot report row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

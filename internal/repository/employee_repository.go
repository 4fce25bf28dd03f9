package repository

import (
	"context"
	"fmt"

	"iris/internal/models"
)

// EmployeeRepository handles employee detail operations
type EmployeeRepository struct {
	db Querier
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db Querier) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Upsert creates or replaces the employee record of a user
func (r *EmployeeRepository) Upsert(ctx context.Context, d *models.EmployeeDetail) error {
	query := `
		INSERT INTO employee_details (user_id, designation, department, location, reporting_manager_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			designation = EXCLUDED.designation,
			department = EXCLUDED.department,
			location = EXCLUDED.location,
			reporting_manager_id = EXCLUDED.reporting_manager_id
	`

	_, err := r.db.ExecContext(ctx, query, d.UserID, d.Designation, d.Department, d.Location, d.ReportingManagerID)
	if err != nil {
		return fmt.Errorf("failed to upsert employee detail: %w", err)
	}
	return nil
}

// GetByUserID retrieves the employee record of a user
func (r *EmployeeRepository) GetByUserID(ctx context.Context, userID string) (*models.EmployeeDetail, error) {
	query := `
		SELECT user_id, designation, department, location, reporting_manager_id
		FROM employee_details
		WHERE user_id = $1
	`

	d := &models.EmployeeDetail{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&d.UserID,
		&d.Designation,
		&d.Department,
		&d.Location,
		&d.ReportingManagerID,
	)
	if err != nil {
		return nil, rowError(err, "employee detail", "get employee detail")
	}
	return d, nil
}

// CountDirectReports returns how many employees name managerID as reporting manager
func (r *EmployeeRepository) CountDirectReports(ctx context.Context, managerID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM employee_details WHERE reporting_manager_id = $1`
	if err := r.db.QueryRowContext(ctx, query, managerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count direct reports: %w", err)
	}
	return count, nil
}

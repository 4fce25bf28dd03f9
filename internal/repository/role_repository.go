package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"iris/internal/models"
)

// RoleRepository handles role database operations
type RoleRepository struct {
	db Querier
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db Querier) *RoleRepository {
	return &RoleRepository{db: db}
}

// Ensure returns the role with the given name, creating it when missing
func (r *RoleRepository) Ensure(ctx context.Context, name, description string) (*models.Role, error) {
	query := `
		INSERT INTO roles (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, description, created_at
	`

	role := &models.Role{}
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), name, description, time.Now()).Scan(
		&role.ID,
		&role.Name,
		&role.Description,
		&role.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure role: %w", err)
	}
	return role, nil
}

// AssignRole assigns a role by name to a user
func (r *RoleRepository) AssignRole(ctx context.Context, userID, roleName string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, created_at)
		SELECT $1, id, $3 FROM roles WHERE name = $2
		ON CONFLICT (user_id, role_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, userID, roleName, time.Now())
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	// zero rows means either an unknown role or an existing assignment
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.roleID(ctx, roleName); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoleRepository) roleID(ctx context.Context, name string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err != nil {
		return "", rowError(err, "role", "get role")
	}
	return id, nil
}

// GetUserRoles returns the role names assigned to a user
func (r *RoleRepository) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT r.name
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	defer closeRows(rows)

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// HasRole reports whether a user holds the named role
func (r *RoleRepository) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			INNER JOIN roles r ON r.id = ur.role_id
			WHERE ur.user_id = $1 AND r.name = $2
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, roleName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return exists, nil
}

// GetUsersByRole returns all users holding the named role
func (r *RoleRepository) GetUsersByRole(ctx context.Context, roleName string) ([]models.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.user_type, u.employee_id, u.is_active, u.created_at
		FROM users u
		INNER JOIN user_roles ur ON u.id = ur.user_id
		INNER JOIN roles r ON ur.role_id = r.id
		WHERE r.name = $1
		ORDER BY u.full_name
	`

	rows, err := r.db.QueryContext(ctx, query, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by role: %w", err)
	}
	defer closeRows(rows)

	return collectUsers(rows)
}

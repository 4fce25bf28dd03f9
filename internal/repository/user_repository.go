package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"iris/internal/models"
)

const userColumns = `id, email, password_hash, full_name, user_type, employee_id, is_active, created_at`

// UserRepository handles user database operations
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.UserType,
		&user.EmployeeID,
		&user.IsActive,
		&user.CreatedAt,
	)
	return user, err
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, user_type, employee_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.FullName,
		user.UserType,
		user.EmployeeID,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		return writeError(err, "a user with this email already exists", "create user")
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, rowError(err, "user", "get user")
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, rowError(err, "user", "get user by email")
	}
	return user, nil
}

// ListByIDs retrieves the users with the given ids, ordered by name
func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[]) ORDER BY full_name`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer closeRows(rows)

	return collectUsers(rows)
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// RecordLogin appends a login log entry
func (r *UserRepository) RecordLogin(ctx context.Context, entry *models.UserLoginLog) error {
	query := `
		INSERT INTO user_login_logs (id, user_id, ip_address, user_agent, login_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if entry.LoginAt.IsZero() {
		entry.LoginAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.UserID, entry.IPAddress, entry.UserAgent, entry.LoginAt)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

type sqlRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectUsers(rows sqlRows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"iris/internal/apperr"
)

const pqUniqueViolation = "23505"

// closeRows closes a result set and logs a failure
func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}

// rowError translates sql.ErrNoRows into a NotFound error for entity
func rowError(err error, entity, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity + " not found")
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// writeError reports a unique key violation as a Conflict carrying message
func writeError(err error, message, action string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return apperr.Conflict(message)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// requireAffected returns a NotFound error when an update touched no rows
func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(entity + " not found")
	}
	return nil
}

// likePattern builds a case-insensitive substring pattern for ILIKE
func likePattern(q string) string {
	return "%" + escapeLike(q) + "%"
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

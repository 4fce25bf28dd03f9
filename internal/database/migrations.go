package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Migration represents a numbered schema migration
type Migration struct {
	Version  string
	Title    string // human-readable title derived from filename
	UpSQL    string
	DownSQL  string
	Checksum string // SHA256 of UpSQL
}

// MigrationState is a migration together with whether it has been applied
type MigrationState struct {
	Migration
	AppliedAt *time.Time
}

// MigrationExecutor applies migrations read from a filesystem
type MigrationExecutor struct {
	db   *sql.DB
	fsys fs.FS
}

// NewMigrationExecutor creates a migration executor over fsys
// (typically migrations.FS or os.DirFS for a directory on disk).
func NewMigrationExecutor(db *sql.DB, fsys fs.FS) *MigrationExecutor {
	return &MigrationExecutor{db: db, fsys: fsys}
}

// Up applies every pending migration in version order
func (m *MigrationExecutor) Up(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := m.readMigrations()
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	if err := validateChecksums(migrations, applied); err != nil {
		return fmt.Errorf("migration validation failed: %w", err)
	}

	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; ok {
			continue
		}
		if err := m.apply(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
		slog.Info("Applied migration", "version", migration.Version, "title", migration.Title)
	}

	return nil
}

// Down reverts the most recently applied migration
func (m *MigrationExecutor) Down(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := m.readMigrations()
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if _, ok := applied[migration.Version]; !ok {
			continue
		}
		if migration.DownSQL == "" {
			return fmt.Errorf("migration %s has no down script", migration.Version)
		}
		if err := m.revert(ctx, migration); err != nil {
			return fmt.Errorf("failed to revert migration %s: %w", migration.Version, err)
		}
		slog.Info("Reverted migration", "version", migration.Version, "title", migration.Title)
		return nil
	}

	return errors.New("no applied migrations to revert")
}

// Status lists every known migration and when it was applied
func (m *MigrationExecutor) Status(ctx context.Context) ([]MigrationState, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations, err := m.readMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %w", err)
	}
	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	states := make([]MigrationState, 0, len(migrations))
	for _, migration := range migrations {
		state := MigrationState{Migration: migration}
		if rec, ok := applied[migration.Version]; ok {
			at := rec.appliedAt
			state.AppliedAt = &at
		}
		states = append(states, state)
	}
	return states, nil
}

func (m *MigrationExecutor) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			title VARCHAR(500),
			checksum VARCHAR(64),
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// readMigrations parses NNN_title.up.sql / NNN_title.down.sql pairs
func (m *MigrationExecutor) readMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, ".")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*Migration)
	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() {
			continue
		}

		var base string
		isUp := strings.HasSuffix(filename, ".up.sql")
		switch {
		case isUp:
			base = strings.TrimSuffix(filename, ".up.sql")
		case strings.HasSuffix(filename, ".down.sql"):
			base = strings.TrimSuffix(filename, ".down.sql")
		default:
			continue
		}

		version, title, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}

		content, err := fs.ReadFile(m.fsys, filename)
		if err != nil {
			return nil, err
		}

		migration := byVersion[version]
		if migration == nil {
			migration = &Migration{
				Version: version,
				Title:   strings.ReplaceAll(title, "_", " "),
			}
			byVersion[version] = migration
		}

		if isUp {
			migration.UpSQL = string(content)
			migration.Checksum = calculateChecksum(migration.UpSQL)
		} else {
			migration.DownSQL = string(content)
		}
	}

	var migrations []Migration
	for _, migration := range byVersion {
		if migration.UpSQL != "" {
			migrations = append(migrations, *migration)
		}
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

type appliedRecord struct {
	title     string
	checksum  string
	appliedAt time.Time
}

func (m *MigrationExecutor) appliedMigrations(ctx context.Context) (map[string]appliedRecord, error) {
	query := `SELECT version, COALESCE(title, ''), COALESCE(checksum, ''), applied_at FROM schema_migrations`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	applied := make(map[string]appliedRecord)
	for rows.Next() {
		var version string
		var rec appliedRecord
		if err := rows.Scan(&version, &rec.title, &rec.checksum, &rec.appliedAt); err != nil {
			return nil, err
		}
		applied[version] = rec
	}
	return applied, rows.Err()
}

func (m *MigrationExecutor) apply(ctx context.Context, migration Migration) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
			return fmt.Errorf("migration SQL failed: %w", err)
		}
		query := `INSERT INTO schema_migrations (version, title, checksum) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, query, migration.Version, migration.Title, migration.Checksum); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

func (m *MigrationExecutor) revert(ctx context.Context, migration Migration) error {
	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("down migration SQL failed: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, migration.Version); err != nil {
			return fmt.Errorf("failed to unrecord migration: %w", err)
		}
		return nil
	})
}

func (m *MigrationExecutor) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Rollback only if not committed
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// validateChecksums verifies that applied migrations haven't been modified
func validateChecksums(migrations []Migration, applied map[string]appliedRecord) error {
	var mismatches []string
	for _, migration := range migrations {
		rec, ok := applied[migration.Version]
		if !ok || rec.checksum == "" {
			continue
		}
		if rec.checksum != migration.Checksum {
			mismatches = append(mismatches, fmt.Sprintf(
				"\n  Migration %s (%s):\n    Expected checksum: %s\n    Current checksum:  %s",
				migration.Version, migration.Title, rec.checksum, migration.Checksum,
			))
		}
	}

	if len(mismatches) > 0 {
		return fmt.Errorf(
			"applied migrations have been modified:%s\n"+
				"restore the original migration files or add a new migration instead",
			strings.Join(mismatches, ""),
		)
	}
	return nil
}

// calculateChecksum generates a SHA256 checksum for migration content
func calculateChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

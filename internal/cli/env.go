// Package cli implements the irisctl administration commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"iris/internal/config"
	"iris/internal/database"
	"iris/internal/filestore"
	"iris/internal/repository"
	"iris/internal/service"
)

// Env is what a command runs against
type Env struct {
	Config *config.Config
	DB     *sql.DB // nil when the store is not Postgres-backed
	Store  repository.Store
	Files  service.FileStore // nil when storage is disabled
	close  func() error
}

// Close releases the environment's connections
func (e *Env) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}

// Opener builds an Env for one command invocation
type Opener func(ctx context.Context) (*Env, error)

// OpenFromConfig connects to the database (and the file store when enabled)
// described by the environment variables.
func OpenFromConfig(ctx context.Context) (*Env, error) {
	cfg := config.Read()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	env := &Env{
		Config: cfg,
		DB:     db.DB,
		Store:  repository.NewDBStore(db.DB),
		close:  db.Close,
	}

	if cfg.Storage.Enabled {
		files, err := filestore.NewMinioStore(ctx, filestore.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			slog.Warn("File storage unavailable", "error", err)
		} else {
			env.Files = files
		}
	}

	return env, nil
}

// withEnv opens an environment, runs fn and closes it again
func withEnv(ctx context.Context, open Opener, fn func(env *Env) error) error {
	env, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			slog.Error("Failed to close environment", "error", err)
		}
	}()
	return fn(env)
}

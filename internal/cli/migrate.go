package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"iris/internal/database"
	"iris/migrations"
)

// MigrateCmd returns the migrate command
func MigrateCmd(open Opener) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, revert or inspect schema migrations",
		Long: `Run the numbered SQL migrations. By default the migrations embedded in
the binary are used; --dir points at a directory on disk instead.`,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "read migrations from this directory")

	executor := func(env *Env) (*database.MigrationExecutor, error) {
		if env.DB == nil {
			return nil, errors.New("migrations need a database connection")
		}
		var fsys fs.FS = migrations.FS
		if dir != "" {
			fsys = os.DirFS(dir)
		}
		return database.NewMigrationExecutor(env.DB, fsys), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				m, err := executor(env)
				if err != nil {
					return err
				}
				if err := m.Up(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				m, err := executor(env)
				if err != nil {
					return err
				}
				if err := m.Down(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Reverted one migration")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and when they were applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				m, err := executor(env)
				if err != nil {
					return err
				}
				states, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tTITLE\tAPPLIED")
				for _, s := range states {
					applied := "pending"
					if s.AppliedAt != nil {
						applied = s.AppliedAt.Format(time.DateTime)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.Version, s.Title, applied)
				}
				return w.Flush()
			})
		},
	})

	return cmd
}

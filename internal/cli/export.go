package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"iris/internal/service"
)

// ExportCmd returns the export command
func ExportCmd(open Opener) *cobra.Command {
	var (
		kind    string
		from    string
		to      string
		outDir  string
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a CSV report to disk or the file store",
		Example: `  irisctl export --type ideas --from 2025-01-01 --to 2025-03-31
  irisctl export --type grassroot --from 2025-01-01 --to 2025-12-31 --archive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), open, func(env *Env) error {
				reports := service.NewReportService(env.Store, env.Files)

				if archive {
					ref, err := reports.Archive(cmd.Context(), kind, from, to)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "✓ Archived %s\n", ref)
					return nil
				}

				report, err := reports.Export(cmd.Context(), kind, from, to)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, report.FileName)
				if err := os.WriteFile(path, report.Content, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%d rows)\n", path, report.Rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "report type: challenges, ideas or grassroot")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write the CSV to")
	cmd.Flags().BoolVar(&archive, "archive", false, "upload to the file store instead of writing to disk")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

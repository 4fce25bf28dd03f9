package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"iris/internal/seed"
)

// SeedCmd returns the seed command
func SeedCmd(open Opener) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load roles, categories, review parameters and users from YAML",
		Long: `Apply a seed file in one transaction. Existing rows are kept, so running
the same file twice is harmless.`,
		Example: "  irisctl seed --file seeds/dev.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), open, func(env *Env) error {
				res, err := seed.Apply(cmd.Context(), env.Store, f)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "✓ Seeded %s\n", file)
				fmt.Fprintf(out, "  roles:             %d\n", res.Roles)
				fmt.Fprintf(out, "  categories:        %d (%d subcategories)\n", res.Categories, res.Subcategories)
				fmt.Fprintf(out, "  review parameters: %d\n", res.ReviewParameters)
				fmt.Fprintf(out, "  users:             %d created, %d existing\n", res.UsersCreated, res.UsersExisting)
				fmt.Fprintf(out, "  employee links:    %d\n", res.EmployeeLinks)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seeds/dev.yaml", "seed file")

	return cmd
}

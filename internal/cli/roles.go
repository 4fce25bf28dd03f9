package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"iris/internal/repository"
	"iris/pkg/validator"
)

// GrantRoleCmd returns the grant-role command
func GrantRoleCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "grant-role <email> <role>",
		Short:   "Assign a role to a user",
		Example: `  irisctl grant-role alice@example.com "Challenge Owner"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := validator.SanitizeEmail(args[0])
			if err := validator.ValidateEmail(email); err != nil {
				return err
			}
			role := strings.TrimSpace(args[1])
			if err := validator.ValidateRequired("role", role); err != nil {
				return err
			}
			return withEnv(cmd.Context(), open, func(env *Env) error {
				return env.Store.InTx(cmd.Context(), func(repos repository.Repositories) error {
					user, err := repos.Users.GetByEmail(cmd.Context(), email)
					if err != nil {
						return fmt.Errorf("user %s: %w", email, err)
					}
					if err := repos.Roles.AssignRole(cmd.Context(), user.ID, role); err != nil {
						return fmt.Errorf("role %q: %w", role, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "✓ Granted %q to %s\n", role, email)
					return nil
				})
			})
		},
	}
	return cmd
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"iris/internal/identity"
	"iris/internal/service"
)

// CloseExpiredCmd returns the close-expired command
func CloseExpiredCmd(open Opener) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "close-expired",
		Short: "Complete Live challenges whose end date has passed",
		Long: `Run the scheduler's expiry job once. --at evaluates expiry against
another instant (RFC 3339) instead of now.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = t
			}
			return withEnv(cmd.Context(), open, func(env *Env) error {
				resolver := identity.NewResolver(nil, nil, env.Store.Repos())
				challenges := service.NewChallengeService(env.Store, resolver, nil)
				n, err := challenges.CloseExpired(cmd.Context(), now)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Closed %d expired challenge(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "reference time (RFC 3339)")

	return cmd
}

package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd returns the irisctl command tree running against open
func NewRootCmd(open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "irisctl",
		Short: "IRIS administration tool",
		Long: `irisctl manages an IRIS deployment: schema migrations, seed data,
report exports, challenge housekeeping and role grants.

Connection settings are read from the same environment variables (and .env
file) as the API server.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(MigrateCmd(open))
	rootCmd.AddCommand(SeedCmd(open))
	rootCmd.AddCommand(ExportCmd(open))
	rootCmd.AddCommand(CloseExpiredCmd(open))
	rootCmd.AddCommand(GrantRoleCmd(open))
	rootCmd.AddCommand(GenJWTKeyCmd())

	return rootCmd
}

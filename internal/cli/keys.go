package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"iris/internal/auth"
)

// GenJWTKeyCmd returns the gen-jwt-key command. It needs no database.
func GenJWTKeyCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "gen-jwt-key",
		Short: "Generate an ECDSA P-256 key for signing access tokens",
		Long: `Generates a PEM-encoded ECDSA P-256 private key and prints it as a
JWT_SECRET line for a .env file. Without JWT_SECRET the API signs with an
ephemeral key and every token dies with the process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateSigningKey()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				if err := os.WriteFile(out, key, 0o600); err != nil {
					return fmt.Errorf("failed to write key file: %w", err)
				}
				fmt.Fprintf(w, "✓ Private key saved to: %s\n", out)
				return nil
			}

			// godotenv expands \n inside double quotes
			line := strings.ReplaceAll(strings.TrimSpace(string(key)), "\n", `\n`)
			fmt.Fprintf(w, "JWT_SECRET=\"%s\"\n", line)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the PEM key to this file instead of stdout")
	return cmd
}

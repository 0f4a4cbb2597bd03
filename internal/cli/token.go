package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/labelcase/internal/auth"
	"github.com/pkordes/labelcase/internal/config"
)

// newTokenCommand issues a session token for an operator, signed with the
// configured secret. It is how admin sessions are handed out.
func newTokenCommand() *cobra.Command {
	var (
		caps []string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			issuer, err := auth.NewIssuer(cfg.AuthSecret, cfg.TokenTTL)
			if err != nil {
				return err
			}
			tok, err := issuer.IssueSession(args[0], caps, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&caps, "cap", []string{auth.CapManageCatalog, auth.CapManageLabels}, "capabilities granted by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "session lifetime")
	return cmd
}

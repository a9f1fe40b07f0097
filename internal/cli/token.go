package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nomorewaste/pkg/jwt"
)

type TokenOptions struct {
	*RootOptions
	UserID string
	Email  string
	TTL    time.Duration
}

// NewTokenCommand mints a member token signed with JWT_SECRET. Sign-in itself belongs to
// the identity provider; this exists for local development.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a member bearer token for development",
		Long: `Mint a member bearer token signed with JWT_SECRET.

Example:
  nomorewaste token --user-id 9f1c... --email ana@example.com --ttl 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := jwt.NewJWTService().GenerateToken(opts.UserID, opts.Email, opts.TTL)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"token": token})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user-id", "", "member id (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "member e-mail (required)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", jwt.DefaultTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

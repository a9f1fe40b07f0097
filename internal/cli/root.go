package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"

	"nomorewaste/internal/utils"
	"nomorewaste/pkg/apiclient"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	APIURL  string
	WSURL   string
	Token   string
}

var ValidFormats = []string{"text", "json"}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nomorewaste",
		Short: "Shared household fridge tracker",
		Long: `nomorewaste tracks what a household has in its fridge, what got eaten and
what got thrown away.

serve and migrate run the server side. scan, watch and recipe act as a member
against a running server, authenticated with a bearer token.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				log.SetLevel(log.LevelDebug)
			}
			utils.LoadConfig()
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", envOr("NOMOREWASTE_API_URL", "http://localhost:8080"), "REST API base URL")
	cmd.PersistentFlags().StringVar(&opts.WSURL, "ws-url", envOr("NOMOREWASTE_WS_URL", "ws://localhost:8081/ws"), "change feed URL")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("NOMOREWASTE_TOKEN"), "member bearer token")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewRecipeCommand(opts))

	return cmd
}

// client builds an API client for member commands.
func (o *RootOptions) client() (*apiclient.Client, error) {
	if o.Token == "" {
		return nil, fmt.Errorf("a member token is required: pass --token or set NOMOREWASTE_TOKEN")
	}
	return apiclient.New(o.APIURL, o.Token, nil), nil
}

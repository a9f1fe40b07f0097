package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"nomorewaste/domain"
)

type RecipeOptions struct {
	*RootOptions
	Mode   string
	Prompt string
}

func NewRecipeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecipeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Ask the AI chef for a recipe from what is in the fridge",
		Long: `Ask the AI chef for a recipe from what is in the fridge. Each member gets two
recipes per day.

Example:
  nomorewaste recipe --mode expiring
  nomorewaste recipe --mode prompt --prompt "something warm"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			res, err := client.GenerateRecipe(ctx, opts.Mode, opts.Prompt)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Content)
			fmt.Fprintf(cmd.OutOrStdout(), "\n(%d left today)\n", res.Remaining)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", domain.RecipeModeExpiring, "expiring|surprise|prompt")
	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "what to cook, for --mode prompt")

	return cmd
}

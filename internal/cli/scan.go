package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"nomorewaste/pkg/fridge"
	"nomorewaste/pkg/receipt"
)

type ScanOptions struct {
	*RootOptions
	Commit bool
}

func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Read a receipt photo into draft items",
		Long: `Read a receipt photo into draft items and optionally add them to the fridge.

The photo is downscaled locally before it is uploaded.

Example:
  nomorewaste scan ./receipt.jpg
  nomorewaste scan ./receipt.jpg --commit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Commit, "commit", false, "add the drafts to the fridge")

	return cmd
}

func runScan(cmd *cobra.Command, opts *ScanOptions, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := opts.client()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		failures []error
	)
	notify := fridge.NotifierFunc(func(n fridge.Notice) {
		mu.Lock()
		failures = append(failures, n.Err)
		mu.Unlock()
		fmt.Fprintln(cmd.ErrOrStderr(), n.Message())
	})

	var session *fridge.Session
	if opts.Commit {
		if session, err = openSession(ctx, client, fridge.WithNotifier(notify)); err != nil {
			return err
		}
	}

	p := receipt.NewPipeline(client.Extractor(), session,
		receipt.WithFailureHandler(func(msg string, err error) {
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
		}),
	)
	drafts, err := p.Submit(ctx, raw)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), drafts); err != nil {
			return err
		}
	} else {
		writeDrafts(cmd.OutOrStdout(), drafts)
	}
	if !opts.Commit || len(drafts) == 0 {
		return nil
	}

	if err := p.Commit(ctx); err != nil {
		return err
	}
	session.Wait()
	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	if opts.Format == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "added %d items\n", len(drafts))
	}
	return nil
}

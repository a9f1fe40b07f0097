package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nomorewaste/pkg/apiclient"
	"nomorewaste/pkg/fridge"
)

func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the household fridge as it changes",
		Long: `Follow the household fridge as it changes, printing one line per update.

The session reconnects with backoff when the feed drops and re-reads the whole
fridge after every reconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, rootOpts)
		},
	}
}

func runWatch(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := opts.client()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	onChange := func(s fridge.Snapshot) {
		if opts.Format == "json" {
			_ = writeJSON(out, s)
			return
		}
		fmt.Fprintln(out, snapshotLine(s))
	}
	session, err := openSession(ctx, client,
		fridge.WithOnChange(onChange),
		fridge.WithNotifier(fridge.NotifierFunc(func(n fridge.Notice) {
			fmt.Fprintln(cmd.ErrOrStderr(), n.Message())
		})),
	)
	if err != nil {
		return err
	}
	onChange(session.Snapshot())

	err = session.Run(ctx, apiclient.NewFeed(opts.WSURL, opts.Token, nil))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

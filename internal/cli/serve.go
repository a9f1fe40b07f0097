package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"

	"nomorewaste/cmd/config"
	migration "nomorewaste/cmd/database/migrate"
	"nomorewaste/internal/utils"
)

type ServeOptions struct {
	*RootOptions
	Migrate         bool
	ShutdownTimeout time.Duration
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the change feed",
		Long: `Run the REST API on HTTP_ADDR and the websocket change feed on REALTIME_ADDR.

Example:
  nomorewaste serve --migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "migrate the database before serving")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := config.ConnectDB()
	if err != nil {
		return err
	}
	if opts.Migrate {
		if err := migration.Migrate(db); err != nil {
			return err
		}
	}

	srv, err := config.NewApp(db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := &http.Server{
		Addr:              utils.GetConfig("REALTIME_ADDR"),
		Handler:           srv.Gateway,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		errs <- srv.App.Listen(utils.GetConfig("HTTP_ADDR"))
	}()
	go func() {
		log.Infof("change feed listening on %s", feed.Addr)
		if err := feed.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errs:
		log.Errorf("server stopped: %v", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := feed.Shutdown(shutdownCtx); err != nil {
		log.Warnf("change feed shutdown: %v", err)
	}
	if err := srv.App.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warnf("api shutdown: %v", err)
	}
	return runErr
}

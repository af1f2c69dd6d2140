package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"smarttodo/internal/handlers"
	"smarttodo/internal/tasks"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port int
	var syncEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API over HTTP",
		Long: `Serve the JSON API on the configured port until interrupted.

With --sync-every and a remote store configured, the server also reconciles
with the remote store on that interval.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Port
			}

			h := handlers.New(a.manager, handlers.Settings{
				UpcomingDays:  a.cfg.UpcomingDays,
				AnalyticsDays: a.cfg.AnalyticsDays,
				PreferLocal:   a.cfg.PreferLocal,
			})
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           h.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, srv, a.logger, func(ctx context.Context) {
				if syncEvery <= 0 || !a.manager.RemoteActive() {
					return
				}
				periodicSync(ctx, a.manager, syncEvery, a.cfg.PreferLocal, a.cfg.Remote.Timeout, a.logger)
			})
		}),
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port (default from config)")
	cmd.Flags().DurationVar(&syncEvery, "sync-every", 0, "sync with the remote store on this interval (0 disables)")
	return cmd
}

// serve runs srv and the background worker until ctx is done or the server
// fails, then shuts the server down.
func serve(ctx context.Context, srv *http.Server, logger *log.Logger, background func(context.Context)) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Printf("Starting server on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		background(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		logger.Printf("Server stopped")
		return nil
	})

	return g.Wait()
}

// periodicSync reconciles with the remote store every interval until ctx is
// done. Failures are logged and retried on the next tick.
func periodicSync(ctx context.Context, m *tasks.Manager, interval time.Duration, preferLocal bool, timeout time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncCtx, cancel := context.WithTimeout(ctx, timeout)
			summary := m.Sync(syncCtx, preferLocal)
			cancel()
			if summary.Err != nil {
				logger.Printf("periodic sync failed: %v", summary.Err)
			}
		}
	}
}

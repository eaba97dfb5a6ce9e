package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/taxa/internal/server"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the taxa REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.Backend == types.BackendHTTP {
				return errors.New("serve needs a local backend; set backend: sqlite")
			}
			if listen == "" {
				listen = a.config.ListenAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, "+defaultListenAddr+")")
	return cmd
}

// serve runs the API on addr until ctx is canceled.
func (a *app) serve(ctx context.Context, addr string) error {
	store, closeStore, err := openStore(ctx, a.config, a.logger)
	if err != nil {
		return err
	}
	defer closeStore()

	e := server.New(store, a.logger)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.WithField("addr", addr).Info("serving taxa API")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return systemErr("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkm/sat-gbdx/internal/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog search API over HTTP",
		Long: `Serve exposes the search pipeline as a JSON API: /health, /collections,
/collections/{id} and /search. Listen address and timeouts come from the
SERVER_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			handlers := api.NewHandlers(a.registry, a.translator, a.client, a.logger)
			router := api.NewRouter(handlers, a.logger)

			server := &http.Server{
				Addr:         a.cfg.Server.Address(),
				Handler:      router,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
				IdleTimeout:  120 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				a.logger.Info("server listening", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case err := <-serverErr:
				return err
			case <-cmd.Context().Done():
				a.logger.Info("shutting down server", "timeout", a.cfg.Server.ShutdownTimeout)
			}

			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return err
			}

			a.logger.Info("server stopped")
			return nil
		},
	}

	return cmd
}

package main

import (
	"context"
	"errors"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpapi "go-bil-inventory-report/internal/http"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if listen != "" {
				cfg.ListenAddr = listen
			}
			srv, err := httpapi.NewServer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				slog.Info("starting server", "version", version, "addr", cfg.ListenAddr, "inventory", cfg.InventoryURL, "views", cfg.ViewsDriver)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, nethttp.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides APP_LISTEN_ADDR)")
	return cmd
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/brain-product-parser/internal/api"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored products and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: guarded(a, func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := connectDB(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			handler := api.NewRouter(api.NewHandlers(db, a.logger), api.RouterOptions{
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Registry:       a.metrics.Registry,
			})

			server := &http.Server{
				Addr:         a.cfg.Server.Addr(),
				Handler:      handler,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}

			go func() {
				<-ctx.Done()
				a.logger.Info("shutting down server...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					a.logger.Error("server shutdown failed", "error", err)
				}
			}()

			a.logger.Info("server starting", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			a.logger.Info("server stopped")
			return nil
		}),
	}
}

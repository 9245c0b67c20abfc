package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pricebook-recon/internal/config"
	serverhttp "pricebook-recon/server/http"
)

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (POST /diff, GET /health)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			logger := config.SetupLogger(cfg.Log, os.Stdout)

			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           serverhttp.NewRouter(cfg, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			// graceful shutdown
			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}
			logger.Info().Msg("server shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			logger.Info().Msg("bye")
			return nil
		},
	}
}

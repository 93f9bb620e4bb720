package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mezzanine/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *overrides) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the guessing game over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer rt.Close()
			if port == "" {
				port = rt.cfg.Server.Port
			}

			gin.SetMode(rt.cfg.Server.GinMode)
			hub := api.NewSSEHub(rt.logger)
			defer hub.Close()
			rt.games.SetBroadcaster(hub)

			server := &http.Server{
				Addr:              ":" + port,
				Handler:           api.NewRouter(rt.games, hub, rt.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				rt.logger.Info("api server listening", "addr", server.Addr, "game", rt.cfg.Game.Name)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			rt.logger.Info("shutting down api server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default from PORT)")
	return cmd
}

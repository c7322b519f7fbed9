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

	"voice-timelog-go/internal/server"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps.App
			cfg := deps.Config.Server
			if addr != "" {
				cfg.Addr = addr
			}
			log := a.Log

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.Store.Initialize(ctx); err != nil {
				log.WithError(err).Warn("workbook not ready, first upload will retry")
			}

			srv := server.New(cfg, server.Deps{
				Pipeline:      a.Pipeline,
				Transcriber:   a.Transcriber,
				Rows:          a.Store,
				DefaultNotify: deps.Config.Notification.DefaultNotify,
				Log:           log,
			}).HTTPServer()

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", srv.Addr).Info("listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PORT)")
	return cmd
}

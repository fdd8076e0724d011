package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/api"
	"github.com/sells-group/prospect-cli/internal/waterfall"
)

var (
	servePort       int
	serveWatch      bool
	serveSalesforce bool
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for searches and drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve", envOptions{
			Search:     true,
			Drafts:     true,
			Salesforce: serveSalesforce,
		})
		if err != nil {
			return err
		}
		defer env.Close()

		if serveWatch || cfg.Waterfall.Watch {
			if err := waterfall.Watch(ctx, cfg.Waterfall.ConfigPath, env.Waterfall); err != nil {
				zap.L().Warn("serve: waterfall config watch disabled", zap.Error(err))
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", port),
			Handler: api.NewRouter(env.Pipeline, api.Options{
				CORSOrigins: cfg.Server.CORSOrigins,
				Breakers:    env.Guard.States,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the waterfall config when it changes")
	serveCmd.Flags().BoolVar(&serveSalesforce, "salesforce", false, "exclude contacts found in Salesforce from every search")
	rootCmd.AddCommand(serveCmd)
}

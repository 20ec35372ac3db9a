package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"document_editing_agent/metrics"
	"document_editing_agent/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			collector := metrics.New(nil)
			svc, err := buildService(ctx, a.cfg, a.logger, collector)
			if err != nil {
				return err
			}
			srv, err := server.New(svc, server.Options{
				Addr:           a.cfg.Server.Addr,
				Model:          a.cfg.LLM.Model,
				CORSOrigins:    a.cfg.Server.CORSOrigins,
				RequestTimeout: a.cfg.Server.RequestTimeout,
				MaxBodyBytes:   a.cfg.Server.MaxBodyBytes,
				Metrics:        collector.Handler(),
			}, a.logger)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				a.logger.Info("shutting down web server")
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Stop(sctx)
			})
			if err := g.Wait(); err != nil {
				a.logger.Error("web server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	return cmd
}

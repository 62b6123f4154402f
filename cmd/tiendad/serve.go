package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/bjo163/tienda/internal/app"
	"github.com/bjo163/tienda/internal/webserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background jobs",
	Long: `Start the public HTTP API and the cron jobs.

The process runs until SIGINT or SIGTERM, then drains in-flight requests.

Examples:
  tiendad serve -c /etc/tienda.yml
  MERCADOPAGO_ACCESS_TOKEN=TEST-... tiendad serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()
	application.Start()

	srv := webserver.NewWebServer(cfg)
	application.MountRoutes(srv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		zap.S().Info("shutting down web server")
		return srv.Shutdown(shutdownTimeout)
	})
	return g.Wait()
}

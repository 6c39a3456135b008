package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *options) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront views and JSON API over HTTP",
		Long: `Starts the local HTTP surface. The persisted session is restored in the
background; protected views answer 503 until it resolves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				opts.cfg.HTTPPort = port
			}
			return serve(opts)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (overrides STOREFRONT_HTTP_PORT)")
	return cmd
}

func serve(opts *options) error {
	cfg, logger := opts.cfg, opts.logger

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	restored := make(chan struct{})
	go func() {
		defer close(restored)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()
		a.Start(ctx)
	}()

	server := web.NewServer(web.Config{
		Session:  a.Session,
		Cart:     a.Cart,
		Checkout: a.Checkout,
		Metrics:  a.Metrics,
		Gatherer: a.Registry,
		Logger:   logger,
		Timeout:  cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("storefront starting", zap.String("addr", srv.Addr), zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			<-restored
			_ = a.Close()
			return err
		}
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	<-restored
	if err := a.Close(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

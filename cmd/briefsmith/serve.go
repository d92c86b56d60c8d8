package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/briefsmith/apiutil"
	"github.com/pevans/briefsmith/brief"
	"github.com/pevans/briefsmith/browser"
	"github.com/pevans/briefsmith/config"
	"github.com/pevans/briefsmith/curation"
	"github.com/pevans/briefsmith/pipeline"
	"github.com/pevans/briefsmith/stock"
	"github.com/pevans/briefsmith/summarize"
	"github.com/pevans/briefsmith/wordpress"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return current.serve()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func (a *app) serve() error {
	addr := a.cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	manager, err := a.manager()
	if err != nil {
		return err
	}
	defer manager.Close()

	store, err := a.briefStore()
	if err != nil {
		return err
	}
	defer store.Close()

	wp, err := a.wordpress()
	if err != nil {
		return err
	}
	getty, err := a.stock()
	if err != nil {
		return err
	}

	// A nil *wordpress.Client must stay an untyped nil behind the interface.
	var library stock.MediaLibrary
	if wp != nil {
		library = wp
	}

	router := apiutil.NewRouter(a.logger,
		config.NewConfigAPIServer(a.cfg, a.logger),
		pipeline.NewPipelineAPIServer(a.generator(manager), a.logger),
		summarize.NewSummarizeAPIServer(a.claude, a.cfg.Anthropic.APIKey, a.gemini(), a.logger),
		curation.NewCurationAPIServer(a.curationModel(), a.logger),
		browser.NewSessionAPIServer(manager, a.registry(), a.logger),
		brief.NewBriefAPIServer(store, a.logger),
		wordpress.NewWordPressAPIServer(wp, a.logger),
		stock.NewStockAPIServer(getty, nil, library, a.logger),
	)

	a.logIntegrations()

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", addr), zap.String("base", apiutil.BasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-quit:
	}

	a.logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	a.logger.Info("server exited")
	return nil
}

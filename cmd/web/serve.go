package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/academic-web/internal/config"
	"finitefield.org/academic-web/internal/fetch"
	"finitefield.org/academic-web/internal/observability"
	"finitefield.org/academic-web/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := observability.NewLogger(logLevel)
		if err != nil {
			return fmt.Errorf("initialise logger: %w", err)
		}
		defer func() {
			_ = logger.Sync()
		}()
		return serve(cmd.Context(), cfg, logger.Named("web"))
	},
}

// newFetcher builds the cached content source: a remote base URL when one is
// configured, the local content directory otherwise.
func newFetcher(cfg config.Config, opts ...fetch.CacheOption) *fetch.Cache {
	var source fetch.Fetcher
	if cfg.Content.BaseURL != "" {
		source = fetch.NewHTTP(cfg.Content.BaseURL, cfg.Content.FetchTimeout)
	} else {
		source = fetch.NewDir(cfg.Content.Dir)
	}
	return fetch.NewCache(source, cfg.Content.CacheTTL, opts...)
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := newFetcher(cfg, fetch.WithLogger(logger))
	if cfg.Dev && cfg.Content.BaseURL == "" {
		w, err := watch.New(watch.Options{
			Root:   cfg.Content.Dir,
			Logger: logger.Named("watch"),
			OnChange: func() {
				cache.Invalidate()
				logger.Info("content changed, cache cleared")
			},
		})
		if err != nil {
			logger.Warn("content watcher disabled", zap.Error(err))
		} else {
			go func() {
				if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("content watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	s := &server{cfg: cfg, fetcher: cache, logger: logger}
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", srv.Addr),
			zap.Bool("dev", cfg.Dev),
			zap.String("env", cfg.Env),
			zap.Strings("languages", cfg.Site.Languages),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Benjamin-Hogan/Launch-Calculator/internal/api"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/auth"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/config"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/engine"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/metrics"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/orbit"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/tle"
	"github.com/Benjamin-Hogan/Launch-Calculator/internal/visibility"
	"github.com/Benjamin-Hogan/Launch-Calculator/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("tle-file", "", "TLE file to load and watch")
	serveCmd.Flags().Bool("tle-fetch", false, "fetch TLE data from tle.source_url on startup")
	_ = viper.BindPFlag("http_addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("tle.file", serveCmd.Flags().Lookup("tle-file"))
	_ = viper.BindPFlag("tle.fetch", serveCmd.Flags().Lookup("tle-fetch"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}

	solver := engine.NewSolver(orbit.Catalogue(),
		engine.WithDefaults(map[string]any{orbit.Mu: cfg.Mu}),
		engine.WithLogger(logger),
	)

	loader := newTLELoader(cfg.TLE, logger)
	finder := visibility.NewFinder(cfg.Visibility.Workers, logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := loader.Load(ctx); err != nil {
		logger.Warn("starting without TLE data", "component", "tle", "error", err)
	}

	if cfg.TLE.Watch && cfg.TLE.File != "" {
		w, err := tle.NewWatcher(loader, logger)
		if err != nil {
			logger.Warn("TLE file watch disabled", "component", "tle", "file", cfg.TLE.File, "error", err)
		} else {
			go w.Run(ctx)
		}
	}

	// Background goroutine to update TLE dataset age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := loader.Store().AgeSeconds(); age >= 0 {
					metrics.SetTLEDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	srv := api.NewServer(api.Options{
		Addr:         cfg.HTTPAddr,
		Logger:       logger,
		Auth:         auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token},
		TrustProxy:   cfg.TrustProxy,
		Solver:       solver,
		TLE:          loader,
		Finder:       finder,
		MinElevation: cfg.Visibility.MinElevation,
		Static:       web.Content,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"auth_enabled", cfg.Auth.Enabled,
			"tle_fetch_enabled", cfg.TLE.Fetch,
			"rules", len(solver.Rules()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// newTLELoader wires the configured TLE sources into a loader.
func newTLELoader(cfg config.TLEConfig, logger *slog.Logger) *tle.Loader {
	var opts []tle.LoaderOption
	if cfg.Fetch {
		src := cfg.SourceURL
		if src == "" {
			src = tle.DefaultSourceURL
		}
		opts = append(opts, tle.WithFetcher(tle.NewFetcher(src, cfg.MaxBytes, logger, cfg.ExtraURLs...)))
	}
	if cfg.CacheDir != "" {
		opts = append(opts, tle.WithCache(tle.NewCache(cfg.CacheDir, cfg.CacheFiles)))
	}

	logger.Info("TLE config",
		"component", "tle",
		"file", cfg.File,
		"fetch", cfg.Fetch,
		"source_url", cfg.SourceURL,
		"extra_urls", cfg.ExtraURLs,
		"cache_dir", cfg.CacheDir,
	)
	return tle.NewLoader(tle.NewStore(), cfg.File, logger, opts...)
}

package app

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

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/medibook/share-engine/internal/api"
	"github.com/medibook/share-engine/internal/auth"
	"github.com/medibook/share-engine/internal/catalog"
	"github.com/medibook/share-engine/internal/config"
	"github.com/medibook/share-engine/internal/localstore"
	"github.com/medibook/share-engine/internal/notify"
	"github.com/medibook/share-engine/internal/remote/httpstore"
	"github.com/medibook/share-engine/internal/status"
	"github.com/medibook/share-engine/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the share engine daemon",
	Long: `Start the share engine daemon.

The daemon requires a configuration file (--config) that specifies:
- Remote record store endpoint, zone, and identity token
- Participant resolution policy
- Optional template catalog source and refresh interval
- Optional local database connection

It serves the operational HTTP API and, when a catalog is configured,
keeps the local template cache in sync with upstream changes.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second // longer than serverRequestTimeout so the timeout middleware answers first
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Infof("Loaded configuration from %s (remote: %s, zone: %s)",
		configPath, cfg.Remote.Endpoint, cfg.Remote.Zone)

	// Remote store client with file-backed identity
	identity := auth.NewFileProvider(cfg.Remote.TokenFile)
	store := httpstore.New(cfg.Remote.Endpoint, cfg.GetRemoteTimeout(), identity)

	// Publish status recorder: database-backed when configured, in-memory
	// otherwise
	var recorder status.Recorder
	if cfg.Database != nil {
		db, err := localstore.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		recorder = db
	} else {
		logger.Info("No database configured, publish status is tracked in memory only")
		recorder = status.NewMemoryRecorder()
	}

	// Catalog change watcher (optional)
	notifyCtx, notifyCancel := context.WithCancel(ctx)
	defer notifyCancel()
	if cfg.Catalog != nil {
		source, err := catalog.NewSource(cfg.Catalog)
		if err != nil {
			return fmt.Errorf("failed to create catalog source: %w", err)
		}

		if err := os.MkdirAll(cfg.Catalog.CachePath, 0750); err != nil {
			return fmt.Errorf("failed to create catalog cache directory: %w", err)
		}
		storage := catalog.NewFileStorageManager(cfg.Catalog.CachePath)
		refresher := catalog.NewRefresher(source, storage)
		notifier := notify.New(store, refresher, slog.Default())

		if _, err := notifier.EnsureSubscription(ctx, catalog.RecordType, cfg.Catalog.Name); err != nil {
			logger.Warnf("Failed to register catalog subscription, falling back to polling only: %v", err)
		}

		interval, err := time.ParseDuration(cfg.Catalog.RefreshInterval)
		if err != nil {
			return fmt.Errorf("invalid catalog refresh interval: %w", err)
		}
		go func() {
			if err := notifier.Run(notifyCtx, interval); err != nil {
				logger.Errorf("Catalog change watcher failed: %v", err)
			}
		}()
	}

	// Operational HTTP API
	router := api.NewServer(recorder,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			api.LoggingMiddleware,
		),
	)

	address := cfg.GetServerAddress()
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	notifyCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}

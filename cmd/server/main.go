package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/processor"
	"github.com/nguyentantai21042004/insight-flow/internal/provider"
	"github.com/nguyentantai21042004/insight-flow/internal/registry"
	"github.com/nguyentantai21042004/insight-flow/internal/server"
	"github.com/nguyentantai21042004/insight-flow/internal/tracker"
	"github.com/nguyentantai21042004/insight-flow/internal/watcher"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx := context.Background()

	// Load configuration
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Insight Flow: multi-provider transcript analysis")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "Max Concurrent Batches: %d", cfg.Performance.MaxConcurrent)
	log.Info(ctx, "Configuration loaded from %s", path)
	for name, p := range map[string]config.ProviderConfig{
		"openai": cfg.Providers.OpenAI,
		"claude": cfg.Providers.Claude,
		"gemini": cfg.Providers.Gemini,
	} {
		if p.APIKey == "" {
			log.Warn(ctx, "No API key configured for %s; its calls will fail", name)
		}
	}

	// Verify required directories exist
	if err := ensureDirectories(cfg); err != nil {
		log.Error(ctx, "Failed to create directories: %v", err)
		os.Exit(1)
	}

	// Initialize dependencies
	reg := registry.New()
	defer reg.Clear()

	proc := processor.New(provider.NewSet(cfg.Providers, log), cfg.Processing.ProviderTimeout, log)
	tr := tracker.New(reg, proc, log, tracker.Options{
		FileDelay:     cfg.Processing.FileDelay,
		MaxConcurrent: cfg.Performance.MaxConcurrent,
	})

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           server.NewRouter(server.Deps{Config: cfg, Tracker: tr, Logger: log}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 2)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start the inbox watcher in a goroutine
	if cfg.Inbox.Enabled {
		w, err := watcher.New(cfg.Inbox.Path, watcher.NewInboxHandler(tr, cfg.Inbox.JobConfig(), log), log, watcher.Options{
			Extensions:    cfg.Upload.AllowedExtensions,
			SettleDelay:   cfg.Inbox.SettleDelay,
			MaxConcurrent: cfg.Performance.MaxConcurrent,
		})
		if err != nil {
			log.Error(ctx, "Failed to create watcher: %v", err)
			os.Exit(1)
		}
		defer w.Stop()

		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("inbox watcher: %w", err)
			}
		}()
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Insight Flow is ready!")
	log.Info(ctx, "Listening on %s", srv.Addr)
	if cfg.Inbox.Enabled {
		log.Info(ctx, "Inbox: %s", cfg.Inbox.Path)
	}
	log.Info(ctx, "Delay between files: %s", cfg.Processing.FileDelay)
	log.Info(ctx, "Provider timeout: %s", cfg.Processing.ProviderTimeout)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Fatal error: %v", err)
	}

	// Graceful shutdown
	log.Info(ctx, "Shutting down gracefully...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP shutdown: %v", err)
	}
	if err := tr.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Batch shutdown: %v", err)
	}

	log.Info(shutdownCtx, "Insight Flow stopped")
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	var dirs []string
	if cfg.Inbox.Enabled {
		dirs = append(dirs, cfg.Inbox.Path)
	}
	if cfg.Server.StaticDir != "" {
		dirs = append(dirs, cfg.Server.StaticDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

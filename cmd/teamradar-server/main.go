// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/teamradar-dev/teamradar/internal/blob"
	"github.com/teamradar-dev/teamradar/internal/config"
	"github.com/teamradar-dev/teamradar/internal/logging"
	"github.com/teamradar-dev/teamradar/internal/server"
	"github.com/teamradar-dev/teamradar/internal/server/observability"
	"github.com/teamradar-dev/teamradar/internal/store"
)

func main() {
	configPath := flag.String("config", "/etc/teamradar/server.yaml", "path to server config file")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer logCloser.Close()

	// Context com cancelamento via signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Nenhuma conexão sobrevive a um restart: presença zera no boot.
	if err := st.SetAllOffline(); err != nil {
		logger.Error("resetting presence", "error", err)
		os.Exit(1)
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Error("configuring photo storage", "error", err)
		os.Exit(1)
	}

	registry := server.NewRegistry()
	hub := server.NewHub(registry, st, blobs, logger)
	go hub.Run(ctx)

	stats := server.NewStatsReporter(hub, registry, cfg.StatsInterval, logger)
	stats.Start()
	defer stats.Stop()

	if cfg.Retention.Schedule != "" {
		retention, err := server.NewRetention(cfg.Retention.Schedule, cfg.Retention.MaxAge, st, logger)
		if err != nil {
			logger.Error("configuring retention job", "error", err)
			os.Exit(1)
		}
		retention.Start()
		defer retention.Stop()
	}

	if cfg.WebUI.Enabled {
		startWebUI(ctx, cfg, stats, st, logger)
	}

	srv := server.New(cfg, hub, registry, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newBlobStore seleciona o backend de fotos conforme a configuração.
func newBlobStore(ctx context.Context, cfg *config.ServerConfig) (blob.Store, error) {
	if cfg.Photos.Backend == "s3" {
		return blob.NewS3(ctx, cfg.Photos.S3.Bucket, cfg.Photos.S3.Prefix, cfg.Photos.S3.Region)
	}
	return blob.NewLocal(cfg.Photos.Path)
}

// startWebUI sobe a API administrativa numa goroutine própria.
func startWebUI(ctx context.Context, cfg *config.ServerConfig, stats *server.StatsReporter, st *store.Store, logger *slog.Logger) {
	acl := observability.NewACL(cfg.WebUI.ParsedCIDRs)
	httpSrv := &http.Server{
		Addr:         cfg.WebUI.Listen,
		Handler:      observability.NewRouter(stats, st, acl, logger),
		ReadTimeout:  cfg.WebUI.ReadTimeout,
		WriteTimeout: cfg.WebUI.WriteTimeout,
		IdleTimeout:  cfg.WebUI.IdleTimeout,
	}

	go func() {
		logger.Info("admin api listening", "address", cfg.WebUI.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin api error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		httpSrv.Shutdown(context.Background())
	}()
}

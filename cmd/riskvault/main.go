package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexoratech/riskvault/internal/api"
	"github.com/nexoratech/riskvault/internal/cache"
	"github.com/nexoratech/riskvault/internal/config"
	"github.com/nexoratech/riskvault/internal/engine"
	"github.com/nexoratech/riskvault/internal/metrics"
	"github.com/nexoratech/riskvault/internal/notify"
	"github.com/nexoratech/riskvault/internal/repo"
	"github.com/nexoratech/riskvault/internal/services"
	"github.com/nexoratech/riskvault/internal/utils"
	memcache "github.com/nexoratech/riskvault/pkg/cache"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting riskvault", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// Prefer Valkey when configured; otherwise fall back to the in-process
	// cache so single-node deployments still memoize results.
	var cacheProvider cache.Provider = memcache.NewMemory()
	var valkeyCloser cache.Provider
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable, using in-process cache", slog.Any("error", err))
		} else {
			cacheProvider = provider
			valkeyCloser = provider
		}
	}
	if valkeyCloser != nil {
		defer valkeyCloser.Close()
	}

	normalizerClient := repo.NewNormalizerClient(
		cfg.Clients.Normalizer.BaseURL,
		cfg.Clients.Normalizer.EventsPath,
		cfg.Clients.Normalizer.Timeout,
		cacheProvider,
		cfg.Cache.EventsTTL,
	)

	archiveClient := repo.NewArchiveClient(
		cfg.Clients.Archive.BaseURL,
		cfg.Clients.Archive.ReportsPath,
		cfg.Clients.Archive.Timeout,
	)

	actionEngine, err := engine.NewActionEngine(cfg.Actions.Path, logger)
	if err != nil {
		logger.Error("failed to load action pack", slog.Any("error", err))
		os.Exit(1)
	}

	pipeline := engine.NewPipeline(logger, actionEngine)

	var publisher services.CriticalPublisher
	if cfg.Notify.Enabled && cfg.Notify.URL != "" {
		notifier, err := notify.New(cfg.Notify.URL, cfg.Notify.Subject, logger)
		if err != nil {
			logger.Warn("notifier unavailable, critical summaries will not be published", slog.Any("error", err))
		} else {
			defer notifier.Close()
			publisher = notifier
		}
	}

	analysisService := services.NewAnalysisService(
		logger,
		pipeline,
		cfg.Analysis,
		normalizerClient,
		archiveClient,
		publisher,
		cacheProvider,
		cfg.Cache.ResultsTTL,
	)

	handler := api.NewHandler(logger, analysisService)
	server, err := api.NewServer(cfg.Server, handler.Routes())
	if err != nil {
		logger.Error("failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("riskvault stopped")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cortexa-labs/neurapipe/internal/config"
	"github.com/cortexa-labs/neurapipe/internal/db"
	dbRedis "github.com/cortexa-labs/neurapipe/internal/db/redis"
	"github.com/cortexa-labs/neurapipe/internal/domain"
	logpkg "github.com/cortexa-labs/neurapipe/internal/logger"
	"github.com/cortexa-labs/neurapipe/internal/metrics"
	"github.com/cortexa-labs/neurapipe/internal/repository/embcache"
	chiTransport "github.com/cortexa-labs/neurapipe/internal/transport/chi"
	openaiGw "github.com/cortexa-labs/neurapipe/internal/transport/openai"
	enrichuc "github.com/cortexa-labs/neurapipe/internal/usecase/enrich"
	healthuc "github.com/cortexa-labs/neurapipe/internal/usecase/health"
	hybriduc "github.com/cortexa-labs/neurapipe/internal/usecase/hybrid"
	"github.com/cortexa-labs/neurapipe/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting neurapipe API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("pipelines", len(cfg.Pipelines)),
	)

	// Optional embedding cache store
	ctx := context.Background()
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache store")
	}

	// Register inference metrics explicitly (no init())
	metrics.RegisterInferenceMetrics()

	// One gateway per provider, shared across the pipelines that use it.
	gateways := make(map[string]domain.Gateway, len(cfg.Inference.Providers))
	var healthGateway domain.HealthChecker
	for name, provCfg := range cfg.Inference.Providers {
		base := openaiGw.NewGateway(&openaiGw.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Dimensions: provCfg.Dimensions,
			Provider:   name,
			Logger:     logger,
		})
		if healthGateway == nil {
			healthGateway = base
		}

		var gateway domain.Gateway = base
		if store != nil {
			gateway = embcache.New(base, store, metrics.InferenceCacheTotal, logger)
		}
		gateways[name] = gateway
	}

	// Enrichment pipelines
	enrichSvc := enrichuc.New(logger)
	for name, pipeCfg := range cfg.Pipelines {
		processor, err := enrichuc.NewProcessor(enrichuc.ProcessorConfig{
			Name:     name,
			ModelID:  pipeCfg.Model,
			FieldMap: pipeCfg.FieldMap,
			Policy: domain.ValidationPolicy{
				MaxDepth:   pipeCfg.MaxDepth,
				AllowEmpty: pipeCfg.AllowEmpty,
			},
			BatchSize: pipeCfg.BatchSize,
		}, gateways[pipeCfg.Provider], logger)
		if err != nil {
			logger.Fatal("Failed to create pipeline", zap.String("pipeline", name), zap.Error(err))
		}
		if err := enrichSvc.Register(processor); err != nil {
			logger.Fatal("Failed to register pipeline", zap.String("pipeline", name), zap.Error(err))
		}
		logger.Info("Pipeline registered",
			zap.String("pipeline", name),
			zap.String("model", pipeCfg.Model),
			zap.Int("fields", pipeCfg.FieldMap.Len()),
			zap.Int("batch_size", pipeCfg.BatchSize),
		)
	}

	hybridSvc := hybriduc.New(logger)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(cachePinger, healthGateway)

	server := chiTransport.NewServer(enrichSvc, hybridSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.RequestLogger(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

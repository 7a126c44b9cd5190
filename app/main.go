package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mapcomb/mapcomb/app/api"
	"github.com/mapcomb/mapcomb/app/breaker"
	"github.com/mapcomb/mapcomb/app/cache"
	"github.com/mapcomb/mapcomb/app/cfg"
	"github.com/mapcomb/mapcomb/app/config"
	"github.com/mapcomb/mapcomb/app/database"
	"github.com/mapcomb/mapcomb/app/limiter"
	"github.com/mapcomb/mapcomb/app/search"
	"github.com/mapcomb/mapcomb/app/sources"
	"github.com/mapcomb/mapcomb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Map Comb server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open cache database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	schemaVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Cache database ready", "path", appCfg.DBPath, "schema_version", schemaVersion, "dirty", dirty)

	loader := config.NewLoader(appCfg.SourcesDir)
	configs, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	if len(configs) == 0 {
		slog.Error("No source configurations found", "dir", appCfg.SourcesDir)
		os.Exit(1)
	}
	slog.Info("Loaded source configurations", "count", len(configs))

	httpClient := &http.Client{Timeout: 30 * time.Second}

	var searchSources []*search.Source
	cleaners := make(map[string]tasks.CacheCleaner)

	for name, sourceConfig := range configs {
		if !sourceConfig.Settings.IsEnabled() {
			slog.Info("Source disabled, skipping", "source", name)
			continue
		}

		// The configured URL feeds whichever field the adapter kind reads:
		// API base for catalog adapters, feed URL for showcases.
		adapter, err := sources.New(sourceConfig.Source.Kind, sources.Options{
			Name:      name,
			BaseURL:   sourceConfig.Source.URL,
			FeedURL:   sourceConfig.Source.URL,
			APIKey:    sourceConfig.Source.APIKey,
			UserAgent: appCfg.UserAgent,
			Client:    httpClient,
		})
		if err != nil {
			slog.Error("Failed to initialize source", "source", name, "error", err)
			os.Exit(1)
		}

		resultCache := cache.New(name, sourceConfig.Settings.GetCacheTTL(), database.NewCacheRepository(db))
		cleaners[name] = resultCache

		searchSources = append(searchSources, &search.Source{
			Adapter: adapter,
			Breaker: breaker.New(breaker.Settings{
				FailureThreshold:  sourceConfig.Settings.FailureThreshold,
				ResetTimeout:      sourceConfig.Settings.GetResetTimeout(),
				HalfOpenMaxCalls:  sourceConfig.Settings.HalfOpenMaxCalls,
				HalfOpenSuccesses: sourceConfig.Settings.HalfOpenSuccesses,
			}),
			Limiter:             limiter.New(sourceConfig.Settings.GetRateInterval()),
			Cache:               resultCache,
			Timeout:             sourceConfig.Settings.GetTimeout(),
			Limit:               sourceConfig.Settings.MaxResults,
			Optional:            sourceConfig.Settings.IsOptional(),
			TreatEmptyAsFailure: sourceConfig.Settings.EmptyAsFailure(),
		})

		slog.Info("Source registered", "source", name, "kind", sourceConfig.Source.Kind,
			"optional", sourceConfig.Settings.IsOptional())
	}

	if len(searchSources) == 0 {
		slog.Error("All configured sources are disabled")
		os.Exit(1)
	}

	aggregator := search.NewAggregator(search.Config{
		OverallTimeout: time.Duration(appCfg.OverallTimeout) * time.Second,
		DefaultLimit:   appCfg.DefaultLimit,
		MaxLimit:       appCfg.MaxLimit,
	}, searchSources...)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"interval", time.Duration(appCfg.SchedulerInterval)*time.Second)
	scheduler := tasks.NewScheduler(cleaners, aggregator,
		time.Duration(appCfg.SchedulerInterval)*time.Second, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(aggregator, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Map Comb server shutdown complete")
}

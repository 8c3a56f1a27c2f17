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

	"fan_hub/internal/assetcache"
	"fan_hub/internal/config"
	"fan_hub/internal/fetch"
	"fan_hub/internal/publisher"
	"fan_hub/internal/scheduler"
	"fan_hub/internal/server"
	"fan_hub/internal/service"
	"fan_hub/internal/source/openligadb"
	"fan_hub/internal/source/wordpress"
	"fan_hub/internal/storage/sqlite"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	store, err := sqlite.Open(cfg.Cache.Path, cfg.Cache.KeyVersion, logger)
	if err != nil {
		logger.Error("failed to open cache store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// The event publisher is optional: without a broker URL the app
	// simply refreshes silently.
	var events service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	client := fetch.New(fetch.Config{
		ProxyPrefix: cfg.Fetch.ProxyPrefix,
		Timeout:     cfg.Fetch.Timeout,
		UserAgent:   cfg.Fetch.UserAgent,
	}, logger)

	matchSource := openligadb.New(openligadb.Config{
		BaseURL:            cfg.Matches.BaseURL,
		League:             cfg.Matches.League,
		ClubIdentifier:     cfg.Club.Identifier,
		DefaultCompetition: cfg.Matches.DefaultCompetition,
	}, client, logger)

	newsSource := wordpress.New(wordpress.Config{
		Endpoint:        cfg.News.Endpoint,
		DefaultCategory: cfg.Club.Name,
	}, client, logger)

	refresher := service.NewRefresher(matchSource, newsSource, store, events, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	var assets http.Handler
	if cfg.Assets.Origin != "" {
		cache, err := assetcache.New(assetcache.Config{
			Version:  cfg.Assets.Version,
			Dir:      cfg.Assets.Dir,
			Origin:   cfg.Assets.Origin,
			Manifest: cfg.Assets.Manifest,
			Timeout:  cfg.Assets.Timeout,
		}, logger)
		if err != nil {
			logger.Error("failed to create asset cache", "error", err)
			os.Exit(1)
		}
		if err := cache.Install(ctx); err != nil {
			logger.Error("asset cache installation failed", "error", err)
			os.Exit(1)
		}
		if err := cache.Activate(); err != nil {
			logger.Error("asset cache activation failed", "error", err)
			os.Exit(1)
		}
		assets = cache
	}

	// First paint comes from the cache; the scheduler's initial run
	// refreshes both domains live right after.
	refresher.LoadCache(ctx)

	sched := scheduler.NewScheduler(refresher, cfg.Refresh.Interval, logger)
	go func() {
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	srv := server.New(refresher, assets, cfg.Club.Name, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	logger.Info("starting fan hub",
		"addr", cfg.Server.Addr,
		"league", cfg.Matches.League,
		"interval", cfg.Refresh.Interval,
	)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

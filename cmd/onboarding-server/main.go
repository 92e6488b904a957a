// cmd/onboarding-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onboarding-engine/internal/api"
	"onboarding-engine/internal/catalog"
	"onboarding-engine/internal/common/config"
	"onboarding-engine/internal/common/database"
	"onboarding-engine/internal/common/logger"
	"onboarding-engine/internal/common/observability"
	"onboarding-engine/internal/flow"
	"onboarding-engine/internal/matching"
	"onboarding-engine/internal/notifications"
	"onboarding-engine/internal/onboarding"
	"onboarding-engine/internal/orchestrator"
	"onboarding-engine/internal/search"
	"onboarding-engine/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting onboarding engine", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	reg, err := loadRegistry(cfg.Onboarding.RegistryPath)
	if err != nil {
		log.Error("step registry rejected", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	obs := observability.New(cfg.App.Name)

	// Infrastructure. Postgres and Elasticsearch are optional fallbacks; the
	// engine runs without them on the synthetic pool alone.
	var local orchestrator.LocalCatalog
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		log.Warn("postgres unavailable, local catalog disabled", map[string]interface{}{"error": err.Error()})
	} else {
		defer pg.Close()
		local = catalog.NewRepository(pg.DB)
	}

	var text orchestrator.UniversityTextSearch
	var es *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			log.Warn("elasticsearch unavailable", map[string]interface{}{"error": err.Error()})
			es = nil
		} else {
			text = catalog.NewTextSearch(es.Client, cfg.Database.Elasticsearch.Index)
		}
	}

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		log.Error("redis init failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer rdb.Close()

	collab := search.NewClient(cfg.Search, log)
	orch := orchestrator.New(collab, local, text, rdb.Client, orchestrator.Config{
		MinQueryLength:    cfg.Onboarding.MinQueryLength,
		LiveSearchLimit:   cfg.Onboarding.LiveSearchLimit,
		PoolLimit:         cfg.Search.MaxBatch,
		SyntheticPoolSize: cfg.Onboarding.SyntheticPoolSize,
		CacheTTL:          time.Duration(cfg.Search.CacheTTL) * time.Minute,
	}, log)
	orch.SetObservability(obs)

	notifier := buildNotifier(cfg, log)
	store := session.NewStore(rdb.Client, time.Duration(cfg.Onboarding.SessionTTLMinutes)*time.Minute)

	engine := onboarding.NewEngine(
		reg,
		orch,
		matching.NewEngine(cfg.Onboarding.MaxResults),
		store,
		notifier,
		onboarding.Config{
			Debounce:        time.Duration(cfg.Onboarding.DebounceMS) * time.Millisecond,
			AutoStepTimeout: time.Duration(cfg.Onboarding.AutoStepTimeoutSec) * time.Second,
		},
		log,
	)
	engine.SetObservability(obs)

	server := api.NewServer(cfg.Server, engine, log)
	server.AddHealthCheck("redis", rdb.Ping)
	if pg != nil {
		server.AddHealthCheck("postgres", pg.Ping)
	}
	if es != nil {
		server.AddHealthCheck("elasticsearch", func(context.Context) error { return es.Ping() })
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("http server failed", map[string]interface{}{"error": err.Error()})
	case sig := <-stop:
		log.Info("shutdown signal received", map[string]interface{}{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("http shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if err := obs.Shutdown(ctx); err != nil {
		log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("onboarding engine stopped", nil)
}

func loadRegistry(path string) (*flow.Registry, error) {
	if path == "" {
		return flow.Default()
	}
	return flow.LoadRegistry(path)
}

func buildNotifier(cfg *config.Config, log logger.Logger) notifications.Sender {
	if !cfg.Notifications.Enabled {
		return notifications.NoOp{}
	}
	sender, err := notifications.NewAWSSender(context.Background(), cfg.Notifications, log)
	if err != nil {
		log.Warn("notifications disabled, aws init failed", map[string]interface{}{"error": err.Error()})
		return notifications.NoOp{}
	}
	return sender
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/routeboard/internal/adapters/nats"
	"github.com/samirrijal/routeboard/internal/adapters/postgres"
	"github.com/samirrijal/routeboard/internal/adapters/valkey"
	"github.com/samirrijal/routeboard/internal/core/ports"
	"github.com/samirrijal/routeboard/internal/core/usecases"
	"github.com/samirrijal/routeboard/internal/pkg/config"
	"github.com/samirrijal/routeboard/internal/pkg/logging"
	"github.com/samirrijal/routeboard/internal/pkg/telemetry"
	"github.com/samirrijal/routeboard/internal/workflows"
)

func main() {
	cfg, err := config.Load("routeboard-warmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	if !cfg.Warmer.Enabled {
		slog.Info("warmer disabled, exiting")
		return
	}
	if cfg.Chart.CacheTTL == 0 {
		slog.Warn("chart.cache_ttl is 0, warm-ups will compute projections without caching them")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), 8)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, summaries will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	routeRepo := postgres.NewRouteRepo(db)
	scheduleRepo := postgres.NewScheduleRepo(db)
	diagrams := usecases.NewDiagramService(routeRepo, scheduleRepo, cache, publisher, usecases.DiagramOptions{
		Palette:       cfg.Chart.Palette,
		IncludeDrafts: cfg.Chart.IncludeDrafts,
		CacheTTL:      cfg.Chart.CacheTTLDuration(),
	}, logger)

	// Temporal worker
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.WarmDiagramWorkflow)
	w.RegisterActivity(&workflows.WarmActivities{
		Routes:   usecases.NewRouteService(routeRepo),
		Diagrams: diagrams,
	})
	if err := w.Start(); err != nil {
		log.Fatalf("worker: %v", err)
	}
	defer w.Stop()

	trigger := NewTrigger(c, cfg.Temporal.TaskQueue, logger)

	// Periodic full warm-up
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := sched.AddFunc(cfg.Warmer.Schedule, func() {
		if err := trigger.WarmAll(ctx); err != nil {
			slog.Error("scheduled warm-up failed", "error", err)
		}
	}); err != nil {
		log.Fatalf("cron: %v", err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	// Per-route warm-up on schedule changes
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "diagram-warmer")
	if err != nil {
		slog.Warn("nats unavailable, only scheduled warm-ups will run", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeScheduleChanges(ctx, trigger.OnScheduleChange); err != nil {
			log.Fatalf("subscribe: %v", err)
		}
	}

	slog.Info("warmer started", "task_queue", cfg.Temporal.TaskQueue, "schedule", cfg.Warmer.Schedule)
	<-ctx.Done()
	slog.Info("warmer stopping")
}

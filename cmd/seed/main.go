package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	natsadapter "github.com/samirrijal/routeboard/internal/adapters/nats"
	"github.com/samirrijal/routeboard/internal/adapters/postgres"
	"github.com/samirrijal/routeboard/internal/core/ports"
	"github.com/samirrijal/routeboard/internal/core/usecases"
	"github.com/samirrijal/routeboard/internal/pkg/config"
	"github.com/samirrijal/routeboard/internal/pkg/logging"
)

func main() {
	pattern := "fixtures/*.yaml"
	if len(os.Args) > 1 {
		pattern = os.Args[1]
	}

	cfg, err := config.Load("routeboard-seed")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Schedule changes wake the warmer; seeding still works without NATS.
	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, schedule changes will not be announced", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	routes := usecases.NewRouteService(postgres.NewRouteRepo(db))
	schedules := usecases.NewScheduleService(postgres.NewScheduleRepo(db), publisher)
	validate := validator.New(validator.WithRequiredStructEnabled())

	files, err := filepath.Glob(pattern)
	if err != nil {
		log.Fatalf("glob %s: %v", pattern, err)
	}
	if len(files) == 0 {
		log.Fatalf("no fixtures match %s", pattern)
	}

	for _, path := range files {
		n, err := seedFile(ctx, path, validate, routes, schedules)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		slog.Info("fixture seeded", "file", path, "routes", n)
	}
}

func seedFile(ctx context.Context, path string, validate *validator.Validate, routes *usecases.RouteService, schedules *usecases.ScheduleService) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	fixture, err := LoadFixture(f, validate)
	if err != nil {
		return 0, err
	}

	for _, fr := range fixture.Routes {
		route, err := fr.Route()
		if err != nil {
			return 0, err
		}
		if err := routes.Upsert(ctx, route); err != nil {
			return 0, err
		}

		scheds, err := fr.DomainSchedules()
		if err != nil {
			return 0, err
		}
		if err := schedules.UpsertBatch(ctx, scheds); err != nil {
			return 0, err
		}
		slog.Info("route seeded", "route_id", route.ID, "stops", len(route.Stops), "schedules", len(scheds))
	}
	return len(fixture.Routes), nil
}

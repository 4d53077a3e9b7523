package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	natsadapter "github.com/samirrijal/routeboard/internal/adapters/nats"
	"github.com/samirrijal/routeboard/internal/adapters/postgres"
	"github.com/samirrijal/routeboard/internal/core/ports"
	"github.com/samirrijal/routeboard/internal/core/usecases"
	"github.com/samirrijal/routeboard/internal/pkg/config"
	"github.com/samirrijal/routeboard/internal/pkg/logging"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string      `json:"source"`
	Feeds  []FeedEntry `json:"feeds"`
}

// FeedEntry names a static GTFS archive by URL or local path.
type FeedEntry struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	GTFSURL string `json:"gtfs_url,omitempty"`
	Path    string `json:"path,omitempty"`
}

// scheduleBatchSize bounds the rows written per UpsertBatch call.
const scheduleBatchSize = 500

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("routeboard-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 8)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, schedule changes will not be announced", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	ing := &ingestor{
		routes:    usecases.NewRouteService(postgres.NewRouteRepo(db)),
		schedules: usecases.NewScheduleService(postgres.NewScheduleRepo(db), publisher),
		client:    &http.Client{Timeout: 120 * time.Second},
	}

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	slog.Info("GTFS import starting", "feeds", len(manifest.Feeds), "source", manifest.Source)

	// Filter feeds (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent downloads

	for _, feed := range manifest.Feeds {
		if len(slugFilter) > 0 && !slugFilter[feed.Slug] {
			continue
		}

		wg.Add(1)
		go func(f FeedEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ing.ingestFeed(ctx, f); err != nil {
				slog.Error("feed import failed", "feed", f.Slug, "error", err)
			}
		}(feed)
	}

	wg.Wait()
	slog.Info("GTFS import complete")
}

// ---------------------------------------------------------------------------
// Per-feed import
// ---------------------------------------------------------------------------

type ingestor struct {
	routes    *usecases.RouteService
	schedules *usecases.ScheduleService
	client    *http.Client
}

func (i *ingestor) ingestFeed(ctx context.Context, feed FeedEntry) error {
	body, err := i.fetch(ctx, feed)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	parsed, err := ReadFeed(zr)
	if err != nil {
		return err
	}
	lines, err := parsed.Lines()
	if err != nil {
		return err
	}

	for _, line := range lines {
		// Route IDs are prefixed with the feed slug so two feeds can share GTFS ids.
		line.Route.ID = feed.Slug + ":" + line.Route.ID
		for j := range line.Schedules {
			line.Schedules[j].ID = feed.Slug + ":" + line.Schedules[j].ID
			line.Schedules[j].RouteID = line.Route.ID
		}

		if err := i.routes.Upsert(ctx, line.Route); err != nil {
			slog.Warn("route rejected", "feed", feed.Slug, "route_id", line.Route.ID, "error", err)
			continue
		}
		for start := 0; start < len(line.Schedules); start += scheduleBatchSize {
			end := min(start+scheduleBatchSize, len(line.Schedules))
			if err := i.schedules.UpsertBatch(ctx, line.Schedules[start:end]); err != nil {
				return fmt.Errorf("route %s: %w", line.Route.ID, err)
			}
		}
		slog.Info("route imported",
			"feed", feed.Slug,
			"route_id", line.Route.ID,
			"stops", len(line.Route.Stops),
			"schedules", len(line.Schedules),
			"skipped_trips", line.Skipped,
		)
	}
	return nil
}

func (i *ingestor) fetch(ctx context.Context, feed FeedEntry) ([]byte, error) {
	if feed.Path != "" {
		return os.ReadFile(feed.Path)
	}

	slog.Info("downloading GTFS", "feed", feed.Slug, "url", feed.GTFSURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.GTFSURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, feed.GTFSURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

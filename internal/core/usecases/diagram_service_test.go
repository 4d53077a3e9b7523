package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/core/ports"
	"github.com/samirrijal/routeboard/internal/core/usecases"
)

func newDiagramService(schedules []domain.Schedule, cache *memCache, pub *recordingPublisher, opts usecases.DiagramOptions) *usecases.DiagramService {
	routes := &mockRouteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Route, error) {
			if id != "r-42" {
				return nil, domain.ErrNotFound
			}
			return coastalRoute(), nil
		},
		listFn: func(ctx context.Context, limit, offset int) ([]domain.Route, error) {
			if offset > 0 {
				return nil, nil
			}
			return []domain.Route{*coastalRoute(), {ID: "r-missing"}}, nil
		},
	}
	scheds := &mockScheduleRepo{
		listByRouteFn: func(ctx context.Context, routeID string) ([]domain.Schedule, error) {
			return schedules, nil
		},
	}
	// Typed nils would make non-nil interfaces.
	var (
		c ports.CacheService
		p ports.EventPublisher
	)
	if cache != nil {
		c = cache
	}
	if pub != nil {
		p = pub
	}
	return usecases.NewDiagramService(routes, scheds, c, p, opts, nil)
}

func TestDiagramService_Chart(t *testing.T) {
	schedules := []domain.Schedule{
		schedule("morning", domain.ScheduleActive, "06:00:00", "06:20:00", "06:40:00"),
		schedule("broken", domain.ScheduleActive, "07:00:00", "seven", "07:40:00"),
		schedule("night", domain.ScheduleInactive, "23:50:00", "00:10:00", "00:30:00"),
	}
	pub := &recordingPublisher{}
	svc := newDiagramService(schedules, nil, pub, usecases.DiagramOptions{})

	chart, err := svc.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42", CurrentScheduleID: "night"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chart.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(chart.Series))
	}
	if chart.Series[0].ID != "morning" || chart.Series[1].ID != "night" {
		t.Errorf("series out of order: %s, %s", chart.Series[0].ID, chart.Series[1].ID)
	}
	if !chart.Series[1].Emphasized {
		t.Error("current schedule must be emphasized")
	}
	if chart.Summary.Failed != 1 || !strings.Contains(chart.Summary.Notice, "broken") {
		t.Errorf("unexpected summary: %+v", chart.Summary)
	}

	if len(pub.summaries) != 1 {
		t.Fatalf("expected 1 summary event, got %d", len(pub.summaries))
	}
	ev := pub.summaries[0]
	if ev.RouteID != "r-42" || ev.Plotted != 2 || ev.Failed != 1 || ev.Fingerprint == "" || ev.EventID == "" {
		t.Errorf("unexpected summary event: %+v", ev)
	}
}

func TestDiagramService_DraftsExcludedByDefault(t *testing.T) {
	schedules := []domain.Schedule{
		schedule("live", domain.ScheduleActive, "06:00:00", "06:20:00"),
		schedule("draft", domain.ScheduleDraft, "07:00:00", "07:20:00"),
	}
	svc := newDiagramService(schedules, nil, nil, usecases.DiagramOptions{})

	chart, err := svc.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chart.Series) != 1 || chart.Series[0].ID != "live" {
		t.Fatalf("expected only live schedule, got %+v", chart.Series)
	}

	chart, err = svc.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42", IncludeDrafts: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chart.Series) != 2 {
		t.Fatalf("expected drafts included, got %d series", len(chart.Series))
	}
}

func TestDiagramService_Loading(t *testing.T) {
	svc := newDiagramService([]domain.Schedule{
		schedule("live", domain.ScheduleActive, "06:00:00", "06:20:00"),
	}, nil, nil, usecases.DiagramOptions{})

	chart, err := svc.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42", Loading: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !chart.Loading || len(chart.Series) != 0 {
		t.Errorf("loading chart must have no series: %+v", chart)
	}
}

func TestDiagramService_RouteNotFound(t *testing.T) {
	svc := newDiagramService(nil, nil, nil, usecases.DiagramOptions{})

	_, err := svc.Chart(context.Background(), usecases.DiagramRequest{RouteID: "nope"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiagramService_CacheHit(t *testing.T) {
	schedules := []domain.Schedule{
		schedule("morning", domain.ScheduleActive, "06:00:00", "06:20:00", "06:40:00"),
	}
	cache := newMemCache()
	pub := &recordingPublisher{}
	svc := newDiagramService(schedules, cache, pub, usecases.DiagramOptions{CacheTTL: time.Minute})

	first, err := svc.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.sets != 1 {
		t.Errorf("expected projection cached once, got %d sets", cache.sets)
	}
	if len(pub.summaries) != 2 || pub.summaries[0].Cached || !pub.summaries[1].Cached {
		t.Errorf("expected miss then hit, got %+v", pub.summaries)
	}
	if first.Series[0].Points[2].Tooltip != second.Series[0].Points[2].Tooltip {
		t.Error("cached projection must render identically")
	}
}

func TestDiagramService_CacheDisabledWithZeroTTL(t *testing.T) {
	cache := newMemCache()
	svc := newDiagramService([]domain.Schedule{
		schedule("morning", domain.ScheduleActive, "06:00:00", "06:20:00"),
	}, cache, nil, usecases.DiagramOptions{})

	if _, err := svc.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 0 {
		t.Errorf("cache must be bypassed when ttl is zero, got %d sets", cache.sets)
	}
}

func TestDiagramService_Preview(t *testing.T) {
	svc := newDiagramService(nil, nil, nil, usecases.DiagramOptions{})

	chart, err := svc.Preview(context.Background(), usecases.PreviewRequest{
		Route: *coastalRoute(),
		Schedules: []domain.Schedule{
			schedule("night", "", "23:50:00", "00:10:00", "00:30:00"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pts := chart.Series[0].Points
	want := []float64{0, 20, 40}
	for i, p := range pts {
		if p.X != want[i] {
			t.Errorf("point %d: expected x=%v, got %v", i, want[i], p.X)
		}
	}
}

func TestDiagramService_PreviewRouteIntegrity(t *testing.T) {
	svc := newDiagramService(nil, nil, nil, usecases.DiagramOptions{})

	route := *coastalRoute()
	route.Stops[2].StopOrder = 1

	_, err := svc.Preview(context.Background(), usecases.PreviewRequest{Route: route})
	var ri *domain.RouteIntegrityError
	if !errors.As(err, &ri) {
		t.Fatalf("expected RouteIntegrityError, got %v", err)
	}
}

func TestDiagramService_WarmAll(t *testing.T) {
	cache := newMemCache()
	svc := newDiagramService([]domain.Schedule{
		schedule("morning", domain.ScheduleActive, "06:00:00", "06:20:00"),
	}, cache, nil, usecases.DiagramOptions{CacheTTL: time.Minute})

	warmed, err := svc.WarmAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warmed != 1 {
		t.Errorf("expected 1 route warmed (r-missing skipped), got %d", warmed)
	}
	if cache.sets != 1 {
		t.Errorf("expected 1 cached projection, got %d", cache.sets)
	}
}

func TestFingerprint(t *testing.T) {
	a := []domain.Schedule{schedule("x", domain.ScheduleActive, "06:00:00", "06:20:00")}
	b := []domain.Schedule{schedule("x", domain.ScheduleActive, "06:00:00", "06:21:00")}

	fa1, err := usecases.Fingerprint(coastalRoute(), a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fa2, _ := usecases.Fingerprint(coastalRoute(), a)
	fb, _ := usecases.Fingerprint(coastalRoute(), b)

	if fa1 != fa2 {
		t.Error("fingerprint must be stable")
	}
	if fa1 == fb {
		t.Error("fingerprint must change with stop times")
	}

	joined := schedule("ab", domain.ScheduleActive, "06:00:00", "06:20:00")
	joined.Name = "c"
	split := schedule("a", domain.ScheduleActive, "06:00:00", "06:20:00")
	split.Name = "bc"
	fj, _ := usecases.Fingerprint(coastalRoute(), []domain.Schedule{joined})
	fs, _ := usecases.Fingerprint(coastalRoute(), []domain.Schedule{split})
	if fj == fs {
		t.Errorf("id %q + name %q must not fingerprint like id %q + name %q", joined.ID, joined.Name, split.ID, split.Name)
	}
}

func TestDiagramService_SharedCacheKeepsScheduleIdentity(t *testing.T) {
	cache := newMemCache()
	opts := usecases.DiagramOptions{CacheTTL: time.Minute}

	joined := schedule("ab", domain.ScheduleActive, "06:00:00", "06:20:00", "06:40:00")
	joined.Name = "c"
	split := schedule("a", domain.ScheduleActive, "06:00:00", "06:20:00", "06:40:00")
	split.Name = "bc"

	first := newDiagramService([]domain.Schedule{joined}, cache, nil, opts)
	if _, err := first.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := newDiagramService([]domain.Schedule{split}, cache, nil, opts)
	chart, err := second.Chart(context.Background(), usecases.DiagramRequest{RouteID: "r-42", CurrentScheduleID: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chart.Series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(chart.Series))
	}
	got := chart.Series[0]
	if got.ID != "a" || got.Label != "bc" || !got.Emphasized {
		t.Errorf("expected emphasized series a/bc, got id=%q label=%q emphasized=%v", got.ID, got.Label, got.Emphasized)
	}
	if cache.sets != 2 {
		t.Errorf("expected two distinct cache entries, got %d sets", cache.sets)
	}
}

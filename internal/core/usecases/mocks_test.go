package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/routeboard/internal/core/domain"
)

// --- Mock RouteRepository ---

type mockRouteRepo struct {
	upsertFn  func(ctx context.Context, r *domain.Route) error
	getByIDFn func(ctx context.Context, id string) (*domain.Route, error)
	listFn    func(ctx context.Context, limit, offset int) ([]domain.Route, error)
	countFn   func(ctx context.Context) (int, error)
}

func (m *mockRouteRepo) Upsert(ctx context.Context, r *domain.Route) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, r)
	}
	return nil
}

func (m *mockRouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRouteRepo) List(ctx context.Context, limit, offset int) ([]domain.Route, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockRouteRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

// --- Mock ScheduleRepository ---

type mockScheduleRepo struct {
	upsertBatchFn func(ctx context.Context, s []domain.Schedule) error
	getByIDFn     func(ctx context.Context, id string) (*domain.Schedule, error)
	listByRouteFn func(ctx context.Context, routeID string) ([]domain.Schedule, error)
}

func (m *mockScheduleRepo) Upsert(ctx context.Context, s *domain.Schedule) error {
	return m.UpsertBatch(ctx, []domain.Schedule{*s})
}

func (m *mockScheduleRepo) UpsertBatch(ctx context.Context, s []domain.Schedule) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, s)
	}
	return nil
}

func (m *mockScheduleRepo) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockScheduleRepo) ListByRoute(ctx context.Context, routeID string) ([]domain.Schedule, error) {
	if m.listByRouteFn != nil {
		return m.listByRouteFn(ctx, routeID)
	}
	return nil, nil
}

// --- In-memory CacheService ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Recording EventPublisher ---

type recordingPublisher struct {
	mu        sync.Mutex
	changes   []domain.ScheduleChange
	summaries []domain.DiagramSummary
	err       error
}

func (p *recordingPublisher) PublishScheduleChanged(ctx context.Context, c *domain.ScheduleChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, *c)
	return p.err
}

func (p *recordingPublisher) PublishDiagramSummary(ctx context.Context, s *domain.DiagramSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, *s)
	return p.err
}

// --- Fixtures ---

func coastalRoute() *domain.Route {
	return &domain.Route{
		ID:   "r-42",
		Name: "Coastal Line",
		Stops: []domain.RouteStop{
			{StopID: "s-a", Name: "Harbour", DistanceFromStartKm: 0, StopOrder: 0},
			{StopID: "s-b", Name: "Old Town", DistanceFromStartKm: 15.2, StopOrder: 1},
			{StopID: "s-c", Name: "Airport", DistanceFromStartKm: 28.8, StopOrder: 2},
		},
	}
}

func schedule(id string, status domain.ScheduleStatus, times ...string) domain.Schedule {
	s := domain.Schedule{ID: id, Name: id, RouteID: "r-42", Status: status}
	for i, tm := range times {
		s.Stops = append(s.Stops, domain.ScheduleStop{StopOrder: i, DepartureTime: tm, ArrivalTime: tm})
	}
	return s
}

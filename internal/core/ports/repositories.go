package ports

import (
	"context"

	"github.com/samirrijal/routeboard/internal/core/domain"
)

// RouteRepository persists routes together with their ordered stop tables.
type RouteRepository interface {
	Upsert(ctx context.Context, route *domain.Route) error
	GetByID(ctx context.Context, id string) (*domain.Route, error)
	List(ctx context.Context, limit, offset int) ([]domain.Route, error)
	Count(ctx context.Context) (int, error)
}

// ScheduleRepository persists schedules and their stop times.
type ScheduleRepository interface {
	Upsert(ctx context.Context, schedule *domain.Schedule) error
	UpsertBatch(ctx context.Context, schedules []domain.Schedule) error
	GetByID(ctx context.Context, id string) (*domain.Schedule, error)
	ListByRoute(ctx context.Context, routeID string) ([]domain.Schedule, error)
}

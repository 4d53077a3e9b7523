package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/core/ports"
	"github.com/samirrijal/routeboard/internal/core/timespace"
)

// RouteService handles route catalogue logic.
type RouteService struct {
	routes ports.RouteRepository
}

// NewRouteService creates a new RouteService.
func NewRouteService(routes ports.RouteRepository) *RouteService {
	return &RouteService{routes: routes}
}

// GetByID returns a route with its ordered stops.
func (s *RouteService) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	return s.routes.GetByID(ctx, id)
}

// List returns one page of routes and the total number of routes.
func (s *RouteService) List(ctx context.Context, limit, offset int) ([]domain.Route, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	routes, err := s.routes.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.routes.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return routes, total, nil
}

// Upsert stores a route after checking its stop table can carry a diagram.
func (s *RouteService) Upsert(ctx context.Context, route *domain.Route) error {
	if err := timespace.ValidateRoute(route); err != nil {
		return err
	}
	if err := s.routes.Upsert(ctx, route); err != nil {
		return fmt.Errorf("upsert route %s: %w", route.ID, err)
	}
	return nil
}

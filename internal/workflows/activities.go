package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/core/usecases"
)

const listPageSize = 100

// WarmActivities holds the activity implementations for the warm-up workflow.
type WarmActivities struct {
	Routes   *usecases.RouteService
	Diagrams *usecases.DiagramService
}

// ListRouteIDs returns the ID of every stored route.
func (a *WarmActivities) ListRouteIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += listPageSize {
		routes, _, err := a.Routes.List(ctx, listPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list routes at offset %d: %w", offset, err)
		}
		for _, r := range routes {
			ids = append(ids, r.ID)
		}
		if len(routes) < listPageSize {
			return ids, nil
		}
	}
}

// WarmRoute projects one route and stores the result in the cache. Missing
// routes and broken stop tables are not retried.
func (a *WarmActivities) WarmRoute(ctx context.Context, routeID string) (*domain.DiagramSummary, error) {
	summary, err := a.Diagrams.Warm(ctx, routeID)
	if err != nil {
		var ri *domain.RouteIntegrityError
		if errors.Is(err, domain.ErrNotFound) || errors.As(err, &ri) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), string(domain.KindOf(err)), err)
		}
		return nil, fmt.Errorf("warm route %s: %w", routeID, err)
	}
	activity.GetLogger(ctx).Info("Route warmed",
		"routeID", routeID, "plotted", summary.Plotted, "failed", summary.Failed, "cached", summary.Cached)
	return summary, nil
}

package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/routeboard/internal/core/domain"
)

// WarmInput selects what to warm. An empty RouteID warms every route.
type WarmInput struct {
	RouteID string
	Trigger string // cron, schedule_change, manual
}

// WarmResult counts routes whose projection was refreshed.
type WarmResult struct {
	Warmed int
	Failed int
}

// maxParallelWarm bounds the number of WarmRoute activities in flight.
const maxParallelWarm = 8

// WarmDiagramWorkflow recomputes and caches route projections so the first
// diagram request after a schedule change does not pay for the projection.
// A route that fails to warm is counted and skipped; the workflow only fails
// when the route list itself cannot be loaded.
func WarmDiagramWorkflow(ctx workflow.Context, input WarmInput) (WarmResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting diagram warm-up", "routeID", input.RouteID, "trigger", input.Trigger)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 2 * time.Second,
			MaximumAttempts: 3,
		},
	})

	routeIDs := []string{input.RouteID}
	if input.RouteID == "" {
		if err := workflow.ExecuteActivity(ctx, "ListRouteIDs").Get(ctx, &routeIDs); err != nil {
			return WarmResult{}, err
		}
	}

	var result WarmResult
	for start := 0; start < len(routeIDs); start += maxParallelWarm {
		end := min(start+maxParallelWarm, len(routeIDs))

		futures := make([]workflow.Future, 0, end-start)
		for _, id := range routeIDs[start:end] {
			futures = append(futures, workflow.ExecuteActivity(ctx, "WarmRoute", id))
		}
		for i, f := range futures {
			var summary domain.DiagramSummary
			if err := f.Get(ctx, &summary); err != nil {
				logger.Warn("route warm-up failed", "routeID", routeIDs[start+i], "error", err)
				result.Failed++
				continue
			}
			result.Warmed++
		}
	}

	logger.Info("Diagram warm-up finished", "warmed", result.Warmed, "failed", result.Failed)
	return result, nil
}

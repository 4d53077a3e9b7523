package main

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/pkg/metrics"
	"github.com/samirrijal/routeboard/internal/workflows"
)

// starter is the part of client.Client used to start workflows.
type starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Trigger starts warm-up workflows on behalf of the cron schedule and the
// schedule change feed.
type Trigger struct {
	client    starter
	taskQueue string
	logger    *slog.Logger
}

func NewTrigger(c starter, taskQueue string, logger *slog.Logger) *Trigger {
	return &Trigger{client: c, taskQueue: taskQueue, logger: logger}
}

// WarmAll runs a full warm-up and waits for it. A run already in progress is
// joined rather than duplicated.
func (t *Trigger) WarmAll(ctx context.Context) error {
	run, err := t.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "warm-all",
		TaskQueue: t.taskQueue,
	}, workflows.WarmDiagramWorkflow, workflows.WarmInput{Trigger: "cron"})
	if err != nil {
		metrics.WarmRuns.WithLabelValues("cron", "error").Inc()
		return fmt.Errorf("start warm-up: %w", err)
	}

	var res workflows.WarmResult
	if err := run.Get(ctx, &res); err != nil {
		metrics.WarmRuns.WithLabelValues("cron", "error").Inc()
		return fmt.Errorf("warm-up %s: %w", run.GetID(), err)
	}

	outcome := "ok"
	if res.Failed > 0 {
		outcome = "partial"
	}
	metrics.WarmRuns.WithLabelValues("cron", outcome).Inc()
	t.logger.Info("warm-up finished", "workflow_id", run.GetID(), "warmed", res.Warmed, "failed", res.Failed)
	return nil
}

// OnScheduleChange starts a warm-up of the changed route without waiting for
// it. Bursts of changes to one route collapse into the running workflow.
func (t *Trigger) OnScheduleChange(ctx context.Context, change *domain.ScheduleChange) error {
	if change.RouteID == "" {
		t.logger.Warn("schedule change without route", "event_id", change.EventID)
		return nil
	}

	_, err := t.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "warm-route-" + change.RouteID,
		TaskQueue: t.taskQueue,
	}, workflows.WarmDiagramWorkflow, workflows.WarmInput{RouteID: change.RouteID, Trigger: "schedule_change"})
	if err != nil {
		metrics.WarmRuns.WithLabelValues("schedule_change", "error").Inc()
		return fmt.Errorf("start warm-up for route %s: %w", change.RouteID, err)
	}
	metrics.WarmRuns.WithLabelValues("schedule_change", "started").Inc()
	t.logger.Debug("warm-up started", "route_id", change.RouteID, "schedule_id", change.ScheduleID)
	return nil
}

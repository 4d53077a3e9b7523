package timespace

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/pkg/clock"
)

// DefaultPalette is used when ChartOptions.Palette is empty.
var DefaultPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// ChartOptions carries presentation state for a render.
type ChartOptions struct {
	CurrentScheduleID string
	Loading           bool
	Palette           []string
	Colors            map[string]string // explicit color per schedule id
	Labels            map[string]string // display name per schedule id
}

// ColorFor picks a palette entry by hashing the schedule id, so the color of a
// schedule does not depend on which other schedules are plotted with it.
func ColorFor(scheduleID string, palette []string) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[xxhash.Sum64String(scheduleID)%uint64(len(palette))]
}

// BuildChart turns a projection into series and axes for a chart surface.
// Series follow the projection's order. While loading, no series are built.
func BuildChart(route *domain.Route, proj *domain.Projection, opts ChartOptions) domain.Chart {
	chart := domain.Chart{
		Loading: opts.Loading,
		Series:  []domain.Series{},
	}
	if route != nil {
		chart.RouteID = route.ID
		chart.RouteName = route.Name
	}
	chart.Axes = buildAxes(route, nil)
	if opts.Loading || proj == nil {
		return chart
	}

	chart.Series = make([]domain.Series, 0, len(proj.Trajectories))
	for _, traj := range proj.Trajectories {
		chart.Series = append(chart.Series, buildSeries(traj, opts))
	}
	chart.Axes = buildAxes(route, proj.Trajectories)
	chart.Summary = summarize(proj)
	return chart
}

func buildSeries(traj domain.Trajectory, opts ChartOptions) domain.Series {
	label := traj.ScheduleName
	if l, ok := opts.Labels[traj.ScheduleID]; ok && l != "" {
		label = l
	}
	color := opts.Colors[traj.ScheduleID]
	if color == "" {
		color = ColorFor(traj.ScheduleID, opts.Palette)
	}

	origin := traj.OriginMinutes
	format := func(x float64) string {
		return clock.Label(origin + x)
	}

	points := make([]domain.SeriesPoint, len(traj.Points))
	for i, p := range traj.Points {
		points[i] = domain.SeriesPoint{
			X:       p.TimeOffsetMinutes,
			Y:       p.DistanceKm,
			Label:   p.StopLabel,
			Tooltip: fmt.Sprintf("%s · %s · %.1f km", p.StopLabel, format(p.TimeOffsetMinutes), p.DistanceKm),
		}
	}

	return domain.Series{
		ID:               traj.ScheduleID,
		Label:            label,
		Color:            color,
		Emphasized:       opts.CurrentScheduleID != "" && traj.ScheduleID == opts.CurrentScheduleID,
		Line:             len(points) > 1,
		Points:           points,
		TooltipFormatter: format,
	}
}

func buildAxes(route *domain.Route, trajs []domain.Trajectory) domain.AxisConfig {
	axes := domain.AxisConfig{
		X: domain.Axis{Scale: "linear", Unit: "minutes"},
		Y: domain.Axis{Scale: "linear", Unit: "km"},
	}
	for _, t := range trajs {
		if d := t.DurationMinutes(); d > axes.X.Max {
			axes.X.Max = d
		}
	}
	if route != nil {
		axes.Y.Max = route.LengthKm()
		axes.Y.Ticks = make([]domain.AxisTick, 0, len(route.Stops))
		for _, st := range route.Stops {
			axes.Y.Ticks = append(axes.Y.Ticks, domain.AxisTick{Value: st.DistanceFromStartKm, Label: st.Name})
		}
	}
	return axes
}

func summarize(proj *domain.Projection) domain.ChartSummary {
	sum := domain.ChartSummary{
		Plotted: len(proj.Trajectories),
		Failed:  len(proj.Failures),
	}
	if len(proj.Failures) == 0 {
		return sum
	}
	sum.Skipped = append([]domain.ScheduleFailure(nil), proj.Failures...)

	noun := "schedules"
	if len(proj.Failures) == 1 {
		noun = "schedule"
	}
	reasons := make([]string, len(proj.Failures))
	for i, f := range proj.Failures {
		reasons[i] = fmt.Sprintf("%s (%s)", f.ScheduleName, f.Message)
	}
	sum.Notice = fmt.Sprintf("%d %s could not be plotted: %s", len(proj.Failures), noun, strings.Join(reasons, "; "))
	return sum
}

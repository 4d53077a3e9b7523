package timespace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/core/timespace"
)

func projectFixtures(t *testing.T) (*domain.Route, *domain.Projection) {
	t.Helper()
	route := testRoute()
	proj, err := timespace.ProjectAll(route, []domain.Schedule{
		departures("sch-1", "Morning Express", "06:00:00", "06:20:00", "06:40:00"),
		departures("sch-2", "Broken", "07:00:00", "07:99:00", "07:40:00"),
		departures("sch-3", "Night Owl", "23:50:00", "00:10:00", "00:30:00"),
	})
	require.NoError(t, err)
	return route, proj
}

func TestBuildChart_SeriesFollowProjection(t *testing.T) {
	route, proj := projectFixtures(t)

	chart := timespace.BuildChart(route, proj, timespace.ChartOptions{CurrentScheduleID: "sch-3"})

	require.Len(t, chart.Series, 2)
	assert.Equal(t, "sch-1", chart.Series[0].ID)
	assert.Equal(t, "sch-3", chart.Series[1].ID)
	assert.Equal(t, "Coastal Line", chart.RouteName)
	assert.False(t, chart.Series[0].Emphasized)
	assert.True(t, chart.Series[1].Emphasized)

	for i, s := range chart.Series {
		traj := proj.Trajectories[i]
		require.Len(t, s.Points, len(traj.Points))
		for j, p := range s.Points {
			assert.Equal(t, traj.Points[j].TimeOffsetMinutes, p.X)
			assert.Equal(t, traj.Points[j].DistanceKm, p.Y)
		}
		assert.True(t, s.Line)
	}
}

func TestBuildChart_Axes(t *testing.T) {
	route, proj := projectFixtures(t)

	chart := timespace.BuildChart(route, proj, timespace.ChartOptions{})

	assert.Equal(t, "minutes", chart.Axes.X.Unit)
	assert.Equal(t, "km", chart.Axes.Y.Unit)
	assert.Equal(t, 40.0, chart.Axes.X.Max)
	assert.Equal(t, 28.8, chart.Axes.Y.Max)
	require.Len(t, chart.Axes.Y.Ticks, 3)
	assert.Equal(t, domain.AxisTick{Value: 15.2, Label: "Old Town"}, chart.Axes.Y.Ticks[1])
}

func TestBuildChart_FailureNotice(t *testing.T) {
	route, proj := projectFixtures(t)

	chart := timespace.BuildChart(route, proj, timespace.ChartOptions{})

	assert.Equal(t, 2, chart.Summary.Plotted)
	assert.Equal(t, 1, chart.Summary.Failed)
	require.Len(t, chart.Summary.Skipped, 1)
	assert.Equal(t, "sch-2", chart.Summary.Skipped[0].ScheduleID)
	assert.Contains(t, chart.Summary.Notice, "1 schedule could not be plotted: Broken (")
}

func TestBuildChart_NoNoticeWhenClean(t *testing.T) {
	route := testRoute()
	proj, err := timespace.ProjectAll(route, []domain.Schedule{
		departures("sch-1", "Morning Express", "06:00:00", "06:20:00", "06:40:00"),
	})
	require.NoError(t, err)

	chart := timespace.BuildChart(route, proj, timespace.ChartOptions{})
	assert.Empty(t, chart.Summary.Notice)
	assert.Empty(t, chart.Summary.Skipped)
}

func TestBuildChart_LoadingShortCircuits(t *testing.T) {
	route, proj := projectFixtures(t)

	chart := timespace.BuildChart(route, proj, timespace.ChartOptions{Loading: true})

	assert.True(t, chart.Loading)
	assert.NotNil(t, chart.Series)
	assert.Empty(t, chart.Series)
	assert.Zero(t, chart.Summary.Plotted)
	assert.Equal(t, 28.8, chart.Axes.Y.Max)
}

func TestBuildChart_EmptyProjection(t *testing.T) {
	route := testRoute()
	chart := timespace.BuildChart(route, &domain.Projection{RouteID: route.ID}, timespace.ChartOptions{})
	assert.Empty(t, chart.Series)
	assert.Zero(t, chart.Axes.X.Max)
}

func TestBuildChart_SinglePointSeriesIsMarker(t *testing.T) {
	route := testRoute()
	proj, err := timespace.ProjectAll(route, []domain.Schedule{
		{ID: "one", Stops: []domain.ScheduleStop{{StopOrder: 1, DepartureTime: "12:00:00"}}},
	})
	require.NoError(t, err)

	chart := timespace.BuildChart(route, proj, timespace.ChartOptions{})
	require.Len(t, chart.Series, 1)
	assert.False(t, chart.Series[0].Line)
	require.Len(t, chart.Series[0].Points, 1)
}

func TestBuildChart_Tooltips(t *testing.T) {
	route, proj := projectFixtures(t)

	chart := timespace.BuildChart(route, proj, timespace.ChartOptions{})

	night := chart.Series[1]
	assert.Equal(t, "23:50:00", night.TooltipFormatter(0))
	assert.Equal(t, "00:30:00 +1d", night.TooltipFormatter(40))
	assert.Equal(t, "Old Town · 00:10:00 +1d · 15.2 km", night.Points[1].Tooltip)

	morning := chart.Series[0]
	assert.Equal(t, "Harbour · 06:00:00 · 0.0 km", morning.Points[0].Tooltip)
}

func TestBuildChart_LabelsAndColorOverrides(t *testing.T) {
	route, proj := projectFixtures(t)

	chart := timespace.BuildChart(route, proj, timespace.ChartOptions{
		Labels: map[string]string{"sch-1": "AM Express"},
		Colors: map[string]string{"sch-3": "#000000"},
	})

	assert.Equal(t, "AM Express", chart.Series[0].Label)
	assert.Equal(t, "Night Owl", chart.Series[1].Label)
	assert.Equal(t, "#000000", chart.Series[1].Color)
	assert.Equal(t, timespace.ColorFor("sch-1", nil), chart.Series[0].Color)
}

func TestColorFor_StableAcrossOrdering(t *testing.T) {
	route := testRoute()
	a := departures("alpha", "", "06:00:00", "06:20:00", "06:40:00")
	b := departures("bravo", "", "07:00:00", "07:20:00", "07:40:00")
	c := departures("charlie", "", "08:00:00", "08:20:00", "08:40:00")

	colors := func(schedules ...domain.Schedule) map[string]string {
		proj, err := timespace.ProjectAll(route, schedules)
		require.NoError(t, err)
		out := map[string]string{}
		for _, s := range timespace.BuildChart(route, proj, timespace.ChartOptions{}).Series {
			out[s.ID] = s.Color
		}
		return out
	}

	forward := colors(a, b, c)
	reversed := colors(c, b, a)
	subset := colors(b)

	assert.Equal(t, forward, reversed)
	assert.Equal(t, forward["bravo"], subset["bravo"])
	assert.Contains(t, timespace.DefaultPalette, forward["alpha"])
}

func TestColorFor_CustomPalette(t *testing.T) {
	palette := []string{"red", "green"}
	assert.Contains(t, palette, timespace.ColorFor("x", palette))
	assert.Equal(t, timespace.ColorFor("x", palette), timespace.ColorFor("x", palette))
}

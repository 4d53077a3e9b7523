package main

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/routeboard/internal/core/timespace"
)

func buildZip(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return zr
}

func sampleFeed(t *testing.T) *Feed {
	t.Helper()
	zr := buildZip(t, map[string]string{
		"stops.txt": "\xEF\xBB\xBFstop_id,stop_name,stop_lat,stop_lon\n" +
			"A,Harbour,0,0\n" +
			"B,Old Town,0,0.1\n" +
			"C,Airport,0,0.2\n" +
			"X,Depot,1,1\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"C1,ag,C1,Coastal Line,3\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id\n" +
			"C1,wk,t-0600,Airport,0\n" +
			"C1,wk,t-0900x,Airport,0\n" +
			"C1,wk,t-2350,Airport,0\n" +
			"C1,wk,t-depot,Depot,0\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"t-0600,06:00:00,06:00:00,A,1\n" +
			"t-0600,06:40:00,06:40:00,C,3\n" +
			"t-0600,06:19:00,06:20:00,B,2\n" +
			"t-0900x,9:00:00,9:00:00,A,1\n" +
			"t-0900x,09:27:00,09:27:00,C,2\n" +
			"t-2350,23:50:00,23:50:00,A,1\n" +
			"t-2350,24:10:00,24:10:00,B,2\n" +
			"t-2350,24:30:00,24:30:00,C,3\n" +
			"t-depot,05:00:00,05:00:00,A,1\n" +
			"t-depot,05:20:00,05:20:00,X,2\n",
	})
	feed, err := ReadFeed(zr)
	require.NoError(t, err)
	return feed
}

func TestFeedLines(t *testing.T) {
	lines, err := sampleFeed(t).Lines()
	require.NoError(t, err)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "C1-0", line.Route.ID)
	assert.Equal(t, "Coastal Line to Airport", line.Route.Name)
	require.Len(t, line.Route.Stops, 3)
	assert.Equal(t, "Harbour", line.Route.Stops[0].Name)
	assert.InDelta(t, 11.119, line.Route.Stops[1].DistanceFromStartKm, 0.01)
	assert.InDelta(t, 22.239, line.Route.Stops[2].DistanceFromStartKm, 0.01)

	assert.Equal(t, 1, line.Skipped, "the depot trip leaves the stop table")
	require.Len(t, line.Schedules, 3)
	assert.Equal(t, "06:00 Airport", line.Schedules[0].Name)
	assert.Equal(t, 2, line.Schedules[1].Stops[1].StopOrder, "express skips Old Town")
	assert.Equal(t, "09:00:00", line.Schedules[1].Stops[0].DepartureTime)
	assert.Equal(t, "00:10:00", line.Schedules[2].Stops[1].ArrivalTime)
}

func TestFeedLines_Project(t *testing.T) {
	lines, err := sampleFeed(t).Lines()
	require.NoError(t, err)

	proj, err := timespace.ProjectAll(lines[0].Route, lines[0].Schedules)
	require.NoError(t, err)
	assert.Empty(t, proj.Failures)

	night := proj.Trajectories[2]
	assert.Equal(t, 40.0, night.Points[2].TimeOffsetMinutes)
	assert.Equal(t, 1, night.Points[2].DayOffset)
}

func TestReadFeed_MissingTable(t *testing.T) {
	_, err := ReadFeed(buildZip(t, map[string]string{"stops.txt": "stop_id\n"}))
	assert.ErrorContains(t, err, "not found in zip")
}

func TestNormalizeTime(t *testing.T) {
	tests := map[string]string{
		"06:00:00":  "06:00:00",
		"6:05:00":   "06:05:00",
		"25:10:00":  "01:10:00",
		" 24:00:00": "00:00:00",
		"":          "",
		"noon":      "noon",
		"07:xx:00":  "07:xx:00",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeTime(in), in)
	}
}

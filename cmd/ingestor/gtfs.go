package main

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/pkg/geospatial"
)

// ---------------------------------------------------------------------------
// GTFS tables (only the columns a time-space diagram needs)
// ---------------------------------------------------------------------------

type gtfsStop struct {
	ID   string `csv:"stop_id"`
	Name string `csv:"stop_name"`
	Lat  string `csv:"stop_lat"`
	Lon  string `csv:"stop_lon"`
}

type gtfsRoute struct {
	ID        string `csv:"route_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
}

type gtfsTrip struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID string `csv:"direction_id"`
}

type gtfsStopTime struct {
	TripID    string `csv:"trip_id"`
	Arrival   string `csv:"arrival_time"`
	Departure string `csv:"departure_time"`
	StopID    string `csv:"stop_id"`
	Sequence  string `csv:"stop_sequence"`
}

// Feed is a parsed static GTFS archive.
type Feed struct {
	stops     map[string]gtfsStop
	routes    map[string]gtfsRoute
	trips     []gtfsTrip
	stopTimes map[string][]gtfsStopTime
}

// ReadFeed parses the tables of a GTFS zip.
func ReadFeed(zr *zip.Reader) (*Feed, error) {
	var (
		stops     []*gtfsStop
		routes    []*gtfsRoute
		trips     []*gtfsTrip
		stopTimes []*gtfsStopTime
	)
	for name, out := range map[string]interface{}{
		"stops.txt":      &stops,
		"routes.txt":     &routes,
		"trips.txt":      &trips,
		"stop_times.txt": &stopTimes,
	} {
		if err := readTable(zr, name, out); err != nil {
			return nil, err
		}
	}

	feed := &Feed{
		stops:     make(map[string]gtfsStop, len(stops)),
		routes:    make(map[string]gtfsRoute, len(routes)),
		stopTimes: make(map[string][]gtfsStopTime),
	}
	for _, s := range stops {
		feed.stops[strings.TrimSpace(s.ID)] = *s
	}
	for _, r := range routes {
		feed.routes[strings.TrimSpace(r.ID)] = *r
	}
	for _, t := range trips {
		feed.trips = append(feed.trips, *t)
	}
	for _, st := range stopTimes {
		id := strings.TrimSpace(st.TripID)
		feed.stopTimes[id] = append(feed.stopTimes[id], *st)
	}
	sort.Slice(feed.trips, func(i, j int) bool { return feed.trips[i].ID < feed.trips[j].ID })
	return feed, nil
}

func readTable(zr *zip.Reader, name string, out interface{}) error {
	f, err := openCSV(zr, name)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(skipBOM(f))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	if err := gocsv.UnmarshalCSV(r, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func openCSV(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("file %s not found in zip", name)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(3); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(3)
	}
	return br
}

// ---------------------------------------------------------------------------
// Lines: one diagram route per GTFS route and direction
// ---------------------------------------------------------------------------

// Line is a diagram route built from the trips of one GTFS route direction.
// Trips whose stops do not follow the route's stop table are counted in
// Skipped.
type Line struct {
	Route     *domain.Route
	Schedules []domain.Schedule
	Skipped   int
}

type visit struct {
	stopID    string
	arrival   string
	departure string
}

// Lines groups trips by route and direction. The trip with the most stops
// defines the stop table and distances come from stop coordinates.
func (f *Feed) Lines() ([]Line, error) {
	groups := make(map[string][]gtfsTrip)
	var keys []string
	for _, t := range f.trips {
		dir := strings.TrimSpace(t.DirectionID)
		if dir == "" {
			dir = "0"
		}
		key := strings.TrimSpace(t.RouteID) + "-" + dir
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], t)
	}
	sort.Strings(keys)

	lines := make([]Line, 0, len(keys))
	for _, key := range keys {
		line, err := f.line(key, groups[key])
		if err != nil {
			return nil, err
		}
		if line != nil {
			lines = append(lines, *line)
		}
	}
	return lines, nil
}

func (f *Feed) line(key string, trips []gtfsTrip) (*Line, error) {
	visits := make(map[string][]visit, len(trips))
	var spine gtfsTrip
	for _, t := range trips {
		v, err := f.visits(t.ID)
		if err != nil {
			return nil, err
		}
		visits[t.ID] = v
		if len(v) > len(visits[spine.ID]) {
			spine = t
		}
	}
	if len(visits[spine.ID]) == 0 {
		return nil, nil
	}

	route, err := f.route(key, spine, visits[spine.ID])
	if err != nil {
		return nil, err
	}
	line := &Line{Route: route}
	for _, t := range trips {
		s, ok := schedule(route, t, visits[t.ID])
		if !ok {
			line.Skipped++
			continue
		}
		line.Schedules = append(line.Schedules, s)
	}
	return line, nil
}

func (f *Feed) visits(tripID string) ([]visit, error) {
	type seqTime struct {
		seq int
		st  gtfsStopTime
	}
	rows := f.stopTimes[tripID]
	ordered := make([]seqTime, 0, len(rows))
	for _, st := range rows {
		seq, err := strconv.Atoi(strings.TrimSpace(st.Sequence))
		if err != nil {
			return nil, fmt.Errorf("trip %s: stop_sequence %q: %w", tripID, st.Sequence, err)
		}
		ordered = append(ordered, seqTime{seq: seq, st: st})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	out := make([]visit, len(ordered))
	for i, o := range ordered {
		out[i] = visit{
			stopID:    strings.TrimSpace(o.st.StopID),
			arrival:   normalizeTime(o.st.Arrival),
			departure: normalizeTime(o.st.Departure),
		}
	}
	return out, nil
}

func (f *Feed) route(key string, spine gtfsTrip, stops []visit) (*domain.Route, error) {
	gr := f.routes[strings.TrimSpace(spine.RouteID)]
	name := firstNonEmpty(gr.LongName, gr.ShortName, gr.ID, spine.RouteID)
	if h := strings.TrimSpace(spine.Headsign); h != "" {
		name += " to " + h
	}

	route := &domain.Route{ID: key, Code: strings.TrimSpace(gr.ShortName), Name: name}
	path := make([]geospatial.Point, len(stops))
	for i, v := range stops {
		gs, ok := f.stops[v.stopID]
		if !ok {
			return nil, fmt.Errorf("route %s: stop %s missing from stops.txt", key, v.stopID)
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(gs.Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(gs.Lon), 64)
		if errLat != nil || errLon != nil {
			return nil, fmt.Errorf("route %s: stop %s has no usable coordinates", key, v.stopID)
		}
		path[i] = geospatial.Point{Lat: lat, Lon: lon}
		route.Stops = append(route.Stops, domain.RouteStop{
			StopID:    v.stopID,
			Name:      strings.TrimSpace(gs.Name),
			StopOrder: i,
			Location:  &domain.GeoPoint{Lat: lat, Lon: lon},
		})
	}
	for i, km := range geospatial.CumulativeKm(path) {
		route.Stops[i].DistanceFromStartKm = km
	}
	return route, nil
}

// schedule maps a trip onto the route stop table. Every visit must match a
// later route stop than the previous one; express trips skip stops.
func schedule(route *domain.Route, t gtfsTrip, visits []visit) (domain.Schedule, bool) {
	s := domain.Schedule{
		ID:      strings.TrimSpace(t.ID),
		RouteID: route.ID,
		Status:  domain.ScheduleActive,
	}
	next := 0
	for _, v := range visits {
		found := -1
		for i := next; i < len(route.Stops); i++ {
			if route.Stops[i].StopID == v.stopID {
				found = i
				break
			}
		}
		if found < 0 {
			return domain.Schedule{}, false
		}
		s.Stops = append(s.Stops, domain.ScheduleStop{
			StopID:        v.stopID,
			StopOrder:     route.Stops[found].StopOrder,
			ArrivalTime:   v.arrival,
			DepartureTime: v.departure,
		})
		next = found + 1
	}
	if len(s.Stops) == 0 {
		return domain.Schedule{}, false
	}

	first := s.Stops[0].DepartureTime
	if first == "" {
		first = s.Stops[0].ArrivalTime
	}
	if len(first) >= 5 {
		first = first[:5]
	}
	s.Name = strings.TrimSpace(first + " " + strings.TrimSpace(t.Headsign))
	return s, true
}

// normalizeTime rewrites a GTFS time (hours may exceed 23 and may have one
// digit) as HH:MM:SS within the day. Values that do not split into three
// numbers are returned unchanged.
func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return s
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return s
		}
		n[i] = v
	}
	return fmt.Sprintf("%02d:%02d:%02d", n[0]%24, n[1], n[2])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package main

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/pkg/geospatial"
)

// Fixture is a YAML file of routes with their schedules.
type Fixture struct {
	Routes []FixtureRoute `yaml:"routes" validate:"required,min=1,dive"`
}

type FixtureRoute struct {
	ID        string            `yaml:"id" validate:"required"`
	Code      string            `yaml:"code"`
	Name      string            `yaml:"name" validate:"required"`
	Stops     []FixtureStop     `yaml:"stops" validate:"required,min=1,dive"`
	Schedules []FixtureSchedule `yaml:"schedules" validate:"dive"`
}

// FixtureStop carries either an explicit distance or a coordinate. When any
// stop of a route lacks a distance, distances are derived from coordinates.
type FixtureStop struct {
	ID         string           `yaml:"id"`
	Name       string           `yaml:"name" validate:"required"`
	DistanceKm *float64         `yaml:"distance_km" validate:"omitempty,gte=0"`
	Location   *domain.GeoPoint `yaml:"location"`
}

type FixtureSchedule struct {
	ID     string        `yaml:"id" validate:"required"`
	Name   string        `yaml:"name"`
	Status string        `yaml:"status" validate:"omitempty,oneof=ACTIVE INACTIVE DRAFT active inactive draft"`
	Times  []FixtureTime `yaml:"times" validate:"required,min=1,dive"`
}

// FixtureTime is one stop visit. Stop refers to a route stop by ID; visits
// without a stop follow route order.
type FixtureTime struct {
	Stop      string `yaml:"stop"`
	Arrival   string `yaml:"arrival"`
	Departure string `yaml:"departure" validate:"required_without=Arrival"`
}

// LoadFixture decodes and validates a fixture.
func LoadFixture(r io.Reader, v *validator.Validate) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := v.Struct(&f); err != nil {
		return nil, fmt.Errorf("validate fixture: %w", err)
	}
	return &f, nil
}

// Route converts the fixture route to its domain form.
func (fr FixtureRoute) Route() (*domain.Route, error) {
	distances, err := fr.distances()
	if err != nil {
		return nil, err
	}

	route := &domain.Route{ID: fr.ID, Code: fr.Code, Name: fr.Name}
	for i, st := range fr.Stops {
		route.Stops = append(route.Stops, domain.RouteStop{
			StopID:              st.ID,
			Name:                st.Name,
			StopOrder:           i,
			DistanceFromStartKm: distances[i],
			Location:            st.Location,
		})
	}
	return route, nil
}

func (fr FixtureRoute) distances() ([]float64, error) {
	out := make([]float64, len(fr.Stops))
	explicit := true
	for i, st := range fr.Stops {
		if st.DistanceKm == nil {
			explicit = false
			break
		}
		out[i] = *st.DistanceKm
	}
	if explicit {
		return out, nil
	}

	path := make([]geospatial.Point, len(fr.Stops))
	for i, st := range fr.Stops {
		if st.Location == nil {
			return nil, fmt.Errorf("route %s: stop %q has neither distance_km nor location", fr.ID, st.Name)
		}
		path[i] = geospatial.Point{Lat: st.Location.Lat, Lon: st.Location.Lon}
	}
	return geospatial.CumulativeKm(path), nil
}

// DomainSchedules converts the fixture schedules of a route to their domain form.
func (fr FixtureRoute) DomainSchedules() ([]domain.Schedule, error) {
	order := make(map[string]int, len(fr.Stops))
	for i, st := range fr.Stops {
		if st.ID != "" {
			order[st.ID] = i
		}
	}

	out := make([]domain.Schedule, 0, len(fr.Schedules))
	for _, fs := range fr.Schedules {
		s := domain.Schedule{ID: fs.ID, Name: fs.Name, RouteID: fr.ID}
		if fs.Status != "" {
			st, err := domain.ParseScheduleStatus(fs.Status)
			if err != nil {
				return nil, fmt.Errorf("schedule %s: %w", fs.ID, err)
			}
			s.Status = st
		}
		for i, ft := range fs.Times {
			stopOrder := i
			if ft.Stop != "" {
				o, ok := order[ft.Stop]
				if !ok {
					return nil, fmt.Errorf("schedule %s: unknown stop %q", fs.ID, ft.Stop)
				}
				stopOrder = o
			}
			s.Stops = append(s.Stops, domain.ScheduleStop{
				StopID:        ft.Stop,
				StopOrder:     stopOrder,
				ArrivalTime:   ft.Arrival,
				DepartureTime: ft.Departure,
			})
		}
		out = append(out, s)
	}
	return out, nil
}

package domain

import "time"

// Route is an ordered sequence of stops with cumulative distances from the origin.
type Route struct {
	ID        string      `json:"id" validate:"required"`
	Code      string      `json:"code,omitempty"`
	Name      string      `json:"name"`
	Version   int64       `json:"version"`
	Stops     []RouteStop `json:"stops" validate:"required,min=1,dive"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RouteStop is a physical stop on a route.
type RouteStop struct {
	StopID              string    `json:"stop_id,omitempty"`
	Name                string    `json:"name"`
	DistanceFromStartKm float64   `json:"distance_from_start_km" validate:"gte=0"`
	StopOrder           int       `json:"stop_order" validate:"gte=0"`
	Location            *GeoPoint `json:"location,omitempty"`
}

// LengthKm returns the distance of the last stop, or 0 for a route without stops.
func (r *Route) LengthKm() float64 {
	if len(r.Stops) == 0 {
		return 0
	}
	return r.Stops[len(r.Stops)-1].DistanceFromStartKm
}

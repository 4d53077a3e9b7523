package domain

// Trajectory is one schedule's journey along a route as time/distance points.
// Offsets are minutes relative to the first point; OriginMinutes is the clock
// time of that first point in minutes since midnight.
type Trajectory struct {
	ScheduleID    string            `json:"schedule_id"`
	ScheduleName  string            `json:"schedule_name"`
	OriginMinutes float64           `json:"origin_minutes"`
	Points        []TrajectoryPoint `json:"points"`
}

// TrajectoryPoint is a single plotted stop visit.
type TrajectoryPoint struct {
	TimeOffsetMinutes float64 `json:"time_offset_minutes"`
	DistanceKm        float64 `json:"distance_km"`
	StopLabel         string  `json:"stop_label"`
	DayOffset         int     `json:"day_offset"` // service days crossed since the first point
}

// DurationMinutes is the elapsed time between the first and last point.
func (t *Trajectory) DurationMinutes() float64 {
	if len(t.Points) == 0 {
		return 0
	}
	return t.Points[len(t.Points)-1].TimeOffsetMinutes
}

// ScheduleFailure records why a schedule was left out of a projection.
type ScheduleFailure struct {
	ScheduleID   string    `json:"schedule_id"`
	ScheduleName string    `json:"schedule_name"`
	Kind         ErrorKind `json:"kind"`
	Message      string    `json:"message"`
}

// Projection is the outcome of projecting every schedule of a route.
// Trajectories keep the order in which schedules were supplied.
type Projection struct {
	RouteID      string            `json:"route_id"`
	Trajectories []Trajectory      `json:"trajectories"`
	Failures     []ScheduleFailure `json:"failures,omitempty"`
}

// ByScheduleID indexes the trajectories by schedule id.
func (p *Projection) ByScheduleID() map[string]Trajectory {
	m := make(map[string]Trajectory, len(p.Trajectories))
	for _, t := range p.Trajectories {
		m[t.ScheduleID] = t
	}
	return m
}

// Package timespace turns route stop tables and schedule stop times into
// time-space diagram trajectories and chart descriptors. Everything here is
// pure: inputs are never modified and every call allocates its own output.
package timespace

import (
	"fmt"
	"strings"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/pkg/clock"
)

// stopIndex joins schedule stops to route stops by stop order.
type stopIndex struct {
	routeID string
	stops   map[int]domain.RouteStop
}

// ValidateRoute checks that stops are non-empty, strictly increasing by order,
// and that distances are non-negative and never decrease. Equal consecutive
// distances are accepted, for co-located stops such as two platforms of one
// interchange; only a decrease is a RouteIntegrityError.
func ValidateRoute(route *domain.Route) error {
	if route == nil {
		return &domain.RouteIntegrityError{Reason: "route is nil"}
	}
	if len(route.Stops) == 0 {
		return &domain.RouteIntegrityError{RouteID: route.ID, Reason: "route has no stops"}
	}
	for i, st := range route.Stops {
		if st.DistanceFromStartKm < 0 {
			return &domain.RouteIntegrityError{
				RouteID: route.ID,
				Reason:  fmt.Sprintf("stop order %d has negative distance %.3f km", st.StopOrder, st.DistanceFromStartKm),
			}
		}
		if i == 0 {
			continue
		}
		prev := route.Stops[i-1]
		if st.StopOrder <= prev.StopOrder {
			return &domain.RouteIntegrityError{
				RouteID: route.ID,
				Reason:  fmt.Sprintf("stop order %d follows %d (orders must be unique and increasing)", st.StopOrder, prev.StopOrder),
			}
		}
		if st.DistanceFromStartKm < prev.DistanceFromStartKm {
			return &domain.RouteIntegrityError{
				RouteID: route.ID,
				Reason: fmt.Sprintf("distance decreases from %.3f km (order %d) to %.3f km (order %d)",
					prev.DistanceFromStartKm, prev.StopOrder, st.DistanceFromStartKm, st.StopOrder),
			}
		}
	}
	return nil
}

func indexRoute(route *domain.Route) stopIndex {
	idx := stopIndex{routeID: route.ID, stops: make(map[int]domain.RouteStop, len(route.Stops))}
	for _, st := range route.Stops {
		idx.stops[st.StopOrder] = st
	}
	return idx
}

// ProjectSchedule converts one schedule into a trajectory along route.
// The route is validated first; callers projecting many schedules should use
// ProjectAll, which validates and indexes the route once.
func ProjectSchedule(route *domain.Route, schedule *domain.Schedule) (domain.Trajectory, error) {
	if err := ValidateRoute(route); err != nil {
		return domain.Trajectory{}, err
	}
	return projectSchedule(indexRoute(route), schedule)
}

func projectSchedule(idx stopIndex, schedule *domain.Schedule) (domain.Trajectory, error) {
	if schedule == nil {
		return domain.Trajectory{}, &domain.ScheduleIntegrityError{Reason: "schedule is nil"}
	}
	stops := schedule.Stops
	if len(stops) == 0 {
		return domain.Trajectory{}, &domain.ScheduleIntegrityError{ScheduleID: schedule.ID, Reason: "schedule has no stops"}
	}

	if schedule.RouteID != "" && idx.routeID != "" && schedule.RouteID != idx.routeID {
		return domain.Trajectory{}, &domain.ScheduleIntegrityError{
			ScheduleID: schedule.ID,
			Reason:     fmt.Sprintf("belongs to route %s, not %s", schedule.RouteID, idx.routeID),
		}
	}
	if err := checkOrders(schedule); err != nil {
		return domain.Trajectory{}, err
	}

	points := make([]domain.TrajectoryPoint, len(stops))
	var (
		origin    float64
		prevRaw   float64
		dayOffset int
	)
	for i, ss := range stops {
		rs, err := matchStop(idx, ss)
		if err != nil {
			return domain.Trajectory{}, err
		}

		raw, err := spineMinutes(ss, i, len(stops))
		if err != nil {
			return domain.Trajectory{}, err
		}

		if i == 0 {
			origin = raw
		} else if raw < prevRaw {
			dayOffset++
		}
		prevRaw = raw

		points[i] = domain.TrajectoryPoint{
			TimeOffsetMinutes: raw + float64(dayOffset*clock.MinutesPerDay) - origin,
			DistanceKm:        rs.DistanceFromStartKm,
			StopLabel:         stopLabel(rs, ss),
			DayOffset:         dayOffset,
		}
	}

	return domain.Trajectory{
		ScheduleID:    schedule.ID,
		ScheduleName:  schedule.DisplayName(),
		OriginMinutes: origin,
		Points:        points,
	}, nil
}

// checkOrders rejects duplicate or decreasing stop orders.
func checkOrders(schedule *domain.Schedule) error {
	seen := make(map[int]struct{}, len(schedule.Stops))
	for i, ss := range schedule.Stops {
		if _, dup := seen[ss.StopOrder]; dup {
			return &domain.ScheduleIntegrityError{
				ScheduleID: schedule.ID,
				Reason:     fmt.Sprintf("duplicate stop order %d", ss.StopOrder),
			}
		}
		seen[ss.StopOrder] = struct{}{}
		if i > 0 && ss.StopOrder < schedule.Stops[i-1].StopOrder {
			return &domain.ScheduleIntegrityError{
				ScheduleID: schedule.ID,
				Reason:     fmt.Sprintf("stop order %d listed after %d", ss.StopOrder, schedule.Stops[i-1].StopOrder),
			}
		}
	}
	return nil
}

// matchStop resolves the route stop for ss. Identifiers are compared when both
// sides carry one; otherwise names are compared when both sides carry one.
func matchStop(idx stopIndex, ss domain.ScheduleStop) (domain.RouteStop, error) {
	rs, ok := idx.stops[ss.StopOrder]
	if !ok {
		return domain.RouteStop{}, &domain.StopMismatchError{StopOrder: ss.StopOrder, Got: ss.StopID}
	}
	switch {
	case ss.StopID != "" && rs.StopID != "":
		if ss.StopID != rs.StopID {
			return domain.RouteStop{}, &domain.StopMismatchError{StopOrder: ss.StopOrder, Expected: rs.StopID, Got: ss.StopID}
		}
	case ss.StopName != "" && rs.Name != "":
		if !strings.EqualFold(strings.TrimSpace(ss.StopName), strings.TrimSpace(rs.Name)) {
			return domain.RouteStop{}, &domain.StopMismatchError{StopOrder: ss.StopOrder, Expected: rs.Name, Got: ss.StopName}
		}
	}
	return rs, nil
}

// spineMinutes picks the time that represents stop i: departure for the first
// and intermediate stops, arrival for the last. An empty choice falls back to
// the other field of the same stop.
func spineMinutes(ss domain.ScheduleStop, i, n int) (float64, error) {
	primary, fallback := ss.DepartureTime, ss.ArrivalTime
	if i == n-1 && n > 1 {
		primary, fallback = ss.ArrivalTime, ss.DepartureTime
	}
	value := primary
	if value == "" {
		value = fallback
	}
	if value == "" {
		return 0, &domain.TimeParseError{StopOrder: ss.StopOrder, Reason: "no arrival or departure time"}
	}
	m, err := clock.ParseMinutes(value)
	if err != nil {
		return 0, &domain.TimeParseError{Value: value, StopOrder: ss.StopOrder, Reason: err.Error()}
	}
	return m, nil
}

func stopLabel(rs domain.RouteStop, ss domain.ScheduleStop) string {
	switch {
	case rs.Name != "":
		return rs.Name
	case ss.StopName != "":
		return ss.StopName
	case rs.StopID != "":
		return rs.StopID
	default:
		return fmt.Sprintf("#%d", rs.StopOrder)
	}
}

// ProjectAll projects every schedule independently. A RouteIntegrityError
// aborts the call; any other failure is recorded against its schedule, which
// is left out of the result.
func ProjectAll(route *domain.Route, schedules []domain.Schedule) (*domain.Projection, error) {
	if err := ValidateRoute(route); err != nil {
		return nil, err
	}
	idx := indexRoute(route)

	out := &domain.Projection{
		RouteID:      route.ID,
		Trajectories: make([]domain.Trajectory, 0, len(schedules)),
	}
	seen := make(map[string]struct{}, len(schedules))
	for i := range schedules {
		s := &schedules[i]

		var (
			traj domain.Trajectory
			err  error
		)
		if _, dup := seen[s.ID]; dup {
			err = &domain.ScheduleIntegrityError{ScheduleID: s.ID, Reason: "schedule listed more than once"}
		} else {
			seen[s.ID] = struct{}{}
			traj, err = projectSchedule(idx, s)
		}
		if err != nil {
			out.Failures = append(out.Failures, domain.ScheduleFailure{
				ScheduleID:   s.ID,
				ScheduleName: s.DisplayName(),
				Kind:         domain.KindOf(err),
				Message:      err.Error(),
			})
			continue
		}
		out.Trajectories = append(out.Trajectories, traj)
	}
	return out, nil
}

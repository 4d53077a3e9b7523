package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrorKind classifies projection errors for reporting and metrics.
type ErrorKind string

const (
	KindTimeParse         ErrorKind = "time_parse"
	KindStopMismatch      ErrorKind = "stop_mismatch"
	KindScheduleIntegrity ErrorKind = "schedule_integrity"
	KindRouteIntegrity    ErrorKind = "route_integrity"
	KindUnknown           ErrorKind = "unknown"
)

// TimeParseError is a malformed or missing clock string on one schedule
// stop. Value is empty when the stop has no time at all.
type TimeParseError struct {
	Value     string
	StopOrder int
	Reason    string
}

func (e *TimeParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("stop %d: %s", e.StopOrder, e.Reason)
	}
	return fmt.Sprintf("stop %d: invalid time %q: %s", e.StopOrder, e.Value, e.Reason)
}

// StopMismatchError is a schedule stop that cannot be joined to the route.
type StopMismatchError struct {
	StopOrder int
	Expected  string
	Got       string
}

func (e *StopMismatchError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("stop order %d does not exist on route", e.StopOrder)
	}
	return fmt.Sprintf("stop order %d: route has %q, schedule references %q", e.StopOrder, e.Expected, e.Got)
}

// ScheduleIntegrityError is a schedule that is inconsistent with itself.
type ScheduleIntegrityError struct {
	ScheduleID string
	Reason     string
}

func (e *ScheduleIntegrityError) Error() string {
	return fmt.Sprintf("schedule %s: %s", e.ScheduleID, e.Reason)
}

// RouteIntegrityError invalidates every schedule on the route.
type RouteIntegrityError struct {
	RouteID string
	Reason  string
}

func (e *RouteIntegrityError) Error() string {
	return fmt.Sprintf("route %s: %s", e.RouteID, e.Reason)
}

// KindOf maps an error to its ErrorKind.
func KindOf(err error) ErrorKind {
	var (
		tp *TimeParseError
		sm *StopMismatchError
		si *ScheduleIntegrityError
		ri *RouteIntegrityError
	)
	switch {
	case errors.As(err, &tp):
		return KindTimeParse
	case errors.As(err, &sm):
		return KindStopMismatch
	case errors.As(err, &si):
		return KindScheduleIntegrity
	case errors.As(err, &ri):
		return KindRouteIntegrity
	default:
		return KindUnknown
	}
}

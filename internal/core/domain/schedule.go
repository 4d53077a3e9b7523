package domain

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleStatus is the lifecycle state of a schedule.
type ScheduleStatus string

const (
	ScheduleActive   ScheduleStatus = "ACTIVE"
	ScheduleInactive ScheduleStatus = "INACTIVE"
	ScheduleDraft    ScheduleStatus = "DRAFT"
)

// ParseScheduleStatus accepts any casing of a known status.
func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	switch st := ScheduleStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case ScheduleActive, ScheduleInactive, ScheduleDraft:
		return st, nil
	default:
		return "", fmt.Errorf("unknown schedule status %q", s)
	}
}

// PlottedByDefault reports whether schedules in this state appear on a diagram
// without the caller asking for drafts.
func (s ScheduleStatus) PlottedByDefault() bool {
	return s == ScheduleActive || s == ScheduleInactive
}

// Schedule is one service pattern on a route, with clock times per stop.
type Schedule struct {
	ID        string         `json:"id" validate:"required"`
	Name      string         `json:"name"`
	RouteID   string         `json:"route_id"`
	Status    ScheduleStatus `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE DRAFT"`
	Version   int64          `json:"version"`
	Stops     []ScheduleStop `json:"stops" validate:"required,min=1,dive"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ScheduleStop is a scheduled visit to a route stop. Times are HH:MM:SS local to the service day.
type ScheduleStop struct {
	StopID        string `json:"stop_id,omitempty"`
	StopName      string `json:"stop_name,omitempty"`
	StopOrder     int    `json:"stop_order" validate:"gte=0"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
}

// DisplayName falls back to the ID for unnamed schedules.
func (s *Schedule) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/core/ports"
)

// ScheduleService handles schedule reads and writes.
type ScheduleService struct {
	schedules ports.ScheduleRepository
	publisher ports.EventPublisher
}

// NewScheduleService creates a new ScheduleService. publisher may be nil.
func NewScheduleService(schedules ports.ScheduleRepository, publisher ports.EventPublisher) *ScheduleService {
	return &ScheduleService{schedules: schedules, publisher: publisher}
}

// ListByRoute returns every schedule of a route, optionally filtered by status.
func (s *ScheduleService) ListByRoute(ctx context.Context, routeID string, status domain.ScheduleStatus) ([]domain.Schedule, error) {
	all, err := s.schedules.ListByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	out := make([]domain.Schedule, 0, len(all))
	for _, sc := range all {
		if sc.Status == status {
			out = append(out, sc)
		}
	}
	return out, nil
}

// GetByID returns a single schedule.
func (s *ScheduleService) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	return s.schedules.GetByID(ctx, id)
}

// UpsertBatch stores schedules and announces one change per schedule so that
// listeners can refresh the affected diagrams.
func (s *ScheduleService) UpsertBatch(ctx context.Context, schedules []domain.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	if err := s.schedules.UpsertBatch(ctx, schedules); err != nil {
		return fmt.Errorf("upsert schedules: %w", err)
	}
	if s.publisher == nil {
		return nil
	}
	for _, sc := range schedules {
		change := &domain.ScheduleChange{
			EventID:    uuid.NewString(),
			RouteID:    sc.RouteID,
			ScheduleID: sc.ID,
			Version:    sc.Version,
		}
		// Best-effort; the rows are already written.
		if err := s.publisher.PublishScheduleChanged(ctx, change); err != nil {
			slog.Warn("publish schedule change", "schedule_id", sc.ID, "error", err)
		}
	}
	return nil
}

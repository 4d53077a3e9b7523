package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/routeboard/internal/core/domain"
)

// ScheduleRepo implements ports.ScheduleRepository.
type ScheduleRepo struct {
	db *DB
}

func NewScheduleRepo(db *DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

func (r *ScheduleRepo) Upsert(ctx context.Context, s *domain.Schedule) error {
	return r.UpsertBatch(ctx, []domain.Schedule{*s})
}

// UpsertBatch writes every schedule and replaces its stop times in a single
// transaction.
func (r *ScheduleRepo) UpsertBatch(ctx context.Context, schedules []domain.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range schedules {
			status := s.Status
			if status == "" {
				status = domain.ScheduleActive
			}
			batch.Queue(`
				INSERT INTO schedules (id, route_id, name, status, version, updated_at)
				VALUES ($1, $2, $3, $4, GREATEST($5, 1), now())
				ON CONFLICT (id) DO UPDATE
				SET route_id = EXCLUDED.route_id, name = EXCLUDED.name, status = EXCLUDED.status,
				    version = schedules.version + 1, updated_at = now()
			`, s.ID, s.RouteID, s.Name, string(status), s.Version)
			batch.Queue(`DELETE FROM schedule_stops WHERE schedule_id = $1`, s.ID)
			for i, st := range s.Stops {
				batch.Queue(`
					INSERT INTO schedule_stops (schedule_id, position, stop_order, stop_id, stop_name, arrival_time, departure_time)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
				`, s.ID, i, st.StopOrder, st.StopID, st.StopName, st.ArrivalTime, st.DepartureTime)
			}
		}
		if err := execBatch(ctx, tx, batch); err != nil {
			return fmt.Errorf("upsert schedules: %w", err)
		}
		return nil
	})
}

func (r *ScheduleRepo) GetByID(ctx context.Context, id string) (*domain.Schedule, error) {
	var (
		s      domain.Schedule
		status string
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, route_id, name, status, version, updated_at FROM schedules WHERE id = $1
	`, id).Scan(&s.ID, &s.RouteID, &s.Name, &status, &s.Version, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	s.Status = domain.ScheduleStatus(status)

	stops, err := r.stopTimes(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	s.Stops = stops[id]
	return &s, nil
}

// ListByRoute returns the route's schedules ordered by name then id.
func (r *ScheduleRepo) ListByRoute(ctx context.Context, routeID string) ([]domain.Schedule, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, route_id, name, status, version, updated_at
		FROM schedules WHERE route_id = $1 ORDER BY name, id
	`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		schedules []domain.Schedule
		ids       []string
	)
	for rows.Next() {
		var (
			s      domain.Schedule
			status string
		)
		if err := rows.Scan(&s.ID, &s.RouteID, &s.Name, &status, &s.Version, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Status = domain.ScheduleStatus(status)
		schedules = append(schedules, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return schedules, nil
	}

	stops, err := r.stopTimes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		schedules[i].Stops = stops[schedules[i].ID]
	}
	return schedules, nil
}

func (r *ScheduleRepo) stopTimes(ctx context.Context, scheduleIDs []string) (map[string][]domain.ScheduleStop, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT schedule_id, stop_order, stop_id, stop_name, arrival_time, departure_time
		FROM schedule_stops WHERE schedule_id = ANY($1)
		ORDER BY schedule_id, position
	`, scheduleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.ScheduleStop, len(scheduleIDs))
	for rows.Next() {
		var (
			id string
			st domain.ScheduleStop
		)
		if err := rows.Scan(&id, &st.StopOrder, &st.StopID, &st.StopName, &st.ArrivalTime, &st.DepartureTime); err != nil {
			return nil, err
		}
		out[id] = append(out[id], st)
	}
	return out, rows.Err()
}

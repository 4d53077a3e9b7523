package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/routeboard/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository.
type RouteRepo struct {
	db *DB
}

func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

// Upsert writes the route row and replaces its stop table.
func (r *RouteRepo) Upsert(ctx context.Context, route *domain.Route) error {
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO routes (id, code, name, version, updated_at)
			VALUES ($1, $2, $3, GREATEST($4, 1), now())
			ON CONFLICT (id) DO UPDATE
			SET code = EXCLUDED.code, name = EXCLUDED.name,
			    version = routes.version + 1, updated_at = now()
		`, route.ID, route.Code, route.Name, route.Version)
		if err != nil {
			return fmt.Errorf("upsert route: %w", err)
		}

		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM route_stops WHERE route_id = $1`, route.ID)
		for i, st := range route.Stops {
			var lat, lon *float64
			if st.Location != nil {
				lat, lon = &st.Location.Lat, &st.Location.Lon
			}
			batch.Queue(`
				INSERT INTO route_stops (route_id, position, stop_order, stop_id, name, distance_km, lat, lon)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, route.ID, i, st.StopOrder, st.StopID, st.Name, st.DistanceFromStartKm, lat, lon)
		}
		return execBatch(ctx, tx, batch)
	})
}

func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	var rt domain.Route
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, code, name, version, updated_at FROM routes WHERE id = $1
	`, id).Scan(&rt.ID, &rt.Code, &rt.Name, &rt.Version, &rt.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	stops, err := r.stops(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	rt.Stops = stops[id]
	return &rt, nil
}

func (r *RouteRepo) List(ctx context.Context, limit, offset int) ([]domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, code, name, version, updated_at
		FROM routes ORDER BY code, name, id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		routes []domain.Route
		ids    []string
	)
	for rows.Next() {
		var rt domain.Route
		if err := rows.Scan(&rt.ID, &rt.Code, &rt.Name, &rt.Version, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		routes = append(routes, rt)
		ids = append(ids, rt.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return routes, nil
	}

	stops, err := r.stops(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range routes {
		routes[i].Stops = stops[routes[i].ID]
	}
	return routes, nil
}

func (r *RouteRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM routes`).Scan(&n)
	return n, err
}

// stops loads the stop tables of several routes in stored order.
func (r *RouteRepo) stops(ctx context.Context, routeIDs []string) (map[string][]domain.RouteStop, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT route_id, stop_order, stop_id, name, distance_km, lat, lon
		FROM route_stops WHERE route_id = ANY($1)
		ORDER BY route_id, position
	`, routeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.RouteStop, len(routeIDs))
	for rows.Next() {
		var (
			routeID  string
			st       domain.RouteStop
			lat, lon *float64
		)
		if err := rows.Scan(&routeID, &st.StopOrder, &st.StopID, &st.Name, &st.DistanceFromStartKm, &lat, &lon); err != nil {
			return nil, err
		}
		if lat != nil && lon != nil {
			st.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
		}
		out[routeID] = append(out[routeID], st)
	}
	return out, rows.Err()
}

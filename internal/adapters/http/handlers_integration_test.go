//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/routeboard/internal/adapters/http"
	"github.com/samirrijal/routeboard/internal/adapters/postgres"
	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/core/usecases"
	"github.com/samirrijal/routeboard/internal/pkg/config"
)

// setupTestDB connects to the test database. The schema is expected to be
// migrated already (cmd/migrate up).
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("routeboard-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// setupTestDeps creates dependencies with real repos, no cache or NATS.
func setupTestDeps(db *postgres.DB) *http.Dependencies {
	routes := postgres.NewRouteRepo(db)
	schedules := postgres.NewScheduleRepo(db)
	return &http.Dependencies{
		Routes:    usecases.NewRouteService(routes),
		Schedules: usecases.NewScheduleService(schedules, nil),
		Diagrams:  usecases.NewDiagramService(routes, schedules, nil, nil, usecases.DiagramOptions{}, nil),
		DB:        db,
	}
}

// seedRoute stores the coastal fixture under a unique ID with two schedules.
func seedRoute(t *testing.T, deps *http.Dependencies) string {
	t.Helper()
	ctx := context.Background()

	route := coastalRoute()
	route.ID = fmt.Sprintf("it-%d", time.Now().UnixNano())
	if err := deps.Routes.Upsert(ctx, route); err != nil {
		t.Fatalf("seed route: %v", err)
	}

	schedules := []domain.Schedule{
		schedule("morning", domain.ScheduleActive, "06:00:00", "06:20:00", "06:40:00"),
		schedule("night", domain.ScheduleActive, "23:50:00", "00:10:00", "00:30:00"),
	}
	for i := range schedules {
		schedules[i].ID = route.ID + "-" + schedules[i].ID
		schedules[i].RouteID = route.ID
	}
	if err := deps.Schedules.UpsertBatch(ctx, schedules); err != nil {
		t.Fatalf("seed schedules: %v", err)
	}
	return route.ID
}

func TestGetRoute_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	deps := setupTestDeps(setupTestDB(t))
	routeID := seedRoute(t, deps)

	resp, err := setupApp(deps).Test(httptest.NewRequest("GET", "/v1/routes/"+routeID, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.Route
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		t.Fatal(err)
	}
	if len(route.Stops) != 3 || route.Stops[2].Name != "Airport" {
		t.Errorf("stop table not round-tripped: %+v", route.Stops)
	}
}

func TestTimeSpace_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	deps := setupTestDeps(setupTestDB(t))
	routeID := seedRoute(t, deps)

	resp, err := setupApp(deps).Test(httptest.NewRequest("GET", "/v1/routes/"+routeID+"/time-space", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var chart domain.Chart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		t.Fatal(err)
	}
	if len(chart.Series) != 2 || chart.Summary.Failed != 0 {
		t.Fatalf("unexpected chart: %+v", chart.Summary)
	}
	for _, s := range chart.Series {
		if strings.HasSuffix(s.ID, "-night") && s.Points[2].X != 40 {
			t.Errorf("overnight schedule must end at x=40, got %v", s.Points[2].X)
		}
	}
}

func TestRouteSchedules_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	deps := setupTestDeps(setupTestDB(t))
	routeID := seedRoute(t, deps)

	resp, err := setupApp(deps).Test(httptest.NewRequest("GET", "/v1/routes/"+routeID+"/schedules?status=active", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	var schedules []domain.Schedule
	if err := json.NewDecoder(resp.Body).Decode(&schedules); err != nil {
		t.Fatal(err)
	}
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}
	if got := schedules[1].Stops[1].DepartureTime; got != "00:10:00" {
		t.Errorf("times must be stored verbatim, got %q", got)
	}
}

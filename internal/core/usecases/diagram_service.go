package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/core/ports"
	"github.com/samirrijal/routeboard/internal/core/timespace"
	"github.com/samirrijal/routeboard/internal/pkg/metrics"
	"github.com/samirrijal/routeboard/internal/pkg/telemetry"
)

// DiagramOptions are service-wide rendering defaults.
type DiagramOptions struct {
	Palette       []string
	IncludeDrafts bool
	CacheTTL      time.Duration
}

// DiagramRequest asks for the diagram of one stored route.
type DiagramRequest struct {
	RouteID           string
	CurrentScheduleID string
	IncludeDrafts     bool
	Loading           bool
}

// PreviewRequest carries an unsaved route and schedules to draw.
type PreviewRequest struct {
	Route             domain.Route      `json:"route" validate:"required"`
	Schedules         []domain.Schedule `json:"schedules" validate:"max=500"`
	CurrentScheduleID string            `json:"current_schedule_id"`
}

// DiagramService builds time-space diagrams for stored and previewed routes.
type DiagramService struct {
	routes    ports.RouteRepository
	schedules ports.ScheduleRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	opts      DiagramOptions
	logger    *slog.Logger
}

// NewDiagramService creates a DiagramService. cache and publisher may be nil.
func NewDiagramService(
	routes ports.RouteRepository,
	schedules ports.ScheduleRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	opts DiagramOptions,
	logger *slog.Logger,
) *DiagramService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiagramService{
		routes:    routes,
		schedules: schedules,
		cache:     cache,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
	}
}

// Chart loads a route and its plottable schedules and renders the diagram.
// A RouteIntegrityError is returned as is; per-schedule failures end up in
// the chart summary.
func (s *DiagramService) Chart(ctx context.Context, req DiagramRequest) (*domain.Chart, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "DiagramService.Chart")
	defer span.End()
	span.SetAttributes(attribute.String("route.id", req.RouteID))

	route, err := s.routes.GetByID(ctx, req.RouteID)
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", req.RouteID, err)
	}

	chartOpts := timespace.ChartOptions{
		CurrentScheduleID: req.CurrentScheduleID,
		Loading:           req.Loading,
		Palette:           s.opts.Palette,
	}
	if req.Loading {
		chart := timespace.BuildChart(route, nil, chartOpts)
		return &chart, nil
	}

	schedules, err := s.plottable(ctx, route.ID, req.IncludeDrafts || s.opts.IncludeDrafts)
	if err != nil {
		return nil, err
	}

	proj, fp, cached, err := s.project(ctx, route, schedules, "api")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	chart := timespace.BuildChart(route, proj, chartOpts)
	metrics.SchedulesPlotted.Observe(float64(len(chart.Series)))
	span.SetAttributes(
		attribute.Int("timespace.plotted", chart.Summary.Plotted),
		attribute.Int("timespace.failed", chart.Summary.Failed),
		attribute.Bool("timespace.cached", cached),
	)

	s.publishSummary(ctx, route.ID, fp, proj, cached)
	return &chart, nil
}

// Project returns the raw projection of a stored route.
func (s *DiagramService) Project(ctx context.Context, routeID string, includeDrafts bool) (*domain.Route, *domain.Projection, error) {
	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, nil, fmt.Errorf("get route %s: %w", routeID, err)
	}
	schedules, err := s.plottable(ctx, route.ID, includeDrafts || s.opts.IncludeDrafts)
	if err != nil {
		return nil, nil, err
	}
	proj, _, _, err := s.project(ctx, route, schedules, "api")
	if err != nil {
		return nil, nil, err
	}
	return route, proj, nil
}

// Preview renders caller-supplied data without touching storage, cache or
// the event bus.
func (s *DiagramService) Preview(ctx context.Context, req PreviewRequest) (*domain.Chart, error) {
	_, span := telemetry.Tracer().Start(ctx, "DiagramService.Preview")
	defer span.End()

	start := time.Now()
	proj, err := timespace.ProjectAll(&req.Route, req.Schedules)
	metrics.ProjectionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RouteIntegrityFailures.Inc()
		span.RecordError(err)
		return nil, err
	}
	metrics.ProjectionsTotal.WithLabelValues("preview").Inc()
	s.recordFailures(req.Route.ID, proj)

	chart := timespace.BuildChart(&req.Route, proj, timespace.ChartOptions{
		CurrentScheduleID: req.CurrentScheduleID,
		Palette:           s.opts.Palette,
	})
	return &chart, nil
}

// Warm projects a stored route and stores the result in the cache.
func (s *DiagramService) Warm(ctx context.Context, routeID string) (*domain.DiagramSummary, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "DiagramService.Warm")
	defer span.End()

	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", routeID, err)
	}
	schedules, err := s.plottable(ctx, route.ID, s.opts.IncludeDrafts)
	if err != nil {
		return nil, err
	}
	proj, fp, cached, err := s.project(ctx, route, schedules, "warm")
	if err != nil {
		return nil, err
	}
	return s.publishSummary(ctx, route.ID, fp, proj, cached), nil
}

// WarmAll warms every stored route. Routes that fail are logged and skipped;
// the number of routes warmed is returned.
func (s *DiagramService) WarmAll(ctx context.Context) (int, error) {
	const page = 100
	warmed := 0
	for offset := 0; ; offset += page {
		routes, err := s.routes.List(ctx, page, offset)
		if err != nil {
			return warmed, fmt.Errorf("list routes: %w", err)
		}
		for _, r := range routes {
			if err := ctx.Err(); err != nil {
				return warmed, err
			}
			if _, err := s.Warm(ctx, r.ID); err != nil {
				s.logger.Warn("warm route failed", "route_id", r.ID, "error", err)
				continue
			}
			warmed++
		}
		if len(routes) < page {
			return warmed, nil
		}
	}
}

func (s *DiagramService) plottable(ctx context.Context, routeID string, includeDrafts bool) ([]domain.Schedule, error) {
	all, err := s.schedules.ListByRoute(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("list schedules for route %s: %w", routeID, err)
	}
	out := make([]domain.Schedule, 0, len(all))
	for _, sc := range all {
		if sc.Status.PlottedByDefault() || sc.Status == "" || (includeDrafts && sc.Status == domain.ScheduleDraft) {
			out = append(out, sc)
		}
	}
	return out, nil
}

// project returns the projection for route and schedules, from cache when the
// inputs are unchanged since the last computation.
func (s *DiagramService) project(ctx context.Context, route *domain.Route, schedules []domain.Schedule, source string) (*domain.Projection, string, bool, error) {
	fp, err := Fingerprint(route, schedules)
	if err != nil {
		return nil, "", false, err
	}
	key := cacheKey(route.ID, fp)

	if s.cache != nil && s.opts.CacheTTL > 0 {
		if data, err := s.cache.Get(ctx, key); err == nil && data != nil {
			var proj domain.Projection
			if err := json.Unmarshal(data, &proj); err == nil {
				metrics.CacheHits.WithLabelValues("projection").Inc()
				return &proj, fp, true, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("projection").Inc()
	}

	start := time.Now()
	proj, err := timespace.ProjectAll(route, schedules)
	metrics.ProjectionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var ri *domain.RouteIntegrityError
		if errors.As(err, &ri) {
			metrics.RouteIntegrityFailures.Inc()
			s.logger.Error("route stop table invalid", "route_id", route.ID, "error", err)
		}
		return nil, fp, false, err
	}
	metrics.ProjectionsTotal.WithLabelValues(source).Inc()
	s.recordFailures(route.ID, proj)

	if s.cache != nil && s.opts.CacheTTL > 0 {
		if data, err := json.Marshal(proj); err == nil {
			if err := s.cache.Set(ctx, key, data, int(s.opts.CacheTTL.Seconds())); err != nil {
				s.logger.Warn("cache projection", "route_id", route.ID, "error", err)
			}
		}
	}
	return proj, fp, false, nil
}

func (s *DiagramService) recordFailures(routeID string, proj *domain.Projection) {
	for _, f := range proj.Failures {
		metrics.ScheduleFailures.WithLabelValues(string(f.Kind)).Inc()
		s.logger.Warn("schedule not plotted",
			"route_id", routeID,
			"schedule_id", f.ScheduleID,
			"kind", f.Kind,
			"error", f.Message,
		)
	}
}

func (s *DiagramService) publishSummary(ctx context.Context, routeID, fp string, proj *domain.Projection, cached bool) *domain.DiagramSummary {
	summary := &domain.DiagramSummary{
		EventID:     uuid.NewString(),
		RouteID:     routeID,
		Fingerprint: fp,
		Plotted:     len(proj.Trajectories),
		Failed:      len(proj.Failures),
		Cached:      cached,
	}
	if s.publisher != nil {
		if err := s.publisher.PublishDiagramSummary(ctx, summary); err != nil {
			s.logger.Warn("publish diagram summary", "route_id", routeID, "error", err)
		}
	}
	return summary
}

// Fingerprint hashes everything a projection depends on. Two calls with
// equal inputs return the same fingerprint.
func Fingerprint(route *domain.Route, schedules []domain.Schedule) (string, error) {
	d := xxhash.New()
	enc := json.NewEncoder(d)
	// Each value is a separate JSON document, so adjacent fields cannot run
	// into one another.
	if err := enc.Encode(route.ID); err != nil {
		return "", fmt.Errorf("fingerprint route: %w", err)
	}
	if err := enc.Encode(route.Stops); err != nil {
		return "", fmt.Errorf("fingerprint route: %w", err)
	}
	for _, sc := range schedules {
		if err := enc.Encode([3]string{sc.ID, sc.Name, sc.RouteID}); err != nil {
			return "", fmt.Errorf("fingerprint schedule %s: %w", sc.ID, err)
		}
		if err := enc.Encode(sc.Stops); err != nil {
			return "", fmt.Errorf("fingerprint schedule %s: %w", sc.ID, err)
		}
	}
	return strconv.FormatUint(d.Sum64(), 16), nil
}

func cacheKey(routeID, fp string) string {
	return "timespace:" + routeID + ":" + fp
}

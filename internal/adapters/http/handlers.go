package http

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/routeboard/internal/core/domain"
	"github.com/samirrijal/routeboard/internal/core/usecases"
	"github.com/samirrijal/routeboard/internal/pkg/clock"
)

// ListRoutesHandler returns one page of routes.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		routes, total, err := deps.Routes.List(c.UserContext(), limit, offset)
		if err != nil {
			return errInternal(c, err)
		}
		if routes == nil {
			routes = []domain.Route{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: routes, Pagination: pg})
	}
}

// GetRouteHandler returns a route with its stop table.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Routes.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromService(c, err, "route")
		}
		return c.JSON(route)
	}
}

// RouteSchedulesHandler lists the schedules of a route, optionally by status.
func RouteSchedulesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var status domain.ScheduleStatus
		if raw := c.Query("status"); raw != "" {
			st, err := domain.ParseScheduleStatus(raw)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			status = st
		}

		schedules, err := deps.Schedules.ListByRoute(c.UserContext(), c.Params("id"), status)
		if err != nil {
			return errFromService(c, err, "route")
		}
		if schedules == nil {
			schedules = []domain.Schedule{}
		}
		return c.JSON(schedules)
	}
}

// TimeSpaceHandler renders the time-space diagram of a route.
// Query: current (schedule id to emphasize), include_drafts, loading.
func TimeSpaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		chart, err := deps.Diagrams.Chart(c.UserContext(), usecases.DiagramRequest{
			RouteID:           c.Params("id"),
			CurrentScheduleID: c.Query("current"),
			IncludeDrafts:     c.QueryBool("include_drafts", false),
			Loading:           c.QueryBool("loading", false),
		})
		if err != nil {
			return errFromService(c, err, "route")
		}
		if chart.Summary.Notice != "" {
			c.Set("X-Diagram-Notice", fmt.Sprintf("%d skipped", chart.Summary.Failed))
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(chart)
	}
}

// trajectoryRow is one plotted stop visit in the CSV export.
type trajectoryRow struct {
	ScheduleID    string  `csv:"schedule_id"`
	ScheduleName  string  `csv:"schedule_name"`
	Stop          string  `csv:"stop"`
	Clock         string  `csv:"clock"`
	DayOffset     int     `csv:"day_offset"`
	OffsetMinutes float64 `csv:"offset_minutes"`
	DistanceKm    float64 `csv:"distance_km"`
}

// TimeSpaceCSVHandler exports the trajectories of a route as CSV, one row per
// plotted stop visit.
func TimeSpaceCSVHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, proj, err := deps.Diagrams.Project(c.UserContext(), c.Params("id"), c.QueryBool("include_drafts", false))
		if err != nil {
			return errFromService(c, err, "route")
		}

		rows := make([]*trajectoryRow, 0)
		for _, t := range proj.Trajectories {
			for _, p := range t.Points {
				rows = append(rows, &trajectoryRow{
					ScheduleID:    t.ScheduleID,
					ScheduleName:  t.ScheduleName,
					Stop:          p.StopLabel,
					Clock:         clock.Format(t.OriginMinutes + p.TimeOffsetMinutes),
					DayOffset:     p.DayOffset,
					OffsetMinutes: p.TimeOffsetMinutes,
					DistanceKm:    p.DistanceKm,
				})
			}
		}

		var buf bytes.Buffer
		if err := gocsv.Marshal(rows, &buf); err != nil {
			return errInternal(c, err)
		}

		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-time-space.csv"`, safeFilename(route.ID)))
		return c.Send(buf.Bytes())
	}
}

func safeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// PreviewHandler renders a diagram for an unsaved route and schedules.
func PreviewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req usecases.PreviewRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Validate.Struct(&req); err != nil {
			return errValidation(c, err)
		}

		chart, err := deps.Diagrams.Preview(c.UserContext(), req)
		if err != nil {
			return errFromService(c, err, "route")
		}
		return c.JSON(chart)
	}
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/routeboard/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services. Fields
// resolve through the json tags of the domain types.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	routeStopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteStop",
		Fields: graphql.Fields{
			"stop_id":                &graphql.Field{Type: graphql.String},
			"name":                   &graphql.Field{Type: graphql.String},
			"stop_order":             &graphql.Field{Type: graphql.Int},
			"distance_from_start_km": &graphql.Field{Type: graphql.Float},
			"location":               &graphql.Field{Type: geoPointType},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"code":    &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"version": &graphql.Field{Type: graphql.Int},
			"stops":   &graphql.Field{Type: graphql.NewList(routeStopType)},
		},
	})

	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SeriesPoint",
		Fields: graphql.Fields{
			"x":       &graphql.Field{Type: graphql.Float, Description: "Minutes since the schedule's first stop"},
			"y":       &graphql.Field{Type: graphql.Float, Description: "Kilometres from the route origin"},
			"label":   &graphql.Field{Type: graphql.String},
			"tooltip": &graphql.Field{Type: graphql.String},
		},
	})

	seriesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Series",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"label":      &graphql.Field{Type: graphql.String},
			"color":      &graphql.Field{Type: graphql.String},
			"emphasized": &graphql.Field{Type: graphql.Boolean},
			"line":       &graphql.Field{Type: graphql.Boolean},
			"points":     &graphql.Field{Type: graphql.NewList(pointType)},
		},
	})

	tickType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AxisTick",
		Fields: graphql.Fields{
			"value": &graphql.Field{Type: graphql.Float},
			"label": &graphql.Field{Type: graphql.String},
		},
	})

	axisType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Axis",
		Fields: graphql.Fields{
			"scale": &graphql.Field{Type: graphql.String},
			"unit":  &graphql.Field{Type: graphql.String},
			"min":   &graphql.Field{Type: graphql.Float},
			"max":   &graphql.Field{Type: graphql.Float},
			"ticks": &graphql.Field{Type: graphql.NewList(tickType)},
		},
	})

	failureType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ScheduleFailure",
		Fields: graphql.Fields{
			"schedule_id":   &graphql.Field{Type: graphql.String},
			"schedule_name": &graphql.Field{Type: graphql.String},
			"kind":          &graphql.Field{Type: graphql.String},
			"message":       &graphql.Field{Type: graphql.String},
		},
	})

	chartType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TimeSpaceChart",
		Fields: graphql.Fields{
			"route_id":   &graphql.Field{Type: graphql.String},
			"route_name": &graphql.Field{Type: graphql.String},
			"loading":    &graphql.Field{Type: graphql.Boolean},
			"series":     &graphql.Field{Type: graphql.NewList(seriesType)},
			"axes": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
				Name: "AxisConfig",
				Fields: graphql.Fields{
					"x": &graphql.Field{Type: axisType},
					"y": &graphql.Field{Type: axisType},
				},
			})},
			"summary": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
				Name: "ChartSummary",
				Fields: graphql.Fields{
					"plotted": &graphql.Field{Type: graphql.Int},
					"failed":  &graphql.Field{Type: graphql.Int},
					"notice":  &graphql.Field{Type: graphql.String},
					"skipped": &graphql.Field{Type: graphql.NewList(failureType)},
				},
			})},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "List routes",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					routes, _, err := deps.Routes.List(p.Context, limit, offset)
					return routes, err
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Get a route by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Routes.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"timeSpace": &graphql.Field{
				Type:        chartType,
				Description: "Time-space diagram of a route",
				Args: graphql.FieldConfigArgument{
					"routeId":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"current":       &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"includeDrafts": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Diagrams.Chart(p.Context, usecases.DiagramRequest{
						RouteID:           p.Args["routeId"].(string),
						CurrentScheduleID: p.Args["current"].(string),
						IncludeDrafts:     p.Args["includeDrafts"].(bool),
					})
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// Programming error in the schema definition.
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

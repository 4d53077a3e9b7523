package http

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/routeboard/internal/core/usecases"
)

// Pinger is a backing service that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes    *usecases.RouteService
	Schedules *usecases.ScheduleService
	Diagrams  *usecases.DiagramService
	Validate  *validator.Validate
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger

	// OpenAPIPath locates the document served under /docs; empty means
	// api/openapi.yaml relative to the working directory.
	OpenAPIPath string
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

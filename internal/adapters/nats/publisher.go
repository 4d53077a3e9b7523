package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/routeboard/internal/core/domain"
)

// Subjects. The route id is the last token so consumers can filter per route.
const (
	SubjectScheduleChanged = "timespace.schedule.changed"
	SubjectDiagramSummary  = "timespace.diagram.summary"
)

// ScheduleChangedSubject returns the subject for changes on one route.
func ScheduleChangedSubject(routeID string) string {
	return SubjectScheduleChanged + "." + routeID
}

// DiagramSummarySubject returns the subject for diagram summaries on one route.
func DiagramSummarySubject(routeID string) string {
	return SubjectDiagramSummary + "." + routeID
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream and ensures the streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      "SCHEDULE_CHANGES",
			Subjects:  []string{SubjectScheduleChanged + ".>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "DIAGRAM_SUMMARIES",
			Subjects:  []string{SubjectDiagramSummary + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update.
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

func (p *Publisher) PublishScheduleChanged(ctx context.Context, change *domain.ScheduleChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ScheduleChangedSubject(change.RouteID), data,
		nats.Context(ctx), nats.MsgId(change.EventID))
	return err
}

func (p *Publisher) PublishDiagramSummary(ctx context.Context, summary *domain.DiagramSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(DiagramSummarySubject(summary.RouteID), data,
		nats.Context(ctx), nats.MsgId(summary.EventID))
	return err
}

// Conn exposes the underlying connection for core NATS subscriptions.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("routeboard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/routeboard/internal/adapters/nats"
	"github.com/samirrijal/routeboard/internal/pkg/metrics"
)

// wsMessage is sent by clients to follow or stop following a route.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Route   string `json:"route"`   // route id; "" = all routes
	Channel string `json:"channel"` // "changes" | "summaries" (default: changes)
}

// wsSubject maps a channel and route onto the NATS subject to relay.
func wsSubject(channel, route string) (string, bool) {
	var base string
	switch channel {
	case "", "changes":
		base = natsadapter.SubjectScheduleChanged
	case "summaries":
		base = natsadapter.SubjectDiagramSummary
	default:
		return "", false
	}
	if route == "" {
		return base + ".>", true
	}
	return base + "." + route, true
}

// WebSocketHandler relays schedule-change and diagram-summary events so that
// open diagrams know when to re-render. /ws?route=<id> follows one route from
// the start; clients send {"action":"subscribe","route":"r-1","channel":"summaries"}
// to follow more.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event relay not configured"})
			return
		}

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription)

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		initial, _ := wsSubject("changes", c.Query("route"))
		sub, err := nc.Subscribe(initial, relay)
		if err != nil {
			slog.Error("ws default subscribe", "subject", initial, "error", err)
			return
		}
		subs[initial] = sub

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, ok := wsSubject(m.Channel, m.Route)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed"})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				s, exists := subs[subject]
				if !exists {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
					continue
				}
				_ = s.Unsubscribe()
				delete(subs, subject)
				_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}

// Package audit publishes tool invocation events to NATS. Publishing is
// best effort: a failed publish is logged and never fails the tool call.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Event records one tool invocation.
type Event struct {
	// RequestID correlates the event with server logs.
	RequestID string `json:"request_id"`
	// Tool is the invoked tool name.
	Tool string `json:"tool"`
	// Target is what the tool acted on: the query for search, the URL
	// for browse.
	Target string `json:"target,omitempty"`
	// Outcome is "ok", "denied", or "error".
	Outcome string `json:"outcome"`
	// Detail carries the error or denial reason, if any.
	Detail string `json:"detail,omitempty"`
	// ElapsedMS is the call duration in milliseconds.
	ElapsedMS int64 `json:"elapsed_ms"`
	// Timestamp is when the call finished, UTC.
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends audit events to a NATS subject. A nil Publisher is
// valid and drops all events, so callers never need to branch on whether
// auditing is configured.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// Connect dials NATS and returns a publisher for the given subject.
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("searxng-mcp-audit"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}, nil
}

// Publish sends one event. Failures are logged, never returned.
func (p *Publisher) Publish(ev Event) {
	if p == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to encode audit event", "error", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Warn("Failed to publish audit event",
			"subject", p.subject,
			"error", err)
	}
}

// Close flushes pending events and closes the connection.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.conn.Flush(); err != nil {
		p.logger.Warn("Failed to flush audit events", "error", err)
	}
	p.conn.Close()
}

// Package audit publishes conversion audit events to NATS, in the same
// message shape the flow engine uses for node executions.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	nats "github.com/nats-io/nats.go"
)

// Subject is where audit events are published.
const Subject = "audit.logs"

// NodeType identifies converter events among engine audit logs.
const NodeType = "workflow_rewrite"

// Event is one audit record.
type Event struct {
	ExecutionID string                 `json:"execution_id"`
	NodeID      string                 `json:"node_id"`
	NodeType    string                 `json:"node_type"`
	Status      string                 `json:"status"`
	Timestamp   string                 `json:"timestamp"`
	Input       map[string]interface{} `json:"input"`
	Output      map[string]interface{} `json:"output,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Conversion describes a finished (or failed) conversion.
type Conversion struct {
	ExecutionID string
	InputPath   string
	OutputPath  string
	IngressID   string
	ProcessorID string
	NodeCount   int
	Err         error
}

// NewEvent turns a conversion into an audit event stamped with now.
func NewEvent(c Conversion, now time.Time) Event {
	ev := Event{
		ExecutionID: c.ExecutionID,
		NodeID:      c.IngressID,
		NodeType:    NodeType,
		Status:      "success",
		Timestamp:   now.UTC().Format(time.RFC3339),
		Input:       map[string]interface{}{"path": c.InputPath},
	}
	if c.Err != nil {
		ev.Status = "error"
		ev.Error = c.Err.Error()
		return ev
	}
	ev.Output = map[string]interface{}{
		"path":         c.OutputPath,
		"ingress_id":   c.IngressID,
		"processor_id": c.ProcessorID,
		"node_count":   c.NodeCount,
	}
	return ev
}

// Publisher sends events to NATS. A Publisher without a connection is a
// silent no-op, so callers never need to check whether auditing is enabled.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewPublisher connects to natsURL. An empty URL disables auditing; a failed
// connection is logged and also disables it.
func NewPublisher(natsURL string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{logger: logger}
	if natsURL == "" {
		return p
	}

	nc, err := nats.Connect(natsURL, nats.Name("vivassit-converter"), nats.Timeout(2*time.Second))
	if err != nil {
		logger.Warn("failed to connect to NATS; audit logging disabled", "url", natsURL, "error", err)
		return p
	}
	p.conn = nc
	logger.Info("connected to NATS for audit logging", "url", natsURL)
	return p
}

// Enabled reports whether events are actually sent.
func (p *Publisher) Enabled() bool {
	return p != nil && p.conn != nil
}

// Publish sends ev and flushes so the event is out before a short-lived
// process exits.
func (p *Publisher) Publish(ev Event) error {
	if !p.Enabled() {
		return nil
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}
	if err := p.conn.Publish(Subject, msg); err != nil {
		return fmt.Errorf("audit: publish: %w", err)
	}
	if err := p.conn.FlushTimeout(2 * time.Second); err != nil {
		return fmt.Errorf("audit: flush: %w", err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if !p.Enabled() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain NATS connection", "error", err)
		p.conn.Close()
	}
}

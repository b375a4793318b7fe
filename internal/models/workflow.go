package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// ChannelMain is the n8n connection channel used for regular item flow.
const ChannelMain = "main"

// Workflow is an n8n workflow export. Top-level keys the converter does not
// model (id, active, pinData, meta, tags, versionId, ...) are kept verbatim
// in Extra and written back after the known fields.
type Workflow struct {
	Name        string                     `json:"name"`
	Nodes       []Node                     `json:"nodes"`
	Connections map[string]NodeConnections `json:"connections"`
	Settings    map[string]any             `json:"settings"`

	// Zero holds modelled keys that arrived with an empty value ("", 0, [],
	// {}, null). They are written back as they arrived while the field is
	// still empty; absent keys stay absent.
	Zero  map[string]json.RawMessage `json:"-"`
	Extra map[string]json.RawMessage `json:"-"`
}

// Node is a single n8n node. Parameters stay raw: the converter only ever
// writes parameters for nodes it creates itself. Zero and Extra work as on
// Workflow.
type Node struct {
	Parameters  json.RawMessage `json:"parameters"`
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	TypeVersion float64         `json:"typeVersion"`
	Position    []float64       `json:"position"`
	WebhookID   string          `json:"webhookId"`
	OnError     string          `json:"onError"`

	Zero  map[string]json.RawMessage `json:"-"`
	Extra map[string]json.RawMessage `json:"-"`
}

// NodeConnections maps an output channel ("main", "ai_tool", ...) to its
// ordered output ports.
type NodeConnections map[string][]Port

// Port is the ordered list of edges leaving one output index.
type Port []Edge

// Edge points at the input of another node, addressed by node name. Its
// three fields are always written; other keys are kept in Extra.
type Edge struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`

	Extra map[string]json.RawMessage `json:"-"`
}

// member is one modelled key of an object, in output order. A zero member is
// only written when it arrived that way.
type member struct {
	key   string
	value any
	zero  bool
}

func (w *Workflow) members() []member {
	return []member{
		{"name", w.Name, w.Name == ""},
		{"nodes", w.Nodes, len(w.Nodes) == 0},
		{"connections", w.Connections, len(w.Connections) == 0},
		{"settings", w.Settings, len(w.Settings) == 0},
	}
}

func (n *Node) members() []member {
	return []member{
		{"parameters", n.Parameters, len(n.Parameters) == 0},
		{"id", n.ID, n.ID == ""},
		{"name", n.Name, n.Name == ""},
		{"type", n.Type, n.Type == ""},
		{"typeVersion", n.TypeVersion, n.TypeVersion == 0},
		{"position", n.Position, len(n.Position) == 0},
		{"webhookId", n.WebhookID, n.WebhookID == ""},
		{"onError", n.OnError, n.OnError == ""},
	}
}

func (e *Edge) members() []member {
	return []member{
		{"node", e.Node, false},
		{"type", e.Type, false},
		{"index", e.Index, false},
	}
}

// ParseWorkflow decodes an n8n workflow export. The document must be a JSON
// object.
func ParseWorkflow(data []byte) (*Workflow, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("workflow document must be a JSON object")
	}
	var wf Workflow
	if err := json.Unmarshal(trimmed, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Encode writes the workflow as 2-space indented JSON. Non-ASCII text and
// HTML-sensitive characters are written literally.
func (w *Workflow) Encode(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}

// UnmarshalJSON decodes the modelled fields and stashes everything else.
func (w *Workflow) UnmarshalJSON(data []byte) error {
	type alias Workflow
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*w = Workflow(a)
	var err error
	w.Zero, w.Extra, err = splitMembers(data, w.members())
	return err
}

// MarshalJSON writes the modelled fields followed by the preserved extras.
func (w Workflow) MarshalJSON() ([]byte, error) {
	return encodeMembers(w.members(), w.Zero, w.Extra)
}

// UnmarshalJSON decodes the modelled fields and stashes everything else.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*n = Node(a)
	var err error
	n.Zero, n.Extra, err = splitMembers(data, n.members())
	return err
}

// MarshalJSON writes the modelled fields followed by the preserved extras.
func (n Node) MarshalJSON() ([]byte, error) {
	return encodeMembers(n.members(), n.Zero, n.Extra)
}

// UnmarshalJSON decodes node, type and index and stashes everything else.
func (e *Edge) UnmarshalJSON(data []byte) error {
	type alias Edge
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = Edge(a)
	var err error
	_, e.Extra, err = splitMembers(data, e.members())
	return err
}

// MarshalJSON writes node, type and index followed by the preserved extras.
func (e Edge) MarshalJSON() ([]byte, error) {
	return encodeMembers(e.members(), nil, e.Extra)
}

// NodeByID returns the first node carrying id.
func (w *Workflow) NodeByID(id string) (*Node, bool) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == id {
			return &w.Nodes[i], true
		}
	}
	return nil, false
}

// NodeByName returns the first node named name. Connections address nodes by
// name, so duplicates make edges ambiguous; the first match wins.
func (w *Workflow) NodeByName(name string) (*Node, bool) {
	for i := range w.Nodes {
		if w.Nodes[i].Name == name {
			return &w.Nodes[i], true
		}
	}
	return nil, false
}

// RemoveNodes drops every node whose id is in ids, keeping the order of the
// rest. It returns the removed nodes; ids that match nothing are ignored.
// Connections are left untouched.
func (w *Workflow) RemoveNodes(ids ...string) []Node {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := make([]Node, 0, len(w.Nodes))
	var removed []Node
	for _, node := range w.Nodes {
		if drop[node.ID] {
			removed = append(removed, node)
			continue
		}
		kept = append(kept, node)
	}
	w.Nodes = kept
	return removed
}

// AppendNodes adds nodes at the end of the node list.
func (w *Workflow) AppendNodes(nodes ...Node) {
	w.Nodes = append(w.Nodes, nodes...)
}

// Connect replaces the outgoing connections of from with a single main edge
// into input 0 of to. Entries for other sources are not modified.
func (w *Workflow) Connect(from, to string) {
	if w.Connections == nil {
		w.Connections = make(map[string]NodeConnections)
	}
	w.Connections[from] = NodeConnections{
		ChannelMain: []Port{{{Node: to, Type: ChannelMain, Index: 0}}},
	}
}

// DanglingEdge describes a connection that names a node absent from the
// workflow.
type DanglingEdge struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to,omitempty" yaml:"to,omitempty"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
	Port    int    `json:"port" yaml:"port"`
	Reason  string `json:"reason" yaml:"reason"`
}

const (
	ReasonMissingSource = "missing_source"
	ReasonMissingTarget = "missing_target"
)

// DanglingEdges reports connection entries whose source key or edge target
// does not match any node name. The result is sorted by source name and is
// nil when the graph is consistent.
func (w *Workflow) DanglingEdges() []DanglingEdge {
	names := make(map[string]bool, len(w.Nodes))
	for _, node := range w.Nodes {
		names[node.Name] = true
	}

	sources := make([]string, 0, len(w.Connections))
	for from := range w.Connections {
		sources = append(sources, from)
	}
	sort.Strings(sources)

	var out []DanglingEdge
	for _, from := range sources {
		if !names[from] {
			out = append(out, DanglingEdge{From: from, Reason: ReasonMissingSource})
		}

		conns := w.Connections[from]
		channels := make([]string, 0, len(conns))
		for ch := range conns {
			channels = append(channels, ch)
		}
		sort.Strings(channels)

		for _, ch := range channels {
			for portIdx, port := range conns[ch] {
				for _, edge := range port {
					if names[edge.Node] {
						continue
					}
					out = append(out, DanglingEdge{
						From:    from,
						To:      edge.Node,
						Channel: ch,
						Port:    portIdx,
						Reason:  ReasonMissingTarget,
					})
				}
			}
		}
	}
	return out
}

// splitMembers decodes the JSON object data and sorts its members into the
// modelled keys that arrived empty and the keys that are not modelled. Both
// maps are nil when there is nothing to keep.
func splitMembers(data []byte, members []member) (zero, extra map[string]json.RawMessage, err error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, nil, err
	}
	for _, m := range members {
		raw, ok := all[m.key]
		if !ok {
			continue
		}
		delete(all, m.key)
		if m.zero {
			if zero == nil {
				zero = make(map[string]json.RawMessage)
			}
			zero[m.key] = raw
		}
	}
	if len(all) > 0 {
		extra = all
	}
	return zero, extra, nil
}

// encodeMembers writes members in order, then the extras. Empty members are
// written from zero when they arrived that way and skipped otherwise.
func encodeMembers(members []member, zero, extra map[string]json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, m := range members {
		var value []byte
		raw, arrived := zero[m.key]
		switch {
		case !m.zero:
			v, err := marshalLiteral(m.value)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", m.key, err)
			}
			value = v
		case arrived:
			value = raw
		default:
			continue
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := marshalLiteral(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return joinExtra(buf.Bytes(), extra)
}

// joinExtra splices extra members into the encoded object base, in key order.
func joinExtra(base []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	needComma := len(bytes.TrimSpace(base[1:len(base)-1])) > 0
	for _, k := range keys {
		if needComma {
			buf.WriteByte(',')
		}
		needComma = true
		key, err := marshalLiteral(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value := extra[k]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalLiteral is json.Marshal without HTML escaping.
func marshalLiteral(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalLiteral encodes v compactly without escaping <, > and &, for values
// that end up inside a workflow document.
func MarshalLiteral(v any) (json.RawMessage, error) {
	return marshalLiteral(v)
}

// Package inspect summarises an n8n workflow export for humans.
package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"vivassit/converter/internal/models"
)

// NodeSummary is the identifying part of one node.
type NodeSummary struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	// Outgoing counts the edges leaving the node's connection entry.
	Outgoing int `json:"outgoing" yaml:"outgoing"`
}

// Summary describes a workflow's shape.
type Summary struct {
	Name            string                `json:"name" yaml:"name"`
	NodeCount       int                   `json:"node_count" yaml:"node_count"`
	Nodes           []NodeSummary         `json:"nodes" yaml:"nodes"`
	ConnectionCount int                   `json:"connection_count" yaml:"connection_count"`
	Sources         []string              `json:"sources" yaml:"sources"`
	DuplicateNames  []string              `json:"duplicate_names,omitempty" yaml:"duplicate_names,omitempty"`
	Dangling        []models.DanglingEdge `json:"dangling,omitempty" yaml:"dangling,omitempty"`
	Settings        map[string]any        `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Summarize builds a Summary. ConnectionCount counts edges, not sources.
func Summarize(wf *models.Workflow) Summary {
	s := Summary{
		Name:      wf.Name,
		NodeCount: len(wf.Nodes),
		Nodes:     make([]NodeSummary, 0, len(wf.Nodes)),
		Sources:   make([]string, 0, len(wf.Connections)),
		Dangling:  wf.DanglingEdges(),
		Settings:  wf.Settings,
	}

	outgoing := make(map[string]int, len(wf.Connections))
	for from, conns := range wf.Connections {
		s.Sources = append(s.Sources, from)
		for _, ports := range conns {
			for _, port := range ports {
				outgoing[from] += len(port)
			}
		}
		s.ConnectionCount += outgoing[from]
	}
	sort.Strings(s.Sources)

	seen := make(map[string]int, len(wf.Nodes))
	for _, n := range wf.Nodes {
		s.Nodes = append(s.Nodes, NodeSummary{ID: n.ID, Name: n.Name, Type: n.Type, Outgoing: outgoing[n.Name]})
		seen[n.Name]++
		if seen[n.Name] == 2 {
			s.DuplicateNames = append(s.DuplicateNames, n.Name)
		}
	}
	return s
}

// Formats accepted by Render.
const (
	FormatYAML     = "yaml"
	FormatJSON     = "json"
	FormatTable    = "table"
	FormatMarkdown = "markdown"
)

// Render writes s to w as yaml (the default), json, table or markdown.
func Render(w io.Writer, s Summary, format string) error {
	switch format {
	case "", FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("inspect: encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("inspect: encode json: %w", err)
		}
		return nil
	case FormatTable, FormatMarkdown:
		_, err := io.WriteString(w, nodeTable(s, format)+"\n")
		return err
	default:
		return fmt.Errorf("inspect: unknown format %q (use yaml, json, table or markdown)", format)
	}
}

// nodeTable lists the nodes with their outgoing edge counts. Dangling edges
// are appended as rows marked "!".
func nodeTable(s Summary, format string) string {
	tw := table.NewWriter()
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	tw.SetTitle(s.Name)

	tw.AppendHeader(table.Row{"#", "Name", "Type", "ID", "Out"})
	for i, n := range s.Nodes {
		tw.AppendRow(table.Row{i + 1, n.Name, n.Type, n.ID, n.Outgoing})
	}
	for _, d := range s.Dangling {
		tw.AppendRow(table.Row{"!", d.From, d.Reason, d.To, d.Port})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d nodes", s.NodeCount), "", "", s.ConnectionCount})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	if format == FormatMarkdown {
		return tw.RenderMarkdown()
	}
	return tw.Render()
}

package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatJSON writes v as indented JSON.
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatGraphSummary formats a graph summary as JSON
func (f *Formatter) FormatGraphSummary(summary GraphSummaryDTO) error {
	return f.FormatJSON(summary)
}

// FormatStoredGraphs formats a list of catalog entries as JSON
func (f *Formatter) FormatStoredGraphs(graphs []StoredGraphDTO) error {
	return f.FormatJSON(graphs)
}

// RenderGraphSummary writes a styled, human readable summary.
func (f *Formatter) RenderGraphSummary(s GraphSummaryDTO) error {
	var b strings.Builder
	name := s.Name
	if name == "" {
		name = "(unnamed)"
	}
	b.WriteString(titleStyle.Render(name))
	b.WriteString(" ")
	b.WriteString(mutedStyle.Render(s.GUID))
	b.WriteString("\n")

	rows := []struct {
		label string
		value int
	}{
		{"nodes", s.Nodes},
		{"context nodes", s.ContextNodes},
		{"blocks", s.Blocks},
		{"ports", s.Ports},
		{"wires", s.Wires},
		{"variables", s.Variables},
		{"portals", s.Portals},
		{"sections", s.Sections},
		{"groups", s.Groups},
		{"sticky notes", s.StickyNotes},
		{"placemats", s.Placemats},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render(r.label), r.value)
	}
	if s.MissingPorts > 0 {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("missing ports"), warningStyle.Render(fmt.Sprint(s.MissingPorts)))
	}

	if len(s.Placeholders) == 0 {
		b.WriteString(successStyle.Render("all elements resolved"))
		b.WriteString("\n")
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d unresolved", len(s.Placeholders))))
		b.WriteString("\n")
		for _, p := range s.Placeholders {
			fmt.Fprintf(&b, "  %s[%d] %s %s\n", p.Category, p.Index, mutedStyle.Render(p.GUID), p.Reason)
		}
	}

	for _, n := range s.NodeDetails {
		title := n.Title
		if title == "" {
			title = n.Kind
		}
		fmt.Fprintf(&b, "\n%s %s", headerStyle.Render(title), mutedStyle.Render(n.Kind))
		if n.State != "valid" {
			b.WriteString(" ")
			b.WriteString(warningStyle.Render(n.State))
		}
		b.WriteString("\n")
		renderPorts(&b, "in ", n.Inputs)
		renderPorts(&b, "out", n.Outputs)
	}

	_, err := io.WriteString(f.writer, b.String())
	return err
}

func renderPorts(b *strings.Builder, dir string, ports []PortDTO) {
	for _, p := range ports {
		name := p.Name
		if p.Missing {
			name = warningStyle.Render(name + " (missing)")
		}
		fmt.Fprintf(b, "  %s %s %s x%d\n", mutedStyle.Render(dir), name, mutedStyle.Render(p.Type), p.Wires)
	}
}

// RenderStoredGraphs writes one styled line per catalog entry.
func (f *Formatter) RenderStoredGraphs(graphs []StoredGraphDTO) error {
	var b strings.Builder
	if len(graphs) == 0 {
		b.WriteString(mutedStyle.Render("no graphs stored"))
		b.WriteString("\n")
	}
	for _, g := range graphs {
		status := successStyle.Render("ok")
		if g.Unresolved {
			status = errorStyle.Render("unresolved")
		}
		fmt.Fprintf(&b, "%s  %s  %s  nodes=%d wires=%d placeholders=%d  %s\n",
			mutedStyle.Render(g.GUID), titleStyle.Render(g.Name), g.Format,
			g.Nodes, g.Wires, g.Placeholders, status)
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}

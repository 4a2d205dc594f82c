package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// printer writes command results as text, JSON or YAML.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) (printer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "", "text":
		return printer{format: "text", w: w}, nil
	case "json", "yaml":
		return printer{format: format, w: w}, nil
	default:
		return printer{}, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// emit writes v in the structured formats and calls text otherwise.
func (p printer) emit(v any, text func(w io.Writer) error) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		return writeYAML(p.w, v)
	default:
		return text(p.w)
	}
}

// writeYAML renders v with the same field names as its JSON encoding. The
// API types only carry json tags, so v goes through JSON and is re-read as a
// YAML node, which keeps the key order.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles that JSON input leaves on
// every node.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderTable draws rows under headers with a light border.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// renderFields prints aligned "label  value" lines, skipping empty values.
func renderFields(w io.Writer, fields [][2]string) error {
	width := 0
	for _, f := range fields {
		width = max(width, len(f[0]))
	}
	label := lipgloss.NewStyle().Bold(true).Width(width + 2)
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, label.Render(f[0])+f[1]); err != nil {
			return err
		}
	}
	return nil
}

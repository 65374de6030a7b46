// Package render writes command results as styled text or as JSON, YAML or
// XML documents.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pastemagic/pastemagic"
	"github.com/pastemagic/pastemagic/json"
	"github.com/pastemagic/pastemagic/xml"
	"github.com/pastemagic/pastemagic/yaml"
)

// Format selects the output representation.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatXML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: text, json, yaml, xml)", s)
	}
}

// Field is one labelled value.
type Field struct {
	Label string
	Value string
}

// Table is a grid with a header row.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Section groups fields, a table and free lines under a heading.
type Section struct {
	Title  string
	Fields []Field
	Table  *Table
	Lines  []string
}

// Report is the text form of a result.
type Report struct {
	Title    string
	Sections []Section
}

// Reporter is implemented by results with a text form.
type Reporter interface {
	Report() *Report
}

// Theme holds the text styles.
type Theme struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style
}

// NewTheme builds the styles for re. Without color every style is plain.
func NewTheme(re *lipgloss.Renderer, color bool) Theme {
	if !color {
		plain := re.NewStyle()
		return Theme{Title: plain, Header: plain, Label: plain, Value: plain, Muted: plain}
	}
	return Theme{
		Title:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Header: re.NewStyle().Bold(true),
		Label:  re.NewStyle().Faint(true),
		Value:  re.NewStyle(),
		Muted:  re.NewStyle().Faint(true),
	}
}

// Renderer writes results to one writer.
type Renderer struct {
	w      io.Writer
	format Format
	codec  pastemagic.Codec
	theme  Theme
}

// New returns a renderer for w. Styles adapt to whether w is a terminal.
func New(w io.Writer, format Format, color bool) *Renderer {
	r := &Renderer{w: w, format: format, theme: NewTheme(lipgloss.NewRenderer(w), color)}
	switch format {
	case FormatJSON:
		r.codec = json.NewIndent("  ")
	case FormatYAML:
		r.codec = yaml.New()
	case FormatXML:
		r.codec = xml.New()
	}
	return r
}

// Format returns the renderer's format.
func (r *Renderer) Format() Format { return r.format }

// Render writes v. Text output uses v's Report when it has one and prints
// strings as they are; other values fall back to YAML.
func (r *Renderer) Render(v any) error {
	if r.codec != nil {
		data, err := r.codec.Marshal(v)
		if err != nil {
			return err
		}
		return r.write(string(data))
	}

	switch t := v.(type) {
	case Reporter:
		return r.write(r.Text(t.Report()))
	case string:
		return r.write(t)
	default:
		data, err := yaml.New().Marshal(v)
		if err != nil {
			return err
		}
		return r.write(string(data))
	}
}

func (r *Renderer) write(s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(r.w, s)
	return err
}

// Text lays out a report.
func (r *Renderer) Text(rep *Report) string {
	var sb strings.Builder
	if rep.Title != "" {
		sb.WriteString(r.theme.Title.Render(rep.Title))
		sb.WriteString("\n")
	}
	for i, s := range rep.Sections {
		if i > 0 || rep.Title != "" {
			sb.WriteString("\n")
		}
		if s.Title != "" {
			sb.WriteString(r.theme.Header.Render(s.Title))
			sb.WriteString("\n")
		}
		r.writeFields(&sb, s.Fields)
		if s.Table != nil {
			r.writeTable(&sb, s.Table)
		}
		for _, line := range s.Lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (r *Renderer) writeFields(sb *strings.Builder, fields []Field) {
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f.Label))
	}
	for _, f := range fields {
		label := f.Label + ":" + strings.Repeat(" ", width-lipgloss.Width(f.Label)+1)
		sb.WriteString("  ")
		sb.WriteString(r.theme.Label.Render(label))
		if f.Value == "" {
			sb.WriteString(r.theme.Muted.Render("-"))
			sb.WriteString("\n")
			continue
		}
		// Continuation lines of multi-line values line up under the first.
		indent := strings.Repeat(" ", width+4)
		for i, line := range strings.Split(strings.TrimRight(f.Value, "\n"), "\n") {
			if i > 0 {
				sb.WriteString(indent)
			}
			sb.WriteString(r.theme.Value.Render(line))
			sb.WriteString("\n")
		}
	}
}

func (r *Renderer) writeTable(sb *strings.Builder, t *Table) {
	if len(t.Rows) == 0 {
		sb.WriteString("  ")
		sb.WriteString(r.theme.Muted.Render("(none)"))
		sb.WriteString("\n")
		return
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i < len(widths)-1 {
				cell += strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			}
			parts[i] = style.Render(cell)
		}
		sb.WriteString("  ")
		sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		sb.WriteString("\n")
	}

	line(t.Headers, r.theme.Header)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	sb.WriteString("  ")
	sb.WriteString(r.theme.Muted.Render(strings.Join(rule, "  ")))
	sb.WriteString("\n")
	for _, row := range t.Rows {
		line(row, r.theme.Value)
	}
}

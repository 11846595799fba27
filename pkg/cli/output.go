package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatTable renders tabular data with borders (default).
	FormatTable OutputFormat = "table"
	// FormatJSON is indented JSON output.
	FormatJSON OutputFormat = "json"
	// FormatText prints values with %v.
	FormatText OutputFormat = "text"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatTable, FormatJSON, FormatText:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or text)", s)
	}
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// Tabular is implemented by results that render as a table.
type Tabular interface {
	TableHeaders() []string
	TableRows() [][]string
}

// Table is a ready-made Tabular value.
type Table struct {
	Headers []string
	Rows    [][]string

	// RightAligned lists zero-based columns to align right.
	RightAligned []int
}

// TableHeaders implements Tabular.
func (t Table) TableHeaders() []string { return t.Headers }

// TableRows implements Tabular.
func (t Table) TableRows() [][]string { return t.Rows }

// TextFormatter prints values with %v.
type TextFormatter struct{}

// FormatTo writes data to w.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// TableFormatter renders Tabular data. Other values fall back to text.
type TableFormatter struct{}

// FormatTo writes data to w as a table.
func (f *TableFormatter) FormatTo(w io.Writer, data any) error {
	tab, ok := data.(Tabular)
	if !ok {
		return (&TextFormatter{}).FormatTo(w, data)
	}
	var right []int
	if t, ok := data.(Table); ok {
		right = t.RightAligned
	}
	out := RenderTable(tab.TableHeaders(), tab.TableRows(), right...)
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// RenderTable renders rows under headers with rounded borders.
func RenderTable(headers []string, rows [][]string, rightAligned ...int) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		for _, c := range rightAligned {
			if c == i {
				align = text.AlignRight
			}
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatText:
		return &TextFormatter{}
	default:
		return &TableFormatter{}
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ConfigureColor disables colored output unless w is a terminal.
func ConfigureColor(w io.Writer) {
	color.NoColor = !IsTerminal(w) || os.Getenv("NO_COLOR") != ""
}

// Success marks a completed action.
func Success(msg string) string { return color.GreenString("✓") + " " + msg }

// Warn marks a non-fatal problem.
func Warn(msg string) string { return color.YellowString("⚠") + " " + msg }

// Fail marks a failed action.
func Fail(msg string) string { return color.RedString("✗") + " " + msg }

// Hint suggests a follow-up command.
func Hint(msg string) string { return color.CyanString("→") + " " + msg }

// Muted renders secondary information.
func Muted(msg string) string { return color.HiBlackString(msg) }

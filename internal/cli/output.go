package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"forex-journal/internal/models"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance. Color follows fatih/color's
// terminal detection and the ui.color_enabled setting.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.colored(color.New(color.FgGreen), format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.colored(color.New(color.FgRed), format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.colored(color.New(color.FgYellow), format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.colored(color.New(color.FgCyan), format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.colored(color.New(color.Bold), format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.colored(color.New(color.Faint), format, args...)
}

func (o *Output) colored(c *color.Color, format string, args ...interface{}) {
	fmt.Fprintln(o.writer, o.paint(c, fmt.Sprintf(format, args...)))
}

// paint applies c to text when color output is on.
func (o *Output) paint(c *color.Color, text string) string {
	if !o.colorEnabled {
		return text
	}
	c.EnableColor()
	return c.Sprint(text)
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(color.New(color.FgGreen), text)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.paint(color.New(color.FgRed), text)
}

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string {
	return o.paint(color.New(color.FgYellow), text)
}

// DimText returns dimmed text.
func (o *Output) DimText(text string) string {
	return o.paint(color.New(color.Faint), text)
}

// Result renders a trade outcome.
func (o *Output) Result(r models.Result) string {
	switch r {
	case models.ResultWin:
		return o.Green("WIN")
	case models.ResultLoss:
		return o.Red("LOSS")
	default:
		return string(r)
	}
}

// WinRate renders a percentage, green at or above 50%.
func (o *Output) WinRate(pct float64, total int) string {
	text := FormatRate(pct)
	switch {
	case total == 0:
		return o.DimText(text)
	case pct >= 50:
		return o.Green(text)
	default:
		return o.Red(text)
	}
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if n := visibleLen(cell); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i < len(widths) {
			padding := widths[i] - visibleLen(cell)
			if padding < 0 {
				padding = 0
			}
			padded := cell + strings.Repeat(" ", padding)
			if isHeader {
				padded = t.output.paint(color.New(color.Bold), padded)
			}
			parts = append(parts, padded)
		}
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
	}
	t.output.Println(t.output.paint(color.New(color.Faint), strings.Join(parts, "──")))
}

// visibleLen counts runes outside ANSI escape sequences.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\033':
			inEscape = true
		default:
			n++
		}
	}
	return n
}

// Box draws a box around content.
func (o *Output) Box(title string, content []string) {
	maxLen := visibleLen(title)
	for _, line := range content {
		if n := visibleLen(line); n > maxLen {
			maxLen = n
		}
	}

	border := strings.Repeat("─", maxLen+2)
	o.Printf("┌%s┐\n", border)
	o.Printf("│ %s%s │\n", o.paint(color.New(color.Bold), title), strings.Repeat(" ", maxLen-visibleLen(title)))
	o.Printf("├%s┤\n", border)
	for _, line := range content {
		o.Printf("│ %s%s │\n", line, strings.Repeat(" ", maxLen-visibleLen(line)))
	}
	o.Printf("└%s┘\n", border)
}

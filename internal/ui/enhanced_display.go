package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"corpus-search/internal/corpus"
	"corpus-search/internal/history"
	"corpus-search/internal/view"
)

// EnhancedDisplay prints the plain-mode search view to a terminal
type EnhancedDisplay struct {
	out      io.Writer
	width    int
	color    bool
	renderer *glamour.TermRenderer
}

// NewEnhancedDisplay creates a new enhanced display. With color off, ANSI
// escapes are left out and markdown is rendered with the plain style.
func NewEnhancedDisplay(out io.Writer, width int, color bool, log zerolog.Logger) *EnhancedDisplay {
	if out == nil {
		out = os.Stdout
	}
	if width <= 0 {
		width = 80
	}

	style := glamour.WithStandardStyle("notty")
	if color {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(max(width-10, 20)),
	)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create markdown renderer, printing raw markdown")
	}

	return &EnhancedDisplay{
		out:      out,
		width:    width,
		color:    color,
		renderer: renderer,
	}
}

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

func (d *EnhancedDisplay) c(code string) string {
	if !d.color {
		return ""
	}
	return code
}

// PrintWelcome displays the welcome message
func (d *EnhancedDisplay) PrintWelcome(serverURL string, modelID string) {
	fmt.Fprintf(d.out, "%s%scorpus-search%s\n", d.c(colorBold), d.c(colorCyan), d.c(colorReset))
	fmt.Fprintf(d.out, "%sServer:%s %s\n", d.c(colorGray), d.c(colorReset), serverURL)
	if modelID != "" {
		fmt.Fprintf(d.out, "%sModel:%s %s\n", d.c(colorGray), d.c(colorReset), modelID)
	}
	fmt.Fprintf(d.out, "%sCommands:%s <query> | /nn <query> | /clear-index | /refresh | /history | /exit\n", d.c(colorGray), d.c(colorReset))
	fmt.Fprintln(d.out)
}

// PrintSeparator prints a visual separator
func (d *EnhancedDisplay) PrintSeparator() {
	line := strings.Repeat("─", min(d.width, 80))
	fmt.Fprintf(d.out, "%s%s%s\n", d.c(colorDim), line, d.c(colorReset))
}

// PrintPrompt displays the user input prompt
func (d *EnhancedDisplay) PrintPrompt() {
	fmt.Fprintf(d.out, "\n%s%s❯%s ", d.c(colorBold), d.c(colorGreen), d.c(colorReset))
}

// PrintSearchActivity shows that a request is on its way
func (d *EnhancedDisplay) PrintSearchActivity(url string) {
	fmt.Fprintf(d.out, "%s%s🔍 %s %s%s\n", d.c(colorDim), d.c(colorCyan), corpus.RequestMethod(url), url, d.c(colorReset))
}

// PrintResult renders the view's result, if it is on display
func (d *EnhancedDisplay) PrintResult(v *view.View, took time.Duration) {
	if !v.DisplayResult() {
		d.PrintInfo("No result to display")
		return
	}
	r := v.Result()
	if r == nil {
		return
	}

	md := FormatResponse(*r)
	rendered := md
	if d.renderer != nil {
		if out, err := d.renderer.Render(md); err == nil {
			rendered = out
		}
	}

	fmt.Fprintf(d.out, "\n%s┌─ %s · %s%s\n", d.c(colorGray), r.Kind, r.ReceivedAt.Format("15:04:05"), d.c(colorReset))
	for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
		fmt.Fprintf(d.out, "%s│%s %s\n", d.c(colorGray), d.c(colorReset), line)
	}
	fmt.Fprintf(d.out, "%s│ ⏱️  %s · %d bytes%s\n", d.c(colorGray), formatDuration(took), len(r.Response), d.c(colorReset))
	fmt.Fprintf(d.out, "%s└%s\n", d.c(colorGray), d.c(colorReset))
}

// PrintHistory lists the searches of the current session
func (d *EnhancedDisplay) PrintHistory(entries []history.Entry) {
	if len(entries) == 0 {
		d.PrintInfo("No searches yet")
		return
	}

	d.PrintSeparator()
	for _, e := range entries {
		status := fmt.Sprintf("%d bytes", len(e.Response))
		if e.Error != "" {
			status = "error: " + e.Error
		}
		fmt.Fprintf(d.out, "[%s] %-9s %s %s(%s)%s\n",
			e.Timestamp.Format("15:04:05"), e.Kind, truncate(e.Query, 50), d.c(colorGray), status, d.c(colorReset))
	}
	d.PrintSeparator()
}

// PrintInfo displays info message
func (d *EnhancedDisplay) PrintInfo(msg string) {
	fmt.Fprintf(d.out, "%sℹ %s%s\n", d.c(colorCyan), msg, d.c(colorReset))
}

// PrintWarning displays warning message
func (d *EnhancedDisplay) PrintWarning(msg string) {
	fmt.Fprintf(d.out, "%s⚠ %s%s\n", d.c(colorYellow), msg, d.c(colorReset))
}

// PrintError displays error message
func (d *EnhancedDisplay) PrintError(err error) {
	fmt.Fprintf(d.out, "%s✗ Error: %v%s\n", d.c(colorRed), err, d.c(colorReset))
}

// PrintSuccess displays success message
func (d *EnhancedDisplay) PrintSuccess(msg string) {
	fmt.Fprintf(d.out, "%s✓ %s%s\n", d.c(colorGreen), msg, d.c(colorReset))
}

// PrintGoodbye displays goodbye message
func (d *EnhancedDisplay) PrintGoodbye() {
	fmt.Fprintf(d.out, "\n%sGoodbye!%s\n", d.c(colorCyan), d.c(colorReset))
}

// Helper functions

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

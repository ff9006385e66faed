package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowlens/pkg/graph"
)

// Palette shared by the command output and the terminal viewer.
var (
	colorCyan   = lipgloss.Color("36")  // expanded groups, titles
	colorGreen  = lipgloss.Color("35")  // success, cache hits
	colorYellow = lipgloss.Color("220") // warnings, reduced groups
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75") // links, commands
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleLink renders URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleWarning renders warning text.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// console writes the human-facing result lines of a command. Logs go to the
// logger; a console only carries what the user asked for.
type console struct {
	w io.Writer
}

func newConsole(w io.Writer) console {
	if w == nil {
		w = io.Discard
	}
	return console{w: w}
}

func (o console) line(s string) { fmt.Fprintln(o.w, s) }

func (o console) status(style lipgloss.Style, icon, format string, args ...any) {
	o.line(style.Render(icon) + " " + fmt.Sprintf(format, args...))
}

func (o console) success(format string, args ...any) {
	o.status(styleIconSuccess, iconSuccess, format, args...)
}

func (o console) fail(format string, args ...any) {
	o.status(styleIconError, iconError, format, args...)
}

func (o console) info(format string, args ...any) {
	o.status(styleIconInfo, iconInfo, format, args...)
}

func (o console) warn(format string, args ...any) {
	o.line(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// detail prints an indented secondary line.
func (o console) detail(format string, args ...any) {
	o.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// file announces a written output file.
func (o console) file(path string) {
	o.line("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func (o console) keyValue(key, value string) {
	o.line(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// nextStep suggests a follow-up command.
func (o console) nextStep(description, cmd string) {
	o.line("")
	o.line(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// frameStats summarizes a laid out frame for display.
type frameStats struct {
	nodes, edges, hidden int
	lod                  int
	cached               bool
}

func statsOf(l graph.Layout, cached bool) frameStats {
	return frameStats{
		nodes:  len(l.Nodes),
		edges:  len(l.Edges),
		hidden: len(l.Hidden),
		lod:    l.LOD,
		cached: cached,
	}
}

// String joins the counts with dots, e.g. "4 nodes · 3 edges · lod 1".
func (s frameStats) String() string {
	parts := []string{fmt.Sprintf("%d nodes", s.nodes), fmt.Sprintf("%d edges", s.edges)}
	if s.hidden > 0 {
		parts = append(parts, fmt.Sprintf("%d hidden", s.hidden))
	}
	parts = append(parts, fmt.Sprintf("lod %d", s.lod))
	return strings.Join(parts, " · ")
}

// stats prints s on one line, followed by whether the layout was cached.
func (o console) stats(s frameStats) {
	origin := styleComputed.Render("fresh")
	if s.cached {
		origin = styleCached.Render("cached")
	}
	o.line("  " + StyleDim.Render(s.String()+" · ") + origin)
}

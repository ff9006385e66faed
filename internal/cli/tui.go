package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/viewer"
)

// zoomStep is the scale factor applied per zoom key press.
const zoomStep = 1.25

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listReducedStyle  = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Command
// =============================================================================

// viewCommand creates the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var state stateFlags

	cmd := &cobra.Command{
		Use:   "view [graph]",
		Short: "Explore a graph interactively in the terminal",
		Long: `Explore a graph interactively in the terminal.

The visible nodes are listed in layout order with their coordinates. Enter
collapses or expands the group under the cursor, + and - zoom through the
levels of detail, e and c expand or collapse every group.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd.Context(), args[0], &state)
		},
	}
	state.register(cmd)

	return cmd
}

func (c *CLI) runView(ctx context.Context, input string, state *stateFlags) error {
	screen := &termRenderer{}
	ws, err := c.open(ctx, input, state, func(config.Config) (render.Renderer, error) {
		return screen, nil
	})
	if err != nil {
		return fmt.Errorf("view %s: %w", input, err)
	}
	defer ws.Close()

	// Log lines would tear the alternate screen.
	c.Logger.SetOutput(io.Discard)
	defer c.Logger.SetOutput(c.logOut)

	p := tea.NewProgram(newViewModel(ctx, input, ws.viewer, screen), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// =============================================================================
// termRenderer - Renderer backing the terminal viewer
// =============================================================================

// termRenderer keeps the last scene for the terminal view to draw from.
type termRenderer struct {
	scene *render.Scene
	lod   int
}

func (r *termRenderer) Render(_ context.Context, s *render.Scene) error {
	r.scene, r.lod = s, s.LOD
	return nil
}

func (r *termRenderer) UpdateLod(lod int) { r.lod = lod }

func (r *termRenderer) Name() string { return "terminal" }

// =============================================================================
// viewModel - Interactive graph viewer
// =============================================================================

// viewModel is the bubbletea model of the terminal viewer. The viewer is
// only touched from Update, so it needs no locking.
type viewModel struct {
	ctx    context.Context
	title  string
	viewer *viewer.Viewer
	screen *termRenderer

	scale  float64
	cursor int
	offset int
	height int

	status string
	failed bool
}

func newViewModel(ctx context.Context, title string, v *viewer.Viewer, screen *termRenderer) viewModel {
	return viewModel{
		ctx:    ctx,
		title:  title,
		viewer: v,
		screen: screen,
		scale:  v.Scale(),
		height: 15,
	}
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "enter", " ":
			m.toggle()
		case "+", "=":
			m.zoom(m.scale * zoomStep)
		case "-", "_":
			m.zoom(m.scale / zoomStep)
		case "e":
			m.setAll(graph.ViewExpanded)
		case "c":
			m.setAll(graph.ViewReduced)
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-12, 5)
		m.move(0)
	}
	return m, nil
}

// nodes returns the visible node ids of the current frame.
func (m *viewModel) nodes() []string {
	return m.viewer.Data().Vis.Nodes
}

func (m *viewModel) selected() string {
	nodes := m.nodes()
	if m.cursor >= len(nodes) {
		return ""
	}
	return nodes[m.cursor]
}

// move shifts the cursor by delta and keeps it inside the scroll window.
func (m *viewModel) move(delta int) {
	n := len(m.nodes())
	m.cursor = min(max(m.cursor+delta, 0), max(n-1, 0))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// follow puts the cursor back on id after the visible set changed.
func (m *viewModel) follow(id string) {
	if i := slices.Index(m.nodes(), id); i >= 0 {
		m.cursor = i
	}
	m.move(0)
}

func (m *viewModel) toggle() {
	id := m.selected()
	if id == "" {
		return
	}
	if !m.viewer.Model().IsGroup(id) {
		m.report(fmt.Sprintf("%s is not a group", id), false)
		return
	}
	v, err := m.viewer.ToggleGroup(m.ctx, id)
	if err != nil {
		m.report(errors.UserMessage(err), true)
		return
	}
	m.follow(id)
	m.report(fmt.Sprintf("%s %s", v, id), false)
}

func (m *viewModel) setAll(v graph.View) {
	id := m.selected()
	n, err := m.viewer.SetAllGroups(m.ctx, v)
	if err != nil {
		m.report(errors.UserMessage(err), true)
		return
	}
	// A reduced ancestor replaces the selected node.
	if root, ok := m.viewer.View().HiddenToRoot[id]; ok {
		id = root
	}
	m.follow(id)
	m.report(fmt.Sprintf("%s %d groups", v, n), false)
}

// zoom clamps k to the configured extent and feeds it to the viewer.
func (m *viewModel) zoom(k float64) {
	zoom := m.viewer.Config().Zoom
	k = min(max(k, zoom[0]), zoom[len(zoom)-1])
	changed := m.viewer.Zoom(k)
	m.scale = k
	if changed {
		m.report(fmt.Sprintf("level of detail %d", m.viewer.Lod()), false)
		return
	}
	m.report(fmt.Sprintf("scale %.2f", k), false)
}

func (m *viewModel) report(msg string, failed bool) {
	m.status, m.failed = msg, failed
}

// depth counts the expanded groups enclosing id.
func (m *viewModel) depth(id string) int {
	d := 0
	for p := m.screen.scene.Parent(id); p != ""; p = m.screen.scene.Parent(p) {
		d++
	}
	return d
}

func (m viewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName + " · " + m.title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle group  +/- zoom  e expand all  c collapse all  q quit"))
	b.WriteString("\n\n")

	if m.screen.scene == nil {
		return b.String()
	}
	mdl := m.screen.scene.Model
	nodes := m.nodes()
	end := min(m.offset+m.height, len(nodes))

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		n := mdl.Node(nodes[i])
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		label := strings.Repeat("  ", m.depth(n.ID)) + groupMarker(n) + n.ID
		if n.Name != "" && n.Name != n.ID {
			label += " " + listDimStyle.Render(n.Name)
		}
		rows = append(rows, []string{
			cursor,
			label,
			n.Kind.String(),
			fmt.Sprintf("%.0f, %.0f", n.X, n.Y),
			fmt.Sprintf("%.0f×%.0f", n.Width, n.Height),
			m.ports(n),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Kind", "Position", "Size", "Ports").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.offset + row
			if idx >= len(nodes) {
				return lipgloss.NewStyle()
			}
			n := mdl.Node(nodes[idx])
			switch {
			case idx == m.cursor:
				return listSelectedStyle
			case n.IsGroup() && n.View == graph.ViewReduced:
				return listReducedStyle
			case col >= 3:
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(m.edgeLine())
	b.WriteString("\n\n")

	l := m.viewer.Data()
	footer := fmt.Sprintf("  lod %d · scale %.2f · %d nodes · %d edges · %.0f×%.0f",
		m.screen.lod, m.scale, len(l.Vis.Nodes), len(l.Vis.Edges), l.Meta.Width, l.Meta.Height)
	b.WriteString(listDimStyle.Render(footer))
	if m.status != "" {
		b.WriteString("\n")
		if m.failed {
			b.WriteString(styleIconError.Render(iconError) + " " + m.status)
		} else {
			b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.status)
		}
	}
	return b.String()
}

// ports shows port counts at the detailed level and nothing otherwise.
func (m viewModel) ports(n *graph.Node) string {
	if !n.HasPorts() || !m.viewer.Detailed() {
		return ""
	}
	return fmt.Sprintf("%d in · %d out", len(n.In), len(n.Out))
}

// edgeLine lists the visible edges touching the selected node.
func (m viewModel) edgeLine() string {
	id := m.selected()
	if id == "" {
		return ""
	}
	s := m.screen.scene
	var parts []string
	for _, eid := range s.Frame.Vis.Edges {
		from, to := s.Ends(s.Model.Edge(eid))
		switch id {
		case from:
			parts = append(parts, iconArrow+" "+to)
		case to:
			parts = append(parts, from+" "+iconArrow)
		}
	}
	if len(parts) == 0 {
		return listDimStyle.Render("  no visible edges")
	}
	return listDimStyle.Render("  " + strings.Join(parts, "  "))
}

func groupMarker(n *graph.Node) string {
	if !n.IsGroup() {
		return ""
	}
	if n.View == graph.ViewReduced {
		return "⊞ "
	}
	return "⊟ "
}

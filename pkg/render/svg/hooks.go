package svg

import (
	"bytes"
	"fmt"
	"maps"
	"strings"

	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Box contains all data needed to draw a node or group.
type Box struct {
	ID, Label  string
	X, Y, W, H float64 // top-left corner and size
	CX, CY     float64 // centre
	Kind       graph.NodeKind
	View       graph.View
	Container  bool
	Color      string
	URL        string
	Tooltip    string
}

// Slot is a drawn port.
type Slot struct {
	NodeID, PortID string
	In             bool
	X, Y, W, H     float64 // top-left corner and size
	Color          string
	Tooltip        string
}

// Path is a drawn edge polyline.
type Path struct {
	ID, From, To string
	Points       []graph.Point
	Color        string
	Tooltip      string
}

// Drawing hooks. Each writes the SVG for one element.
type (
	NodeFunc func(buf *bytes.Buffer, b Box)
	PortFunc func(buf *bytes.Buffer, s Slot)
	EdgeFunc func(buf *bytes.Buffer, p Path)
)

// Hooks is a named table of drawing functions. The names in
// config.Drawing select entries from it.
type Hooks struct {
	Nodes map[string]NodeFunc
	Ports map[string]PortFunc
	Edges map[string]EdgeFunc
}

// DefaultHooks returns the built-in drawing functions:
//
//	nodes: "box", "rounded", "cluster", "mini"
//	ports: "slot"
//	edges: "spline", "line"
func DefaultHooks() Hooks {
	return Hooks{
		Nodes: map[string]NodeFunc{
			"box":     drawBox(0),
			"rounded": drawBox(6),
			"cluster": drawCluster,
			"mini":    drawMini,
		},
		Ports: map[string]PortFunc{"slot": drawSlot},
		Edges: map[string]EdgeFunc{
			"spline": drawSpline,
			"line":   drawLine,
		},
	}
}

// merge returns the defaults overlaid with h.
func (h Hooks) merge() Hooks {
	out := DefaultHooks()
	maps.Copy(out.Nodes, h.Nodes)
	maps.Copy(out.Ports, h.Ports)
	maps.Copy(out.Edges, h.Edges)
	return out
}

// drawing is the resolved hook set for one renderer.
type drawing struct {
	node, group, minimap NodeFunc
	ports                PortFunc
	nodeEdge, portEdge   EdgeFunc
}

func resolveHooks(h Hooks, d config.Drawing) (drawing, error) {
	var out drawing
	var err error
	if out.node, err = pick(h.Nodes, "node", d.Node, "box"); err != nil {
		return out, err
	}
	if out.group, err = pick(h.Nodes, "group", d.Group, "cluster"); err != nil {
		return out, err
	}
	if out.minimap, err = pick(h.Nodes, "minimap", d.Minimap, "mini"); err != nil {
		return out, err
	}
	if out.ports, err = pick(h.Ports, "ports", d.Ports, "slot"); err != nil {
		return out, err
	}
	if out.nodeEdge, err = pick(h.Edges, "node_edge", d.NodeEdge, "spline"); err != nil {
		return out, err
	}
	if out.portEdge, err = pick(h.Edges, "port_edge", d.PortEdge, "spline"); err != nil {
		return out, err
	}
	return out, nil
}

func pick[F any](table map[string]F, role, name, fallback string) (F, error) {
	if name == "" {
		name = fallback
	}
	f, ok := table[name]
	if !ok {
		var zero F
		return zero, errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, "drawing."+role,
			"unknown %s drawing %q", role, name)
	}
	return f, nil
}

// =============================================================================
// Built-in hooks
// =============================================================================

func drawBox(radius float64) NodeFunc {
	return func(buf *bytes.Buffer, b Box) {
		fill := b.Color
		if fill == "" {
			fill = "white"
		}
		WrapURL(buf, b.URL, func() {
			fmt.Fprintf(buf, `    <rect id="node-%s" class="node" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.1f" fill="%s" stroke="#333" stroke-width="1.5">`,
				EscapeXML(b.ID), b.X, b.Y, b.W, b.H, radius, EscapeXML(fill))
			writeTitle(buf, b.Tooltip)
			buf.WriteString("</rect>\n")
			size := FontSize(b)
			fmt.Fprintf(buf, `    <text class="label" x="%.2f" y="%.2f" font-size="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
				b.CX, b.CY, size, EscapeXML(TruncateLabel(b)))
		})
	}
}

func drawCluster(buf *bytes.Buffer, b Box) {
	if !b.Container {
		drawBox(6)(buf, b)
		return
	}
	fill := b.Color
	if fill == "" {
		fill = "#f4f6f8"
	}
	fmt.Fprintf(buf, `    <rect id="group-%s" class="group" x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="8" fill="%s" stroke="#99a" stroke-dasharray="4 2">`,
		EscapeXML(b.ID), b.X, b.Y, b.W, b.H, EscapeXML(fill))
	writeTitle(buf, b.Tooltip)
	buf.WriteString("</rect>\n")
	fmt.Fprintf(buf, `    <text class="group-label" x="%.2f" y="%.2f" font-size="12" dominant-baseline="hanging">%s</text>`+"\n",
		b.X+toggleSize+2*toggleInset, b.Y+toggleInset, EscapeXML(b.Label))
}

func drawMini(buf *bytes.Buffer, b Box) {
	fmt.Fprintf(buf, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="#ccd" stroke="none"/>`+"\n",
		b.X, b.Y, b.W, b.H)
}

func drawSlot(buf *bytes.Buffer, s Slot) {
	fill := s.Color
	if fill == "" {
		fill = "#555"
	}
	class := "port out"
	if s.In {
		class = "port in"
	}
	fmt.Fprintf(buf, `    <rect class="%s" data-node="%s" data-port="%s" x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s">`,
		class, EscapeXML(s.NodeID), EscapeXML(s.PortID), s.X, s.Y, s.W, s.H, EscapeXML(fill))
	writeTitle(buf, s.Tooltip)
	buf.WriteString("</rect>\n")
}

func drawSpline(buf *bytes.Buffer, p Path) {
	writePath(buf, p, splineData(p.Points))
}

func drawLine(buf *bytes.Buffer, p Path) {
	if len(p.Points) < 2 {
		return
	}
	first, last := p.Points[0], p.Points[len(p.Points)-1]
	writePath(buf, p, fmt.Sprintf("M%.2f,%.2f L%.2f,%.2f", first.X, first.Y, last.X, last.Y))
}

func writePath(buf *bytes.Buffer, p Path, d string) {
	if d == "" {
		return
	}
	stroke := p.Color
	if stroke == "" {
		stroke = "#333"
	}
	fmt.Fprintf(buf, `    <path id="edge-%s" class="edge" data-from="%s" data-to="%s" d="%s" fill="none" stroke="%s" stroke-width="1.2" marker-end="url(#arrow)">`,
		EscapeXML(p.ID), EscapeXML(p.From), EscapeXML(p.To), d, EscapeXML(stroke))
	writeTitle(buf, p.Tooltip)
	buf.WriteString("</path>\n")
}

// splineData returns SVG path data. A polyline of 3k+1 points is read as
// cubic Bézier segments; anything else is drawn as straight segments.
func splineData(pts []graph.Point) string {
	if len(pts) < 2 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "M%.2f,%.2f", pts[0].X, pts[0].Y)
	if (len(pts)-1)%3 == 0 {
		for i := 1; i < len(pts); i += 3 {
			fmt.Fprintf(&sb, " C%.2f,%.2f %.2f,%.2f %.2f,%.2f",
				pts[i].X, pts[i].Y, pts[i+1].X, pts[i+1].Y, pts[i+2].X, pts[i+2].Y)
		}
		return sb.String()
	}
	for _, p := range pts[1:] {
		fmt.Fprintf(&sb, " L%.2f,%.2f", p.X, p.Y)
	}
	return sb.String()
}

// writeTitle writes a tooltip, keeping its line breaks.
func writeTitle(buf *bytes.Buffer, tooltip string) {
	if tooltip == "" {
		return
	}
	lines := strings.Split(tooltip, "\n")
	for i, l := range lines {
		lines[i] = EscapeXML(l)
	}
	fmt.Fprintf(buf, "<title>%s</title>", strings.Join(lines, "\n"))
}

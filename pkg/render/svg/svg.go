// Package svg renders flowlens scenes as standalone SVG documents.
//
// The document is split into three layers, switched by level of detail:
//
//	view0  groups, nodes, labels, collapse controls and plain edges (always shown)
//	view1  one representative line per port-routed edge (level 0)
//	view2  ports and individual port edges (level 1 and up)
//
// [Renderer.UpdateLod] only flips the display of view1 and view2; it never
// needs a new layout. When a minimap size is configured the graph is drawn a
// second time, scaled to fit, to the right of the canvas.
//
// Shapes are drawn by hooks looked up by name from config.Drawing, so callers
// can restyle any element:
//
//	hooks := svg.Hooks{Nodes: map[string]svg.NodeFunc{"pill": drawPill}}
//	r, err := svg.New(svg.Options{Drawing: config.Drawing{Node: "pill"}, Hooks: hooks})
package svg

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/render"
)

const (
	toggleSize    = 12.0
	toggleInset   = 4.0
	minimapMargin = 16.0
	defaultSlot   = 8.0
)

const interactionJS = `
    document.querySelectorAll('.toggle').forEach(el => {
      el.addEventListener('click', () => document.dispatchEvent(
        new CustomEvent('flowlens:toggle', {detail: el.dataset.group})));
    });`

// Options configures the SVG renderer.
type Options struct {
	Drawing config.Drawing
	Hooks   Hooks
	Map     *config.Size // minimap size, none if nil
	Port    *config.Size // port slot size, 8x8 if nil
}

// OptionsFromConfig extracts the renderer options of a configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{Drawing: cfg.Drawing, Map: cfg.Map, Port: cfg.Port}
}

// Renderer draws scenes to SVG and keeps the last document.
// It is safe for concurrent use.
type Renderer struct {
	opts Options
	draw drawing

	mu    sync.Mutex
	scene *render.Scene
	lod   int
	out   []byte
}

// New returns a renderer. Unknown hook names are INVALID_CONFIG errors.
func New(opts Options) (*Renderer, error) {
	d, err := resolveHooks(opts.Hooks.merge(), opts.Drawing)
	if err != nil {
		return nil, err
	}
	return &Renderer{opts: opts, draw: d}, nil
}

// Name implements render.Named.
func (r *Renderer) Name() string { return "svg" }

// Render implements render.Renderer.
func (r *Renderer) Render(_ context.Context, s *render.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scene = s
	r.lod = s.LOD
	r.out = r.write()
	return nil
}

// UpdateLod implements render.Renderer. The last scene is redrawn with the
// other layer set displayed.
func (r *Renderer) UpdateLod(lod int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lod = lod
	if r.scene != nil {
		r.out = r.write()
	}
}

// Bytes returns the last document, or nil before the first Render.
func (r *Renderer) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out
}

// Lod returns the level the last document was drawn at.
func (r *Renderer) Lod() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lod
}

func (r *Renderer) write() []byte {
	s := r.scene
	gw, gh := s.Frame.Meta.Width, s.Frame.Meta.Height
	w, h := gw, gh
	if r.opts.Map != nil {
		w += minimapMargin + r.opts.Map.Width
		h = max(h, r.opts.Map.Height)
	}

	boxes := r.boxes(s)
	plain, coarse, fine := r.paths(s)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	buf.WriteString(`  <defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse"><path d="M0,0 L10,5 L0,10 z" fill="#333"/></marker></defs>` + "\n")

	buf.WriteString(`  <g class="view0">` + "\n")
	for _, b := range boxes {
		if b.Container {
			r.draw.group(&buf, b)
		}
	}
	for _, p := range plain {
		r.draw.nodeEdge(&buf, p)
	}
	for _, b := range boxes {
		switch {
		case b.Container:
		case b.Kind == graph.KindGroup:
			r.draw.group(&buf, b)
		default:
			r.draw.node(&buf, b)
		}
	}
	for _, b := range boxes {
		if b.Kind == graph.KindGroup {
			writeToggle(&buf, b)
		}
	}
	buf.WriteString("  </g>\n")

	fmt.Fprintf(&buf, `  <g class="view1" display="%s">`+"\n", display(r.lod == 0))
	for _, p := range coarse {
		r.draw.nodeEdge(&buf, p)
	}
	buf.WriteString("  </g>\n")

	fmt.Fprintf(&buf, `  <g class="view2" display="%s">`+"\n", display(r.lod >= 1))
	for _, p := range fine {
		r.draw.portEdge(&buf, p)
	}
	for _, sl := range r.slots(s) {
		r.draw.ports(&buf, sl)
	}
	buf.WriteString("  </g>\n")

	if r.opts.Map != nil && gw > 0 && gh > 0 {
		r.writeMinimap(&buf, boxes, gw, gh)
	}

	fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// boxes converts visible nodes, containers first so they sit underneath.
func (r *Renderer) boxes(s *render.Scene) []Box {
	containers := make(map[string]bool)
	for _, id := range s.Frame.Vis.Nodes {
		if p := s.Parent(id); p != "" {
			containers[p] = true
		}
	}
	var outer, inner []Box
	for _, id := range s.Frame.Vis.Nodes {
		n := s.Model.Node(id)
		if n == nil {
			continue
		}
		b := Box{
			ID: n.ID, Label: n.Name,
			X: n.X - n.Width/2, Y: n.Y - n.Height/2, W: n.Width, H: n.Height,
			CX: n.X, CY: n.Y,
			Kind:      n.Kind,
			View:      n.View,
			Container: containers[id] && n.View != graph.ViewReduced,
			Color:     n.Color,
			URL:       n.Attr[graph.AttrLink],
			Tooltip:   tooltip(n.Describe(), n.Attr),
		}
		if b.Container {
			outer = append(outer, b)
		} else {
			inner = append(inner, b)
		}
	}
	return append(outer, inner...)
}

// paths splits visible edges into plain edges, coarse representatives of
// port-routed edges, and individual port edges.
func (r *Renderer) paths(s *render.Scene) (plain, coarse, fine []Path) {
	for _, id := range s.Frame.Vis.Edges {
		e := s.Model.Edge(id)
		if e == nil {
			continue
		}
		from, to := s.Ends(e)
		tip := tooltip(e.Describe(), e.Attr)
		if s.View != nil && len(s.View.Absorbed[id]) > 0 {
			tip += "\nalso: " + strings.Join(s.View.Absorbed[id], ", ")
		}
		p := Path{ID: e.ID, From: from, To: to, Points: e.Points, Tooltip: tip}
		if !portRouted(e) {
			plain = append(plain, p)
			continue
		}
		coarse = append(coarse, p)
		for _, pp := range e.Ports {
			fine = append(fine, Path{
				ID: pp.Key(e.ID), From: from, To: to, Points: pp.Points,
				Tooltip: tooltip(pp.Key(e.ID), pp.Attr),
			})
		}
	}
	return plain, coarse, fine
}

func portRouted(e *graph.Edge) bool {
	if len(e.Ports) == 0 {
		return false
	}
	for _, pp := range e.Ports {
		if len(pp.Points) == 0 {
			return false
		}
	}
	return true
}

// slots places the ports of visible port nodes. Anchored ports are centred
// on their anchor; the rest are spread along the top (in) and bottom (out)
// edges of the node.
func (r *Renderer) slots(s *render.Scene) []Slot {
	if !s.Model.IsPortGraph() {
		return nil
	}
	sw, sh := defaultSlot, defaultSlot
	if r.opts.Port != nil {
		sw, sh = r.opts.Port.Width, r.opts.Port.Height
	}
	var out []Slot
	for _, id := range s.Frame.Vis.Nodes {
		n := s.Model.Node(id)
		if n == nil || n.Kind != graph.KindPort {
			continue
		}
		side := func(ports map[string]*graph.Port, in bool, y float64) {
			ids := graph.PortIDs(ports)
			for i, pid := range ids {
				p := ports[pid]
				c := graph.Point{X: n.X - n.Width/2 + n.Width*float64(i+1)/float64(len(ids)+1), Y: y}
				if p.Anchor != nil {
					c = *p.Anchor
				}
				out = append(out, Slot{
					NodeID: id, PortID: pid, In: in,
					X: c.X - sw/2, Y: c.Y - sh/2, W: sw, H: sh,
					Color:   p.Color,
					Tooltip: tooltip(pid, p.Attr),
				})
			}
		}
		side(n.In, true, n.Y-n.Height/2)
		side(n.Out, false, n.Y+n.Height/2)
	}
	return out
}

func writeToggle(buf *bytes.Buffer, b Box) {
	sign := "−"
	if b.View == graph.ViewReduced {
		sign = "+"
	}
	x, y := b.X+toggleInset, b.Y+toggleInset
	fmt.Fprintf(buf, `    <g class="toggle" data-group="%s" cursor="pointer"><rect x="%.2f" y="%.2f" width="%.0f" height="%.0f" fill="white" stroke="#666"/><text x="%.2f" y="%.2f" font-size="11" text-anchor="middle" dominant-baseline="middle">%s</text></g>`+"\n",
		EscapeXML(b.ID), x, y, toggleSize, toggleSize, x+toggleSize/2, y+toggleSize/2, sign)
}

func display(on bool) string {
	if on {
		return "inline"
	}
	return "none"
}

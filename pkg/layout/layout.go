// Package layout is the boundary between flowlens and an external layered
// layout engine.
//
// [Build] turns the visible part of a model into a [Request]: one [NodeSpec]
// per visible node, with sizes and parent links, and one [EdgeSpec] per
// visible edge. In a port graph, an edge with ports becomes one spec per port
// pair keyed "edgeID.outPort.inPort", so that parallel port edges survive as
// true multi-edges.
//
// An [Engine] computes positions and routes. [Apply] copies them back onto the
// model: node centres and sizes, node-to-node polylines into Edge.Points and
// port polylines into PortPair.Points.
//
// Engine errors are returned unchanged. A failing layout means the reduced
// graph was malformed; callers treat it as fatal for the current frame.
package layout

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/view"
)

// =============================================================================
// Request
// =============================================================================

// NodeSpec describes one visible node for the engine.
type NodeSpec struct {
	ID     string  `json:"id"`
	Label  string  `json:"label,omitempty"`
	Parent string  `json:"parent,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Container marks an expanded group drawn around its children. The
	// engine sizes containers itself; Width and Height are zero.
	Container bool `json:"container,omitempty"`

	// In and Out list port ids in slot order for port nodes of a port graph.
	In  []string `json:"in,omitempty"`
	Out []string `json:"out,omitempty"`
}

// EdgeSpec describes one edge for the engine.
type EdgeSpec struct {
	Key     string `json:"key"`
	EdgeID  string `json:"edge"`
	From    string `json:"from"`
	To      string `json:"to"`
	OutPort string `json:"out,omitempty"`
	InPort  string `json:"in,omitempty"`
}

// IsPortEdge reports whether s routes a single port pair.
func (s EdgeSpec) IsPortEdge() bool { return s.OutPort != "" }

// Request is the reduced graph handed to an engine.
type Request struct {
	Nodes   []NodeSpec `json:"nodes"`
	Edges   []EdgeSpec `json:"edges"`
	RankDir string     `json:"rankdir"`
	NodeSep float64    `json:"nodesep,omitempty"`
	RankSep float64    `json:"ranksep,omitempty"`

	// PortWidth and PortHeight size a port slot on a port node.
	PortWidth  float64 `json:"port_width,omitempty"`
	PortHeight float64 `json:"port_height,omitempty"`
}

// Options control request building.
type Options struct {
	Node   config.Size
	Port   *config.Size
	Layout config.Layout
}

// OptionsFromConfig extracts the layout options of a configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{Node: cfg.Node, Port: cfg.Port, Layout: cfg.Layout}
}

// =============================================================================
// Response
// =============================================================================

// Box is a positioned rectangle. X and Y are the centre.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Response holds the engine output in pixels, origin top-left.
type Response struct {
	Width  float64                  `json:"width"`
	Height float64                  `json:"height"`
	Nodes  map[string]Box           `json:"nodes"`
	Edges  map[string][]graph.Point `json:"edges"`
}

// Engine computes a layered layout.
type Engine interface {
	// Name identifies the engine in logs and cache keys.
	Name() string
	// Layout positions every node spec and routes every edge spec.
	Layout(ctx context.Context, req *Request) (*Response, error)
}

// =============================================================================
// Build and Apply
// =============================================================================

// Build creates the engine request for the visible part of m.
func Build(m *graph.Model, res *view.Result, opts Options) *Request {
	req := &Request{
		RankDir: opts.Layout.RankDir,
		NodeSep: opts.Layout.NodeSep,
		RankSep: opts.Layout.RankSep,
	}
	if req.RankDir == "" {
		req.RankDir = config.DefaultRankDir
	}
	portGraph := m.IsPortGraph() && opts.Port != nil
	if portGraph {
		req.PortWidth, req.PortHeight = opts.Port.Width, opts.Port.Height
	}

	hasChildren := make(map[string]bool)
	for _, parent := range res.ParentOf {
		hasChildren[parent] = true
	}

	for _, id := range res.VisibleNodes {
		n := m.Node(id)
		spec := NodeSpec{
			ID:     id,
			Label:  n.Name,
			Parent: res.ParentOf[id],
			Width:  opts.Node.Width,
			Height: opts.Node.Height,
		}
		switch n.Kind {
		case graph.KindGroup:
			if n.View != graph.ViewReduced && hasChildren[id] {
				spec.Container = true
				spec.Width, spec.Height = 0, 0
			}
		case graph.KindPort:
			if portGraph {
				spec.In = graph.PortIDs(n.In)
				spec.Out = graph.PortIDs(n.Out)
			}
		}
		req.Nodes = append(req.Nodes, spec)
	}

	for _, id := range res.VisibleEdges {
		e := m.Edge(id)
		ends := res.Resolved[id]
		direct := ends.From == e.From && ends.To == e.To
		if portGraph && direct && len(e.Ports) > 0 {
			for _, pp := range e.Ports {
				req.Edges = append(req.Edges, EdgeSpec{
					Key:     pp.Key(id),
					EdgeID:  id,
					From:    ends.From,
					To:      ends.To,
					OutPort: pp.Out,
					InPort:  pp.In,
				})
			}
			continue
		}
		req.Edges = append(req.Edges, EdgeSpec{Key: id, EdgeID: id, From: ends.From, To: ends.To})
	}
	return req
}

// Apply copies an engine response onto the model. Routed points from an
// earlier pass are cleared on every requested edge first, and port anchors on
// every requested node.
func Apply(m *graph.Model, req *Request, resp *Response) error {
	for _, spec := range req.Nodes {
		box, ok := resp.Nodes[spec.ID]
		if !ok {
			return errors.New(errors.ErrCodeInternal, "layout response has no position for node %q", spec.ID)
		}
		n := m.Node(spec.ID)
		if n == nil {
			return errors.New(errors.ErrCodeInternal, "layout request names unknown node %q", spec.ID)
		}
		n.X, n.Y, n.Width, n.Height = box.X, box.Y, box.Width, box.Height
		// Anchors are set again by port aggregation where a port edge is
		// still routed.
		for _, p := range n.In {
			p.Anchor = nil
		}
		for _, p := range n.Out {
			p.Anchor = nil
		}
	}

	for _, spec := range req.Edges {
		e := m.Edge(spec.EdgeID)
		if e == nil {
			return errors.New(errors.ErrCodeInternal, "layout request names unknown edge %q", spec.EdgeID)
		}
		e.Points = nil
		for i := range e.Ports {
			e.Ports[i].Points = nil
		}
	}

	for _, spec := range req.Edges {
		pts := resp.Edges[spec.Key]
		e := m.Edge(spec.EdgeID)
		if !spec.IsPortEdge() {
			e.Points = pts
			continue
		}
		i := portIndex(e, spec)
		if i < 0 {
			return errors.New(errors.ErrCodeInternal, "edge %q has no port pair %s", spec.EdgeID, spec.Key)
		}
		e.Ports[i].Points = pts
	}
	return nil
}

func portIndex(e *graph.Edge, spec EdgeSpec) int {
	for i, pp := range e.Ports {
		if pp.Key(e.ID) == spec.Key {
			return i
		}
	}
	return -1
}

// Describe returns a short summary for logs.
func (r *Request) Describe() string {
	return fmt.Sprintf("%d nodes, %d edges, rankdir %s", len(r.Nodes), len(r.Edges), r.RankDir)
}

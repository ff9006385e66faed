package viewer

import (
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Export returns the current frame with every visible entity and its
// coordinates. Edge endpoints are the resolved ones.
func (v *Viewer) Export() graph.Layout {
	m, res := v.model, v.res
	l := graph.Layout{
		Width:    v.frame.Meta.Width,
		Height:   v.frame.Meta.Height,
		LOD:      v.lod.Level(),
		Detailed: v.lod.Detailed(),
		Visible:  v.frame.Vis,
		Nodes:    make([]graph.LayoutNode, 0, len(res.VisibleNodes)),
		Edges:    make([]graph.LayoutEdge, 0, len(res.VisibleEdges)),
	}
	if len(res.HiddenToRoot) > 0 {
		l.Hidden = res.HiddenToRoot
	}

	for _, id := range res.VisibleNodes {
		n := m.Node(id)
		ln := graph.LayoutNode{
			ID:     n.ID,
			Name:   n.Name,
			Kind:   n.Kind.String(),
			Parent: res.ParentOf[id],
			X:      n.X,
			Y:      n.Y,
			Width:  n.Width,
			Height: n.Height,
			Color:  n.Color,
			Attr:   n.Attr,
		}
		if n.IsGroup() {
			ln.View = n.View
		}
		if l.Detailed {
			ln.In, ln.Out = n.In, n.Out
		}
		l.Nodes = append(l.Nodes, ln)
	}

	for _, id := range res.VisibleEdges {
		e := m.Edge(id)
		ends := res.Resolved[id]
		le := graph.LayoutEdge{
			ID:       e.ID,
			From:     ends.From,
			To:       ends.To,
			Points:   e.Points,
			Attr:     e.Attr,
			Absorbed: res.Absorbed[id],
		}
		if l.Detailed {
			le.Ports = e.Ports
		}
		l.Edges = append(l.Edges, le)
	}
	return l
}

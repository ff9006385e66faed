// Package portedge derives coarse node-to-node geometry from port edges.
//
// When an edge connects nodes through several port pairs, the layout routes
// one polyline per pair. At low detail only one line is drawn per edge; this
// package picks it:
//
//   - n odd: the middle path, index (n-1)/2
//   - n even: the pointwise average of paths n/2-1 and n/2, over the length
//     of the shorter one
//
// It also anchors each port to its own path: output ports to the first
// point, input ports to the last.
package portedge

import (
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Representative returns the polyline drawn for a bundle of parallel paths.
// It returns nil for an empty bundle.
func Representative(paths [][]graph.Point) []graph.Point {
	n := len(paths)
	if n == 0 {
		return nil
	}
	if n%2 == 1 {
		return append([]graph.Point(nil), paths[(n-1)/2]...)
	}

	a, b := paths[n/2-1], paths[n/2]
	out := make([]graph.Point, min(len(a), len(b)))
	for i := range out {
		out[i] = graph.Point{X: (a[i].X + b[i].X) / 2, Y: (a[i].Y + b[i].Y) / 2}
	}
	return out
}

// Aggregate sets the representative polyline and the port anchors of every
// listed edge routed per port pair. Edges whose port pairs carry no routed
// points are left alone; their node-to-node polyline comes from the layout.
// It returns the number of edges aggregated.
func Aggregate(m *graph.Model, edgeIDs []string) int {
	count := 0
	for _, id := range edgeIDs {
		e := m.Edge(id)
		if e == nil || !routedPerPort(e) {
			continue
		}

		paths := make([][]graph.Point, len(e.Ports))
		for i, pp := range e.Ports {
			paths[i] = pp.Points
		}
		e.Points = Representative(paths)
		anchor(m, e)
		count++
	}
	return count
}

func routedPerPort(e *graph.Edge) bool {
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

func anchor(m *graph.Model, e *graph.Edge) {
	from, to := m.Node(e.From), m.Node(e.To)
	for _, pp := range e.Ports {
		first, last := pp.Points[0], pp.Points[len(pp.Points)-1]
		if p := from.Out[pp.Out]; p != nil {
			p.Anchor = &first
		}
		if p := to.In[pp.In]; p != nil {
			p.Anchor = &last
		}
	}
}

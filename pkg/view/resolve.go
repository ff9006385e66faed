// Package view computes what part of a compound graph is visible.
//
// [Resolve] walks the compound structure of a [graph.Model] and, from the
// expand/reduce state of each group, derives the visible nodes, the parent of
// every visible node, and the hidden→root map sending each node inside a
// reduced group to the outermost reduced group containing it. Edges are then
// redirected through that map and deduplicated:
//
//   - an edge whose endpoints resolve to the same node is dropped
//   - of several edges resolving to the same (from, to) pair, the first one in
//     insertion order is kept, the others are recorded in [Result.Absorbed]
//
// Resolution is a pure function of the model; resolving twice without a state
// change yields identical results.
package view

import (
	"github.com/matzehuels/flowlens/pkg/graph"
)

// Endpoints is a resolved edge endpoint pair.
type Endpoints struct {
	From string
	To   string
}

// Result is the visible subset of a model.
type Result struct {
	// VisibleNodes lists visible node ids in compound pre-order (insertion
	// order for flat graphs).
	VisibleNodes []string
	// VisibleEdges lists the surviving edge ids in insertion order.
	VisibleEdges []string
	// HiddenToRoot maps every hidden node id to the visible group standing in
	// for it.
	HiddenToRoot map[string]string
	// ParentOf maps visible node ids to their enclosing group. Top-level nodes
	// have no entry.
	ParentOf map[string]string
	// Resolved holds the redirected endpoints of every visible edge.
	Resolved map[string]Endpoints
	// Absorbed maps a visible edge id to the ids of later edges that resolved
	// onto the same pair and were dropped in its favour.
	Absorbed map[string][]string

	// SelfLoops counts edges dropped because both endpoints resolved to the
	// same node.
	SelfLoops int
	// Dropped counts edges with an endpoint placed nowhere in the compound
	// structure.
	Dropped int

	visible map[string]bool
}

// IsVisible reports whether the node id is visible.
func (r *Result) IsVisible(id string) bool { return r.visible[id] }

// Root returns the visible node standing in for id: id itself when visible,
// its hidden root otherwise, or "" when the node is placed nowhere.
func (r *Result) Root(id string) string {
	if r.visible[id] {
		return id
	}
	return r.HiddenToRoot[id]
}

// accumulator collects the visible set while the compound tree is walked.
type accumulator struct {
	model *graph.Model
	res   *Result
}

// Resolve computes the visible subset of m.
func Resolve(m *graph.Model) *Result {
	res := &Result{
		HiddenToRoot: make(map[string]string),
		ParentOf:     make(map[string]string),
		Resolved:     make(map[string]Endpoints),
		Absorbed:     make(map[string][]string),
		visible:      make(map[string]bool),
	}

	if c := m.Compound(); c != nil {
		acc := &accumulator{model: m, res: res}
		acc.visibleLevel(c)
	} else {
		for _, n := range m.Nodes() {
			res.show(n.ID, "")
		}
	}

	resolveEdges(m, res)
	return res
}

func (r *Result) show(id, parent string) {
	if r.visible[id] {
		return
	}
	r.visible[id] = true
	r.VisibleNodes = append(r.VisibleNodes, id)
	if parent != "" {
		r.ParentOf[id] = parent
	}
}

// visibleLevel handles a level whose nodes are drawn.
func (a *accumulator) visibleLevel(level *graph.Compound) {
	for _, id := range level.Nodes {
		a.res.show(id, level.Group)
	}
	for _, child := range level.Children {
		g := child.Group
		a.res.show(g, level.Group)

		if n := a.model.Node(g); n != nil && n.View == graph.ViewReduced {
			a.hiddenLevel(child, g)
			continue
		}
		a.visibleLevel(child)
	}
}

// hiddenLevel handles a level somewhere below the reduced group root.
func (a *accumulator) hiddenLevel(level *graph.Compound, root string) {
	for _, id := range level.Nodes {
		a.res.HiddenToRoot[id] = root
	}
	for _, child := range level.Children {
		a.res.HiddenToRoot[child.Group] = root
		a.hiddenLevel(child, root)
	}
}

func resolveEdges(m *graph.Model, res *Result) {
	taken := make(map[Endpoints]string)
	for _, e := range m.Edges() {
		from, to := res.Root(e.From), res.Root(e.To)
		if from == "" || to == "" {
			res.Dropped++
			continue
		}
		if from == to {
			res.SelfLoops++
			continue
		}
		pair := Endpoints{From: from, To: to}
		if first, ok := taken[pair]; ok {
			res.Absorbed[first] = append(res.Absorbed[first], e.ID)
			continue
		}
		taken[pair] = e.ID
		res.VisibleEdges = append(res.VisibleEdges, e.ID)
		res.Resolved[e.ID] = pair
	}
}

package graph

import (
	"github.com/matzehuels/flowlens/pkg/errors"
)

// =============================================================================
// Model - Canonical Graph State
// =============================================================================

// Model owns the canonical node set, edge set and compound structure of a
// graph. Nodes and edges keep their insertion order; replacing an entity by id
// keeps its original position.
//
// Every mutating method validates its whole input before committing anything,
// so a failed call leaves the model exactly as it was. A Model is not safe for
// concurrent use.
type Model struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string

	compound  *Compound
	derived   bool // compound follows the nodes' children lists
	groups    map[string]bool
	depth     int
	portGraph bool
}

// New returns an empty flat model.
func New() *Model {
	return &Model{
		nodes:  make(map[string]*Node),
		edges:  make(map[string]*Edge),
		groups: make(map[string]bool),
	}
}

// FromDocument builds a validated model from an input document. When the
// document carries no compound tree, the tree is derived from the nodes'
// children lists and stays derived; see [Model.DeriveCompound].
func FromDocument(doc *Document) (*Model, error) {
	m := New()
	if doc == nil {
		m.derived = true
		return m, nil
	}
	if err := m.AddOrReplaceNodes(doc.Nodes); err != nil {
		return nil, err
	}
	if err := m.AddOrReplaceEdges(doc.Edges); err != nil {
		return nil, err
	}
	if doc.Compound == nil {
		if err := m.DeriveCompound(); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := m.SetCompoundStructure(doc.Compound); err != nil {
		return nil, err
	}
	return m, nil
}

// =============================================================================
// Nodes
// =============================================================================

// AddOrReplaceNodes adds nodes, replacing existing nodes with the same id.
//
// Every node needs an id and a name. Two nodes with the same id inside one
// batch are rejected with a DUPLICATE_ID error; replacing a node already in
// the model is a normal update. Replacing a group node without a view keeps
// the group's current view. Any node declaring ports turns the model into a
// port graph.
func (m *Model) AddOrReplaceNodes(nodes []*Node) error {
	batch := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if err := validateNode(n); err != nil {
			return err
		}
		if prior, ok := batch[n.ID]; ok {
			return errors.Duplicate(errors.EntityNode, n.ID, n.Describe(), prior.Describe())
		}
		batch[n.ID] = n
	}

	lookup := func(id string) *Node {
		if n, ok := batch[id]; ok {
			return n
		}
		return m.nodes[id]
	}
	for _, id := range m.edgeOrder {
		if err := validateEdgeRefs(m.edges[id], lookup); err != nil {
			return err
		}
	}

	for _, n := range nodes {
		prev, exists := m.nodes[n.ID]
		if !exists {
			m.nodeOrder = append(m.nodeOrder, n.ID)
		} else if n.View == "" {
			n.View = prev.View
		}
		m.nodes[n.ID] = n
		if n.HasPorts() {
			m.portGraph = true
		}
	}
	m.assignKinds()
	return nil
}

// Node returns the node with the given id, or nil.
func (m *Model) Node(id string) *Node { return m.nodes[id] }

// HasNode reports whether a node with the given id exists.
func (m *Model) HasNode(id string) bool {
	_, ok := m.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (m *Model) Nodes() []*Node {
	out := make([]*Node, len(m.nodeOrder))
	for i, id := range m.nodeOrder {
		out[i] = m.nodes[id]
	}
	return out
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int { return len(m.nodeOrder) }

func validateNode(n *Node) error {
	if n == nil {
		return errors.Structural(errors.ErrCodeMissingField, errors.EntityNode, "", "node is nil")
	}
	if n.ID == "" {
		return errors.Structural(errors.ErrCodeMissingField, errors.EntityNode, "", "node %q is missing field \"id\"", n.Name)
	}
	if n.Name == "" {
		return errors.Structural(errors.ErrCodeMissingField, errors.EntityNode, n.ID, "node %s is missing field \"name\"", n.ID)
	}
	if n.View != "" && !n.View.Valid() {
		return errors.Structural(errors.ErrCodeInvalidView, errors.EntityNode, n.ID,
			"node %s has view %q, want %q or %q", n.Describe(), n.View, ViewExpanded, ViewReduced)
	}
	for side, ports := range map[string]map[string]*Port{"in": n.In, "out": n.Out} {
		for pid, p := range ports {
			if pid == "" || p == nil {
				return errors.Structural(errors.ErrCodeMissingField, errors.EntityPort, n.ID,
					"node %s declares an empty %s port", n.Describe(), side)
			}
		}
	}
	return nil
}

// =============================================================================
// Edges
// =============================================================================

// AddOrReplaceEdges adds edges, replacing existing edges with the same id.
//
// Every edge needs an id, a source and a target, and both endpoints must be
// existing nodes. Port pairs must name an output port of the source and an
// input port of the target.
func (m *Model) AddOrReplaceEdges(edges []*Edge) error {
	batch := make(map[string]*Edge, len(edges))
	for _, e := range edges {
		if err := validateEdge(e); err != nil {
			return err
		}
		if prior, ok := batch[e.ID]; ok {
			return errors.Duplicate(errors.EntityEdge, e.ID, e.Describe(), prior.Describe())
		}
		if err := validateEdgeRefs(e, m.Node); err != nil {
			return err
		}
		batch[e.ID] = e
	}

	for _, e := range edges {
		if _, exists := m.edges[e.ID]; !exists {
			m.edgeOrder = append(m.edgeOrder, e.ID)
		}
		m.edges[e.ID] = e
	}
	return nil
}

// Edge returns the edge with the given id, or nil.
func (m *Model) Edge(id string) *Edge { return m.edges[id] }

// HasEdge reports whether an edge with the given id exists.
func (m *Model) HasEdge(id string) bool {
	_, ok := m.edges[id]
	return ok
}

// Edges returns all edges in insertion order.
func (m *Model) Edges() []*Edge {
	out := make([]*Edge, len(m.edgeOrder))
	for i, id := range m.edgeOrder {
		out[i] = m.edges[id]
	}
	return out
}

// EdgeCount returns the number of edges.
func (m *Model) EdgeCount() int { return len(m.edgeOrder) }

func validateEdge(e *Edge) error {
	if e == nil {
		return errors.Structural(errors.ErrCodeMissingField, errors.EntityEdge, "", "edge is nil")
	}
	fields := [...]struct{ name, value string }{{"id", e.ID}, {"from", e.From}, {"to", e.To}}
	for _, f := range fields {
		if f.value == "" {
			return errors.Structural(errors.ErrCodeMissingField, errors.EntityEdge, e.ID,
				"edge %s is missing field %q", e.Describe(), f.name)
		}
	}
	return nil
}

func validateEdgeRefs(e *Edge, lookup func(string) *Node) error {
	from, to := lookup(e.From), lookup(e.To)
	if from == nil {
		return errors.Structural(errors.ErrCodeUnknownNode, errors.EntityEdge, e.ID,
			"edge %s starts at unknown node %q", e.Describe(), e.From)
	}
	if to == nil {
		return errors.Structural(errors.ErrCodeUnknownNode, errors.EntityEdge, e.ID,
			"edge %s ends at unknown node %q", e.Describe(), e.To)
	}
	for _, pp := range e.Ports {
		if _, ok := from.Out[pp.Out]; !ok {
			return errors.Structural(errors.ErrCodeUnknownPort, errors.EntityEdge, e.ID,
				"edge %s uses unknown output port %q of %s", e.Describe(), pp.Out, from.Describe())
		}
		if _, ok := to.In[pp.In]; !ok {
			return errors.Structural(errors.ErrCodeUnknownPort, errors.EntityEdge, e.ID,
				"edge %s uses unknown input port %q of %s", e.Describe(), pp.In, to.Describe())
		}
	}
	return nil
}

// =============================================================================
// Flags and Counters
// =============================================================================

// IsPortGraph reports whether edges are laid out per port pair.
func (m *Model) IsPortGraph() bool { return m.portGraph }

// SetPortGraph overrides the port graph flag.
func (m *Model) SetPortGraph(v bool) { m.portGraph = v }

// IsCompound reports whether a compound structure is set.
func (m *Model) IsCompound() bool { return m.compound != nil }

// Compound returns the current compound structure, or nil for a flat graph.
func (m *Model) Compound() *Compound { return m.compound }

// CompoundDerived reports whether the compound structure is rebuilt from the
// nodes' children lists rather than set explicitly.
func (m *Model) CompoundDerived() bool { return m.derived }

// Depth returns the maximum group nesting depth (0 for a flat graph).
func (m *Model) Depth() int { return m.depth }

// GroupCount returns the number of groups in the compound structure.
func (m *Model) GroupCount() int { return len(m.groups) }

// IsGroup reports whether id names a group of the compound structure.
func (m *Model) IsGroup(id string) bool { return m.groups[id] }

// SetGroupView sets the view of a group. It is the single mutation point for
// group views; interactive callers go through the group state machine.
func (m *Model) SetGroupView(id string, v View) error {
	if !m.groups[id] {
		return errors.Structural(errors.ErrCodeUnknownGroup, errors.EntityGroup, id, "%q is not a group", id)
	}
	if !v.Valid() {
		return errors.Structural(errors.ErrCodeInvalidView, errors.EntityGroup, id,
			"view %q is not %q or %q", v, ViewExpanded, ViewReduced)
	}
	m.nodes[id].View = v
	return nil
}

func (m *Model) assignKinds() {
	for _, n := range m.nodes {
		switch {
		case m.groups[n.ID]:
			n.Kind = KindGroup
			if n.View == "" {
				n.View = ViewExpanded
			}
		case n.HasPorts():
			n.Kind = KindPort
		default:
			n.Kind = KindPlain
		}
	}
}

// =============================================================================
// Snapshots
// =============================================================================

// Document returns the model as an input document. Entities are shared, not
// copied.
func (m *Model) Document() *Document {
	doc := &Document{Nodes: m.Nodes(), Edges: m.Edges(), Compound: m.compound}
	if m.derived {
		// The children lists carry the tree.
		doc.Compound = nil
	}
	return doc
}

// Clone returns a deep copy of the model. Callers apply a batch of changes to
// a clone and swap it in on success to keep multi-step updates atomic.
func (m *Model) Clone() *Model {
	c := &Model{
		nodes:     make(map[string]*Node, len(m.nodes)),
		nodeOrder: append([]string(nil), m.nodeOrder...),
		edges:     make(map[string]*Edge, len(m.edges)),
		edgeOrder: append([]string(nil), m.edgeOrder...),
		compound:  m.compound.clone(),
		derived:   m.derived,
		groups:    make(map[string]bool, len(m.groups)),
		depth:     m.depth,
		portGraph: m.portGraph,
	}
	for id, n := range m.nodes {
		c.nodes[id] = n.clone()
	}
	for id, e := range m.edges {
		c.edges[id] = e.clone()
	}
	for id := range m.groups {
		c.groups[id] = true
	}
	return c
}

func (n *Node) clone() *Node {
	c := *n
	c.Attr = cloneAttr(n.Attr)
	c.In = clonePorts(n.In)
	c.Out = clonePorts(n.Out)
	c.Children = append([]string(nil), n.Children...)
	return &c
}

func (e *Edge) clone() *Edge {
	c := *e
	c.Attr = cloneAttr(e.Attr)
	c.Points = append([]Point(nil), e.Points...)
	if e.Ports != nil {
		c.Ports = make([]PortPair, len(e.Ports))
		for i, pp := range e.Ports {
			pp.Attr = cloneAttr(pp.Attr)
			pp.Points = append([]Point(nil), pp.Points...)
			c.Ports[i] = pp
		}
	}
	return &c
}

func (c *Compound) clone() *Compound {
	if c == nil {
		return nil
	}
	out := &Compound{Group: c.Group, Nodes: append([]string(nil), c.Nodes...)}
	for _, child := range c.Children {
		out.Children = append(out.Children, child.clone())
	}
	return out
}

func cloneAttr(a map[string]string) map[string]string {
	if a == nil {
		return nil
	}
	out := make(map[string]string, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func clonePorts(ports map[string]*Port) map[string]*Port {
	if ports == nil {
		return nil
	}
	out := make(map[string]*Port, len(ports))
	for id, p := range ports {
		cp := *p
		cp.Attr = cloneAttr(p.Attr)
		if p.Anchor != nil {
			a := *p.Anchor
			cp.Anchor = &a
		}
		out[id] = &cp
	}
	return out
}

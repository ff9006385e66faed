package graph

import (
	"cmp"
	"maps"
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// View is the expand/reduce state of a group node.
type View string

// Group view states.
const (
	ViewExpanded View = "expanded"
	ViewReduced  View = "reduced"
)

// Valid reports whether v is one of the two legal group views.
func (v View) Valid() bool { return v == ViewExpanded || v == ViewReduced }

// Toggle returns the opposite view. An unset view counts as expanded.
func (v View) Toggle() View {
	if v == ViewReduced {
		return ViewExpanded
	}
	return ViewReduced
}

// NodeKind distinguishes plain nodes, nodes carrying ports, and group nodes.
// The kind is assigned by the [Model] during validation; callers switch on it
// instead of probing optional fields.
type NodeKind int

const (
	// KindPlain is a leaf node without ports.
	KindPlain NodeKind = iota
	// KindPort is a leaf node declaring input and/or output ports.
	KindPort
	// KindGroup is a node referenced as a group by the compound structure.
	KindGroup
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case KindPort:
		return "port"
	case KindGroup:
		return "group"
	default:
		return "plain"
	}
}

// AttrLink is the attr key whose presence keeps tooltips open long enough to
// follow the link.
const AttrLink = "link"

// =============================================================================
// Geometry
// =============================================================================

// Point is a position in layout coordinates (pixels, origin top-left).
type Point struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// =============================================================================
// Node
// =============================================================================

// Port is a connection point on one side of a node.
type Port struct {
	Port   int               `json:"port" yaml:"port" bson:"port"` // slot index on the node side
	Attr   map[string]string `json:"attr,omitempty" yaml:"attr,omitempty" bson:"attr,omitempty"`
	Color  string            `json:"color,omitempty" yaml:"color,omitempty" bson:"color,omitempty"`
	Anchor *Point            `json:"anchor,omitempty" yaml:"anchor,omitempty" bson:"anchor,omitempty"` // set after layout
}

// Node is a vertex of the logical graph.
//
// Width, Height, X and Y are transient: they are overwritten on every layout
// pass. X and Y are the centre of the node box.
type Node struct {
	ID       string            `json:"id" yaml:"id" bson:"id"`
	Name     string            `json:"name" yaml:"name" bson:"name"`
	Attr     map[string]string `json:"attr,omitempty" yaml:"attr,omitempty" bson:"attr,omitempty"`
	In       map[string]*Port  `json:"in,omitempty" yaml:"in,omitempty" bson:"in,omitempty"`
	Out      map[string]*Port  `json:"out,omitempty" yaml:"out,omitempty" bson:"out,omitempty"`
	Children []string          `json:"children,omitempty" yaml:"children,omitempty" bson:"children,omitempty"`
	View     View              `json:"view,omitempty" yaml:"view,omitempty" bson:"view,omitempty"`
	Color    string            `json:"color,omitempty" yaml:"color,omitempty" bson:"color,omitempty"`

	Width  float64 `json:"width,omitempty" yaml:"width,omitempty" bson:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty" bson:"height,omitempty"`
	X      float64 `json:"x,omitempty" yaml:"x,omitempty" bson:"x,omitempty"`
	Y      float64 `json:"y,omitempty" yaml:"y,omitempty" bson:"y,omitempty"`

	Kind NodeKind `json:"-" yaml:"-" bson:"-"`
}

// IsGroup reports whether the node is a group in the current compound structure.
func (n *Node) IsGroup() bool { return n.Kind == KindGroup }

// HasPorts reports whether the node declares any input or output port.
func (n *Node) HasPorts() bool { return len(n.In) > 0 || len(n.Out) > 0 }

// Describe returns a short human description used in error messages.
func (n *Node) Describe() string {
	if n == nil {
		return "<nil>"
	}
	return n.Name + " (" + n.ID + ")"
}

// PortIDs returns the ids of ports ordered by slot index, then id.
func PortIDs(ports map[string]*Port) []string {
	ids := slices.Collect(maps.Keys(ports))
	slices.SortFunc(ids, func(a, b string) int {
		if c := cmp.Compare(ports[a].Port, ports[b].Port); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return ids
}

// =============================================================================
// Edge
// =============================================================================

// PortPair connects an output port of the source node to an input port of
// the target node. Points is the routed polyline of this port edge.
type PortPair struct {
	Out    string            `json:"out" yaml:"out" bson:"out"`
	In     string            `json:"in" yaml:"in" bson:"in"`
	Attr   map[string]string `json:"attr,omitempty" yaml:"attr,omitempty" bson:"attr,omitempty"`
	Points []Point           `json:"points,omitempty" yaml:"points,omitempty" bson:"points,omitempty"`
}

// Key returns the unique layout key of the port edge: edgeID.out.in.
func (p PortPair) Key(edgeID string) string {
	return edgeID + "." + p.Out + "." + p.In
}

// Edge is a directed connection between two nodes.
// Points is the routed node-to-node polyline, overwritten on every layout pass.
type Edge struct {
	ID     string            `json:"id" yaml:"id" bson:"id"`
	From   string            `json:"from" yaml:"from" bson:"from"`
	To     string            `json:"to" yaml:"to" bson:"to"`
	Attr   map[string]string `json:"attr,omitempty" yaml:"attr,omitempty" bson:"attr,omitempty"`
	Ports  []PortPair        `json:"ports,omitempty" yaml:"ports,omitempty" bson:"ports,omitempty"`
	Points []Point           `json:"points,omitempty" yaml:"points,omitempty" bson:"points,omitempty"`
}

// Describe returns a short human description used in error messages.
func (e *Edge) Describe() string {
	if e == nil {
		return "<nil>"
	}
	return e.From + " -> " + e.To + " (" + e.ID + ")"
}

// =============================================================================
// Compound Structure
// =============================================================================

// Compound is one level of the group-nesting tree. The root level has an
// empty Group; every nested level names the group node it belongs to.
// Nodes lists the ids placed directly at this level.
type Compound struct {
	Group    string      `json:"group,omitempty" yaml:"group,omitempty" bson:"group,omitempty"`
	Nodes    []string    `json:"nodes,omitempty" yaml:"nodes,omitempty" bson:"nodes,omitempty"`
	Children []*Compound `json:"children,omitempty" yaml:"children,omitempty" bson:"children,omitempty"`
}

// Groups returns the ids of every group in the tree, in pre-order.
func (c *Compound) Groups() []string {
	if c == nil {
		return nil
	}
	var out []string
	var walk func(*Compound)
	walk = func(level *Compound) {
		for _, child := range level.Children {
			out = append(out, child.Group)
			walk(child)
		}
	}
	walk(c)
	return out
}

// =============================================================================
// Document - Input Graph Format
// =============================================================================

// Document is the input graph format: nodes, edges and an optional compound
// structure.
//
//	{
//	  "nodes": [{"id": "a", "name": "A"}, {"id": "g", "name": "G"}],
//	  "edges": [{"id": "e1", "from": "a", "to": "g"}],
//	  "compound": {"nodes": ["a"], "children": [{"group": "g", "nodes": []}]}
//	}
type Document struct {
	Nodes    []*Node   `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges    []*Edge   `json:"edges" yaml:"edges" bson:"edges"`
	Compound *Compound `json:"compound,omitempty" yaml:"compound,omitempty" bson:"compound,omitempty"`
}

package graph

import (
	"slices"

	"github.com/matzehuels/flowlens/pkg/errors"
)

// =============================================================================
// Compound Validation
// =============================================================================

// SetCompoundStructure replaces the compound structure wholesale. A nil tree
// makes the graph flat again.
//
// The tree is validated before it is committed:
//   - the root level has no group, every nested level names one
//   - every group and every listed node exists
//   - no id is placed under two parents and no group contains itself
//   - every group view is expanded or reduced (unset defaults to expanded)
//
// Depth, group count and node kinds are recomputed from scratch.
func (m *Model) SetCompoundStructure(tree *Compound) error {
	if tree == nil {
		m.compound = nil
		m.derived = false
		m.groups = make(map[string]bool)
		m.depth = 0
		m.assignKinds()
		return nil
	}

	v := &compoundValidator{
		model:  m,
		parent: make(map[string]string),
		groups: make(map[string]bool),
	}
	if tree.Group != "" {
		return errors.Structural(errors.ErrCodeInvalidCompound, errors.EntityCompound, tree.Group,
			"root level of the compound structure cannot name group %q", tree.Group)
	}
	if err := v.level(tree, 0); err != nil {
		return err
	}

	m.compound = tree.clone()
	m.derived = false
	m.groups = v.groups
	m.depth = v.depth
	m.assignKinds()
	return nil
}

// DeriveCompound rebuilds the compound structure from the children lists of
// the current nodes and marks it derived, so later node updates can rebuild
// it again. A graph without children lists becomes flat.
func (m *Model) DeriveCompound() error {
	if err := m.SetCompoundStructure(CompoundFromChildren(m.Nodes())); err != nil {
		return err
	}
	m.derived = true
	return nil
}

// compoundValidator accumulates placement state while walking a tree.
type compoundValidator struct {
	model  *Model
	parent map[string]string // id -> enclosing group ("" for root)
	groups map[string]bool
	path   []string // groups from the root to the current level
	depth  int
}

func (v *compoundValidator) level(c *Compound, depth int) error {
	v.depth = max(v.depth, depth)

	for _, id := range c.Nodes {
		if err := v.place(id, c.Group); err != nil {
			return err
		}
	}

	for _, child := range c.Children {
		if child == nil || child.Group == "" {
			return errors.Structural(errors.ErrCodeMissingField, errors.EntityCompound, c.Group,
				"nested compound level under %q is missing field \"group\"", c.Group)
		}
		g := child.Group
		n := v.model.nodes[g]
		if n == nil {
			return errors.Structural(errors.ErrCodeUnknownGroup, errors.EntityGroup, g,
				"compound structure references unknown group %q", g)
		}
		if n.View != "" && !n.View.Valid() {
			return errors.Structural(errors.ErrCodeInvalidView, errors.EntityGroup, g,
				"group %s has view %q, want %q or %q", n.Describe(), n.View, ViewExpanded, ViewReduced)
		}
		if v.groups[g] {
			return errors.Structural(errors.ErrCodeDuplicateParent, errors.EntityGroup, g,
				"group %s appears more than once in the compound structure", n.Describe())
		}
		if p, ok := v.parent[g]; ok && p != c.Group {
			return v.twoParents(g, p, c.Group)
		}
		v.parent[g] = c.Group
		v.groups[g] = true

		v.path = append(v.path, g)
		err := v.level(child, depth+1)
		v.path = v.path[:len(v.path)-1]
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *compoundValidator) place(id, group string) error {
	n := v.model.nodes[id]
	if n == nil {
		return errors.Structural(errors.ErrCodeUnknownNode, errors.EntityCompound, id,
			"compound structure references unknown node %q", id)
	}
	if slices.Contains(v.path, id) {
		return errors.Structural(errors.ErrCodeInvalidCompound, errors.EntityGroup, id,
			"group %s contains itself", n.Describe())
	}
	if p, ok := v.parent[id]; ok {
		if p != group || !v.groups[id] {
			return v.twoParents(id, p, group)
		}
		// A group may be listed again among the nodes of its enclosing level.
		return nil
	}
	v.parent[id] = group
	return nil
}

func (v *compoundValidator) twoParents(id, first, second string) error {
	e := errors.Structural(errors.ErrCodeDuplicateParent, errors.EntityNode, id,
		"node %s is placed under %s and %s", v.model.nodes[id].Describe(), levelName(first), levelName(second))
	e.Prior = levelName(first)
	return e
}

func levelName(group string) string {
	if group == "" {
		return "the root level"
	}
	return "group " + group
}

// =============================================================================
// Children Lists
// =============================================================================

// CompoundFromChildren derives a compound tree from the children lists of
// nodes. Nodes that are nobody's child form the root level. It returns nil
// when no node lists children.
//
// The derived tree is not validated; a node listed by two groups surfaces as
// a DUPLICATE_PARENT error from [Model.SetCompoundStructure].
func CompoundFromChildren(nodes []*Node) *Compound {
	byID := make(map[string]*Node, len(nodes))
	isChild := make(map[string]bool)
	grouped := false
	for _, n := range nodes {
		if n == nil {
			continue
		}
		byID[n.ID] = n
		for _, c := range n.Children {
			isChild[c] = true
		}
		grouped = grouped || len(n.Children) > 0
	}
	if !grouped {
		return nil
	}

	visited := make(map[string]bool)
	var build func(level *Compound, ids []string)
	build = func(level *Compound, ids []string) {
		for _, id := range ids {
			n := byID[id]
			if n == nil || len(n.Children) == 0 {
				level.Nodes = append(level.Nodes, id)
				continue
			}
			child := &Compound{Group: id}
			level.Children = append(level.Children, child)
			if visited[id] {
				continue
			}
			visited[id] = true
			build(child, n.Children)
		}
	}

	root := &Compound{}
	var roots []string
	for _, n := range nodes {
		if n != nil && !isChild[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	build(root, roots)
	return root
}

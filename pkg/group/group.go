// Package group implements the expand/reduce state machine of group nodes.
//
// Each group is either [graph.ViewExpanded] or [graph.ViewReduced]. A
// [Machine] is the only component that changes views interactively: it flips
// the state and then runs the refresh callback, which re-resolves, re-lays out
// and redraws the graph. When the refresh fails the flip is undone, so the
// model keeps matching the last frame drawn.
package group

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
)

// RefreshFunc recomputes and redraws the graph after a view change.
type RefreshFunc func(ctx context.Context) error

// Machine toggles group views on the model returned by its source.
type Machine struct {
	model   func() *graph.Model
	refresh RefreshFunc
	logger  *log.Logger
}

// New returns a machine. model is called on every transition, so callers that
// swap models (for atomic modifications) always act on the current one.
func New(model func() *graph.Model, refresh RefreshFunc, logger *log.Logger) *Machine {
	if logger == nil {
		logger = log.Default()
	}
	return &Machine{model: model, refresh: refresh, logger: logger}
}

// View returns the current view of a group.
func (m *Machine) View(id string) (graph.View, error) {
	g := m.model()
	if !g.IsGroup(id) {
		return "", notAGroup(g, id)
	}
	return g.Node(id).View, nil
}

// Toggle flips the view of group id and refreshes. It returns the new view.
func (m *Machine) Toggle(ctx context.Context, id string) (graph.View, error) {
	cur, err := m.View(id)
	if err != nil {
		return "", err
	}
	next := cur.Toggle()
	if err := m.Set(ctx, id, next); err != nil {
		return cur, err
	}
	return next, nil
}

// Set puts group id into view v and refreshes. Setting the current view is a
// no-op without refresh.
func (m *Machine) Set(ctx context.Context, id string, v graph.View) error {
	g := m.model()
	if !g.IsGroup(id) {
		return notAGroup(g, id)
	}
	prev := g.Node(id).View
	if prev == v {
		return nil
	}
	if err := g.SetGroupView(id, v); err != nil {
		return err
	}

	m.logger.Debug("group view changed", "group", id, "from", prev, "to", v)
	if err := m.run(ctx); err != nil {
		_ = g.SetGroupView(id, prev)
		return err
	}
	return nil
}

// SetAll puts every group into view v with a single refresh. It returns the
// number of groups that changed.
func (m *Machine) SetAll(ctx context.Context, v graph.View) (int, error) {
	g := m.model()
	if !v.Valid() {
		return 0, errors.Structural(errors.ErrCodeInvalidView, errors.EntityGroup, "",
			"view %q is not %q or %q", v, graph.ViewExpanded, graph.ViewReduced)
	}

	prev := make(map[string]graph.View)
	for _, id := range g.Compound().Groups() {
		if cur := g.Node(id).View; cur != v {
			prev[id] = cur
			_ = g.SetGroupView(id, v)
		}
	}
	if len(prev) == 0 {
		return 0, nil
	}

	m.logger.Debug("group views changed", "groups", len(prev), "to", v)
	if err := m.run(ctx); err != nil {
		for id, view := range prev {
			_ = g.SetGroupView(id, view)
		}
		return 0, err
	}
	return len(prev), nil
}

func (m *Machine) run(ctx context.Context) error {
	if m.refresh == nil {
		return nil
	}
	return m.refresh(ctx)
}

func notAGroup(g *graph.Model, id string) error {
	if !g.HasNode(id) {
		return errors.Structural(errors.ErrCodeUnknownGroup, errors.EntityGroup, id, "unknown group %q", id)
	}
	return errors.Structural(errors.ErrCodeUnknownGroup, errors.EntityGroup, id,
		"node %s is not a group", g.Node(id).Describe())
}

// Package graphviz implements the layered layout engine on top of Graphviz
// dot, embedded through go-graphviz.
//
// A request is written as DOT with [ToDOT], laid out by dot, and read back
// from the attributed DOT output: node "pos", cluster "bb" and edge "pos"
// attributes become boxes and polylines in pixel space with the origin at the
// top-left corner.
package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
)

// Name is the engine name used in configuration and cache keys.
const Name = "dot"

// Engine lays out requests with Graphviz dot. It is safe for concurrent use;
// layouts are serialized on the embedded runtime.
type Engine struct {
	mu sync.Mutex
	gv renderer
}

// renderer is the part of the Graphviz runtime the engine drives.
type renderer interface {
	Render(ctx context.Context, g *graphviz.Graph, format graphviz.Format, w io.Writer) error
	Close() error
}

// New starts the embedded Graphviz runtime.
func New(ctx context.Context) (*Engine, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	gv.SetLayout(graphviz.DOT)
	return &Engine{gv: gv}, nil
}

// Close releases the runtime.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gv.Close()
}

// Name implements layout.Engine.
func (e *Engine) Name() string { return Name }

// Layout implements layout.Engine. A failing dot run is returned unchanged;
// only failures to read back the generated DOT and XDOT are wrapped as
// internal errors.
func (e *Engine) Layout(ctx context.Context, req *layout.Request) (*layout.Response, error) {
	if len(req.Nodes) == 0 {
		return &layout.Response{Nodes: map[string]layout.Box{}, Edges: map[string][]graph.Point{}}, nil
	}
	dot, nm := buildDOT(req)

	out, err := e.render(ctx, dot)
	if err != nil {
		return nil, err
	}

	g, err := graphviz.ParseBytes(out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse graphviz output")
	}
	defer g.Close()

	resp, err := readLayout(g, req, nm)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read graphviz layout")
	}
	return resp, nil
}

func (e *Engine) render(ctx context.Context, dot string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := e.gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readLayout(g *graphviz.Graph, req *layout.Request, nm *names) (*layout.Response, error) {
	llx, lly, urx, ury, err := parseBB(g.GetStr("bb"))
	if err != nil {
		return nil, err
	}
	f := frame{llx: llx, ury: ury}
	resp := &layout.Response{
		Width:  urx - llx,
		Height: ury - lly,
		Nodes:  make(map[string]layout.Box, len(req.Nodes)),
		Edges:  make(map[string][]graph.Point, len(req.Edges)),
	}

	clusters := make(map[string]*graphviz.Graph)
	var cluster func(id string) (*graphviz.Graph, error)
	cluster = func(id string) (*graphviz.Graph, error) {
		if c, ok := clusters[id]; ok {
			return c, nil
		}
		parent := g
		if p := nm.parent[id]; p != "" {
			var err error
			if parent, err = cluster(p); err != nil {
				return nil, err
			}
		}
		c, err := parent.SubGraphByName(nm.cluster[id])
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("no cluster for %q", id)
		}
		clusters[id] = c
		return c, nil
	}

	for _, spec := range req.Nodes {
		var box layout.Box
		if spec.Container {
			c, err := cluster(spec.ID)
			if err != nil {
				return nil, err
			}
			if box, err = clusterBox(f, c.GetStr("bb")); err != nil {
				return nil, fmt.Errorf("node %q: %w", spec.ID, err)
			}
		} else {
			n, err := g.NodeByName(nm.node[spec.ID])
			if err != nil {
				return nil, err
			}
			if n == nil {
				return nil, fmt.Errorf("no position for node %q", spec.ID)
			}
			if box, err = nodeBox(f, n.GetStr("pos"), n.GetStr("width"), n.GetStr("height")); err != nil {
				return nil, fmt.Errorf("node %q: %w", spec.ID, err)
			}
		}
		resp.Nodes[spec.ID] = box
	}

	for n, err := g.FirstNode(); ; n, err = g.NextNode(n) {
		if err != nil {
			return nil, err
		}
		if n == nil {
			break
		}
		for e, err := g.FirstOut(n); ; e, err = g.NextOut(e) {
			if err != nil {
				return nil, err
			}
			if e == nil {
				break
			}
			key, ok := nm.edge[e.GetStr("id")]
			if !ok {
				continue
			}
			pts, err := parseSpline(e.GetStr("pos"))
			if err != nil {
				return nil, fmt.Errorf("edge %q: %w", key, err)
			}
			resp.Edges[key] = transform(f, pts)
		}
	}
	return resp, nil
}

var _ layout.Engine = (*Engine)(nil)

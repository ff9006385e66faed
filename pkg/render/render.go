package render

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/view"
)

// Meta carries the canvas size of a frame.
type Meta struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame is the core-to-renderer contract: what is visible and how large the
// laid out graph is.
type Frame struct {
	Vis  graph.VisibleSet `json:"vis"`
	Meta Meta             `json:"meta"`
}

// Scene is everything a renderer needs to draw one frame.
type Scene struct {
	Frame Frame
	// Model holds the positioned entities. Renderers must not mutate it.
	Model *graph.Model
	// View is the resolution the frame was laid out from.
	View     *view.Result
	LOD      int
	Detailed bool
}

// Ends returns the drawn endpoints of a visible edge.
func (s *Scene) Ends(e *graph.Edge) (from, to string) {
	if s.View != nil {
		if ends, ok := s.View.Resolved[e.ID]; ok {
			return ends.From, ends.To
		}
	}
	return e.From, e.To
}

// Parent returns the expanded group enclosing a visible node, or "".
func (s *Scene) Parent(id string) string {
	if s.View == nil {
		return ""
	}
	return s.View.ParentOf[id]
}

// Renderer draws scenes.
type Renderer interface {
	// Render draws a complete frame.
	Render(ctx context.Context, s *Scene) error
	// UpdateLod switches the level of detail of the last frame drawn.
	UpdateLod(lod int)
}

// Named is implemented by renderers that report a name to observability
// hooks and logs.
type Named interface {
	Name() string
}

// NameOf returns the name of r, or its type when it has none.
func NameOf(r Renderer) string {
	if n, ok := r.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", r)
}

// Nop is a renderer that draws nothing. It is used for headless layout.
type Nop struct{}

func (Nop) Render(context.Context, *Scene) error { return nil }
func (Nop) UpdateLod(int)                        {}
func (Nop) Name() string                         { return "none" }

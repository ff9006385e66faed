// Package viewer orchestrates the flowlens core.
//
// A [Viewer] owns one graph model and runs the cycle that turns it into a
// drawn frame:
//
//	resolve visibility -> build layout request -> engine -> apply coordinates
//	-> aggregate port edges -> render
//
// The cycle runs on creation, after every [Viewer.Modify], and after every
// group view change. Zoom changes never run it: they move the level of detail
// and tell the renderer through UpdateLod.
//
// Every cycle works on a clone of the model and only replaces the current
// model once the renderer has accepted the new frame, so a failing
// modification or layout leaves the previous frame and model in place.
//
// A Viewer is not safe for concurrent use. Callers serving several clients
// serialize access per viewer.
package viewer

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/group"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/lod"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/portedge"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/view"
)

// Options supplies the collaborators of a viewer.
type Options struct {
	// Engine computes layouts. Required.
	Engine layout.Engine
	// Renderer draws frames. Defaults to render.Nop.
	Renderer render.Renderer
	// Logger defaults to log.Default().
	Logger *log.Logger
	// Cache, when set, memoizes engine responses.
	Cache cache.Cache
	// Keyer builds cache keys. Defaults to cache.NewDefaultKeyer().
	Keyer cache.Keyer
}

// Modification is a batch of model changes applied atomically.
type Modification struct {
	Nodes []*graph.Node `json:"nodes,omitempty"`
	Edges []*graph.Edge `json:"edges,omitempty"`
	// Compound, when set, replaces the compound structure wholesale.
	Compound *graph.Compound `json:"compound,omitempty"`
	// PortGraph, when set, overrides the port graph flag.
	PortGraph *bool `json:"portGraph,omitempty"`
}

// Viewer is a laid out, rendered graph.
type Viewer struct {
	cfg      config.Config
	engine   layout.Engine
	renderer render.Renderer
	logger   *log.Logger

	model *graph.Model
	res   *view.Result
	frame render.Frame

	lod    *lod.Controller
	groups *group.Machine
}

// New validates cfg and doc, builds the model and draws the first frame.
func New(ctx context.Context, cfg config.Config, doc *graph.Document, opts Options) (*Viewer, error) {
	if opts.Engine == nil {
		return nil, errors.New(errors.ErrCodeInternal, "viewer needs a layout engine")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := graph.FromDocument(doc)
	if err != nil {
		return nil, err
	}
	if cfg.PortGraph != nil {
		m.SetPortGraph(*cfg.PortGraph)
	}
	if err := cfg.ValidateFor(m); err != nil {
		return nil, err
	}

	v := &Viewer{
		cfg:      cfg,
		engine:   opts.Engine,
		renderer: opts.Renderer,
		logger:   opts.Logger,
		model:    m,
	}
	if v.renderer == nil {
		v.renderer = render.Nop{}
	}
	if v.logger == nil {
		v.logger = log.Default()
	}
	if opts.Cache != nil {
		ce := layout.NewCachedEngine(opts.Engine, opts.Cache, opts.Keyer, v.logger)
		if ttl := cfg.Cache.TTLDuration(); ttl > 0 {
			ce.TTL = ttl
		}
		v.engine = ce
	}

	if v.lod, err = lod.New(cfg.Zoom, cfg.LOD, v.onLod); err != nil {
		return nil, err
	}
	v.groups = group.New(func() *graph.Model { return v.model }, v.refresh, v.logger)

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// =============================================================================
// Accessors
// =============================================================================

// Data returns the current frame.
func (v *Viewer) Data() render.Frame { return v.frame }

// Model returns the current model. Callers must not mutate it; use Modify.
func (v *Viewer) Model() *graph.Model { return v.model }

// View returns the resolution of the current frame.
func (v *Viewer) View() *view.Result { return v.res }

// Config returns the configuration the viewer was built with.
func (v *Viewer) Config() config.Config { return v.cfg }

// Lod returns the current level of detail.
func (v *Viewer) Lod() int { return v.lod.Level() }

// Detailed reports whether ports and port edges are shown.
func (v *Viewer) Detailed() bool { return v.lod.Detailed() }

// Scale returns the last zoom scale seen.
func (v *Viewer) Scale() float64 { return v.lod.Scale() }

// =============================================================================
// Interaction
// =============================================================================

// Modify applies a batch of changes and redraws. The batch is validated and
// laid out on a copy of the model; on any error the viewer is unchanged.
// Nodes and edges in the batch are owned by the viewer afterwards.
func (v *Viewer) Modify(ctx context.Context, mod Modification) error {
	m := v.model.Clone()
	if err := m.AddOrReplaceNodes(mod.Nodes); err != nil {
		return err
	}
	if err := m.AddOrReplaceEdges(mod.Edges); err != nil {
		return err
	}
	switch {
	case mod.Compound != nil:
		if err := m.SetCompoundStructure(mod.Compound); err != nil {
			return err
		}
	case m.CompoundDerived() && len(mod.Nodes) > 0:
		// New nodes or edited children lists reshape a derived tree.
		if err := m.DeriveCompound(); err != nil {
			return err
		}
	}
	if mod.PortGraph != nil {
		m.SetPortGraph(*mod.PortGraph)
	}
	if err := v.cfg.ValidateFor(m); err != nil {
		return err
	}

	v.logger.Debug("modify", "nodes", len(mod.Nodes), "edges", len(mod.Edges), "compound", mod.Compound != nil)
	return v.cycle(ctx, m)
}

// ToggleGroup flips a group between expanded and reduced and redraws. It
// returns the new view.
func (v *Viewer) ToggleGroup(ctx context.Context, id string) (graph.View, error) {
	return v.groups.Toggle(ctx, id)
}

// SetGroupView puts a group into the given view and redraws if it changed.
func (v *Viewer) SetGroupView(ctx context.Context, id string, view graph.View) error {
	return v.groups.Set(ctx, id, view)
}

// SetAllGroups puts every group into the given view with a single redraw.
func (v *Viewer) SetAllGroups(ctx context.Context, view graph.View) (int, error) {
	return v.groups.SetAll(ctx, view)
}

// Zoom feeds a zoom scale and reports whether the level of detail changed.
func (v *Viewer) Zoom(k float64) bool {
	return v.lod.Update(k)
}

// SetLod forces the level of detail, for restoring saved sessions.
func (v *Viewer) SetLod(l int) bool {
	return v.lod.Set(l)
}

func (v *Viewer) onLod(l int) {
	v.logger.Debug("lod changed", "lod", l)
	observability.Viewer().OnLodChange(context.Background(), l)
	v.renderer.UpdateLod(l)
}

// =============================================================================
// Cycle
// =============================================================================

func (v *Viewer) refresh(ctx context.Context) error {
	return v.cycle(ctx, v.model.Clone())
}

// cycle resolves, lays out and renders m, then makes it the current model.
func (v *Viewer) cycle(ctx context.Context, m *graph.Model) error {
	start := time.Now()
	res := view.Resolve(m)
	observability.Viewer().OnResolve(ctx, len(res.VisibleNodes), len(res.HiddenToRoot), time.Since(start))
	v.timing("resolved view", start,
		"visible", len(res.VisibleNodes), "hidden", len(res.HiddenToRoot),
		"edges", len(res.VisibleEdges), "self_loops", res.SelfLoops, "dropped", res.Dropped)

	start = time.Now()
	req := layout.Build(m, res, layout.OptionsFromConfig(v.cfg))
	observability.Viewer().OnLayoutStart(ctx, v.engine.Name(), len(req.Nodes))
	resp, err := v.engine.Layout(ctx, req)
	observability.Viewer().OnLayoutComplete(ctx, v.engine.Name(), time.Since(start), err)
	if err != nil {
		return err
	}
	if err := layout.Apply(m, req, resp); err != nil {
		return err
	}
	aggregated := portedge.Aggregate(m, res.VisibleEdges)
	v.timing("laid out", start, "engine", v.engine.Name(), "request", req.Describe(), "port_edges", aggregated)

	frame := render.Frame{
		Vis:  graph.VisibleSet{Nodes: res.VisibleNodes, Edges: res.VisibleEdges},
		Meta: render.Meta{Width: resp.Width, Height: resp.Height},
	}
	scene := &render.Scene{
		Frame:    frame,
		Model:    m,
		View:     res,
		LOD:      v.lod.Level(),
		Detailed: v.lod.Detailed(),
	}

	start = time.Now()
	name := render.NameOf(v.renderer)
	observability.Viewer().OnRenderStart(ctx, name)
	err = v.renderer.Render(ctx, scene)
	observability.Viewer().OnRenderComplete(ctx, name, time.Since(start), err)
	if err != nil {
		return err
	}
	v.timing("rendered", start, "renderer", name)

	v.model, v.res, v.frame = m, res, frame
	return nil
}

// timing logs a step at info when timing output is enabled, at debug otherwise.
func (v *Viewer) timing(msg string, start time.Time, kv ...any) {
	kv = append(kv, "took", time.Since(start))
	if v.cfg.Log {
		v.logger.Info(msg, kv...)
		return
	}
	v.logger.Debug(msg, kv...)
}

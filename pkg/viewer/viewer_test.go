package viewer

import (
	"context"
	stderrors "errors"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/render"
)

// stackEngine stacks nodes vertically and routes each edge spec as a
// straight line offset by its index, so parallel port edges differ.
type stackEngine struct {
	calls int
	fail  error
}

func (e *stackEngine) Name() string { return "stack" }

func (e *stackEngine) Layout(_ context.Context, req *layout.Request) (*layout.Response, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	resp := &layout.Response{Nodes: map[string]layout.Box{}, Edges: map[string][]graph.Point{}}
	for i, n := range req.Nodes {
		resp.Nodes[n.ID] = layout.Box{X: 100, Y: float64(50 + i*100), Width: max(n.Width, 200), Height: max(n.Height, 60)}
	}
	for i, s := range req.Edges {
		a, b := resp.Nodes[s.From], resp.Nodes[s.To]
		dx := float64(i * 10)
		resp.Edges[s.Key] = []graph.Point{{X: a.X + dx, Y: a.Y}, {X: b.X + dx, Y: b.Y}}
	}
	resp.Width, resp.Height = 200, float64(len(req.Nodes)*100)
	return resp, nil
}

// recorder keeps every scene and level it was given.
type recorder struct {
	scenes []*render.Scene
	lods   []int
	fail   error
}

func (r *recorder) Render(_ context.Context, s *render.Scene) error {
	if r.fail != nil {
		return r.fail
	}
	r.scenes = append(r.scenes, s)
	return nil
}

func (r *recorder) UpdateLod(l int) { r.lods = append(r.lods, l) }

func groupDoc() *graph.Document {
	return &graph.Document{
		Nodes: []*graph.Node{
			{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}, {ID: "g", Name: "G"},
		},
		Edges: []*graph.Edge{
			{ID: "e1", From: "a", To: "b"},
			{ID: "e2", From: "a", To: "c"},
		},
		Compound: &graph.Compound{
			Nodes:    []string{"a"},
			Children: []*graph.Compound{{Group: "g", Nodes: []string{"b", "c"}}},
		},
	}
}

func newViewer(t *testing.T, cfg config.Config, doc *graph.Document) (*Viewer, *stackEngine, *recorder) {
	t.Helper()
	eng, rec := &stackEngine{}, &recorder{}
	v, err := New(context.Background(), cfg, doc, Options{Engine: eng, Renderer: rec})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v, eng, rec
}

func TestNew(t *testing.T) {
	v, eng, rec := newViewer(t, config.Default(), groupDoc())

	if eng.calls != 1 || len(rec.scenes) != 1 {
		t.Fatalf("engine calls = %d, scenes = %d, want 1 and 1", eng.calls, len(rec.scenes))
	}
	f := v.Data()
	if want := []string{"a", "g", "b", "c"}; !reflect.DeepEqual(f.Vis.Nodes, want) {
		t.Errorf("Vis.Nodes = %v, want %v", f.Vis.Nodes, want)
	}
	if want := []string{"e1", "e2"}; !reflect.DeepEqual(f.Vis.Edges, want) {
		t.Errorf("Vis.Edges = %v, want %v", f.Vis.Edges, want)
	}
	if f.Meta.Width != 200 || f.Meta.Height != 400 {
		t.Errorf("Meta = %+v", f.Meta)
	}
	if n := v.Model().Node("b"); n.Y != 250 || n.Width != 200 {
		t.Errorf("b not positioned: %+v", n)
	}
	// The default level 1 starts detailed; zooming below zoom[1] leaves it.
	if v.Lod() != 1 || !v.Detailed() {
		t.Errorf("lod = %d detailed = %v, want 1 and true", v.Lod(), v.Detailed())
	}
	if !v.Zoom(0.5) || v.Lod() != 0 {
		t.Errorf("Zoom(0.5) lod = %d, want 0", v.Lod())
	}
}

func TestNewErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  func(*config.Config)
		doc  *graph.Document
		code errors.Code
	}{
		{
			name: "bad zoom",
			cfg:  func(c *config.Config) { c.Zoom = []float64{2, 1} },
			doc:  groupDoc(),
			code: errors.ErrCodeInvalidZoom,
		},
		{
			name: "duplicate node",
			doc:  &graph.Document{Nodes: []*graph.Node{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}},
			code: errors.ErrCodeDuplicateID,
		},
		{
			name: "ports without port size",
			doc: &graph.Document{Nodes: []*graph.Node{
				{ID: "a", Name: "A", Out: map[string]*graph.Port{"o": {}}},
			}},
			code: errors.ErrCodeInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			_, err := New(ctx, cfg, tt.doc, Options{Engine: &stackEngine{}})
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := New(ctx, config.Default(), groupDoc(), Options{}); err == nil {
		t.Error("New() without an engine should fail")
	}
}

func TestToggleGroupRoundTrip(t *testing.T) {
	ctx := context.Background()
	v, _, rec := newViewer(t, config.Default(), groupDoc())
	before := v.Data()

	got, err := v.ToggleGroup(ctx, "g")
	if err != nil || got != graph.ViewReduced {
		t.Fatalf("ToggleGroup() = %v, %v", got, err)
	}
	reduced := v.Data()
	if want := []string{"a", "g"}; !reflect.DeepEqual(reduced.Vis.Nodes, want) {
		t.Errorf("reduced Vis.Nodes = %v, want %v", reduced.Vis.Nodes, want)
	}
	if want := []string{"e1"}; !reflect.DeepEqual(reduced.Vis.Edges, want) {
		t.Errorf("reduced Vis.Edges = %v, want %v", reduced.Vis.Edges, want)
	}
	if ends := v.View().Resolved["e1"]; ends.To != "g" {
		t.Errorf("e1 resolved to %+v, want -> g", ends)
	}

	if _, err := v.ToggleGroup(ctx, "g"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v.Data(), before) {
		t.Errorf("round trip frame = %+v, want %+v", v.Data(), before)
	}
	if len(rec.scenes) != 3 {
		t.Errorf("scenes = %d, want 3", len(rec.scenes))
	}
}

func TestToggleNotAGroup(t *testing.T) {
	v, _, _ := newViewer(t, config.Default(), groupDoc())
	for _, id := range []string{"a", "missing"} {
		if _, err := v.ToggleGroup(context.Background(), id); !errors.Is(err, errors.ErrCodeUnknownGroup) {
			t.Errorf("ToggleGroup(%q) error = %v, want %s", id, err, errors.ErrCodeUnknownGroup)
		}
	}
}

func TestToggleLayoutFailureKeepsState(t *testing.T) {
	v, eng, _ := newViewer(t, config.Default(), groupDoc())
	before := v.Data()

	boom := stderrors.New("engine down")
	eng.fail = boom
	if _, err := v.ToggleGroup(context.Background(), "g"); err != boom {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if got := v.Model().Node("g").View; got != graph.ViewExpanded {
		t.Errorf("g view = %s after failed toggle, want expanded", got)
	}
	if !reflect.DeepEqual(v.Data(), before) {
		t.Error("frame changed after failed toggle")
	}
}

func TestSetAllGroups(t *testing.T) {
	v, _, rec := newViewer(t, config.Default(), groupDoc())
	n, err := v.SetAllGroups(context.Background(), graph.ViewReduced)
	if err != nil || n != 1 {
		t.Fatalf("SetAllGroups() = %d, %v", n, err)
	}
	if len(v.Data().Vis.Nodes) != 2 || len(rec.scenes) != 2 {
		t.Errorf("nodes = %v scenes = %d", v.Data().Vis.Nodes, len(rec.scenes))
	}
}

func TestModify(t *testing.T) {
	ctx := context.Background()
	v, _, rec := newViewer(t, config.Default(), groupDoc())

	err := v.Modify(ctx, Modification{
		Nodes: []*graph.Node{{ID: "d", Name: "D"}},
		Edges: []*graph.Edge{{ID: "e3", From: "c", To: "d"}},
		Compound: &graph.Compound{
			Nodes:    []string{"a", "d"},
			Children: []*graph.Compound{{Group: "g", Nodes: []string{"b", "c"}}},
		},
	})
	if err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if want := []string{"a", "d", "g", "b", "c"}; !reflect.DeepEqual(v.Data().Vis.Nodes, want) {
		t.Errorf("Vis.Nodes = %v, want %v", v.Data().Vis.Nodes, want)
	}
	if !v.Model().HasEdge("e3") || len(rec.scenes) != 2 {
		t.Errorf("e3 missing or scenes = %d", len(rec.scenes))
	}
}

func TestModifyDerivedCompound(t *testing.T) {
	doc := &graph.Document{
		Nodes: []*graph.Node{
			{ID: "a", Name: "A"},
			{ID: "g", Name: "G", Children: []string{"b"}},
			{ID: "b", Name: "B"},
		},
		Edges: []*graph.Edge{{ID: "e1", From: "a", To: "b"}},
	}
	v, _, _ := newViewer(t, config.Default(), doc)

	err := v.Modify(context.Background(), Modification{
		Nodes: []*graph.Node{
			{ID: "c", Name: "C"},
			{ID: "d", Name: "D"},
			{ID: "g", Name: "G", Children: []string{"b", "d"}},
		},
		Edges: []*graph.Edge{
			{ID: "e2", From: "a", To: "c"},
			{ID: "e3", From: "c", To: "d"},
		},
	})
	if err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if got := v.Model().Compound().Children[0].Nodes; !reflect.DeepEqual(got, []string{"b", "d"}) {
		t.Errorf("g members = %v, want [b d]", got)
	}
	res := v.View()
	if want := []string{"e1", "e2", "e3"}; !reflect.DeepEqual(res.VisibleEdges, want) || res.Dropped != 0 {
		t.Errorf("VisibleEdges = %v dropped = %d, want %v and 0", res.VisibleEdges, res.Dropped, want)
	}
	for _, id := range []string{"c", "d"} {
		if !slices.Contains(v.Data().Vis.Nodes, id) {
			t.Errorf("%s not visible: %v", id, v.Data().Vis.Nodes)
		}
	}
}

func TestModifyIsAtomic(t *testing.T) {
	ctx := context.Background()
	v, eng, rec := newViewer(t, config.Default(), groupDoc())
	model, frame := v.Model(), v.Data()

	// Valid nodes, then an edge to an unknown node: nothing may be committed.
	err := v.Modify(ctx, Modification{
		Nodes: []*graph.Node{{ID: "d", Name: "D"}},
		Edges: []*graph.Edge{{ID: "e3", From: "d", To: "zz"}},
	})
	if !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Fatalf("error = %v, want %s", err, errors.ErrCodeUnknownNode)
	}
	if v.Model() != model || v.Model().HasNode("d") {
		t.Error("failed modification changed the model")
	}

	err = v.Modify(ctx, Modification{Nodes: []*graph.Node{{ID: "x", Name: "X"}, {ID: "x", Name: "Y"}}})
	if !errors.Is(err, errors.ErrCodeDuplicateID) {
		t.Errorf("duplicate batch error = %v", err)
	}

	eng.fail = stderrors.New("engine down")
	if err := v.Modify(ctx, Modification{Nodes: []*graph.Node{{ID: "d", Name: "D"}}}); err == nil {
		t.Error("Modify() with failing engine succeeded")
	}
	if v.Model().HasNode("d") || !reflect.DeepEqual(v.Data(), frame) || len(rec.scenes) != 1 {
		t.Error("failed layout changed the viewer")
	}
}

func TestModifyRenderFailure(t *testing.T) {
	v, _, rec := newViewer(t, config.Default(), groupDoc())
	rec.fail = stderrors.New("surface lost")
	if err := v.Modify(context.Background(), Modification{Nodes: []*graph.Node{{ID: "d", Name: "D"}}}); err == nil {
		t.Fatal("Modify() with failing renderer succeeded")
	}
	if v.Model().HasNode("d") {
		t.Error("model committed although render failed")
	}
}

func TestZoom(t *testing.T) {
	cfg := config.Default()
	cfg.Zoom = []float64{0.1, 1, 2}
	cfg.LOD = 0
	v, eng, rec := newViewer(t, cfg, groupDoc())

	if v.Zoom(0.5) {
		t.Error("Zoom(0.5) changed level")
	}
	if !v.Zoom(5) || v.Lod() != 1 {
		t.Errorf("Zoom(5) lod = %d, want 1", v.Lod())
	}
	// Falling below the level-1 threshold steps back down.
	v.Zoom(0.01)
	if v.Lod() != 0 {
		t.Errorf("Zoom(0.01) lod = %d, want 0", v.Lod())
	}
	if want := []int{1, 0}; !reflect.DeepEqual(rec.lods, want) {
		t.Errorf("UpdateLod calls = %v, want %v", rec.lods, want)
	}
	if eng.calls != 1 || len(rec.scenes) != 1 {
		t.Errorf("zoom re-ran layout: engine=%d scenes=%d", eng.calls, len(rec.scenes))
	}
	if v.Scale() != 0.01 {
		t.Errorf("Scale() = %g", v.Scale())
	}
}

func TestPortAggregation(t *testing.T) {
	cfg := config.Default()
	cfg.Port = &config.Size{Width: 8, Height: 8}
	doc := &graph.Document{
		Nodes: []*graph.Node{
			{ID: "a", Name: "A", Out: map[string]*graph.Port{"o0": {Port: 0}, "o1": {Port: 1}, "o2": {Port: 2}}},
			{ID: "b", Name: "B", In: map[string]*graph.Port{"i0": {Port: 0}}},
		},
		Edges: []*graph.Edge{{
			ID: "e1", From: "a", To: "b",
			Ports: []graph.PortPair{{Out: "o0", In: "i0"}, {Out: "o1", In: "i0"}, {Out: "o2", In: "i0"}},
		}},
	}
	v, _, _ := newViewer(t, cfg, doc)

	e := v.Model().Edge("e1")
	if !reflect.DeepEqual(e.Points, e.Ports[1].Points) {
		t.Errorf("representative = %v, want middle port path %v", e.Points, e.Ports[1].Points)
	}
	a := v.Model().Node("a")
	if got := a.Out["o2"].Anchor; got == nil || *got != e.Ports[2].Points[0] {
		t.Errorf("o2 anchor = %v, want %v", got, e.Ports[2].Points[0])
	}
}

func TestCollapseClearsPortAnchors(t *testing.T) {
	cfg := config.Default()
	cfg.Port = &config.Size{Width: 8, Height: 8}
	doc := &graph.Document{
		Nodes: []*graph.Node{
			{ID: "a", Name: "A", Out: map[string]*graph.Port{"o0": {Port: 0}}},
			{ID: "b", Name: "B", In: map[string]*graph.Port{"i0": {Port: 0}}},
			{ID: "g", Name: "G"},
		},
		Edges: []*graph.Edge{{ID: "e1", From: "a", To: "b", Ports: []graph.PortPair{{Out: "o0", In: "i0"}}}},
		Compound: &graph.Compound{
			Nodes:    []string{"a"},
			Children: []*graph.Compound{{Group: "g", Nodes: []string{"b"}}},
		},
	}
	v, _, _ := newViewer(t, cfg, doc)
	if v.Model().Node("a").Out["o0"].Anchor == nil {
		t.Fatal("o0 not anchored while e1 is routed per port")
	}

	if _, err := v.ToggleGroup(context.Background(), "g"); err != nil {
		t.Fatalf("ToggleGroup() error = %v", err)
	}
	// e1 now ends on the reduced group and is routed node to node.
	if got := v.Model().Node("a").Out["o0"].Anchor; got != nil {
		t.Errorf("o0 anchor = %v after collapse, want none", *got)
	}
}

func TestLayoutCache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	eng := &stackEngine{}
	v, err := New(ctx, config.Default(), groupDoc(), Options{Engine: eng, Cache: c})
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if _, err := v.ToggleGroup(ctx, "g"); err != nil {
			t.Fatal(err)
		}
	}
	// Expanded, reduced, expanded again: the last layout comes from the cache.
	if eng.calls != 2 {
		t.Errorf("engine calls = %d, want 2", eng.calls)
	}
}

func TestExport(t *testing.T) {
	v, _, _ := newViewer(t, config.Default(), groupDoc())
	if _, err := v.ToggleGroup(context.Background(), "g"); err != nil {
		t.Fatal(err)
	}
	l := v.Export()

	if len(l.Nodes) != 2 || l.Nodes[1].ID != "g" || l.Nodes[1].View != graph.ViewReduced || l.Nodes[1].Kind != "group" {
		t.Errorf("nodes = %+v", l.Nodes)
	}
	if len(l.Edges) != 1 || l.Edges[0].To != "g" {
		t.Errorf("edges = %+v", l.Edges)
	}
	if want := []string{"e2"}; !reflect.DeepEqual(l.Edges[0].Absorbed, want) {
		t.Errorf("absorbed = %v, want %v", l.Edges[0].Absorbed, want)
	}
	if want := map[string]string{"b": "g", "c": "g"}; !reflect.DeepEqual(l.Hidden, want) {
		t.Errorf("hidden = %v, want %v", l.Hidden, want)
	}
	data, err := graph.MarshalLayout(l)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := graph.UnmarshalLayout(data); err != nil {
		t.Errorf("exported layout does not load: %v", err)
	}
}

package layout

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/view"
)

// gridEngine places nodes on a diagonal and routes every edge as a straight
// two-point line. It counts its calls.
type gridEngine struct {
	calls int
	err   error
}

func (e *gridEngine) Name() string { return "grid" }

func (e *gridEngine) Layout(_ context.Context, req *Request) (*Response, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	resp := &Response{Nodes: map[string]Box{}, Edges: map[string][]graph.Point{}}
	for i, n := range req.Nodes {
		w, h := n.Width, n.Height
		if n.Container {
			w, h = 300, 200
		}
		resp.Nodes[n.ID] = Box{X: float64(i * 100), Y: float64(i * 50), Width: w, Height: h}
	}
	for _, e := range req.Edges {
		from, to := resp.Nodes[e.From], resp.Nodes[e.To]
		resp.Edges[e.Key] = []graph.Point{{X: from.X, Y: from.Y}, {X: to.X, Y: to.Y}}
	}
	resp.Width, resp.Height = float64(len(req.Nodes)*100), float64(len(req.Nodes)*50)
	return resp, nil
}

func defaultOpts() Options {
	return OptionsFromConfig(config.Default())
}

func compoundModel(t *testing.T) *graph.Model {
	t.Helper()
	m, err := graph.FromDocument(&graph.Document{
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
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func portModel(t *testing.T) *graph.Model {
	t.Helper()
	m, err := graph.FromDocument(&graph.Document{
		Nodes: []*graph.Node{
			{ID: "a", Name: "A", Out: map[string]*graph.Port{"o0": {Port: 0}, "o1": {Port: 1}}},
			{ID: "b", Name: "B", In: map[string]*graph.Port{"i0": {Port: 0}}},
		},
		Edges: []*graph.Edge{{
			ID: "e1", From: "a", To: "b",
			Ports: []graph.PortPair{{Out: "o0", In: "i0"}, {Out: "o1", In: "i0"}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBuildExpandedGroup(t *testing.T) {
	m := compoundModel(t)
	req := Build(m, view.Resolve(m), defaultOpts())

	if len(req.Nodes) != 4 {
		t.Fatalf("len(Nodes) = %d, want 4", len(req.Nodes))
	}
	specs := make(map[string]NodeSpec)
	for _, n := range req.Nodes {
		specs[n.ID] = n
	}
	if !specs["g"].Container || specs["g"].Width != 0 {
		t.Errorf("g = %+v, want container without size", specs["g"])
	}
	if specs["b"].Parent != "g" || specs["a"].Parent != "" {
		t.Errorf("parents: a=%q b=%q", specs["a"].Parent, specs["b"].Parent)
	}
	if specs["b"].Width != config.DefaultNodeWidth {
		t.Errorf("b width = %g", specs["b"].Width)
	}
	if len(req.Edges) != 2 || req.RankDir != "TB" {
		t.Errorf("edges=%v rankdir=%s", req.Edges, req.RankDir)
	}
}

func TestBuildReducedGroup(t *testing.T) {
	m := compoundModel(t)
	if err := m.SetGroupView("g", graph.ViewReduced); err != nil {
		t.Fatal(err)
	}
	req := Build(m, view.Resolve(m), defaultOpts())

	want := []NodeSpec{
		{ID: "a", Label: "A", Width: 125, Height: 40},
		{ID: "g", Label: "G", Width: 125, Height: 40},
	}
	if !reflect.DeepEqual(req.Nodes, want) {
		t.Errorf("Nodes = %+v, want %+v", req.Nodes, want)
	}
	wantEdges := []EdgeSpec{{Key: "e1", EdgeID: "e1", From: "a", To: "g"}}
	if !reflect.DeepEqual(req.Edges, wantEdges) {
		t.Errorf("Edges = %+v, want %+v", req.Edges, wantEdges)
	}
}

func TestBuildPortGraph(t *testing.T) {
	m := portModel(t)
	opts := defaultOpts()
	opts.Port = &config.Size{Width: 8, Height: 6}
	req := Build(m, view.Resolve(m), opts)

	if req.PortWidth != 8 || req.PortHeight != 6 {
		t.Errorf("port size = %gx%g", req.PortWidth, req.PortHeight)
	}
	if want := []string{"o0", "o1"}; !reflect.DeepEqual(req.Nodes[0].Out, want) {
		t.Errorf("a.Out = %v, want %v", req.Nodes[0].Out, want)
	}
	var keys []string
	for _, e := range req.Edges {
		keys = append(keys, e.Key)
	}
	if want := []string{"e1.o0.i0", "e1.o1.i0"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("edge keys = %v, want %v", keys, want)
	}

	// Without a port size the model is laid out as a plain graph.
	req = Build(m, view.Resolve(m), defaultOpts())
	if len(req.Edges) != 1 || req.Edges[0].IsPortEdge() || req.Nodes[0].Out != nil {
		t.Errorf("plain build: nodes=%+v edges=%+v", req.Nodes, req.Edges)
	}
}

func TestApply(t *testing.T) {
	m := portModel(t)
	m.Edge("e1").Points = []graph.Point{{X: 9, Y: 9}}
	opts := defaultOpts()
	opts.Port = &config.Size{Width: 8, Height: 6}

	req := Build(m, view.Resolve(m), opts)
	resp, err := (&gridEngine{}).Layout(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if err := Apply(m, req, resp); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if b := m.Node("b"); b.X != 100 || b.Y != 50 || b.Width != 125 {
		t.Errorf("b = (%g,%g) w=%g", b.X, b.Y, b.Width)
	}
	e := m.Edge("e1")
	if e.Points != nil {
		t.Errorf("stale node polyline kept: %v", e.Points)
	}
	for _, pp := range e.Ports {
		if len(pp.Points) != 2 {
			t.Errorf("port %s points = %v", pp.Key("e1"), pp.Points)
		}
	}
}

func TestApplyMissingNode(t *testing.T) {
	m := compoundModel(t)
	req := Build(m, view.Resolve(m), defaultOpts())
	err := Apply(m, req, &Response{Nodes: map[string]Box{}})
	if err == nil {
		t.Error("Apply() with empty response should fail")
	}
}

func TestCachedEngine(t *testing.T) {
	ctx := context.Background()
	inner := &gridEngine{}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ce := NewCachedEngine(inner, c, nil, nil)

	m := compoundModel(t)
	req := Build(m, view.Resolve(m), defaultOpts())

	first, err := ce.Layout(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ce.Layout(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("engine calls = %d, want 1", inner.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached response differs:\n%+v\n%+v", first, second)
	}

	req.RankDir = "LR"
	if _, err := ce.Layout(ctx, req); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("engine calls after rankdir change = %d, want 2", inner.calls)
	}
}

func TestCachedEngineError(t *testing.T) {
	boom := errors.New("boom")
	ce := NewCachedEngine(&gridEngine{err: boom}, nil, nil, nil)
	if _, err := ce.Layout(context.Background(), &Request{}); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if ce.Name() != "grid" {
		t.Errorf("Name() = %s", ce.Name())
	}
}

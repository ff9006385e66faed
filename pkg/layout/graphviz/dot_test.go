package graphviz

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowlens/pkg/layout"
)

func TestToDOTPlain(t *testing.T) {
	req := &layout.Request{
		Nodes: []layout.NodeSpec{
			{ID: "a", Label: "A \"quoted\"", Width: 144, Height: 36},
			{ID: "b", Label: "B", Width: 72, Height: 72},
		},
		Edges:   []layout.EdgeSpec{{Key: "e1", EdgeID: "e1", From: "a", To: "b"}},
		RankDir: "LR",
		NodeSep: 0.5,
	}
	dot := ToDOT(req)

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		"nodesep=0.5;",
		"n0 [width=2, height=0.5];",
		"n1 [width=1, height=1];",
		`n0 -> n1 [id="e0"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "quoted") || strings.Contains(dot, "ranksep") {
		t.Errorf("unexpected content in DOT:\n%s", dot)
	}
}

func TestToDOTClusters(t *testing.T) {
	req := &layout.Request{
		Nodes: []layout.NodeSpec{
			{ID: "x", Width: 72, Height: 36},
			{ID: "g", Container: true},
			{ID: "h", Parent: "g", Container: true},
			{ID: "y", Parent: "h", Width: 72, Height: 36},
		},
		Edges: []layout.EdgeSpec{
			{Key: "e1", EdgeID: "e1", From: "x", To: "g"},
			{Key: "e2", EdgeID: "e2", From: "g", To: "y"},
		},
	}
	dot, nm := buildDOT(req)

	for _, want := range []string{
		"compound=true;",
		"rankdir=TB;",
		"subgraph cluster_1 {",
		"    subgraph cluster_2 {",
		"a1 [shape=point, style=invis",
		"      n3 [width=1, height=0.5];",
		`n0 -> a1 [id="e0", lhead=cluster_1];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	// y sits inside g, so the edge must not be clipped at g's boundary.
	if !strings.Contains(dot, `a1 -> n3 [id="e1"];`) {
		t.Errorf("edge into own container clipped:\n%s", dot)
	}
	if nm.edge["e1"] != "e2" || !nm.inside("y", "g") || nm.inside("x", "g") {
		t.Errorf("names = %+v", nm)
	}
}

func TestToDOTPorts(t *testing.T) {
	req := &layout.Request{
		Nodes: []layout.NodeSpec{
			{ID: "a", Width: 72, Height: 36, Out: []string{"p", "q"}},
			{ID: "b", Width: 72, Height: 36, In: []string{"r"}},
		},
		Edges: []layout.EdgeSpec{
			{Key: "e1.q.r", EdgeID: "e1", From: "a", To: "b", OutPort: "q", InPort: "r"},
		},
		PortWidth:  48,
		PortHeight: 9,
	}
	dot := ToDOT(req)

	for _, want := range []string{
		`n0 [width=1.3333333333333333, height=0.75, shape=record, label="{|{<o0>|<o1>}}"];`,
		`n1 [width=1, height=0.75, shape=record, label="{{<i0>}|}"];`,
		`n0:o1:s -> n1:i0:n [id="e0"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestCompass(t *testing.T) {
	tests := []struct {
		rankdir, out, in string
	}{
		{"TB", "s", "n"},
		{"", "s", "n"},
		{"LR", "e", "w"},
		{"BT", "n", "s"},
		{"RL", "w", "e"},
	}
	for _, tt := range tests {
		out, in := compass(tt.rankdir)
		if out != tt.out || in != tt.in {
			t.Errorf("compass(%q) = %s,%s want %s,%s", tt.rankdir, out, in, tt.out, tt.in)
		}
	}
}

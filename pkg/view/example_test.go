package view_test

import (
	"fmt"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/view"
)

func ExampleResolve() {
	m, _ := graph.FromDocument(&graph.Document{
		Nodes: []*graph.Node{
			{ID: "a", Name: "A"},
			{ID: "b", Name: "B"},
			{ID: "c", Name: "C"},
			{ID: "g", Name: "G", View: graph.ViewReduced},
		},
		Edges: []*graph.Edge{
			{ID: "ab", From: "a", To: "b"},
			{ID: "ac", From: "a", To: "c"},
			{ID: "bc", From: "b", To: "c"},
		},
		Compound: &graph.Compound{
			Nodes:    []string{"a"},
			Children: []*graph.Compound{{Group: "g", Nodes: []string{"b", "c"}}},
		},
	})

	res := view.Resolve(m)
	fmt.Println("nodes:", res.VisibleNodes)
	fmt.Println("edges:", res.VisibleEdges)
	fmt.Println("ab:", res.Resolved["ab"].From, "->", res.Resolved["ab"].To)
	fmt.Println("absorbed:", res.Absorbed["ab"], "self loops:", res.SelfLoops)
	// Output:
	// nodes: [a g]
	// edges: [ab]
	// ab: a -> g
	// absorbed: [ac] self loops: 1
}

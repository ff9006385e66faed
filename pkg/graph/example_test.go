package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowlens/pkg/graph"
)

func ExampleFromDocument() {
	doc := &graph.Document{
		Nodes: []*graph.Node{
			{ID: "a", Name: "Fetch"},
			{ID: "g", Name: "Transform"},
			{ID: "b", Name: "Parse"},
			{ID: "c", Name: "Validate"},
		},
		Edges: []*graph.Edge{
			{ID: "e1", From: "a", To: "b"},
			{ID: "e2", From: "b", To: "c"},
		},
		Compound: &graph.Compound{
			Nodes:    []string{"a"},
			Children: []*graph.Compound{{Group: "g", Nodes: []string{"b", "c"}}},
		},
	}

	m, err := graph.FromDocument(doc)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("groups:", m.GroupCount(), "depth:", m.Depth())
	for _, n := range m.Nodes() {
		fmt.Printf("%s %s\n", n.ID, n.Kind)
	}
	fmt.Println("view of g:", m.Node("g").View)
	// Output:
	// groups: 1 depth: 1
	// a plain
	// g group
	// b plain
	// c plain
	// view of g: expanded
}

func ExampleModel_AddOrReplaceNodes() {
	m := graph.New()
	err := m.AddOrReplaceNodes([]*graph.Node{
		{ID: "n1", Name: "Lexer"},
		{ID: "n1", Name: "Parser"},
	})
	fmt.Println(err)
	// Output:
	// DUPLICATE_ID: duplicate id for node Parser (n1) (already in use by Lexer (n1))
}

func ExampleReadDocument() {
	src := `{"nodes": [{"id": "a", "name": "A"}, {"id": "b", "name": "B"}],
	         "edges": [{"id": "e", "from": "a", "to": "b"}]}`

	doc, err := graph.ReadDocument(strings.NewReader(src), graph.FormatJSON)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	m, err := graph.FromDocument(doc)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(m.NodeCount(), "nodes,", m.EdgeCount(), "edge, compound:", m.IsCompound())
	// Output:
	// 2 nodes, 1 edge, compound: false
}

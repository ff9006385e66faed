// Package graph holds the canonical state of a compound graph and its
// serialization formats.
//
// # Model
//
// A [Model] owns the node set, the edge set and the optional compound
// structure (the tree of group nesting). It is built from a [Document] with
// [FromDocument] and afterwards only changed through the add-or-replace
// methods, [Model.SetCompoundStructure] and [Model.SetGroupView]:
//
//	m, err := graph.FromDocument(doc)
//	if err != nil {
//	    // a *errors.StructuralError naming the offending id
//	}
//	err = m.AddOrReplaceNodes([]*graph.Node{{ID: "b", Name: "Parser v2"}})
//
// Validation is fail-fast and atomic: a rejected batch leaves the model
// untouched. Nodes and edges keep insertion order, which later decides which
// edge survives when several collapse onto the same pair of visible nodes.
//
// # Node Kinds
//
// Every node carries a [NodeKind] assigned by the model: [KindGroup] for
// groups referenced by the compound structure, [KindPort] for nodes declaring
// ports, [KindPlain] otherwise. Group nodes always have a view of
// [ViewExpanded] or [ViewReduced].
//
// # Documents
//
// Graph documents are JSON or YAML:
//
//	{
//	  "nodes": [{"id": "a", "name": "A"}, {"id": "g", "name": "G"}, {"id": "b", "name": "B"}],
//	  "edges": [{"id": "e1", "from": "a", "to": "b"}],
//	  "compound": {"nodes": ["a"], "children": [{"group": "g", "nodes": ["b"]}]}
//	}
//
// When "compound" is absent but nodes list "children", the tree is derived
// from those lists ([CompoundFromChildren]).
//
// # Layouts
//
// [Layout] is the export format of a resolved, positioned frame, produced by
// pkg/viewer and written by [WriteLayoutFile].
package graph

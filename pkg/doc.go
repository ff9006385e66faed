// Package pkg provides the core libraries of flowlens, a viewer for directed
// compound graphs whose groups can be collapsed and expanded while zooming.
//
// # Overview
//
// The drawn graph is always a view of a larger logical graph. Reducing a
// group hides its members and redirects their edges to the group box; zooming
// switches between levels of detail without recomputing the layout. The pkg
// directory is organized into three areas:
//
//  1. Core - the logical graph, view resolution, layout and level of detail
//  2. Collaborators - renderers and the layered layout engine
//  3. Infrastructure - configuration, caching, storage and observability
//
// # Architecture
//
// Every interaction runs the same cycle:
//
//	zoom delta / group toggle / Modify
//	         ↓
//	    [group] or [graph] (state mutation)
//	         ↓
//	    [view] package (visible nodes, redirected edges)
//	         ↓
//	    [layout] package (request → engine → apply coordinates)
//	         ↓
//	    [portedge] package (one representative edge per port bundle)
//	         ↓
//	    [render] package (SVG, terminal, PDF/PNG)
//
// Zoom changes that do not cross a level boundary stop at [lod] and never
// reach the resolver.
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/flowlens/pkg/config"
//	    "github.com/matzehuels/flowlens/pkg/graph"
//	    "github.com/matzehuels/flowlens/pkg/layout/graphviz"
//	    "github.com/matzehuels/flowlens/pkg/render/svg"
//	    "github.com/matzehuels/flowlens/pkg/viewer"
//	)
//
//	doc, _ := graph.ReadDocumentFile("pipeline.json")
//	engine, _ := graphviz.New(ctx)
//	defer engine.Close()
//
//	cfg := config.Default()
//	drawing, _ := svg.New(svg.OptionsFromConfig(cfg))
//	v, _ := viewer.New(ctx, cfg, doc, viewer.Options{Engine: engine, Renderer: drawing})
//
//	v.ToggleGroup(ctx, "ingest")
//	v.Zoom(1.5)
//	os.WriteFile("pipeline.svg", drawing.Bytes(), 0o644)
//
// # Main Packages
//
// ## Core
//
// [graph] - The logical graph: nodes with optional ports, edges with optional
// port pairs, and the compound tree of groups. Batches are validated before
// they are committed, so a failed update leaves the model untouched.
// Documents are read and written as JSON or YAML.
//
// [view] - Computes the visible node set, the hidden-to-root map and the
// redirected, deduplicated visible edges for the current group views.
//
// [layout] - Builds the request handed to a layered layout engine and copies
// the returned coordinates back onto the model. [layout.CachedEngine]
// memoizes responses by request hash.
//
// [portedge] - Reduces the routed paths of an edge's port pairs to a single
// representative path and anchors every port.
//
// [lod] - The level-of-detail state machine driven by the zoom scale.
//
// [group] - The only mutator of a group's expanded/reduced view.
//
// [viewer] - Orchestrates the cycle above for one graph and exposes the
// current frame.
//
// ## Collaborators
//
// [layout/graphviz] - Lays out requests with Graphviz dot via go-graphviz.
//
// [render] - The renderer boundary and SVG to PDF/PNG conversion.
//
// [render/svg] - Layered SVG drawing with a minimap and group controls.
//
// ## Infrastructure
//
// [config] - TOML configuration, defaults and validation.
//
// [cache] - Byte caches for layouts and artifacts: file, Redis and null.
//
// [store] - Persistent viewer sessions: memory, file and MongoDB.
//
// [errors] - Error codes and structural errors naming the offending id.
//
// [observability] - Hooks for viewer cycles, caches and HTTP requests.
//
// [buildinfo] - Version information set at build time.
//
// # Command-Line Interface
//
// The flowlens CLI (cmd/flowlens) wraps these packages:
//
//	flowlens validate pipeline.json
//	flowlens render pipeline.json -f svg,png --collapse-all --expand ingest
//	flowlens view pipeline.json
//	flowlens serve --store file
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/graph
// [view]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/view
// [layout]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/layout
// [layout.CachedEngine]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/layout#CachedEngine
// [portedge]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/portedge
// [lod]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/lod
// [group]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/group
// [viewer]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/viewer
// [layout/graphviz]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/layout/graphviz
// [render]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/render
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/render/svg
// [config]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/config
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/store
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/flowlens/pkg/buildinfo
package pkg

package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/viewer"
)

// =============================================================================
// Initial State Flags
// =============================================================================

// stateFlags select the group views and level of detail a command starts
// from.
type stateFlags struct {
	reduce      string
	expand      string
	collapseAll bool
	lod         int
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.reduce, "reduce", "", "groups to reduce (comma-separated)")
	cmd.Flags().StringVar(&f.expand, "expand", "", "groups to expand (comma-separated)")
	cmd.Flags().BoolVar(&f.collapseAll, "collapse-all", false, "reduce every group; --expand reopens single ones")
	cmd.Flags().IntVar(&f.lod, "lod", -1, "level of detail (default: from config)")
	_ = cmd.RegisterFlagCompletionFunc("reduce", completeGroups)
	_ = cmd.RegisterFlagCompletionFunc("expand", completeGroups)
}

// configure applies flag overrides to the configuration.
func (f *stateFlags) configure(cfg *config.Config) {
	if f.lod >= 0 {
		cfg.LOD = f.lod
	}
}

// prepare writes the requested group views into the document so the first
// frame is already laid out in that state. Unknown groups are structural
// errors.
func (f *stateFlags) prepare(doc *graph.Document) (*graph.Document, error) {
	if !f.collapseAll && f.reduce == "" && f.expand == "" {
		return doc, nil
	}
	m, err := graph.FromDocument(doc)
	if err != nil {
		return nil, err
	}
	if f.collapseAll {
		for _, n := range m.Nodes() {
			if n.IsGroup() {
				_ = m.SetGroupView(n.ID, graph.ViewReduced)
			}
		}
	}
	for _, id := range splitList(f.reduce) {
		if err := m.SetGroupView(id, graph.ViewReduced); err != nil {
			return nil, err
		}
	}
	for _, id := range splitList(f.expand) {
		if err := m.SetGroupView(id, graph.ViewExpanded); err != nil {
			return nil, err
		}
	}
	return m.Document(), nil
}

// =============================================================================
// Workspace
// =============================================================================

// workspace is a viewer opened on an input file together with the
// resources it holds.
type workspace struct {
	cfg    config.Config
	viewer *viewer.Viewer
	engine layout.Engine
	store  cache.Cache
	keyer  cache.Keyer
	// layouts wraps store for the viewer and counts layout cache hits.
	layouts *countingCache
}

// rendererFunc builds the renderer for a workspace once the configuration is
// known. A nil rendererFunc draws nothing.
type rendererFunc func(cfg config.Config) (render.Renderer, error)

// open loads the configuration and the graph at input and draws its first
// frame.
func (c *CLI) open(ctx context.Context, input string, state *stateFlags, newRenderer rendererFunc) (*workspace, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	state.configure(&cfg)

	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		return nil, err
	}
	if doc, err = state.prepare(doc); err != nil {
		return nil, err
	}

	var r render.Renderer = render.Nop{}
	if newRenderer != nil {
		if r, err = newRenderer(cfg); err != nil {
			return nil, err
		}
	}

	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	engine, err := c.newEngine(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	ws := &workspace{
		cfg:     cfg,
		engine:  engine,
		store:   store,
		keyer:   cache.NewScopedKeyer("cli:"),
		layouts: &countingCache{Cache: store},
	}
	ws.viewer, err = viewer.New(ctx, cfg, doc, viewer.Options{
		Engine:   engine,
		Renderer: r,
		Logger:   c.Logger,
		Cache:    ws.layouts,
		Keyer:    ws.keyer,
	})
	if err != nil {
		ws.Close()
		return nil, err
	}
	return ws, nil
}

// Close releases the engine and the cache.
func (w *workspace) Close() {
	closeEngine(w.engine)
	_ = w.store.Close()
}

// basePath strips the extension from path.
func basePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

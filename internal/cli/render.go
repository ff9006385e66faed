package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/render"
	"github.com/matzehuels/flowlens/pkg/render/svg"
)

// Output formats.
const (
	formatSVG  = "svg"
	formatJSON = "json"
	formatPDF  = "pdf"
	formatPNG  = "png"
)

const defaultPNGScale = 2.0

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path
	formats  []string // svg, json, pdf, png
	pngScale float64  // resolution multiplier for png
	state    stateFlags
}

// renderCommand creates the render command for generating drawings.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{pngScale: defaultPNGScale}

	cmd := &cobra.Command{
		Use:   "render [graph]",
		Short: "Render a graph to SVG, PDF, PNG or JSON",
		Long: `Render a graph to SVG, PDF, PNG or a JSON layout.

The SVG carries every level of detail as a layer and switches between them
with the mouse wheel. PDF and PNG are converted from the SVG with rsvg-convert
and show the level selected with --lod. Converted artifacts are cached.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if opts.pngScale <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "png scale must be positive, got %g", opts.pngScale)
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", opts.pngScale, "png resolution multiplier")
	opts.state.register(cmd)

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	formats := splitList(s)
	if len(formats) == 0 {
		return []string{formatSVG}
	}
	return formats
}

// validateFormats checks that all requested formats are supported.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if err := errors.ValidateFormat(f, formatSVG, formatJSON, formatPDF, formatPNG); err != nil {
			return err
		}
	}
	return nil
}

// outputPaths maps each format to its output file. A single format writes
// to --output as given; otherwise --output (or the input) is a base path.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(input)
	if output != "" {
		base = basePath(output)
	}
	for _, f := range formats {
		if f == formatJSON {
			paths[f] = base + ".layout.json"
			continue
		}
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	var drawing *svg.Renderer
	newRenderer := func(cfg config.Config) (render.Renderer, error) {
		var err error
		drawing, err = svg.New(svg.OptionsFromConfig(cfg))
		return drawing, err
	}

	spinner := c.spinner(ctx, "Rendering...")
	spinner.Start()
	ws, err := c.open(ctx, input, &opts.state, newRenderer)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render %s: %w", input, err)
	}
	defer ws.Close()

	paths := outputPaths(input, opts.output, opts.formats)
	written := make([]string, 0, len(opts.formats))
	for _, f := range opts.formats {
		data, err := c.artifact(ctx, ws, drawing, f, opts.pngScale)
		if err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("render %s: %w", f, err)
		}
		if err := os.WriteFile(paths[f], data, 0o644); err != nil {
			spinner.StopWithError("Render failed")
			return fmt.Errorf("write output %s: %w", paths[f], err)
		}
		written = append(written, paths[f])
	}
	spinner.StopWithSuccess("Rendered " + strings.Join(opts.formats, ", "))
	for _, p := range written {
		c.out.file(p)
	}
	c.out.stats(statsOf(ws.viewer.Export(), ws.layouts.cached()))
	return nil
}

// artifact returns the bytes of one output format. PDF and PNG conversions
// are cached under the hash of the SVG they were converted from.
func (c *CLI) artifact(ctx context.Context, ws *workspace, drawing *svg.Renderer, format string, pngScale float64) ([]byte, error) {
	switch format {
	case formatSVG:
		return drawing.Bytes(), nil
	case formatJSON:
		return graph.MarshalLayout(ws.viewer.Export())
	}

	src := drawing.Bytes()
	keyFormat := format
	if format == formatPNG {
		keyFormat = fmt.Sprintf("%s@%.2f", format, pngScale)
	}
	key := ws.keyer.ArtifactKey(cache.Hash(src), cache.ArtifactKeyOpts{
		Format:  keyFormat,
		LOD:     ws.viewer.Lod(),
		Minimap: ws.cfg.Map != nil,
	})

	if data, hit, err := ws.store.Get(ctx, key); err != nil {
		c.Logger.Warn("artifact cache read failed", "err", err)
	} else if hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	var (
		data []byte
		err  error
	)
	if format == formatPDF {
		data, err = render.ToPDF(ctx, src)
	} else {
		data, err = render.ToPNG(ctx, src, pngScale)
	}
	if err != nil {
		return nil, err
	}

	if err := ws.store.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		c.Logger.Warn("artifact cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, nil
}

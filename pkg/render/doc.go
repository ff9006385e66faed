// Package render defines the boundary between the flowlens core and the
// drawing surfaces that display it.
//
// # Overview
//
// The core never draws. After every resolve and layout pass it hands a
// [Scene] to a [Renderer]: the frame (visible ids and canvas size), the model
// with fresh coordinates, and the current level of detail. Level changes that
// do not alter visibility are reported through [Renderer.UpdateLod] alone,
// without a new scene.
//
// Implementations in this repository:
//
//   - [svg]: standalone SVG with per-level layers, minimap and drawing hooks
//   - the terminal viewer of `flowlens view`
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	r := svg.New(svg.Options{})
//	err := r.Render(ctx, scene)
//	pdf, err := render.ToPDF(ctx, r.Bytes())
//	png, err := render.ToPNG(ctx, r.Bytes(), 2.0)  // 2x scale
//
// [svg]: github.com/matzehuels/flowlens/pkg/render/svg
package render

package svg

import (
	"bytes"
	"fmt"
)

// MinimapTransform fits a gw×gh graph into an mw×mh minimap. The graph is
// scaled by min(mw/gw, mh/gh) and centred.
func MinimapTransform(mw, mh, gw, gh float64) (scale, dx, dy float64) {
	scale = min(mw/gw, mh/gh)
	return scale, (mw - gw*scale) / 2, (mh - gh*scale) / 2
}

func (r *Renderer) writeMinimap(buf *bytes.Buffer, boxes []Box, gw, gh float64) {
	mw, mh := r.opts.Map.Width, r.opts.Map.Height
	scale, dx, dy := MinimapTransform(mw, mh, gw, gh)
	ox := gw + minimapMargin

	fmt.Fprintf(buf, `  <g class="minimap" transform="translate(%.2f,0)">`+"\n", ox)
	fmt.Fprintf(buf, `    <rect class="minimap-frame" x="0" y="0" width="%.2f" height="%.2f" fill="#fafafa" stroke="#bbb"/>`+"\n", mw, mh)
	fmt.Fprintf(buf, `    <g transform="translate(%.2f,%.2f) scale(%.4f)">`+"\n", dx, dy, scale)
	for _, b := range boxes {
		r.draw.minimap(buf, b)
	}
	fmt.Fprintf(buf, `    <rect class="viewport" x="0" y="0" width="%.2f" height="%.2f" fill="none" stroke="#c33" stroke-width="%.2f"/>`+"\n",
		gw, gh, 1/scale)
	buf.WriteString("    </g>\n  </g>\n")
}

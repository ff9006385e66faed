// Package lod maps a continuous zoom scale to a discrete level of detail.
//
// The configured zoom thresholds are an ascending list of length 2 or 3.
// With n thresholds there are n-1 levels, 0 through n-2. Level 0 draws the
// coarse view (node-to-node edges); higher levels add ports and port edges.
//
// A [Controller] moves at most one level per scale change:
//
//	if k < zoom[lod] and lod > 0:                      lod--
//	else if k >= zoom[lod+1] and lod < len(zoom)-2:    lod++
//
// so a single large jump across several thresholds advances only one level.
// The initial level may be one above the highest level zooming can reach
// (len(zoom)-1, the default 1 for two thresholds); zooming out leaves it and
// it is not entered again.
// Level changes are reported to a callback; they never change which nodes or
// edges are visible.
package lod

import (
	"github.com/matzehuels/flowlens/pkg/errors"
)

// DefaultZoom is the zoom threshold list used when none is configured.
var DefaultZoom = []float64{0.1, 2}

// DefaultLevel is the initial level used when none is configured.
const DefaultLevel = 1

// ValidateZoom checks that zoom has 2 or 3 strictly ascending thresholds.
func ValidateZoom(zoom []float64) error {
	if len(zoom) < 2 || len(zoom) > 3 {
		return errors.Structural(errors.ErrCodeInvalidZoom, errors.EntityConfig, "zoom",
			"zoom needs 2 or 3 thresholds, got %d", len(zoom))
	}
	for i := 1; i < len(zoom); i++ {
		if zoom[i] <= zoom[i-1] {
			return errors.Structural(errors.ErrCodeInvalidZoom, errors.EntityConfig, "zoom",
				"zoom thresholds must be strictly ascending, got %v", zoom)
		}
	}
	return nil
}

// Controller tracks the current level for a stream of zoom scales.
type Controller struct {
	zoom     []float64
	lod      int
	scale    float64
	hasScale bool
	onChange func(lod int)
}

// New returns a controller for the given thresholds. The initial level is
// clamped to [0, len(zoom)-1]. onChange, if not nil, is called after every
// level transition.
func New(zoom []float64, initial int, onChange func(lod int)) (*Controller, error) {
	if err := ValidateZoom(zoom); err != nil {
		return nil, err
	}
	c := &Controller{
		zoom:     append([]float64(nil), zoom...),
		onChange: onChange,
	}
	c.lod = c.bound(initial)
	return c, nil
}

// Level returns the current level.
func (c *Controller) Level() int { return c.lod }

// Max returns the highest level zooming in can step up to.
func (c *Controller) Max() int { return len(c.zoom) - 2 }

// bound clamps an initial or restored level.
func (c *Controller) bound(lod int) int { return min(max(lod, 0), len(c.zoom)-1) }

// Detailed reports whether the fine layer (ports and port edges) is shown.
func (c *Controller) Detailed() bool { return c.lod >= 1 }

// Zoom returns a copy of the thresholds.
func (c *Controller) Zoom() []float64 { return append([]float64(nil), c.zoom...) }

// Scale returns the last scale seen, or 1 before the first update.
func (c *Controller) Scale() float64 {
	if !c.hasScale {
		return 1
	}
	return c.scale
}

// Clamp limits k to the zoom extent [zoom[0], zoom[last]].
func (c *Controller) Clamp(k float64) float64 {
	return min(max(k, c.zoom[0]), c.zoom[len(c.zoom)-1])
}

// Update feeds a new zoom scale and reports whether the level changed.
// Repeating the previous scale is not a scale change and is ignored.
func (c *Controller) Update(k float64) bool {
	if c.hasScale && k == c.scale {
		return false
	}
	c.scale, c.hasScale = k, true

	prev := c.lod
	switch {
	case k < c.zoom[c.lod] && c.lod > 0:
		c.lod--
	case c.lod < c.Max() && k >= c.zoom[c.lod+1]:
		c.lod++
	}
	if c.lod == prev {
		return false
	}
	if c.onChange != nil {
		c.onChange(c.lod)
	}
	return true
}

// Set forces the level, clamped like the initial level, and reports whether
// it changed. It is meant for restoring a saved session.
func (c *Controller) Set(lod int) bool {
	lod = c.bound(lod)
	if lod == c.lod {
		return false
	}
	c.lod = lod
	if c.onChange != nil {
		c.onChange(c.lod)
	}
	return true
}

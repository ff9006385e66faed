package graphviz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/layout"
)

// frame converts Graphviz coordinates (points, y up, origin at the bounding
// box corner) to flowlens pixels (y down, origin top-left).
type frame struct {
	llx, ury float64
}

func (f frame) point(p graph.Point) graph.Point {
	return graph.Point{X: p.X - f.llx, Y: f.ury - p.Y}
}

// parseBB parses a "llx,lly,urx,ury" bounding box.
func parseBB(s string) (llx, lly, urx, ury float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("bad bounding box %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("bad bounding box %q: %w", s, err)
		}
	}
	return v[0], v[1], v[2], v[3], nil
}

// parsePoint parses an "x,y" pair.
func parsePoint(s string) (graph.Point, error) {
	x, y, ok := strings.Cut(s, ",")
	if !ok {
		return graph.Point{}, fmt.Errorf("bad point %q", s)
	}
	px, err := strconv.ParseFloat(x, 64)
	if err != nil {
		return graph.Point{}, fmt.Errorf("bad point %q: %w", s, err)
	}
	py, err := strconv.ParseFloat(y, 64)
	if err != nil {
		return graph.Point{}, fmt.Errorf("bad point %q: %w", s, err)
	}
	return graph.Point{X: px, Y: py}, nil
}

// parseSpline parses an edge "pos" attribute:
//
//	[e,x,y] [s,x,y] x1,y1 x2,y2 ...
//
// The start point is prepended and the end point appended so that the result
// runs from tail to head. Only the first spline of a ";"-separated list is
// read.
func parseSpline(s string) ([]graph.Point, error) {
	s, _, _ = strings.Cut(s, ";")
	var start, end *graph.Point
	var pts []graph.Point
	for _, tok := range strings.Fields(s) {
		switch {
		case strings.HasPrefix(tok, "s,"):
			p, err := parsePoint(tok[2:])
			if err != nil {
				return nil, err
			}
			start = &p
		case strings.HasPrefix(tok, "e,"):
			p, err := parsePoint(tok[2:])
			if err != nil {
				return nil, err
			}
			end = &p
		default:
			p, err := parsePoint(tok)
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
		}
	}
	if start != nil {
		pts = append([]graph.Point{*start}, pts...)
	}
	if end != nil {
		pts = append(pts, *end)
	}
	return pts, nil
}

// nodeBox converts a node "pos" and its width and height in inches.
func nodeBox(f frame, pos, width, height string) (layout.Box, error) {
	p, err := parsePoint(pos)
	if err != nil {
		return layout.Box{}, err
	}
	w, err := strconv.ParseFloat(width, 64)
	if err != nil {
		return layout.Box{}, fmt.Errorf("bad width %q: %w", width, err)
	}
	h, err := strconv.ParseFloat(height, 64)
	if err != nil {
		return layout.Box{}, fmt.Errorf("bad height %q: %w", height, err)
	}
	c := f.point(p)
	return layout.Box{X: c.X, Y: c.Y, Width: w * pointsPerInch, Height: h * pointsPerInch}, nil
}

// clusterBox converts a cluster "bb" to a centred box.
func clusterBox(f frame, bb string) (layout.Box, error) {
	llx, lly, urx, ury, err := parseBB(bb)
	if err != nil {
		return layout.Box{}, err
	}
	c := f.point(graph.Point{X: (llx + urx) / 2, Y: (lly + ury) / 2})
	return layout.Box{X: c.X, Y: c.Y, Width: urx - llx, Height: ury - lly}, nil
}

func transform(f frame, pts []graph.Point) []graph.Point {
	out := make([]graph.Point, len(pts))
	for i, p := range pts {
		out[i] = f.point(p)
	}
	return out
}

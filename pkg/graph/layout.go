package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Positioned Frame Export
// =============================================================================

// Layout is the serialized result of one resolve and layout pass: the visible
// id sets, the frame size and every visible entity with its coordinates.
//
// It is what `flowlens layout` writes and what the HTTP API returns for a
// session. Edge endpoints are the resolved ones, so an edge into a reduced
// group points at the group.
type Layout struct {
	Width    float64 `json:"width" bson:"width"`
	Height   float64 `json:"height" bson:"height"`
	LOD      int     `json:"lod" bson:"lod"`
	Detailed bool    `json:"detailed" bson:"detailed"`

	Visible VisibleSet        `json:"vis" bson:"vis"`
	Nodes   []LayoutNode      `json:"nodes" bson:"nodes"`
	Edges   []LayoutEdge      `json:"edges" bson:"edges"`
	Hidden  map[string]string `json:"hidden,omitempty" bson:"hidden,omitempty"`
}

// VisibleSet lists the visible node and edge ids in resolution order.
type VisibleSet struct {
	Nodes []string `json:"nodes" bson:"nodes"`
	Edges []string `json:"edges" bson:"edges"`
}

// LayoutNode is a positioned visible node. X and Y are the box centre.
type LayoutNode struct {
	ID     string  `json:"id" bson:"id"`
	Name   string  `json:"name" bson:"name"`
	Kind   string  `json:"kind" bson:"kind"`
	Parent string  `json:"parent,omitempty" bson:"parent,omitempty"`
	View   View    `json:"view,omitempty" bson:"view,omitempty"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Color  string  `json:"color,omitempty" bson:"color,omitempty"`

	Attr map[string]string `json:"attr,omitempty" bson:"attr,omitempty"`
	In   map[string]*Port  `json:"in,omitempty" bson:"in,omitempty"`
	Out  map[string]*Port  `json:"out,omitempty" bson:"out,omitempty"`
}

// LayoutEdge is a routed visible edge.
type LayoutEdge struct {
	ID     string            `json:"id" bson:"id"`
	From   string            `json:"from" bson:"from"`
	To     string            `json:"to" bson:"to"`
	Points []Point           `json:"points" bson:"points"`
	Ports  []PortPair        `json:"ports,omitempty" bson:"ports,omitempty"`
	Attr   map[string]string `json:"attr,omitempty" bson:"attr,omitempty"`

	// Absorbed lists edges that resolved onto the same endpoints and are
	// drawn by this one.
	Absorbed []string `json:"absorbed,omitempty" bson:"absorbed,omitempty"`
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Every visible node id must have a positioned node entry.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Width < 0 || l.Height < 0 {
		return Layout{}, fmt.Errorf("layout has negative size %gx%g", l.Width, l.Height)
	}

	placed := make(map[string]bool, len(l.Nodes))
	for _, n := range l.Nodes {
		placed[n.ID] = true
	}
	for _, id := range l.Visible.Nodes {
		if !placed[id] {
			return Layout{}, fmt.Errorf("visible node %q has no position", id)
		}
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}

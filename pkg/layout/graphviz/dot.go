package graphviz

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowlens/pkg/layout"
)

const pointsPerInch = 72

// names maps request ids to the synthetic DOT identifiers used in the
// generated graph. User ids and labels never reach DOT, so no escaping is
// needed.
type names struct {
	node    map[string]string // node id -> "n<i>"
	cluster map[string]string // container id -> "cluster_<i>"
	anchor  map[string]string // container id -> "a<i>"
	edge    map[string]string // "e<j>" -> edge spec key
	parent  map[string]string
}

func (nm *names) inside(id, container string) bool {
	for p := nm.parent[id]; p != ""; p = nm.parent[p] {
		if p == container {
			return true
		}
	}
	return false
}

// compass returns the compass points used for out and in ports.
func compass(rankdir string) (out, in string) {
	switch rankdir {
	case "LR":
		return "e", "w"
	case "BT":
		return "n", "s"
	case "RL":
		return "w", "e"
	default:
		return "s", "n"
	}
}

// ToDOT converts a layout request to Graphviz DOT.
//
// Plain nodes become fixed-size boxes. Port nodes become records with one
// field per port so that port edges attach at distinct slots. Containers
// become clusters holding their children and an invisible anchor node that
// stands in for the container as an edge endpoint.
func ToDOT(req *layout.Request) string {
	dot, _ := buildDOT(req)
	return dot
}

func buildDOT(req *layout.Request) (string, *names) {
	nm := &names{
		node:    make(map[string]string, len(req.Nodes)),
		cluster: make(map[string]string),
		anchor:  make(map[string]string),
		edge:    make(map[string]string, len(req.Edges)),
		parent:  make(map[string]string, len(req.Nodes)),
	}
	children := make(map[string][]int)
	for i, n := range req.Nodes {
		nm.parent[n.ID] = n.Parent
		children[n.Parent] = append(children[n.Parent], i)
		if n.Container {
			nm.cluster[n.ID] = "cluster_" + strconv.Itoa(i)
			nm.anchor[n.ID] = "a" + strconv.Itoa(i)
		} else {
			nm.node[n.ID] = "n" + strconv.Itoa(i)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  newrank=true;\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankDir(req.RankDir))
	if req.NodeSep > 0 {
		fmt.Fprintf(&buf, "  nodesep=%s;\n", num(req.NodeSep))
	}
	if req.RankSep > 0 {
		fmt.Fprintf(&buf, "  ranksep=%s;\n", num(req.RankSep))
	}
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	var writeLevel func(parent, indent string)
	writeLevel = func(parent, indent string) {
		for _, i := range children[parent] {
			n := req.Nodes[i]
			if n.Container {
				fmt.Fprintf(&buf, "%ssubgraph %s {\n", indent, nm.cluster[n.ID])
				fmt.Fprintf(&buf, "%s  %s [shape=point, style=invis, width=0.01, height=0.01];\n", indent, nm.anchor[n.ID])
				writeLevel(n.ID, indent+"  ")
				fmt.Fprintf(&buf, "%s}\n", indent)
				continue
			}
			fmt.Fprintf(&buf, "%s%s [%s];\n", indent, nm.node[n.ID], strings.Join(nodeAttrs(n, req), ", "))
		}
	}
	writeLevel("", "  ")

	buf.WriteString("\n")
	outSide, inSide := compass(req.RankDir)
	fields := portFields(req)
	for j, e := range req.Edges {
		id := "e" + strconv.Itoa(j)
		nm.edge[id] = e.Key

		from, to := endpoint(nm, e.From), endpoint(nm, e.To)
		if e.IsPortEdge() {
			if f, ok := fields[e.From]["o:"+e.OutPort]; ok {
				from += ":" + f + ":" + outSide
			}
			if f, ok := fields[e.To]["i:"+e.InPort]; ok {
				to += ":" + f + ":" + inSide
			}
		}
		attrs := []string{fmt.Sprintf("id=%q", id)}
		if c, ok := nm.cluster[e.From]; ok && !nm.inside(e.To, e.From) {
			attrs = append(attrs, "ltail="+c)
		}
		if c, ok := nm.cluster[e.To]; ok && !nm.inside(e.From, e.To) {
			attrs = append(attrs, "lhead="+c)
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", from, to, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String(), nm
}

func endpoint(nm *names, id string) string {
	if a, ok := nm.anchor[id]; ok {
		return a
	}
	return nm.node[id]
}

func nodeAttrs(n layout.NodeSpec, req *layout.Request) []string {
	w, h := n.Width, n.Height
	var attrs []string
	if len(n.In) > 0 || len(n.Out) > 0 {
		slots := float64(max(len(n.In), len(n.Out)))
		if vertical(req.RankDir) {
			w = max(w, slots*req.PortWidth)
			h += 2 * req.PortHeight
		} else {
			h = max(h, slots*req.PortHeight)
			w += 2 * req.PortWidth
		}
		attrs = append(attrs, "shape=record", fmt.Sprintf("label=%q", recordLabel(n)))
	}
	return append([]string{
		"width=" + num(w/pointsPerInch),
		"height=" + num(h/pointsPerInch),
	}, attrs...)
}

// recordLabel returns "{{<i0>|<i1>}||{<o0>}}": input slots, body, output slots.
func recordLabel(n layout.NodeSpec) string {
	fields := func(prefix string, count int) string {
		parts := make([]string, count)
		for i := range parts {
			parts[i] = "<" + prefix + strconv.Itoa(i) + ">"
		}
		return "{" + strings.Join(parts, "|") + "}"
	}
	var rows []string
	if len(n.In) > 0 {
		rows = append(rows, fields("i", len(n.In)))
	}
	rows = append(rows, "")
	if len(n.Out) > 0 {
		rows = append(rows, fields("o", len(n.Out)))
	}
	return "{" + strings.Join(rows, "|") + "}"
}

// portFields maps node id -> "i:<port>" or "o:<port>" -> record field name.
func portFields(req *layout.Request) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, n := range req.Nodes {
		if len(n.In) == 0 && len(n.Out) == 0 {
			continue
		}
		f := make(map[string]string, len(n.In)+len(n.Out))
		for i, id := range n.In {
			f["i:"+id] = "i" + strconv.Itoa(i)
		}
		for i, id := range n.Out {
			f["o:"+id] = "o" + strconv.Itoa(i)
		}
		out[n.ID] = f
	}
	return out
}

func vertical(rankdir string) bool {
	return rankdir != "LR" && rankdir != "RL"
}

func rankDir(s string) string {
	if s == "" {
		return "TB"
	}
	return s
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

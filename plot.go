package qcreative

import (
	"fmt"
	"math"
	"strings"
)

/*
Excluded is a probability value marking a node deliberately left out of an
analysis. Any value above 1 has the same effect: the node is drawn in the
neutral style with no label.
*/
const Excluded = 2.0

// Color is an RGB triple in [0,1].
type Color struct {
	R, G, B float64
}

var (
	Black = Color{0, 0, 0}
	Grey  = Color{0.5, 0.5, 0.5}
)

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	channel := func(v float64) int {
		return int(math.Round(math.Min(math.Max(v, 0), 1) * 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

// Overrides replace derived attributes node by node.
type Overrides struct {
	Labels map[NodeID]string
	Colors map[NodeID]Color
	Sizes  map[NodeID]int
}

// NodeStyle is everything a renderer needs to draw one node.
type NodeStyle struct {
	ID    NodeID
	Pos   Point
	Label string
	Color Color
	Size  int
}

/*
Graph is the presentation of a Layout: styled nodes, coupler-to-element
edges and the drawing area the positions fit in.
*/
type Graph struct {
	Nodes  []NodeStyle
	Edges  [][2]NodeID
	Width  float64
	Height float64
}

/*
Plot derives a Graph. With probabilities, an element or coupler is labelled
with its percentage, colored from red (0) to blue (1) and drawn larger when
its label is not "0"; a value above 1 draws it grey, unlabelled and at the
neutral size. Without probabilities, nodes are labelled by identity and
elements are shaded by index. Overrides win in both cases. probs is not
modified.
*/
func (l *Layout) Plot(probs NodeProbs, overrides Overrides) Graph {
	g := Graph{}

	for _, id := range l.Nodes() {
		style := NodeStyle{ID: id, Pos: l.pos[id]}

		if len(probs) > 0 {
			l.styleFromProb(&style, probs[id])
		} else {
			l.styleFromIndex(&style)
		}

		if label, ok := overrides.Labels[id]; ok {
			style.Label = label
		}
		if color, ok := overrides.Colors[id]; ok {
			style.Color = color
		}
		if size, ok := overrides.Sizes[id]; ok {
			style.Size = size
		}

		g.Nodes = append(g.Nodes, style)
		g.Width = math.Max(g.Width, style.Pos.X)
		g.Height = math.Max(g.Height, style.Pos.Y)
	}

	for _, c := range l.couplers {
		g.Edges = append(g.Edges,
			[2]NodeID{ElementID(c.A), CouplerID(c.Label)},
			[2]NodeID{ElementID(c.B), CouplerID(c.Label)},
		)
	}

	g.Width = (g.Width + 1) * 1.1
	g.Height = (g.Height + 1) * 1.1

	return g
}

func (l *Layout) styleFromProb(style *NodeStyle, p float64) {
	if p > 1 {
		style.Label = ""
		style.Color = Grey
		style.Size = 3000
		return
	}

	style.Label = fmt.Sprintf("%.0f", 100*p)
	style.Color = Color{R: 1 - p, G: 0, B: p}

	zero := style.Label == "0"
	switch {
	case style.ID.Kind == ElementNode && zero:
		style.Size = 3000
	case style.ID.Kind == ElementNode:
		style.Size = 4000
	case zero:
		style.Size = 800
	default:
		style.Size = 1150
	}
}

func (l *Layout) styleFromIndex(style *NodeStyle) {
	style.Label = style.ID.String()

	if style.ID.Kind == CouplerNode {
		style.Color = Black
		style.Size = 750
		return
	}

	f := float64(style.ID.Index) / float64(l.num)
	style.Color = Color{R: f, G: 0, B: 1 - f}
	style.Size = 3000
}

/*
DOT renders the graph for Graphviz (neato -n keeps the positions). Node size
is an area in the same units matplotlib uses, converted to a diameter in
inches.
*/
func (g Graph) DOT() string {
	var b strings.Builder

	b.WriteString("graph layout {\n")
	b.WriteString("\tnode [shape=circle, style=filled, fixedsize=true, fontcolor=white];\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "\t%q [label=%q, fillcolor=%q, width=%.2f, pos=\"%g,%g!\"];\n",
			n.ID.String(), n.Label, n.Color.Hex(), math.Sqrt(float64(n.Size))/72, n.Pos.X*2, n.Pos.Y*2)
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&b, "\t%q -- %q;\n", e[0].String(), e[1].String())
	}

	b.WriteString("}\n")
	return b.String()
}

package qcreative

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// NodeKind distinguishes the two kinds of node in a Layout.
type NodeKind int

const (
	ElementNode NodeKind = iota
	CouplerNode
)

/*
NodeID identifies a node of a Layout: an element by index or a coupler by
label. It is comparable and used as the key of every per-node map.
*/
type NodeID struct {
	Kind  NodeKind
	Index int
	Label string
}

// ElementID names element i.
func ElementID(i int) NodeID {
	return NodeID{Kind: ElementNode, Index: i}
}

// CouplerID names the coupler with the given label.
func CouplerID(label string) NodeID {
	return NodeID{Kind: CouplerNode, Index: -1, Label: label}
}

func (id NodeID) String() string {
	if id.Kind == CouplerNode {
		return id.Label
	}
	return strconv.Itoa(id.Index)
}

// Point is a 2-D layout position.
type Point struct {
	X, Y float64
}

// Coupler joins two distinct elements.
type Coupler struct {
	Label string
	A, B  int
}

/*
Layout is a coupling topology: elements 0..n-1 placed in the plane and
labelled couplers each joining two of them, drawn at their midpoint. It is
built once per device or grid and then reused for any number of
statistics.
*/
type Layout struct {
	name     string
	num      int
	couplers []Coupler
	pos      map[NodeID]Point
}

type device struct {
	num      int
	coupling [][2]int
	pos      []Point
}

var fiveElementPositions = []Point{{1, 1}, {1, 0}, {0.5, 0.5}, {0, 0}, {0, 1}}

var devices = map[string]device{
	"ibmqx2": {
		num:      5,
		coupling: [][2]int{{0, 1}, {0, 2}, {1, 2}, {3, 2}, {3, 4}, {4, 2}},
		pos:      fiveElementPositions,
	},
	"ibmqx4": {
		num:      5,
		coupling: [][2]int{{1, 0}, {2, 0}, {2, 1}, {3, 2}, {3, 4}, {2, 4}},
		pos:      fiveElementPositions,
	},
	"ibmqx5": {
		num: 16,
		coupling: [][2]int{
			{1, 0}, {1, 2}, {2, 3}, {3, 4}, {3, 14}, {5, 4}, {6, 5}, {6, 7},
			{6, 11}, {7, 10}, {8, 7}, {9, 8}, {9, 10}, {11, 10}, {12, 5},
			{12, 11}, {12, 13}, {13, 4}, {13, 14}, {15, 0}, {15, 2}, {15, 14},
		},
		pos: []Point{
			{0, 0}, {0, 1}, {1, 1}, {2, 1}, {3, 1}, {4, 1}, {5, 1}, {6, 1},
			{7, 1}, {7, 0}, {6, 0}, {5, 0}, {4, 0}, {3, 0}, {2, 0}, {1, 0},
		},
	},
}

var gridSpec = regexp.MustCompile(`^(\d+)x(\d+)$`)

// MaxGridElements bounds the size of a generated grid.
const MaxGridElements = 1 << 12

/*
ParseLayout accepts either a device name or a grid written as "<lx>x<ly>", for
example "3x2".
*/
func ParseLayout(spec string) (*Layout, error) {
	if m := gridSpec.FindStringSubmatch(spec); m != nil {
		lx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, errors.Wrapf(ErrConfiguration, "grid %q: %v", spec, err)
		}
		ly, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, errors.Wrapf(ErrConfiguration, "grid %q: %v", spec, err)
		}
		return NewGridLayout(lx, ly)
	}
	return NewDeviceLayout(spec)
}

// NewDeviceLayout builds the layout of a named device.
func NewDeviceLayout(name string) (*Layout, error) {
	dev, ok := devices[name]
	if !ok {
		return nil, errors.Wrapf(ErrConfiguration, "device %q not recognised: use a grid such as 3x2 or one of ibmqx2, ibmqx4, ibmqx5", name)
	}

	l := &Layout{
		name: name,
		num:  dev.num,
		pos:  make(map[NodeID]Point, dev.num+len(dev.coupling)),
	}

	for n, p := range dev.pos {
		l.pos[ElementID(n)] = p
	}
	for _, pair := range dev.coupling {
		l.addCoupler(pair[0], pair[1])
	}

	return l, nil
}

/*
NewGridLayout builds an lx by ly lattice. Element x + y*lx sits at (x, y) and
couplers join horizontal neighbours first, then vertical ones.
*/
func NewGridLayout(lx, ly int) (*Layout, error) {
	if lx < 1 || ly < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "grid %dx%d must have positive dimensions", lx, ly)
	}
	if lx > MaxGridElements/ly {
		return nil, errors.Wrapf(ErrConfiguration, "grid %dx%d exceeds %d elements", lx, ly, MaxGridElements)
	}

	l := &Layout{
		name: fmt.Sprintf("%dx%d", lx, ly),
		num:  lx * ly,
		pos:  make(map[NodeID]Point, 3*lx*ly),
	}

	for y := range ly {
		for x := range lx {
			l.pos[ElementID(x+y*lx)] = Point{X: float64(x), Y: float64(y)}
		}
	}

	for y := range ly {
		for x := range lx - 1 {
			n := x + y*lx
			l.addCoupler(n, n+1)
		}
	}
	for y := range ly - 1 {
		for x := range lx {
			n := x + y*lx
			l.addCoupler(n, n+lx)
		}
	}

	return l, nil
}

func (l *Layout) addCoupler(a, b int) {
	c := Coupler{Label: couplerLabel(len(l.couplers)), A: a, B: b}
	l.couplers = append(l.couplers, c)

	pa, pb := l.pos[ElementID(a)], l.pos[ElementID(b)]
	l.pos[CouplerID(c.Label)] = Point{X: (pa.X + pb.X) / 2, Y: (pa.Y + pb.Y) / 2}
}

// couplerLabel counts A, B, ..., Z, AA, AB, ...
func couplerLabel(k int) string {
	label := ""
	for k++; k > 0; k = (k - 1) / 26 {
		label = string(rune('A'+(k-1)%26)) + label
	}
	return label
}

func (l *Layout) Name() string { return l.name }

// Elements is the number of elements.
func (l *Layout) Elements() int { return l.num }

// Couplers returns the couplers in label order.
func (l *Layout) Couplers() []Coupler {
	return append([]Coupler(nil), l.couplers...)
}

// Position returns where a node is drawn.
func (l *Layout) Position(id NodeID) (Point, bool) {
	p, ok := l.pos[id]
	return p, ok
}

// Nodes lists the elements in index order followed by the couplers.
func (l *Layout) Nodes() []NodeID {
	nodes := make([]NodeID, 0, l.num+len(l.couplers))
	for n := range l.num {
		nodes = append(nodes, ElementID(n))
	}
	for _, c := range l.couplers {
		nodes = append(nodes, CouplerID(c.Label))
	}
	return nodes
}

// NodeProbs holds one value per node; see Excluded.
type NodeProbs map[NodeID]float64

/*
CalculateProbs turns raw counts into per-node values. An element gets the
probability of reading 1; a coupler gets the probability that its two
elements read differently. Element n is character len-1-n of each outcome.
Empty counts give every node 0.
*/
func (l *Layout) CalculateProbs(raw Counts) (NodeProbs, error) {
	probs := make(NodeProbs, len(l.pos))
	for _, id := range l.Nodes() {
		probs[id] = 0
	}

	stats := Renormalize(raw)

	for key, p := range stats {
		if len(key) < l.num {
			return nil, errors.Wrapf(ErrBackend, "outcome %q is shorter than the %d elements of %s", key, l.num, l.name)
		}

		bit := func(n int) byte { return key[len(key)-1-n] }

		for n := range l.num {
			if bit(n) == '1' {
				probs[ElementID(n)] += p
			}
		}
		for _, c := range l.couplers {
			if bit(c.A) != bit(c.B) {
				probs[CouplerID(c.Label)] += p
			}
		}
	}

	for id, v := range probs {
		probs[id] = min(v, 1)
	}

	return probs, nil
}

package qcreative

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPlot(t *testing.T) {
	Convey("Given a 2x2 grid", t, func() {
		layout, _ := NewGridLayout(2, 2)

		styleOf := func(g Graph, id NodeID) NodeStyle {
			for _, n := range g.Nodes {
				if n.ID == id {
					return n
				}
			}
			return NodeStyle{}
		}

		Convey("Without probabilities nodes should be labelled by identity", func() {
			g := layout.Plot(nil, Overrides{})

			So(g.Nodes, ShouldHaveLength, 8)
			So(g.Edges, ShouldHaveLength, 8)

			first := styleOf(g, ElementID(0))
			So(first.Label, ShouldEqual, "0")
			So(first.Color, ShouldResemble, Color{0, 0, 1})
			So(first.Size, ShouldEqual, 3000)

			third := styleOf(g, ElementID(2))
			So(third.Color, ShouldResemble, Color{0.5, 0, 0.5})

			coupler := styleOf(g, CouplerID("A"))
			So(coupler.Label, ShouldEqual, "A")
			So(coupler.Color, ShouldResemble, Black)
			So(coupler.Size, ShouldEqual, 750)
			So(coupler.Pos, ShouldResemble, Point{0.5, 0})
		})

		Convey("With probabilities nodes should show percentages", func() {
			probs := NodeProbs{
				ElementID(0):    0.5,
				ElementID(1):    0,
				ElementID(2):    Excluded,
				ElementID(3):    1,
				CouplerID("A"): 0,
				CouplerID("B"): 1,
				CouplerID("C"): Excluded,
				CouplerID("D"): 0.25,
			}
			g := layout.Plot(probs, Overrides{})

			half := styleOf(g, ElementID(0))
			So(half.Label, ShouldEqual, "50")
			So(half.Color, ShouldResemble, Color{0.5, 0, 0.5})
			So(half.Size, ShouldEqual, 4000)

			zero := styleOf(g, ElementID(1))
			So(zero.Label, ShouldEqual, "0")
			So(zero.Color, ShouldResemble, Color{1, 0, 0})
			So(zero.Size, ShouldEqual, 3000)

			excluded := styleOf(g, ElementID(2))
			So(excluded.Label, ShouldEqual, "")
			So(excluded.Color, ShouldResemble, Grey)
			So(excluded.Size, ShouldEqual, 3000)

			So(styleOf(g, CouplerID("A")).Size, ShouldEqual, 800)
			So(styleOf(g, CouplerID("B")).Label, ShouldEqual, "100")
			So(styleOf(g, CouplerID("B")).Size, ShouldEqual, 1150)
			So(styleOf(g, CouplerID("C")).Color, ShouldResemble, Grey)
		})

		Convey("Plotting should not modify the probabilities", func() {
			probs := NodeProbs{ElementID(0): 0.5}
			layout.Plot(probs, Overrides{})
			So(probs, ShouldResemble, NodeProbs{ElementID(0): 0.5})
		})

		Convey("Overrides should win", func() {
			g := layout.Plot(nil, Overrides{
				Labels: map[NodeID]string{ElementID(1): "q1"},
				Colors: map[NodeID]Color{CouplerID("D"): Grey},
				Sizes:  map[NodeID]int{ElementID(3): 10},
			})

			So(styleOf(g, ElementID(1)).Label, ShouldEqual, "q1")
			So(styleOf(g, CouplerID("D")).Color, ShouldResemble, Grey)
			So(styleOf(g, ElementID(3)).Size, ShouldEqual, 10)
		})

		Convey("The drawing area should contain every node", func() {
			g := layout.Plot(nil, Overrides{})
			So(g.Width, ShouldAlmostEqual, 2.2)
			So(g.Height, ShouldAlmostEqual, 2.2)
		})

		Convey("DOT should describe every node and edge", func() {
			dot := layout.Plot(nil, Overrides{}).DOT()
			So(dot, ShouldStartWith, "graph layout {")
			So(dot, ShouldContainSubstring, `"A" [label="A", fillcolor="#000000"`)
			So(dot, ShouldContainSubstring, `"0" -- "A";`)
			So(dot, ShouldContainSubstring, `"3" -- "D";`)
			So(dot, ShouldEndWith, "}\n")
		})
	})

	Convey("Given colors", t, func() {
		So(Color{1, 0, 0}.Hex(), ShouldEqual, "#ff0000")
		So(Color{0.5, 0, 0.5}.Hex(), ShouldEqual, "#800080")
		So(Color{2, -1, 0}.Hex(), ShouldEqual, "#ff0000")
	})
}

package qcreative

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGridLayout(t *testing.T) {
	Convey("Given a 2x2 grid", t, func() {
		layout, err := NewGridLayout(2, 2)
		So(err, ShouldBeNil)

		Convey("It should place elements row by row", func() {
			So(layout.Name(), ShouldEqual, "2x2")
			So(layout.Elements(), ShouldEqual, 4)

			for n, want := range []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
				pos, ok := layout.Position(ElementID(n))
				So(ok, ShouldBeTrue)
				So(pos, ShouldResemble, want)
			}
		})

		Convey("It should join horizontal neighbours before vertical ones", func() {
			So(layout.Couplers(), ShouldResemble, []Coupler{
				{Label: "A", A: 0, B: 1},
				{Label: "B", A: 2, B: 3},
				{Label: "C", A: 0, B: 2},
				{Label: "D", A: 1, B: 3},
			})

			pos, ok := layout.Position(CouplerID("C"))
			So(ok, ShouldBeTrue)
			So(pos, ShouldResemble, Point{0, 0.5})
		})

		Convey("It should list elements then couplers", func() {
			nodes := layout.Nodes()
			So(nodes, ShouldHaveLength, 8)
			So(nodes[0], ShouldResemble, ElementID(0))
			So(nodes[4], ShouldResemble, CouplerID("A"))
			So(nodes[4].String(), ShouldEqual, "A")
			So(nodes[3].String(), ShouldEqual, "3")
		})
	})

	Convey("Given non-square grids", t, func() {
		for _, dims := range [][2]int{{3, 2}, {2, 3}, {5, 1}, {4, 4}} {
			lx, ly := dims[0], dims[1]
			layout, err := NewGridLayout(lx, ly)
			So(err, ShouldBeNil)
			So(layout.Couplers(), ShouldHaveLength, lx*(ly-1)+ly*(lx-1))

			seen := map[Point]bool{}
			for n := range layout.Elements() {
				pos, _ := layout.Position(ElementID(n))
				So(seen[pos], ShouldBeFalse)
				seen[pos] = true
			}
		}
	})

	Convey("Given degenerate dimensions", t, func() {
		_, err := NewGridLayout(0, 3)
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
	})

	Convey("Given dimensions whose product overflows", t, func() {
		_, err := NewGridLayout(math.MaxInt, 2)
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
	})
}

func TestCouplerLabel(t *testing.T) {
	Convey("Given coupler counts past the alphabet", t, func() {
		So(couplerLabel(0), ShouldEqual, "A")
		So(couplerLabel(25), ShouldEqual, "Z")
		So(couplerLabel(26), ShouldEqual, "AA")
		So(couplerLabel(27), ShouldEqual, "AB")
		So(couplerLabel(52), ShouldEqual, "BA")
		So(couplerLabel(702), ShouldEqual, "AAA")
	})
}

func TestParseLayout(t *testing.T) {
	Convey("Given layout names", t, func() {
		Convey("Devices should come with their coupling maps", func() {
			for name, want := range map[string][2]int{"ibmqx2": {5, 6}, "ibmqx4": {5, 6}, "ibmqx5": {16, 22}} {
				layout, err := ParseLayout(name)
				So(err, ShouldBeNil)
				So(layout.Elements(), ShouldEqual, want[0])
				So(layout.Couplers(), ShouldHaveLength, want[1])
			}
		})

		Convey("Grid specs should build grids", func() {
			layout, err := ParseLayout("3x2")
			So(err, ShouldBeNil)
			So(layout.Elements(), ShouldEqual, 6)
		})

		Convey("Unknown devices should be configuration errors", func() {
			for _, name := range []string{"ibmqx9", "3x", "x2", ""} {
				_, err := ParseLayout(name)
				So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			}
		})

		Convey("Oversized or unparseable grids should fail before building", func() {
			for _, name := range []string{"99999999999999999999x1", "1x99999999999999999999", "100000x100000", "4097x1", "65x64"} {
				layout, err := ParseLayout(name)
				So(layout, ShouldBeNil)
				So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
			}
		})

		Convey("A grid at the element bound should still build", func() {
			layout, err := ParseLayout("64x64")
			So(err, ShouldBeNil)
			So(layout.Elements(), ShouldEqual, MaxGridElements)
		})
	})
}

func TestCalculateProbs(t *testing.T) {
	Convey("Given a 2x2 grid", t, func() {
		layout, _ := NewGridLayout(2, 2)

		Convey("Element values should be the chance of reading 1", func() {
			probs, err := layout.CalculateProbs(Counts{"0001": 50, "0011": 50})
			So(err, ShouldBeNil)
			So(probs, ShouldHaveLength, 8)
			So(probs[ElementID(0)], ShouldAlmostEqual, 1)
			So(probs[ElementID(1)], ShouldAlmostEqual, 0.5)
			So(probs[ElementID(2)], ShouldEqual, 0.0)
		})

		Convey("Coupler values should be the chance its elements differ", func() {
			probs, err := layout.CalculateProbs(Counts{"0001": 50, "0011": 50})
			So(err, ShouldBeNil)
			So(probs[CouplerID("A")], ShouldAlmostEqual, 0.5)
			So(probs[CouplerID("B")], ShouldEqual, 0.0)
			So(probs[CouplerID("C")], ShouldAlmostEqual, 1)
			So(probs[CouplerID("D")], ShouldAlmostEqual, 0.5)
		})

		Convey("Every value should stay within [0,1]", func() {
			probs, err := layout.CalculateProbs(Counts{"1111": 3, "0101": 5, "1010": 7, "0000": 1})
			So(err, ShouldBeNil)
			for _, v := range probs {
				So(v, ShouldBeBetweenOrEqual, 0, 1)
			}
		})

		Convey("Empty counts should give zero everywhere", func() {
			probs, err := layout.CalculateProbs(Counts{})
			So(err, ShouldBeNil)
			So(probs, ShouldHaveLength, 8)
			for _, v := range probs {
				So(v, ShouldEqual, 0.0)
			}
		})

		Convey("Outcomes shorter than the layout should be backend errors", func() {
			_, err := layout.CalculateProbs(Counts{"01": 1})
			So(errors.Is(err, ErrBackend), ShouldBeTrue)
		})
	})
}

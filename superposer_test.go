package qcreative

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSuperposerEncode(t *testing.T) {
	Convey("Given a superposer", t, func() {
		superposer := NewSuperposer(newTestSimulator(1))

		Convey("Equal strings should need no superposition", func() {
			p, err := superposer.Encode([]string{"0110", "0110"})
			So(err, ShouldBeNil)
			for _, op := range p.Ops {
				So(op.Kind, ShouldEqual, OpX)
			}
			So(p.Ops, ShouldHaveLength, 2)
		})

		Convey("Strings differing everywhere should use one H and a CX chain", func() {
			p, err := superposer.Encode([]string{"0000", "1111"})
			So(err, ShouldBeNil)
			So(p.Ops[0].Kind, ShouldEqual, OpH)
			So(p.Ops[1:], ShouldResemble, []Op{
				{Kind: OpCX, Target: 1, Control: 0},
				{Kind: OpCX, Target: 2, Control: 0},
				{Kind: OpCX, Target: 3, Control: 0},
			})
		})

		Convey("The full set should be an H on every register", func() {
			p, err := superposer.Encode([]string{"00", "01", "10", "11"})
			So(err, ShouldBeNil)
			So(p.Ops, ShouldHaveLength, 2)
			So(p.Ops[0].Kind, ShouldEqual, OpH)
			So(p.Ops[1].Kind, ShouldEqual, OpH)
		})
	})
}

func TestSuperposerSuperpose(t *testing.T) {
	Convey("Given a superposer on a seeded simulator", t, func() {
		superposer := NewSuperposer(newTestSimulator(21))
		ctx := context.Background()

		Convey("Two strings should split evenly and exclusively", func() {
			for _, pair := range [][]string{{"00", "11"}, {"01", "10"}, {"0111", "1010"}, {"0", "1"}} {
				probs, err := superposer.Superpose(ctx, pair, testShots)
				So(err, ShouldBeNil)
				So(probs, ShouldHaveLength, 2)
				So(probs.Get(pair[0]), ShouldAlmostEqual, 0.5, 0.03)
				So(probs.Get(pair[1]), ShouldAlmostEqual, 0.5, 0.03)
				So(probs.Sum(), ShouldAlmostEqual, 1, 1e-9)
			}
		})

		Convey("Identical strings should give a point mass", func() {
			probs, err := superposer.Superpose(ctx, []string{"1101", "1101"}, testShots)
			So(err, ShouldBeNil)
			So(probs, ShouldResemble, Probabilities{"1101": 1})

			probs, err = superposer.Superpose(ctx, []string{"1", "1"}, testShots)
			So(err, ShouldBeNil)
			So(probs, ShouldResemble, Probabilities{"1": 1})
		})

		Convey("The full set should be uniform", func() {
			full := []string{"000", "001", "010", "011", "100", "101", "110", "111"}
			probs, err := superposer.Superpose(ctx, full, testShots)
			So(err, ShouldBeNil)
			So(probs, ShouldHaveLength, 8)
			for _, key := range full {
				So(probs.Get(key), ShouldAlmostEqual, 0.125, 0.025)
			}
		})

		Convey("A batch should come back in input order", func() {
			stats, err := superposer.SuperposeBatch(ctx, [][]string{
				{"10", "10"},
				{"01", "01"},
				{"11", "00"},
			}, 64)
			So(err, ShouldBeNil)
			So(stats, ShouldHaveLength, 3)
			So(stats[0], ShouldResemble, Probabilities{"10": 1})
			So(stats[1], ShouldResemble, Probabilities{"01": 1})
			So(stats[2].Keys(), ShouldHaveLength, 2)
		})

		Convey("Invalid input should be encoding errors", func() {
			for _, list := range [][]string{
				nil,
				{"01"},
				{"01", "1"},
				{"0a", "11"},
				{"", "1"},
				{"00", "01", "10"},
				{"00", "00", "10", "11"},
			} {
				_, err := superposer.Superpose(ctx, list, testShots)
				So(errors.Is(err, ErrEncoding), ShouldBeTrue)
			}

			_, err := superposer.SuperposeBatch(ctx, nil, testShots)
			So(errors.Is(err, ErrEncoding), ShouldBeTrue)
		})

		Convey("Backend errors should propagate unchanged", func() {
			_, err := superposer.Superpose(ctx, []string{"0", "1"}, 0)
			So(errors.Is(err, ErrBackend), ShouldBeTrue)
		})
	})

	Convey("Given a padding superposer", t, func() {
		superposer := NewSuperposer(newTestSimulator(2), WithPadding())

		Convey("Shorter strings should be left-padded with zeros", func() {
			probs, err := superposer.Superpose(context.Background(), []string{"01", "1"}, 128)
			So(err, ShouldBeNil)
			So(probs, ShouldResemble, Probabilities{"01": 1})
		})
	})
}

package qcreative

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given raw counts", t, func() {
		counts := Counts{"00": 300, "11": 700}

		Convey("Normalize should divide by shots", func() {
			probs := Normalize(counts, 1000)
			So(probs.Get("00"), ShouldAlmostEqual, 0.3)
			So(probs.Get("11"), ShouldAlmostEqual, 0.7)
			So(probs.Sum(), ShouldAlmostEqual, 1)
		})

		Convey("Missing outcomes should read as zero", func() {
			So(Normalize(counts, 1000).Get("01"), ShouldEqual, 0.0)
		})

		Convey("Renormalize should divide by the observed total", func() {
			probs := Renormalize(Counts{"0": 1, "1": 3})
			So(probs.Get("1"), ShouldAlmostEqual, 0.75)
		})

		Convey("Empty input should give an empty map", func() {
			So(Renormalize(Counts{}), ShouldBeEmpty)
			So(Normalize(counts, 0), ShouldBeEmpty)
		})
	})
}

func TestProbabilities(t *testing.T) {
	Convey("Given a probability map", t, func() {
		probs := Probabilities{"01": 0.2, "10": 0.5, "00": 0.2, "11": 0.1}

		Convey("Keys should run from most to least likely", func() {
			So(probs.Keys(), ShouldResemble, []string{"10", "00", "01", "11"})
		})

		Convey("Restrict should keep and rescale the given keys", func() {
			restricted := probs.Restrict([]string{"10", "11", "nope"})
			So(restricted, ShouldHaveLength, 2)
			So(restricted.Get("10"), ShouldAlmostEqual, 0.5/0.6)
			So(restricted.Sum(), ShouldAlmostEqual, 1)
		})

		Convey("Restrict onto zero mass should be empty", func() {
			So(probs.Restrict([]string{"xx"}), ShouldBeEmpty)
		})

		Convey("Reversed should flip every key", func() {
			reversed := probs.Reversed()
			So(reversed.Get("10"), ShouldAlmostEqual, 0.2)
			So(reversed.Get("01"), ShouldAlmostEqual, 0.5)
			So(reversed.Get("11"), ShouldAlmostEqual, 0.1)
		})
	})
}

func TestMitigate(t *testing.T) {
	Convey("Given the default thresholds", t, func() {
		Convey("Values near the ends should snap", func() {
			So(MitigateDefault(0.05), ShouldEqual, 0.0)
			So(MitigateDefault(0.95), ShouldEqual, 1.0)
		})

		Convey("Values in between and at the thresholds should pass through", func() {
			So(MitigateDefault(0.5), ShouldEqual, 0.5)
			So(MitigateDefault(0.1), ShouldEqual, 0.1)
			So(MitigateDefault(0.9), ShouldEqual, 0.9)
		})

		Convey("It should be idempotent", func() {
			for _, p := range []float64{0, 0.01, 0.1, 0.3, 0.9, 0.97, 1} {
				once := MitigateDefault(p)
				So(MitigateDefault(once), ShouldEqual, once)
			}
		})
	})

	Convey("Given custom thresholds", t, func() {
		So(Mitigate(0.25, 0.3, 0.7), ShouldEqual, 0.0)
		So(Mitigate(0.75, 0.3, 0.7), ShouldEqual, 1.0)
	})
}

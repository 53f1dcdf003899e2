package qcreative

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOpenBackends(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := NewConfig()
		cfg.Seed = 99

		backends, metrics, err := OpenBackends(cfg, prometheus.NewRegistry())
		So(err, ShouldBeNil)

		Convey("Only the guarded simulator should be available", func() {
			So(backends.Names(), ShouldResemble, []string{SimulatorName})

			backend, err := backends.Open(SimulatorName)
			So(err, ShouldBeNil)
			So(backend, ShouldHaveSameTypeAs, &Guard{})
		})

		Convey("Submissions should be metered", func() {
			backend, _ := backends.Open(SimulatorName)
			_, err := ExecuteOne(context.Background(), backend, NewProgram("coin", 1).H(0).Measure(), 64)
			So(err, ShouldBeNil)
			So(metrics.Submissions, ShouldEqual, int64(1))
			So(metrics.Shots, ShouldEqual, int64(64))
		})
	})

	Convey("Given a config with every option", t, func() {
		dir := t.TempDir()
		cfg := NewConfig()
		cfg.Seed = 1
		cfg.Remote.URL = "http://localhost:1"
		cfg.Remote.Token = "secret"
		cfg.Retry.MaxAttempts = 3
		cfg.RateLimit.MaxTokens = 10
		cfg.Backpressure.TargetLatency = time.Minute
		cfg.Record = filepath.Join(dir, "recording.yml")

		backends, _, err := OpenBackends(cfg, nil)
		So(err, ShouldBeNil)

		Convey("The remote should be registered next to the simulator", func() {
			So(backends.Names(), ShouldResemble, []string{"remote", SimulatorName})
		})

		Convey("Live backends should retry", func() {
			backend, _ := backends.Open("remote")
			So(backend, ShouldHaveSameTypeAs, &Retrying{})
		})

		Convey("The default backend should record", func() {
			backend, _ := backends.Open(SimulatorName)
			_, err := ExecuteOne(context.Background(), backend, NewProgram("coin", 1).H(0).Measure(), 16)
			So(err, ShouldBeNil)

			_, err = os.Stat(cfg.Record)
			So(err, ShouldBeNil)

			Convey("And the recording should replay", func() {
				replayCfg := NewConfig()
				replayCfg.Replay = cfg.Record

				replayed, _, err := OpenBackends(replayCfg, nil)
				So(err, ShouldBeNil)
				So(replayed.Names(), ShouldResemble, []string{ReplayName, SimulatorName})

				replay, _ := replayed.Open(ReplayName)
				counts, err := ExecuteOne(context.Background(), replay, NewProgram("coin", 1).H(0).Measure(), 16)
				So(err, ShouldBeNil)
				So(counts.Total(), ShouldEqual, 16)
			})
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := NewConfig()
		cfg.Shots = 0

		_, _, err := OpenBackends(cfg, nil)
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
	})

	Convey("Given a remote without credentials", t, func() {
		cfg := NewConfig()
		cfg.Remote.URL = "http://localhost:1"

		_, _, err := OpenBackends(cfg, nil)
		So(errors.Is(err, ErrConfiguration), ShouldBeTrue)
	})
}

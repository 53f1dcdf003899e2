package qcreative

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Name() string {
	return "mock"
}

func (m *mockBackend) Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error) {
	args := m.Called(ctx, programs, shots)

	var results []Counts
	if r := args.Get(0); r != nil {
		results = r.([]Counts)
	}
	return results, args.Error(1)
}

func coinProgram() *Program {
	return NewProgram("coin", 1).H(0).Measure()
}

func TestGuard(t *testing.T) {
	Convey("Given a guarded backend", t, func() {
		backend := &mockBackend{}
		metrics := NewMetrics(nil)
		breaker := NewCircuitBreaker("mock", 2, time.Hour, 1)
		guard := NewGuard(backend, metrics, breaker)
		ctx := context.Background()

		Convey("It should pass results through", func() {
			want := []Counts{{"0": 3, "1": 1}}
			backend.On("Execute", mock.Anything, mock.Anything, 4).Return(want, nil)

			got, err := guard.Execute(ctx, []*Program{coinProgram()}, 4)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, want)
			So(guard.Name(), ShouldEqual, "mock")
			So(breaker.metrics, ShouldEqual, metrics)
		})

		Convey("It should open after repeated backend failures", func() {
			backend.On("Execute", mock.Anything, mock.Anything, mock.Anything).
				Return(nil, errors.Wrap(ErrBackend, "device offline"))

			for range 2 {
				_, err := guard.Execute(ctx, []*Program{coinProgram()}, 4)
				So(errors.Is(err, ErrBackend), ShouldBeTrue)
				So(errors.Is(err, ErrBreakerOpen), ShouldBeFalse)
			}

			_, err := guard.Execute(ctx, []*Program{coinProgram()}, 4)
			So(errors.Is(err, ErrBreakerOpen), ShouldBeTrue)
			So(errors.Is(err, ErrBackend), ShouldBeTrue)
			So(backend.Calls, ShouldHaveLength, 2)
			So(breaker.State(), ShouldEqual, CircuitOpen)
			So(metrics.Limited, ShouldEqual, int64(1))
		})

		Convey("Encoding errors and cancellations should not trip it", func() {
			backend.On("Execute", mock.Anything, mock.Anything, 1).
				Return(nil, errors.Wrap(ErrEncoding, "bad program"))
			backend.On("Execute", mock.Anything, mock.Anything, 2).
				Return(nil, context.Canceled)

			for range 3 {
				_, err := guard.Execute(ctx, []*Program{coinProgram()}, 1)
				So(errors.Is(err, ErrEncoding), ShouldBeTrue)

				_, err = guard.Execute(ctx, []*Program{coinProgram()}, 2)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			}

			So(breaker.State(), ShouldEqual, CircuitClosed)
		})
	})

	Convey("Given a rate limited backend", t, func() {
		backend := &mockBackend{}
		metrics := NewMetrics(nil)
		guard := NewGuard(backend, metrics, NewRateLimiter(1, time.Hour))

		backend.On("Execute", mock.Anything, mock.Anything, mock.Anything).Return([]Counts{{"0": 1}}, nil)

		Convey("Submissions past the budget should be backend errors", func() {
			_, err := guard.Execute(context.Background(), []*Program{coinProgram()}, 1)
			So(err, ShouldBeNil)

			_, err = guard.Execute(context.Background(), []*Program{coinProgram()}, 1)
			So(errors.Is(err, ErrBackend), ShouldBeTrue)
			So(errors.Is(err, ErrBreakerOpen), ShouldBeFalse)
			So(backend.Calls, ShouldHaveLength, 1)
			So(metrics.Limited, ShouldEqual, int64(1))
		})
	})
}

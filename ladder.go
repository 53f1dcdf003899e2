package qcreative

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

/*
Ladder is a bounded integer kept on a single register as an accumulated x
rotation. Adding past the top walks back down: the value traverses
0, 1, ..., d, d-1, ..., 0, 1, ... because the readout inverts a sine.

A Ladder is not safe for concurrent mutation.
*/
type Ladder struct {
	d     int
	theta float64
}

// NewLadder returns a ladder at value 0 with maximum d.
func NewLadder(d int) (*Ladder, error) {
	if d < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "ladder maximum must be positive, got %d", d)
	}
	return &Ladder{d: d}, nil
}

// Max is the largest value the ladder can report.
func (l *Ladder) Max() int {
	return l.d
}

// Theta is the accumulated rotation angle.
func (l *Ladder) Theta() float64 {
	return l.theta
}

// Add moves the ladder by delta, which may be fractional or negative.
func (l *Ladder) Add(delta float64) {
	l.theta += math.Pi * delta / float64(l.d)
}

// Program builds the readout program for the current angle.
func (l *Ladder) Program() *Program {
	return NewProgram("ladder", 1).RX(0, l.theta).Measure()
}

/*
Value reads the ladder. It does not change the ladder's state. Few shots
make the result noisy, and a noisy backend biases it low.
*/
func (l *Ladder) Value(ctx context.Context, backend Backend, shots int) (int, error) {
	counts, err := ExecuteOne(ctx, backend, l.Program(), shots)
	if err != nil {
		return 0, err
	}

	p := Normalize(counts, shots).Get("1")
	return l.decode(p), nil
}

func (l *Ladder) decode(p float64) int {
	p = math.Min(math.Max(p, 0), 1)
	return int(math.Round(2 * math.Asin(math.Sqrt(p)) * float64(l.d) / math.Pi))
}

package qcreative

import (
	"context"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// Basis names a measurement basis.
type Basis string

const (
	BasisX Basis = "X"
	BasisZ Basis = "Z"
	// BasisY prepares a state that is random in both X and Z.
	BasisY Basis = "Y"
)

// ParseBasis accepts X, Y or Z.
func ParseBasis(s string) (Basis, error) {
	switch b := Basis(s); b {
	case BasisX, BasisY, BasisZ:
		return b, nil
	default:
		return "", errors.Wrapf(ErrEncoding, "unknown basis %q", s)
	}
}

/*
TwoBitState is the prepared configuration of a TwoBit: either random in
both bases, or committed to a value in exactly one of X or Z.
*/
type TwoBitState struct {
	Basis Basis // BasisY means random
	Value bool
}

// Committed reports whether the state holds a value in the given basis.
func (s TwoBitState) Committed(basis Basis) bool {
	return basis != BasisY && s.Basis == basis
}

/*
TwoBit stores one boolean in either of two incompatible ways. Reading it in
the basis it was committed in returns the stored value; reading it in the
other basis returns a coin flip and commits the result there, erasing the
old commitment.

A TwoBit is not safe for concurrent use.
*/
type TwoBit struct {
	state TwoBitState
	rng   *rand.Rand
	low   float64
	high  float64
}

// TwoBitOption configures a TwoBit.
type TwoBitOption func(*TwoBit)

// WithRand sets the source for the final Bernoulli draw.
func WithRand(rng *rand.Rand) TwoBitOption {
	return func(t *TwoBit) {
		t.rng = rng
	}
}

// WithThresholds overrides the mitigation thresholds.
func WithThresholds(low, high float64) TwoBitOption {
	return func(t *TwoBit) {
		t.low, t.high = low, high
	}
}

// NewTwoBit starts random in both bases.
func NewTwoBit(opts ...TwoBitOption) *TwoBit {
	t := &TwoBit{
		state: TwoBitState{Basis: BasisY},
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		low:   MitigateLow,
		high:  MitigateHigh,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current prepared configuration.
func (t *TwoBit) State() TwoBitState {
	return t.state
}

// Prepare commits value in basis. For BasisY the value is ignored.
func (t *TwoBit) Prepare(basis Basis, value bool) error {
	switch basis {
	case BasisY:
		t.state = TwoBitState{Basis: BasisY}
	case BasisX, BasisZ:
		t.state = TwoBitState{Basis: basis, Value: value}
	default:
		return errors.Wrapf(ErrEncoding, "cannot prepare in basis %q", basis)
	}
	return nil
}

/*
Program builds the preparation for the current state followed by a readout
in basis.
*/
func (t *TwoBit) Program(basis Basis) (*Program, error) {
	if basis != BasisX && basis != BasisZ {
		return nil, errors.Wrapf(ErrEncoding, "cannot read in basis %q", basis)
	}

	p := NewProgram("twobit", 1)

	switch t.state.Basis {
	case BasisY:
		p.H(0).S(0)
	case BasisX:
		if t.state.Value {
			p.X(0)
		}
		p.H(0)
	case BasisZ:
		if t.state.Value {
			p.X(0)
		}
	}

	if basis == BasisX {
		p.H(0)
	}

	return p.Measure(), p.Err()
}

/*
Value reads the bit in basis. The fraction of shots reading 1 is optionally
mitigated and then used as the probability of a single Bernoulli draw, so a
single shot is as noisy as the device. The drawn value is committed in basis
before returning, which makes an immediate repeat agree with high
probability.
*/
func (t *TwoBit) Value(ctx context.Context, basis Basis, backend Backend, shots int, mitigate bool) (bool, error) {
	program, err := t.Program(basis)
	if err != nil {
		return false, err
	}

	counts, err := ExecuteOne(ctx, backend, program, shots)
	if err != nil {
		return false, err
	}

	p := Normalize(counts, shots).Get("1")
	if mitigate {
		p = Mitigate(p, t.low, t.high)
	}

	value := p > t.rng.Float64()
	t.state = TwoBitState{Basis: basis, Value: value}

	return value, nil
}

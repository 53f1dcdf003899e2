package qcreative

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

/*
BellProgram prepares a rotated Bell pair and reads each element in the basis
named by the matching character of basis ("XX", "XZ", "ZX" or "ZZ").
*/
func BellProgram(basis string) (*Program, error) {
	if len(basis) != 2 {
		return nil, errors.Wrapf(ErrEncoding, "bell basis needs two characters, got %q", basis)
	}

	p := NewProgram("bell_correlation", 2).
		H(0).
		CX(0, 1).
		RY(1, math.Pi/4).
		H(1)

	for j := range 2 {
		switch Basis(basis[j : j+1]) {
		case BasisX:
			p.H(j)
		case BasisZ:
		default:
			return nil, errors.Wrapf(ErrEncoding, "bell basis %q: element %d must be X or Z", basis, j)
		}
	}

	return p.Measure(), p.Err()
}

// BellCorrelation returns the fraction of shots where both elements agree.
func BellCorrelation(ctx context.Context, backend Backend, basis string, shots int) (float64, error) {
	program, err := BellProgram(basis)
	if err != nil {
		return 0, err
	}

	counts, err := ExecuteOne(ctx, backend, program, shots)
	if err != nil {
		return 0, err
	}

	probs := Normalize(counts, shots)
	return probs.Get("00") + probs.Get("11"), nil
}

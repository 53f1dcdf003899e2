package qcreative

import (
	"math"
	"math/cmplx"
	"sort"
)

/*
StateVector holds the 2^n complex amplitudes of an n-register program.
Bit i of an amplitude index is the value of register i.
*/
type StateVector struct {
	Amplitudes []complex128
	Registers  int
}

// NewStateVector starts every register at 0.
func NewStateVector(registers int) *StateVector {
	amps := make([]complex128, 1<<registers)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, Registers: registers}
}

// Apply evolves the state by a single operation.
func (sv *StateVector) Apply(op Op) {
	switch op.Kind {
	case OpH:
		h := complex(1/math.Sqrt2, 0)
		sv.pairs(op.Target, func(a0, a1 complex128) (complex128, complex128) {
			return h * (a0 + a1), h * (a0 - a1)
		})
	case OpX:
		sv.pairs(op.Target, func(a0, a1 complex128) (complex128, complex128) {
			return a1, a0
		})
	case OpS:
		sv.pairs(op.Target, func(a0, a1 complex128) (complex128, complex128) {
			return a0, 1i * a1
		})
	case OpRX:
		c := complex(math.Cos(op.Theta/2), 0)
		js := complex(0, -math.Sin(op.Theta/2))
		sv.pairs(op.Target, func(a0, a1 complex128) (complex128, complex128) {
			return c*a0 + js*a1, js*a0 + c*a1
		})
	case OpRY:
		c := complex(math.Cos(op.Theta/2), 0)
		s := complex(math.Sin(op.Theta/2), 0)
		sv.pairs(op.Target, func(a0, a1 complex128) (complex128, complex128) {
			return c*a0 - s*a1, s*a0 + c*a1
		})
	case OpCX:
		cbit := 1 << op.Control
		tbit := 1 << op.Target
		for i := range sv.Amplitudes {
			if i&cbit != 0 && i&tbit == 0 {
				j := i | tbit
				sv.Amplitudes[i], sv.Amplitudes[j] = sv.Amplitudes[j], sv.Amplitudes[i]
			}
		}
	}
}

// pairs applies a 2x2 kernel to every (|..0..>, |..1..>) pair on reg.
func (sv *StateVector) pairs(reg int, kernel func(a0, a1 complex128) (complex128, complex128)) {
	bit := 1 << reg
	for i := range sv.Amplitudes {
		if i&bit == 0 {
			j := i | bit
			sv.Amplitudes[i], sv.Amplitudes[j] = kernel(sv.Amplitudes[i], sv.Amplitudes[j])
		}
	}
}

// Outcome is one measured bit-string and its exact probability.
type Outcome struct {
	Key    string
	Weight float64
}

/*
Distribution marginalises the squared amplitudes onto the measured registers.
The key puts measured[0] in the rightmost position. Outcomes whose weight is
numerically zero are dropped and the rest are returned in key order.
*/
func (sv *StateVector) Distribution(measured []int) []Outcome {
	const eps = 1e-12

	acc := make(map[string]float64)
	key := make([]byte, len(measured))

	for idx, amp := range sv.Amplitudes {
		prob := cmplx.Abs(amp)
		prob *= prob
		if prob < eps {
			continue
		}

		for j, reg := range measured {
			key[len(measured)-1-j] = '0' + byte((idx>>reg)&1)
		}
		acc[string(key)] += prob
	}

	dist := make([]Outcome, 0, len(acc))
	total := 0.0
	for k, w := range acc {
		dist = append(dist, Outcome{Key: k, Weight: w})
		total += w
	}

	sort.Slice(dist, func(i, j int) bool {
		return dist[i].Key < dist[j].Key
	})

	for i := range dist {
		dist[i].Weight /= total
	}

	return dist
}

package qcreative

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

/*
Superposer encodes lists of bit-strings into programs whose measurement is
supported exactly on those strings, runs them as one batch and maps the
counts back onto the strings.

Two kinds of list are accepted: exactly two strings of the same length, which
are prepared as an equal mixture, or every one of the 2^n strings of length
n, which is prepared as the uniform distribution.
*/
type Superposer struct {
	backend Backend
	pad     bool
}

// SuperposerOption configures a Superposer.
type SuperposerOption func(*Superposer)

// WithPadding left-pads shorter strings with zeros instead of rejecting them.
func WithPadding() SuperposerOption {
	return func(s *Superposer) {
		s.pad = true
	}
}

// NewSuperposer binds a superposer to the backend it will execute on.
func NewSuperposer(backend Backend, opts ...SuperposerOption) *Superposer {
	s := &Superposer{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Superpose prepares one list and returns its outcome fractions.
func (s *Superposer) Superpose(ctx context.Context, list []string, shots int) (Probabilities, error) {
	stats, err := s.SuperposeBatch(ctx, [][]string{list}, shots)
	if err != nil {
		return nil, err
	}
	return stats[0], nil
}

/*
SuperposeBatch prepares every list, submits them to the backend in a single
call and returns one map per list, in input order. Keys are written in the
same order as the input strings: character k is register k.
*/
func (s *Superposer) SuperposeBatch(ctx context.Context, batch [][]string, shots int) ([]Probabilities, error) {
	if len(batch) == 0 {
		return nil, errors.Wrap(ErrEncoding, "no bit-string lists given")
	}

	programs := make([]*Program, len(batch))
	for i, list := range batch {
		program, err := s.Encode(list)
		if err != nil {
			return nil, errors.WithMessagef(err, "list %d", i)
		}
		programs[i] = program
	}

	errnie.Info("superposing %d lists on %s", len(programs), s.backend.Name())

	results, err := s.backend.Execute(ctx, programs, shots)
	if err != nil {
		return nil, err
	}

	stats := make([]Probabilities, len(results))
	for i, counts := range results {
		stats[i] = Normalize(counts, shots).Reversed()
	}

	return stats, nil
}

/*
Encode builds the program for one list. For two strings a and b it sets every
register where both hold 1, puts the first differing register into equal
superposition, copies it onto every other differing register and finally
flips the differing registers where a holds 1. The two branches of the
result read a and b, so the program is linear in the string length no matter
how many bits differ.
*/
func (s *Superposer) Encode(list []string) (*Program, error) {
	bits, err := s.normalize(list)
	if err != nil {
		return nil, err
	}

	width := len(bits[0])
	p := NewProgram("bitstring_superposer", width)

	if len(bits) > 2 {
		for reg := range width {
			p.H(reg)
		}
		return p.Measure(), p.Err()
	}

	a, b := bits[0], bits[1]
	diff := make([]int, 0, width)

	for reg := range width {
		if a[reg] == b[reg] {
			if a[reg] == '1' {
				p.X(reg)
			}
			continue
		}
		diff = append(diff, reg)
	}

	if len(diff) > 0 {
		p.H(diff[0])
		for _, reg := range diff[1:] {
			p.CX(diff[0], reg)
		}
		for _, reg := range diff {
			if a[reg] == '1' {
				p.X(reg)
			}
		}
	}

	return p.Measure(), p.Err()
}

func (s *Superposer) normalize(list []string) ([]string, error) {
	if len(list) < 2 {
		return nil, errors.Wrapf(ErrEncoding, "need at least two bit-strings, got %d", len(list))
	}

	width := 0
	for _, str := range list {
		if str == "" || strings.Trim(str, "01") != "" {
			return nil, errors.Wrapf(ErrEncoding, "%q is not a bit-string", str)
		}
		width = max(width, len(str))
	}

	bits := make([]string, len(list))
	for i, str := range list {
		if len(str) != width {
			if !s.pad {
				return nil, errors.Wrapf(ErrEncoding, "bit-strings differ in length: %q has %d bits, want %d", str, len(str), width)
			}
			str = strings.Repeat("0", width-len(str)) + str
		}
		bits[i] = str
	}

	if len(bits) == 2 {
		return bits, nil
	}

	if width >= 31 || len(bits) != 1<<width {
		return nil, errors.Wrapf(ErrEncoding, "%d strings of width %d: only two strings or all %d-bit strings can be superposed", len(bits), width, width)
	}

	seen := make(map[string]bool, len(bits))
	for _, str := range bits {
		if seen[str] {
			return nil, errors.Wrapf(ErrEncoding, "%q repeated in a full-set superposition", str)
		}
		seen[str] = true
	}

	return bits, nil
}

package qcreative

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

/*
EmoticonSuperposer superposes short ASCII strings such as ";)" and "8)" by
writing each character as its 8-bit code and delegating to a Superposer.
The returned strengths are keyed by the decoded strings, including any
strings a noisy backend produced that were never asked for.
*/
type EmoticonSuperposer struct {
	superposer *Superposer
}

// NewEmoticonSuperposer wraps a superposer.
func NewEmoticonSuperposer(superposer *Superposer) *EmoticonSuperposer {
	return &EmoticonSuperposer{superposer: superposer}
}

// Superpose handles one pair of emoticons.
func (e *EmoticonSuperposer) Superpose(ctx context.Context, emoticons []string, shots int) (map[string]float64, error) {
	stats, err := e.SuperposeBatch(ctx, [][]string{emoticons}, shots)
	if err != nil {
		return nil, err
	}
	return stats[0], nil
}

// SuperposeBatch handles several pairs in one backend submission.
func (e *EmoticonSuperposer) SuperposeBatch(ctx context.Context, batch [][]string, shots int) ([]map[string]float64, error) {
	encoded := make([][]string, len(batch))
	for i, emoticons := range batch {
		encoded[i] = make([]string, len(emoticons))
		for j, emoticon := range emoticons {
			bits, err := EncodeASCII(emoticon)
			if err != nil {
				return nil, err
			}
			encoded[i][j] = bits
		}
	}

	stats, err := e.superposer.SuperposeBatch(ctx, encoded, shots)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]float64, len(stats))
	for i, probs := range stats {
		out[i] = make(map[string]float64, len(probs))
		for bits, p := range probs {
			text, err := DecodeASCII(bits)
			if err != nil {
				return nil, err
			}
			out[i][text] += p
		}
	}

	return out, nil
}

// EncodeASCII writes each byte of s as eight bits, most significant first.
func EncodeASCII(s string) (string, error) {
	if s == "" {
		return "", errors.Wrap(ErrEncoding, "empty emoticon")
	}

	var b strings.Builder
	for _, r := range s {
		if r > 0xff {
			return "", errors.Wrapf(ErrEncoding, "%q contains %q, which does not fit in 8 bits", s, r)
		}
		fmt.Fprintf(&b, "%08b", r)
	}
	return b.String(), nil
}

// DecodeASCII reverses EncodeASCII.
func DecodeASCII(bits string) (string, error) {
	if len(bits)%8 != 0 {
		return "", errors.Wrapf(ErrEncoding, "%d bits is not a whole number of characters", len(bits))
	}

	var b strings.Builder
	for i := 0; i < len(bits); i += 8 {
		code, err := strconv.ParseUint(bits[i:i+8], 2, 8)
		if err != nil {
			return "", errors.Wrap(ErrEncoding, err.Error())
		}
		b.WriteRune(rune(code))
	}
	return b.String(), nil
}

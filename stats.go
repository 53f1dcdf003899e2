package qcreative

import "sort"

// Default thresholds for Mitigate.
const (
	MitigateLow  = 0.1
	MitigateHigh = 0.9
)

/*
Probabilities maps outcome bit-strings to their fraction of shots. A key that
is absent has probability 0.
*/
type Probabilities map[string]float64

// Get is an index that treats missing outcomes as probability 0.
func (p Probabilities) Get(key string) float64 {
	return p[key]
}

// Sum adds up every outcome's probability.
func (p Probabilities) Sum() float64 {
	total := 0.0
	for _, v := range p {
		total += v
	}
	return total
}

// Keys returns the outcomes from most to least likely, ties in lexical order.
func (p Probabilities) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if p[keys[i]] != p[keys[j]] {
			return p[keys[i]] > p[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Normalize divides each count by shots.
func Normalize(counts Counts, shots int) Probabilities {
	probs := make(Probabilities, len(counts))
	if shots <= 0 {
		return probs
	}
	for key, n := range counts {
		probs[key] = float64(n) / float64(shots)
	}
	return probs
}

/*
Renormalize divides each count by the total observed, for callers that do not
know the shot count the statistics were gathered with. Empty input yields an
empty map.
*/
func Renormalize(counts Counts) Probabilities {
	return Normalize(counts, counts.Total())
}

// Restrict keeps only the given keys and rescales them to sum to 1.
func (p Probabilities) Restrict(keys []string) Probabilities {
	total := 0.0
	for _, k := range keys {
		total += p[k]
	}

	out := make(Probabilities, len(keys))
	if total == 0 {
		return out
	}
	for _, k := range keys {
		if v, ok := p[k]; ok {
			out[k] = v / total
		}
	}
	return out
}

// Reversed flips every key, turning counts-ordered keys into register order.
func (p Probabilities) Reversed() Probabilities {
	out := make(Probabilities, len(p))
	for k, v := range p {
		out[reverse(k)] += v
	}
	return out
}

/*
Mitigate snaps p to 0 below low and to 1 above high, leaving it unchanged in
between. It is idempotent for any low <= high inside [0,1].
*/
func Mitigate(p, low, high float64) float64 {
	switch {
	case p < low:
		return 0
	case p > high:
		return 1
	default:
		return p
	}
}

// MitigateDefault applies Mitigate with the 0.1 / 0.9 thresholds.
func MitigateDefault(p float64) float64 {
	return Mitigate(p, MitigateLow, MitigateHigh)
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

package qcreative

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
	"golang.org/x/sync/errgroup"
)

// SimulatorName is the name the simulator registers under by default.
const SimulatorName = "simulator"

/*
Simulator is an in-process Backend. It evolves a state vector for each
program, caches the exact outcome distribution by program fingerprint and
draws the requested number of shots from it. With a non-zero readout error
every measured bit of every shot is flipped independently with that
probability, which stands in for a noisy device.
*/
type Simulator struct {
	name         string
	maxRegisters int
	readoutError float64
	cache        *lru.Cache[string, []Outcome]

	mu  sync.Mutex
	rng *rand.Rand
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSeed makes shot sampling reproducible.
func WithSeed(seed uint64) SimulatorOption {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithReadoutError flips each measured bit with probability p.
func WithReadoutError(p float64) SimulatorOption {
	return func(s *Simulator) {
		s.readoutError = p
	}
}

// WithMaxRegisters bounds the state vector size.
func WithMaxRegisters(n int) SimulatorOption {
	return func(s *Simulator) {
		s.maxRegisters = n
	}
}

// WithSimulatorName overrides the registry name.
func WithSimulatorName(name string) SimulatorOption {
	return func(s *Simulator) {
		s.name = name
	}
}

// NewSimulator builds a simulator whose distribution cache holds cacheSize programs.
func NewSimulator(cacheSize int, opts ...SimulatorOption) (*Simulator, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}

	cache, err := lru.New[string, []Outcome](cacheSize)
	if err != nil {
		return nil, errors.Wrap(ErrConfiguration, err.Error())
	}

	s := &Simulator{
		name:         SimulatorName,
		maxRegisters: 16,
		cache:        cache,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.readoutError < 0 || s.readoutError > 1 {
		return nil, errors.Wrapf(ErrConfiguration, "readout error %v outside [0,1]", s.readoutError)
	}

	return s, nil
}

func (s *Simulator) Name() string {
	return s.name
}

/*
Execute runs the batch concurrently, one goroutine per program, and returns
the counts in batch order. Each program gets its own generator seeded from
the simulator's generator before any goroutine starts, so a seeded simulator
returns the same counts regardless of scheduling.
*/
func (s *Simulator) Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error) {
	if err := validateBatch(programs, shots); err != nil {
		return nil, err
	}

	for _, p := range programs {
		if p.Registers > s.maxRegisters {
			return nil, errors.Wrapf(ErrBackend, "program %s uses %d registers, %s supports %d", p.Name, p.Registers, s.name, s.maxRegisters)
		}
	}

	errnie.Info("simulator %s executing %d programs at %d shots", s.name, len(programs), shots)

	rngs := make([]*rand.Rand, len(programs))
	s.mu.Lock()
	for i := range rngs {
		rngs[i] = rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))
	}
	s.mu.Unlock()

	results := make([]Counts, len(programs))
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range programs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.sample(s.Distribution(p), shots, rngs[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Distribution returns the exact noiseless outcome distribution of a program.
func (s *Simulator) Distribution(p *Program) []Outcome {
	fingerprint := p.Fingerprint()
	if dist, ok := s.cache.Get(fingerprint); ok {
		return dist
	}

	sv := NewStateVector(p.Registers)
	for _, op := range p.Ops {
		sv.Apply(op)
	}

	dist := sv.Distribution(p.Measured)
	s.cache.Add(fingerprint, dist)
	return dist
}

func (s *Simulator) sample(dist []Outcome, shots int, rng *rand.Rand) Counts {
	cumulative := make([]float64, len(dist))
	acc := 0.0
	for i, o := range dist {
		acc += o.Weight
		cumulative[i] = acc
	}

	counts := make(Counts)
	for range shots {
		r := rng.Float64() * acc
		i := sort.SearchFloat64s(cumulative, r)
		if i >= len(dist) {
			i = len(dist) - 1
		}
		counts[s.flip(dist[i].Key, rng)]++
	}

	return counts
}

func (s *Simulator) flip(key string, rng *rand.Rand) string {
	if s.readoutError == 0 {
		return key
	}

	bits := []byte(key)
	for i := range bits {
		if rng.Float64() < s.readoutError {
			bits[i] ^= 1
		}
	}
	return string(bits)
}

package qcreative

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

/*
Counts maps observed bit-strings to how often they occurred. Keys follow the
conventional ordering: the first measured register is the rightmost
character.
*/
type Counts map[string]int

// Total sums all occurrences.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Keys returns the outcomes in lexical order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

/*
Backend executes a batch of programs and returns one Counts per program, in
the order the programs were given. Implementations must not reorder or drop
results, and every returned Counts must sum to shots.
*/
type Backend interface {
	Name() string
	Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error)
}

// ExecuteOne is the single-program form of Backend.Execute.
func ExecuteOne(ctx context.Context, backend Backend, program *Program, shots int) (Counts, error) {
	results, err := backend.Execute(ctx, []*Program{program}, shots)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

/*
CheckCounts is the shape check every backend applies to what it is about to
return: one result per program, fixed-width keys of 0 and 1 matching the
measured register count, non-negative values summing to shots.
*/
func CheckCounts(programs []*Program, results []Counts, shots int) error {
	if len(results) != len(programs) {
		return errors.Wrapf(ErrBackend, "got %d results for %d programs", len(results), len(programs))
	}

	for i, counts := range results {
		width := len(programs[i].Measured)
		total := 0

		for key, n := range counts {
			if len(key) != width || strings.Trim(key, "01") != "" {
				return errors.Wrapf(ErrBackend, "program %s: malformed outcome %q", programs[i].Name, key)
			}
			if n < 0 {
				return errors.Wrapf(ErrBackend, "program %s: negative count for %q", programs[i].Name, key)
			}
			total += n
		}

		if total != shots {
			return errors.Wrapf(ErrBackend, "program %s: counts sum to %d, want %d", programs[i].Name, total, shots)
		}
	}

	return nil
}

func validateBatch(programs []*Program, shots int) error {
	if shots < 1 {
		return errors.Wrapf(ErrBackend, "shots must be positive, got %d", shots)
	}
	if len(programs) == 0 {
		return errors.Wrap(ErrBackend, "empty batch")
	}
	for _, p := range programs {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

/*
Backends is the explicit handle through which backends are selected by name.
It is built once, usually from a Config, and passed to whatever needs
execution; there is no process-wide registration.
*/
type Backends struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewBackends returns an empty registry.
func NewBackends() *Backends {
	return &Backends{
		backends: make(map[string]Backend),
	}
}

// Register makes a backend available under its Name.
func (b *Backends) Register(backend Backend) {
	b.mu.Lock()
	defer b.mu.Unlock()

	errnie.Info("registering backend %s", backend.Name())
	b.backends[backend.Name()] = backend
}

// Open looks up a backend by name.
func (b *Backends) Open(name string) (Backend, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	backend, ok := b.backends[name]
	if !ok {
		return nil, errors.Wrapf(ErrBackend, "unknown backend %q (have %s)", name, strings.Join(b.namesLocked(), ", "))
	}
	return backend, nil
}

// Names lists the registered backends.
func (b *Backends) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.namesLocked()
}

func (b *Backends) namesLocked() []string {
	names := make([]string, 0, len(b.backends))
	for name := range b.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

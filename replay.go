package qcreative

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
	"gopkg.in/yaml.v2"
)

// ReplayName is the name the offline backend registers under.
const ReplayName = "replay"

// Recording is one stored result.
type Recording struct {
	Fingerprint string `yaml:"fingerprint"`
	Name        string `yaml:"name"`
	Shots       int    `yaml:"shots"`
	Counts      Counts `yaml:"counts"`
}

/*
Recorder passes batches to a live backend and appends every result to a YAML
file, so the same experiments can later be rerun through Replay without the
live backend.
*/
type Recorder struct {
	backend Backend
	path    string

	mu         sync.Mutex
	recordings []Recording
}

// NewRecorder continues any recordings already at path.
func NewRecorder(backend Backend, path string) (*Recorder, error) {
	r := &Recorder{backend: backend, path: path}

	if _, err := os.Stat(path); err == nil {
		if r.recordings, err = readRecordings(path); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Recorder) Name() string {
	return r.backend.Name()
}

func (r *Recorder) Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error) {
	results, err := r.backend.Execute(ctx, programs, shots)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range programs {
		r.recordings = append(r.recordings, Recording{
			Fingerprint: p.Fingerprint(),
			Name:        p.Name,
			Shots:       shots,
			Counts:      results[i],
		})
	}

	if err := r.flush(); err != nil {
		// The entries stay in memory and go out with the next successful write.
		errnie.Info("recording to %s failed: %v", r.path, err)
	}

	return results, nil
}

// flush assumes the caller holds the lock.
func (r *Recorder) flush() error {
	out, err := yaml.Marshal(r.recordings)
	if err != nil {
		return errors.Wrapf(ErrConfiguration, "encoding recordings: %v", err)
	}
	if err := os.WriteFile(r.path, out, 0o644); err != nil {
		return errors.Wrapf(ErrConfiguration, "writing %s: %v", r.path, err)
	}
	return nil
}

type replayKey struct {
	fingerprint string
	shots       int
}

/*
Replay is the opt-in offline backend. It answers a program with the counts
recorded for the same program and shot count, cycling through them when the
same program was recorded several times, and fails with ErrBackend when
nothing was recorded or the recorded counts do not fit the program. A failed
batch consumes no recordings.
*/
type Replay struct {
	mu      sync.Mutex
	entries map[replayKey][]Counts
	cursor  map[replayKey]int
}

// NewReplay loads the recordings at path.
func NewReplay(path string) (*Replay, error) {
	recordings, err := readRecordings(path)
	if err != nil {
		return nil, err
	}

	r := &Replay{
		entries: make(map[replayKey][]Counts),
		cursor:  make(map[replayKey]int),
	}
	for _, rec := range recordings {
		key := replayKey{rec.Fingerprint, rec.Shots}
		r.entries[key] = append(r.entries[key], rec.Counts)
	}

	errnie.Info("replay loaded %d recordings from %s", len(recordings), path)
	return r, nil
}

func (r *Replay) Name() string {
	return ReplayName
}

func (r *Replay) Execute(ctx context.Context, programs []*Program, shots int) ([]Counts, error) {
	if err := validateBatch(programs, shots); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[replayKey]int, len(programs))
	results := make([]Counts, len(programs))

	for i, p := range programs {
		key := replayKey{p.Fingerprint(), shots}
		entries := r.entries[key]
		if len(entries) == 0 {
			return nil, errors.Wrapf(ErrBackend, "no recording of %s at %d shots", p.Name, shots)
		}

		cursor, ok := next[key]
		if !ok {
			cursor = r.cursor[key]
		}
		results[i] = entries[cursor%len(entries)]
		next[key] = cursor + 1
	}

	if err := CheckCounts(programs, results, shots); err != nil {
		return nil, err
	}

	// Cursors only move once the whole batch is served.
	for key, cursor := range next {
		r.cursor[key] = cursor
	}

	return results, nil
}

func readRecordings(path string) ([]Recording, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "reading recordings: %v", err)
	}

	var recordings []Recording
	if err := yaml.Unmarshal(raw, &recordings); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "decoding %s: %v", path, err)
	}
	return recordings, nil
}

package qcreative

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

/*
WalkRecord is the persisted output of a sampled walk over a layout: Probs is
indexed samples × steps × elements and Starts holds the starting element of
each sample. It is kept so the probability maps can be reused without a live
backend.
*/
type WalkRecord struct {
	Probs  [][][]float64
	Starts []int
}

// Samples is the number of recorded walks.
func (w *WalkRecord) Samples() int {
	return len(w.Probs)
}

/*
Step returns the element probabilities of one sample at one step as node
probs for layout. Walks only visit elements, so every coupler is Excluded.
*/
func (w *WalkRecord) Step(layout *Layout, sample, step int) (NodeProbs, error) {
	if sample < 0 || sample >= len(w.Probs) {
		return nil, errors.Wrapf(ErrConfiguration, "sample %d outside [0,%d)", sample, len(w.Probs))
	}
	if step < 0 || step >= len(w.Probs[sample]) {
		return nil, errors.Wrapf(ErrConfiguration, "step %d outside [0,%d)", step, len(w.Probs[sample]))
	}

	row := w.Probs[sample][step]
	if len(row) != layout.Elements() {
		return nil, errors.Wrapf(ErrConfiguration, "record has %d elements, layout %s has %d", len(row), layout.Name(), layout.Elements())
	}

	probs := make(NodeProbs, len(row)+len(layout.Couplers()))
	for n, p := range row {
		probs[ElementID(n)] = p
	}
	for _, c := range layout.Couplers() {
		probs[CouplerID(c.Label)] = Excluded
	}
	return probs, nil
}

// SaveWalkRecord writes the two-line record format.
func SaveWalkRecord(path string, record *WalkRecord) error {
	probs, err := json.Marshal(record.Probs)
	if err != nil {
		return errors.Wrapf(ErrConfiguration, "encoding probabilities: %v", err)
	}
	starts, err := json.Marshal(record.Starts)
	if err != nil {
		return errors.Wrapf(ErrConfiguration, "encoding starts: %v", err)
	}

	body := string(probs) + "\n" + string(starts) + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return errors.Wrapf(ErrConfiguration, "writing %s: %v", path, err)
	}
	return nil
}

// LoadWalkRecord reads a file written by SaveWalkRecord.
func LoadWalkRecord(path string) (*WalkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "opening %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "reading %s: %v", path, err)
	}

	if len(lines) != 2 {
		return nil, errors.Wrapf(ErrConfiguration, "%s: expected 2 lines, found %d", path, len(lines))
	}

	record := &WalkRecord{}
	if err := json.Unmarshal([]byte(lines[0]), &record.Probs); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "%s line 1: %v", path, err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &record.Starts); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "%s line 2: %v", path, err)
	}

	if len(record.Starts) != len(record.Probs) {
		return nil, errors.Wrapf(ErrConfiguration, "%s: %d samples but %d starts", path, len(record.Probs), len(record.Starts))
	}

	return record, nil
}

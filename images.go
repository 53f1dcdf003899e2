package qcreative

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/pkg/errors"
)

// ImageDir is where catalogue entries are looked up.
const ImageDir = "images"

/*
Catalogue is a fixed list of image names, padded with empty slots up to a
power of two so every entry has an index of the same bit width. Empty slots
are never superposed and never reported.
*/
type Catalogue struct {
	entries []string
	valid   int
	width   int
}

// NewCatalogue indexes names in the order given.
func NewCatalogue(names []string) (*Catalogue, error) {
	if len(names) < 2 {
		return nil, errors.Wrapf(ErrConfiguration, "catalogue needs at least two images, got %d", len(names))
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			return nil, errors.Wrapf(ErrConfiguration, "catalogue entry %q is empty or repeated", name)
		}
		seen[name] = true
	}

	width := 0
	for 1<<width < len(names) {
		width++
	}

	entries := make([]string, 1<<width)
	copy(entries, names)

	return &Catalogue{entries: entries, valid: len(names), width: width}, nil
}

// Width is the number of bits in an entry's index.
func (c *Catalogue) Width() int {
	return c.width
}

// Entries returns the padded catalogue; empty strings are empty slots.
func (c *Catalogue) Entries() []string {
	return append([]string(nil), c.entries...)
}

// Path is the file an entry is read from.
func (c *Catalogue) Path(name string) string {
	return path.Join(ImageDir, name+".png")
}

// Index returns the fixed-width binary index of name.
func (c *Catalogue) Index(name string) (string, error) {
	for i, entry := range c.entries[:c.valid] {
		if entry == name {
			return fmt.Sprintf("%0*b", c.width, i), nil
		}
	}
	return "", errors.Wrapf(ErrEncoding, "image %q is not in the catalogue", name)
}

func (c *Catalogue) validKeys() []string {
	keys := make([]string, c.valid)
	for i := range keys {
		keys[i] = fmt.Sprintf("%0*b", c.width, i)
	}
	return keys
}

/*
Layer is one image of a blend. Drawing the layers in order, each over the
previous with the given alpha, leaves every image with a final weight equal
to its probability.
*/
type Layer struct {
	Name  string
	Path  string
	Alpha float64
}

/*
ImageSuperposer superposes two images, or every image, from a Catalogue.
Results are renormalised over the real entries so that outcomes landing on
empty slots are discarded.
*/
type ImageSuperposer struct {
	catalogue  *Catalogue
	superposer *Superposer
}

// NewImageSuperposer binds a catalogue to a superposer.
func NewImageSuperposer(catalogue *Catalogue, superposer *Superposer) *ImageSuperposer {
	return &ImageSuperposer{catalogue: catalogue, superposer: superposer}
}

// Superpose handles one selection of images.
func (is *ImageSuperposer) Superpose(ctx context.Context, images []string, shots int) (map[string]float64, error) {
	stats, err := is.SuperposeBatch(ctx, [][]string{images}, shots)
	if err != nil {
		return nil, err
	}
	return stats[0], nil
}

/*
SuperposeBatch handles several selections in one backend submission. Each
selection is either two names or every name in the catalogue; selecting
every name of a catalogue that is not a power of two is rejected, because
the padded slots would have to be superposed too.
*/
func (is *ImageSuperposer) SuperposeBatch(ctx context.Context, batch [][]string, shots int) ([]map[string]float64, error) {
	encoded := make([][]string, len(batch))
	for i, images := range batch {
		if len(images) != 2 && len(images) != len(is.catalogue.entries) {
			return nil, errors.Wrapf(ErrEncoding, "selection %d has %d images: choose two or all %d", i, len(images), len(is.catalogue.entries))
		}
		encoded[i] = make([]string, len(images))
		for j, name := range images {
			index, err := is.catalogue.Index(name)
			if err != nil {
				return nil, err
			}
			encoded[i][j] = index
		}
	}

	stats, err := is.superposer.SuperposeBatch(ctx, encoded, shots)
	if err != nil {
		return nil, err
	}

	keys := is.catalogue.validKeys()
	out := make([]map[string]float64, len(stats))

	for i, probs := range stats {
		restricted := probs.Restrict(keys)
		out[i] = make(map[string]float64, len(restricted))
		for j, key := range keys {
			if p, ok := restricted[key]; ok {
				out[i][is.catalogue.entries[j]] = p
			}
		}
	}

	return out, nil
}

/*
Blend orders images from most to least likely and gives each an alpha such
that drawing them in that order yields a probability-weighted overlay. Image
j is drawn with alpha p_j / (1 - sum of the less likely images), which is the
cumulative-odds product written in closed form.
*/
func (is *ImageSuperposer) Blend(stats map[string]float64) []Layer {
	names := make([]string, 0, len(stats))
	for name, p := range stats {
		if p > 0 {
			names = append(names, name)
		}
	}

	sort.Slice(names, func(i, j int) bool {
		if stats[names[i]] != stats[names[j]] {
			return stats[names[i]] < stats[names[j]]
		}
		return names[i] < names[j]
	})

	total := 0.0
	for _, name := range names {
		total += stats[name]
	}

	alphas := make([]float64, len(names))
	below := 0.0
	for j, name := range names {
		f := stats[name] / total
		rest := 1 - below
		if rest <= 0 {
			alphas[j] = 1
		} else {
			alphas[j] = min(f/rest, 1)
		}
		below += f
	}

	layers := make([]Layer, 0, len(names))
	for j := len(names) - 1; j >= 0; j-- {
		layers = append(layers, Layer{
			Name:  names[j],
			Path:  is.catalogue.Path(names[j]),
			Alpha: alphas[j],
		})
	}

	return layers
}

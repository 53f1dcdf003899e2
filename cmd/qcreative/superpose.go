package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/theapemachine/qcreative"
)

var (
	pad       bool
	catalogue []string
	allImages bool
)

var superposeCmd = &cobra.Command{
	Use:   "superpose BITS BITS...",
	Short: "Superpose bit strings and print the outcome probabilities",
	Long: `Superpose two bit strings, or the full set of 2^n strings of length n, and
print the probability of every outcome.

Examples:
  qcreative superpose 0110 1001
  qcreative superpose 00 01 10 11
  qcreative superpose --pad 1 010`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, metrics, err := openBackend()
		if err != nil {
			return err
		}
		defer reportMetrics(metrics)

		var opts []qcreative.SuperposerOption
		if pad {
			opts = append(opts, qcreative.WithPadding())
		}
		superposer := qcreative.NewSuperposer(backend, opts...)

		if printQASM {
			program, err := superposer.Encode(args)
			if err != nil {
				return err
			}
			showQASM(cmd, program)
		}

		probs, err := superposer.Superpose(commandContext(cmd), args, cfg.Shots)
		if err != nil {
			return err
		}

		for _, key := range probs.Keys() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.4f\n", key, probs[key])
		}
		return nil
	},
}

var emoticonCmd = &cobra.Command{
	Use:   "emoticon A B [A B]...",
	Short: "Superpose pairs of ASCII emoticons",
	Long: `Superpose pairs of short ASCII strings. Every two arguments form a pair and
all pairs run in one backend submission.

Examples:
  qcreative emoticon ";)" "8)"
  qcreative emoticon ";)" "8)" ":(" ":D"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return errors.Errorf("emoticons come in pairs, got %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, metrics, err := openBackend()
		if err != nil {
			return err
		}
		defer reportMetrics(metrics)

		superposer := qcreative.NewSuperposer(backend)
		emoticons := qcreative.NewEmoticonSuperposer(superposer)

		var batch [][]string
		for i := 0; i < len(args); i += 2 {
			batch = append(batch, []string{args[i], args[i+1]})
		}

		if printQASM {
			for _, pair := range batch {
				encoded := make([]string, len(pair))
				for j, emoticon := range pair {
					if encoded[j], err = qcreative.EncodeASCII(emoticon); err != nil {
						return err
					}
				}
				program, err := superposer.Encode(encoded)
				if err != nil {
					return err
				}
				showQASM(cmd, program)
			}
		}

		stats, err := emoticons.SuperposeBatch(commandContext(cmd), batch, cfg.Shots)
		if err != nil {
			return err
		}

		for i, strengths := range stats {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", strings.Join(batch[i], " + "))
			printStrengths(cmd.OutOrStdout(), strengths)
		}
		return nil
	},
}

var imagesCmd = &cobra.Command{
	Use:   "images [NAME NAME]",
	Short: "Superpose images from a catalogue and print the blend layers",
	Long: `Superpose two images, or with --all every image, from the catalogue and
print the layers that draw the probability-weighted overlay, most likely
first. Images are expected under ` + qcreative.ImageDir + `/<name>.png.

Examples:
  qcreative images --catalogue cat,dog,owl,fox cat owl
  qcreative images --catalogue cat,dog,owl,fox --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := qcreative.NewCatalogue(catalogue)
		if err != nil {
			return err
		}

		selection := args
		if allImages {
			selection = nil
			for _, name := range cat.Entries() {
				if name != "" {
					selection = append(selection, name)
				}
			}
		}
		if len(selection) == 0 {
			return errors.New("name two images or pass --all")
		}

		backend, metrics, err := openBackend()
		if err != nil {
			return err
		}
		defer reportMetrics(metrics)

		images := qcreative.NewImageSuperposer(cat, qcreative.NewSuperposer(backend))

		stats, err := images.Superpose(commandContext(cmd), selection, cfg.Shots)
		if err != nil {
			return err
		}

		printStrengths(cmd.OutOrStdout(), stats)
		for _, layer := range images.Blend(stats) {
			fmt.Fprintf(cmd.OutOrStdout(), "layer %s\t%s\talpha=%.4f\n", layer.Name, layer.Path, layer.Alpha)
		}
		return nil
	},
}

func printStrengths(w io.Writer, strengths map[string]float64) {
	keys := make([]string, 0, len(strengths))
	for key := range strengths {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if strengths[keys[i]] != strengths[keys[j]] {
			return strengths[keys[i]] > strengths[keys[j]]
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		fmt.Fprintf(w, "  %q\t%.4f\n", key, strengths[key])
	}
}

func init() {
	superposeCmd.Flags().BoolVar(&pad, "pad", false, "left-pad shorter strings with zeros")

	imagesCmd.Flags().StringSliceVar(&catalogue, "catalogue", nil, "image names in catalogue order")
	imagesCmd.Flags().BoolVar(&allImages, "all", false, "superpose every image in the catalogue")
	_ = imagesCmd.MarkFlagRequired("catalogue")

	rootCmd.AddCommand(superposeCmd, emoticonCmd, imagesCmd)
}

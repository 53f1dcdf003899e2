package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/qcreative"
)

var (
	walkPath   string
	walkSample int
	walkStep   int
)

var layoutCmd = &cobra.Command{
	Use:   "layout LAYOUT",
	Short: "Print a device or grid layout as Graphviz DOT",
	Long: `Print the layout of a named device (ibmqx2, ibmqx4, ibmqx5) or of an
Lx x Ly grid such as 3x2 as a Graphviz description. With --walk the nodes are
coloured by the probabilities stored in a walk record.

Examples:
  qcreative layout ibmqx5 | dot -Kneato -n -Tpng > ibmqx5.png
  qcreative layout 3x2 --walk results.txt --sample 0 --step 4`,
	Args: cobra.ExactArgs(1),
	// Layouts need no backend or config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := qcreative.ParseLayout(args[0])
		if err != nil {
			return err
		}

		var probs qcreative.NodeProbs
		if walkPath != "" {
			record, err := qcreative.LoadWalkRecord(walkPath)
			if err != nil {
				return err
			}
			if probs, err = record.Step(layout, walkSample, walkStep); err != nil {
				return err
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), layout.Plot(probs, qcreative.Overrides{}).DOT())
		return nil
	},
}

func init() {
	layoutCmd.Flags().StringVar(&walkPath, "walk", "", "walk record to colour the nodes from")
	layoutCmd.Flags().IntVar(&walkSample, "sample", 0, "walk sample to show")
	layoutCmd.Flags().IntVar(&walkStep, "step", 0, "walk step to show")

	rootCmd.AddCommand(layoutCmd)
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/theapemachine/qcreative"
)

var (
	ladderMax int

	prepareBasis string
	prepareValue bool
	readBasis    string
	trials       int
	mitigate     bool
)

var ladderCmd = &cobra.Command{
	Use:   "ladder DELTA...",
	Short: "Add to a qubit ladder and read its value after each step",
	Long: `Store a number between 0 and --max on one qubit. Each argument is added in
turn and the value is read back after every addition; going past the top
walks back down.

Examples:
  qcreative ladder --max 10 3 4 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ladder, err := qcreative.NewLadder(ladderMax)
		if err != nil {
			return err
		}

		backend, metrics, err := openBackend()
		if err != nil {
			return err
		}
		defer reportMetrics(metrics)

		for _, arg := range args {
			delta, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return errors.Wrapf(qcreative.ErrConfiguration, "delta %q: %v", arg, err)
			}

			ladder.Add(delta)
			showQASM(cmd, ladder.Program())

			value, err := ladder.Value(commandContext(cmd), backend, cfg.Shots)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "+%s\t%d\n", arg, value)
		}
		return nil
	},
}

var twobitCmd = &cobra.Command{
	Use:   "twobit",
	Short: "Prepare a two-basis bit and read it repeatedly",
	Long: `Prepare a bit in the X or Z basis (or Y for random in both) and read it
--trials times in --read. Every read commits its result, so reading in the
other basis first scrambles the stored value.

Examples:
  qcreative twobit --prepare Z --value --read Z
  qcreative twobit --prepare Z --value --read X --trials 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prepare, err := qcreative.ParseBasis(strings.ToUpper(prepareBasis))
		if err != nil {
			return err
		}
		read, err := qcreative.ParseBasis(strings.ToUpper(readBasis))
		if err != nil {
			return err
		}

		backend, metrics, err := openBackend()
		if err != nil {
			return err
		}
		defer reportMetrics(metrics)

		bit := qcreative.NewTwoBit(qcreative.WithThresholds(cfg.MitigateLow, cfg.MitigateHigh))
		if err := bit.Prepare(prepare, prepareValue); err != nil {
			return err
		}

		for i := range trials {
			program, err := bit.Program(read)
			if err != nil {
				return err
			}
			showQASM(cmd, program)

			value, err := bit.Value(commandContext(cmd), read, backend, cfg.Shots, mitigate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%t\n", i, read, value)
		}
		return nil
	},
}

var bellCmd = &cobra.Command{
	Use:   "bell [BASIS...]",
	Short: "Measure Bell pair agreement in pairs of bases",
	Long: `Print the probability that both elements of a rotated Bell pair agree when
read in each pair of bases. Without arguments all of XX, XZ, ZX and ZZ run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"XX", "XZ", "ZX", "ZZ"}
		}

		backend, metrics, err := openBackend()
		if err != nil {
			return err
		}
		defer reportMetrics(metrics)

		for _, basis := range args {
			basis = strings.ToUpper(basis)

			if printQASM {
				program, err := qcreative.BellProgram(basis)
				if err != nil {
					return err
				}
				showQASM(cmd, program)
			}

			agreement, err := qcreative.BellCorrelation(commandContext(cmd), backend, basis, cfg.Shots)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.4f\n", basis, agreement)
		}
		return nil
	},
}

func init() {
	ladderCmd.Flags().IntVar(&ladderMax, "max", 10, "largest value the ladder holds")

	twobitCmd.Flags().StringVar(&prepareBasis, "prepare", "Y", "basis to prepare in: X, Y or Z")
	twobitCmd.Flags().BoolVar(&prepareValue, "value", false, "value to prepare")
	twobitCmd.Flags().StringVar(&readBasis, "read", "Z", "basis to read in: X or Z")
	twobitCmd.Flags().IntVar(&trials, "trials", 1, "number of consecutive reads")
	twobitCmd.Flags().BoolVar(&mitigate, "mitigate", true, "clamp near-certain readouts")

	rootCmd.AddCommand(ladderCmd, twobitCmd, bellCmd)
}

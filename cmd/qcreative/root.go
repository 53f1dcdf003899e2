package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/theapemachine/errnie"
	"github.com/theapemachine/qcreative"
)

var (
	configPath  string
	backendName string
	shots       int
	seed        uint64
	recordPath  string
	replayPath  string
	printQASM   bool

	cfg *qcreative.Config
)

var rootCmd = &cobra.Command{
	Use:   "qcreative",
	Short: "Quantum creative experiments",
	Long: `qcreative runs small quantum programs for creative uses: superposing
bit strings, emoticons and images, storing numbers and booleans in qubits,
probing Bell correlations and drawing device layouts.

Programs run on the built-in simulator unless a remote backend is configured.
Results can be recorded with --record and replayed offline with --replay.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = qcreative.LoadConfig(configPath); err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("backend") {
			cfg.Backend = backendName
		}
		if flags.Changed("shots") {
			cfg.Shots = shots
		}
		if flags.Changed("seed") {
			cfg.Seed = seed
		}
		if flags.Changed("record") {
			cfg.Record = recordPath
		}
		if flags.Changed("replay") {
			cfg.Replay = replayPath
			if !flags.Changed("backend") {
				cfg.Backend = qcreative.ReplayName
			}
		}

		return cfg.Validate()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openBackend builds the backends handle from cfg and selects the configured one.
func openBackend() (qcreative.Backend, *qcreative.Metrics, error) {
	backends, metrics, err := qcreative.OpenBackends(cfg, prometheus.NewRegistry())
	if err != nil {
		return nil, nil, err
	}

	backend, err := backends.Open(cfg.Backend)
	if err != nil {
		return nil, nil, err
	}

	errnie.Info("using backend %s with %d shots", backend.Name(), cfg.Shots)
	return backend, metrics, nil
}

// showQASM prints the programs when --qasm is set.
func showQASM(cmd *cobra.Command, programs ...*qcreative.Program) {
	if !printQASM {
		return
	}
	for _, p := range programs {
		fmt.Fprintf(cmd.OutOrStdout(), "// %s\n%s\n", p.Name, p.QASM())
	}
}

func reportMetrics(metrics *qcreative.Metrics) {
	errnie.Info("backend metrics: %v", metrics.ExportMetrics())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", qcreative.SimulatorName, "backend to run programs on")
	rootCmd.PersistentFlags().IntVar(&shots, "shots", 1024, "samples per program")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "simulator seed (0 picks a random seed)")
	rootCmd.PersistentFlags().StringVar(&recordPath, "record", "", "append every live result to this file")
	rootCmd.PersistentFlags().StringVar(&replayPath, "replay", "", "serve results from a recording instead of a live backend")
	rootCmd.PersistentFlags().BoolVar(&printQASM, "qasm", false, "print the OpenQASM of every program")
}

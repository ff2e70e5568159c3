package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
	"go.trai.ch/strata/internal/engine/orchestrator"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the target layers of every runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := buildOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.Build(cmd.Context(), opts)
		},
	}
	addBuildFlags(cmd)
	cmd.Flags().BoolP("inspect", "i", false, "Inspect the TUI after build completion (prevents auto-exit)")
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("runtime", "r", nil, "Build only these runtimes (repeatable)")
	cmd.Flags().BoolP("full", "f", false, "Regenerate every file instead of only stale ones")
	cmd.Flags().String("retry", "none", "Retry a failed phase: none, incremental, or full")
	cmd.Flags().Bool("explain", false, "Log why each file is regenerated")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, or linear")
	cmd.Flags().Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while building")
	cmd.Flags().Bool("no-introspect", false, "Do not answer status queries on the introspection socket")
}

func buildOptions(cmd *cobra.Command) (app.BuildOptions, error) {
	runtimes, _ := cmd.Flags().GetStringSlice("runtime")
	full, _ := cmd.Flags().GetBool("full")
	retryFlag, _ := cmd.Flags().GetString("retry")
	explain, _ := cmd.Flags().GetBool("explain")
	outputMode, _ := cmd.Flags().GetString("output-mode")
	ci, _ := cmd.Flags().GetBool("ci")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	noIntrospect, _ := cmd.Flags().GetBool("no-introspect")
	inspect, _ := cmd.Flags().GetBool("inspect")

	retry, err := orchestrator.ParseRetryMode(retryFlag)
	if err != nil {
		return app.BuildOptions{}, err
	}

	// If --ci is set, override output-mode to "linear"
	if ci {
		outputMode = "linear"
	}

	return app.BuildOptions{
		Runtimes:     runtimes,
		Full:         full,
		Retry:        retry,
		Explain:      explain,
		Inspect:      inspect,
		OutputMode:   outputMode,
		MetricsAddr:  metricsAddr,
		Socket:       socketFlag(cmd),
		NoIntrospect: noIntrospect,
	}, nil
}

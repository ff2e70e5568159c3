package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/adapters/watcher"
	"go.trai.ch/strata/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild whenever sources or layer definitions change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := buildOptions(cmd)
			if err != nil {
				return err
			}
			debounce, _ := cmd.Flags().GetDuration("debounce")
			idle, _ := cmd.Flags().GetDuration("idle-timeout")
			return c.app.Watch(cmd.Context(), app.WatchOptions{
				BuildOptions: opts,
				Debounce:     debounce,
				IdleTimeout:  idle,
			})
		},
	}
	addBuildFlags(cmd)
	cmd.Flags().Duration("debounce", watcher.DefaultDebounceWindow, "How long changes settle before a rebuild")
	cmd.Flags().Duration("idle-timeout", 0, "Stop after this long without changes or queries (0 never stops)")
	return cmd
}

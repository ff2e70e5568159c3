package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
)

func (c *CLI) newLayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layers",
		Short: "Show the resolved layer order of each runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runtimes, _ := cmd.Flags().GetStringSlice("runtime")
			return c.app.Layers(cmd.Context(), app.LayersOptions{Runtimes: runtimes})
		},
	}
	cmd.Flags().StringSliceP("runtime", "r", nil, "Show only these runtimes (repeatable)")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build output and workspace state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, _ := cmd.Flags().GetBool("state")
			all, _ := cmd.Flags().GetBool("all")

			opts := app.CleanOptions{Socket: socketFlag(cmd)}

			switch {
			case all:
				opts.Build = true
				opts.State = true
			case state:
				opts.State = true
			default:
				// Default behavior: clean build output
				opts.Build = true
			}

			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolP("state", "s", false, "Clean the build info store and staging area")
	cmd.Flags().BoolP("all", "a", false, "Clean build output and workspace state")

	return cmd
}

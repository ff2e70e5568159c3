package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <file>",
		Short: "Explain whether the next build regenerates a source file and why",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Explain(cmd.Context(), args[0])
		},
	}
}

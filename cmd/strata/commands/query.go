package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
)

func (c *CLI) newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Ask a running build about its state",
	}

	cmd.AddCommand(c.newQueryStatusCmd())
	cmd.AddCommand(c.newQueryTypeCmd())

	return cmd
}

func queryOptions(cmd *cobra.Command) app.QueryOptions {
	jsonOut, _ := cmd.Flags().GetBool("json")
	return app.QueryOptions{Socket: socketFlag(cmd), JSON: jsonOut}
}

func (c *CLI) newQueryStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the layers and phase states of the running build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.QueryStatus(cmd.Context(), queryOptions(cmd))
		},
	}
}

func (c *CLI) newQueryTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type <runtime> <type>",
		Short: "Show which layer the running build resolves a type from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetInt("from")
			return c.app.QueryType(cmd.Context(), args[0], args[1], from, queryOptions(cmd))
		},
	}
	cmd.Flags().Int("from", -1, "Search from this layer position downwards (-1 for the most specific layer)")
	return cmd
}

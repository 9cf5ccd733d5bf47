package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/familymap/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr, solver string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout, render, validate, cycle and connect endpoints over HTTP.

The server uses the configured cache backend; redis lets several instances
share results. It shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.settings().Server.Addr
			}
			runner, err := c.newRunner(cmd.Context(), solver, false)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()
			return server.New(runner, c.Logger).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&solver, "solver", "", "rank solver: graphviz, layered (default from config)")
	return cmd
}

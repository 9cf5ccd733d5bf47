package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/pipeline"
)

type layoutOpts struct {
	output  string
	policy  string
	solver  string
	noCache bool
	refresh bool
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout <file>",
		Short: "Arrange a family document in generations",
		Long: `Compute positions for every person and union in a family document.

Partners share a generation, unions sit between partners and children, and
siblings are kept together. The strict policy centers each union on its
children; the friendly policy keeps unions near their partners.

The document is rewritten in place unless -o is given. Results are cached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "span policy: strict, friendly (default from config)")
	cmd.Flags().StringVar(&opts.solver, "solver", "", "rank solver: graphviz, layered (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached layouts")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts layoutOpts) error {
	doc, err := document.ReadFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.solver, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	prog := newProgress(c.Logger)
	res, err := runner.Layout(ctx, doc, pipeline.Options{
		Policy:  c.policyOrDefault(opts.policy),
		Refresh: opts.refresh,
	})
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done("layout finished", "solver", runner.Engine.SolverName(), "cached", res.CacheHit)

	out := opts.output
	if out == "" {
		out = input
	}
	if err := document.WriteFile(out, res.Document); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	if res.Applied {
		printSuccess(c.Out, "Layout complete")
	} else {
		printWarning(c.Out, "Layout unavailable, positions unchanged: %s", errors.UserMessage(res.Diagnostic))
	}
	printFile(c.Out, out)
	printStats(c.Out, res.Graph, res.CacheHit)
	printNextStep(c.Out, "Render", appName+" render "+out)
	return nil
}

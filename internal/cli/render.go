package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/pipeline"
)

type renderOpts struct {
	output   string
	formats  string
	policy   string
	solver   string
	title    string
	relayout bool
	noCache  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a family document to SVG, PNG or PDF",
		Long: `Render a family document as a diagram.

Node positions are taken from the document as they are; pass --relayout to
compute a fresh layout first. PNG and PDF output needs rsvg-convert on PATH.

With one format, -o names the output file. With several, -o is a base path
and each format gets its own extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path (default: next to input)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "svg", "output formats: svg, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "span policy for --relayout")
	cmd.Flags().StringVar(&opts.solver, "solver", "", "rank solver for --relayout")
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title")
	cmd.Flags().BoolVar(&opts.relayout, "relayout", false, "compute a layout before rendering")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	doc, err := document.ReadFile(input)
	if err != nil {
		return err
	}

	popts := pipeline.Options{
		Policy:   c.policyOrDefault(opts.policy),
		Formats:  strings.Split(opts.formats, ","),
		Relayout: opts.relayout,
		Title:    opts.title,
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.solver, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	res, err := runner.Render(ctx, doc, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if res.Layout != nil && !res.Layout.Applied {
		printWarning(c.Out, "Layout unavailable, rendering stored positions: %s", errors.UserMessage(res.Layout.Diagnostic))
	}
	printSuccess(c.Out, "Rendered %s", strings.Join(popts.Formats, ", "))
	for _, f := range popts.Formats {
		path := outputPath(input, opts.output, f, len(popts.Formats) > 1)
		if err := os.WriteFile(path, res.Artifacts[f], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(c.Out, path)
	}
	return nil
}

// outputPath picks the artifact path for format. Without an explicit output
// the input's basename is sanitized and placed next to it. A base path used
// for several formats has its extension replaced.
func outputPath(input, output, format string, multi bool) string {
	ext := "." + format
	switch {
	case output == "":
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		return filepath.Join(filepath.Dir(input), errors.SanitizeFilename(base, ext))
	case multi:
		return strings.TrimSuffix(output, filepath.Ext(output)) + ext
	default:
		return output
	}
}

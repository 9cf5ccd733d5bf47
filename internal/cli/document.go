package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout/rank"
)

// newCommand creates the "new" command.
func (c *CLI) newCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create an empty family document",
		Long: `Create an empty family document. The format follows the extension:
.json (default), .yaml/.yml or .toml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			}
			if err := document.Save(path, family.Graph{}, rank.TopToBottom); err != nil {
				return err
			}
			printSuccess(c.Out, "Created %s", path)
			printNextStep(c.Out, "Add a person", appName+" person add "+path+" --name 'Ada'")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// checkCommand creates the "check" command.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <glob>...",
		Short: "Validate family documents",
		Long: `Validate family documents matched by one or more globs. Patterns support
** for recursive matches, for example 'trees/**/*.{json,yaml}'.

Every document is fully validated: node and edge shapes, union partners and
cyclic ancestry.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandGlobs(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return errors.New(errors.ErrCodeFileNotFound, "no documents match %v", args)
			}

			var failed int
			for _, path := range paths {
				g, _, err := document.Load(path)
				if err != nil {
					failed++
					printError(c.Out, "%s", path)
					printDetail(c.Out, "%s: %s", errors.GetCode(err), errors.UserMessage(err))
					continue
				}
				printSuccess(c.Out, "%s", path)
				printStats(c.Out, g, false)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed validation", failed, len(paths))
			}
			return nil
		},
	}
}

// expandGlobs resolves patterns to a sorted, duplicate-free list of files.
func expandGlobs(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad pattern %q", p)
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

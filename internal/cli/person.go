package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/editor"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout"
)

// editOpts select the layout used by structural edits.
type editOpts struct {
	policy string
	solver string
}

func (o *editOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.policy, "policy", "", "span policy: strict, friendly (default from config)")
	cmd.Flags().StringVar(&o.solver, "solver", "", "rank solver: graphviz, layered (default from config)")
}

// openEditor loads path into an editor.
func (c *CLI) openEditor(path string, opts editOpts) (*editor.Editor, error) {
	g, dir, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	policy, err := layout.ParsePolicy(c.policyOrDefault(opts.policy))
	if err != nil {
		return nil, err
	}
	engine, err := c.newEngine(opts.solver)
	if err != nil {
		return nil, err
	}
	return editor.New(
		editor.State{Graph: g, Direction: dir, Friendly: policy == layout.PolicyFriendly},
		editor.Options{
			IDs:          c.ids,
			Layout:       engine,
			HistoryLimit: c.settings().Editor.HistoryLimit,
			Logger:       c.Logger,
		},
	), nil
}

// saveEditor writes the editor's document back and reports a layout that
// could not be applied.
func (c *CLI) saveEditor(path string, ed *editor.Editor) error {
	if err := document.WriteFile(path, ed.Document()); err != nil {
		return err
	}
	if res := ed.LastLayout(); !res.Applied {
		printWarning(c.Out, "Layout unavailable, positions unchanged: %s", errors.UserMessage(res.Err))
	}
	return nil
}

// =============================================================================
// person
// =============================================================================

// personFlags are the person attributes settable from the command line.
type personFlags struct {
	name, birth, death, gender string
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().StringVar(&f.birth, "birth", "", "birth date, free text")
	cmd.Flags().StringVar(&f.death, "death", "", "death date, free text")
	cmd.Flags().StringVar(&f.gender, "gender", "", "female, male or empty")
}

// apply overrides the attributes of p whose flags were set.
func (f *personFlags) apply(cmd *cobra.Command, p family.Person) family.Person {
	if cmd.Flags().Changed("name") {
		p.Name = f.name
	}
	if cmd.Flags().Changed("birth") {
		p.Birth = f.birth
	}
	if cmd.Flags().Changed("death") {
		p.Death = f.death
	}
	if cmd.Flags().Changed("gender") {
		p.Gender = family.Gender(f.gender)
	}
	return p
}

func (c *CLI) personCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Add, edit or delete persons in a document",
	}
	cmd.AddCommand(c.personAddCommand())
	cmd.AddCommand(c.personEditCommand())
	cmd.AddCommand(c.personDeleteCommand())
	return cmd
}

func (c *CLI) personAddCommand() *cobra.Command {
	var flags personFlags
	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Add a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.openEditor(args[0], editOpts{})
			if err != nil {
				return err
			}
			id, err := ed.AddPerson(cmd.Context(), flags.apply(cmd, family.Person{}))
			if err != nil {
				return err
			}
			if err := c.saveEditor(args[0], ed); err != nil {
				return err
			}
			n, _ := ed.Graph().Node(id)
			printSuccess(c.Out, "Added %s", nodeLabel(ed.Graph(), n))
			printKeyValue(c.Out, "id", id)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) personEditCommand() *cobra.Command {
	var flags personFlags
	cmd := &cobra.Command{
		Use:   "edit <file> <id>",
		Short: "Change a person's attributes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.openEditor(args[0], editOpts{})
			if err != nil {
				return err
			}
			n, ok := ed.Graph().Node(args[1])
			if !ok || !n.IsPerson() {
				return errors.New(errors.ErrCodeNotFound, "no person %q in %s", args[1], args[0])
			}
			if err := ed.EditPerson(cmd.Context(), n.ID, flags.apply(cmd, *n.Person)); err != nil {
				return err
			}
			if err := c.saveEditor(args[0], ed); err != nil {
				return err
			}
			n, _ = ed.Graph().Node(n.ID)
			printSuccess(c.Out, "Updated %s", nodeLabel(ed.Graph(), n))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) personDeleteCommand() *cobra.Command {
	var opts editOpts
	cmd := &cobra.Command{
		Use:   "delete <file> <id>",
		Short: "Delete a person with their unions and edges",
		Long: `Delete a person. Every union the person is a partner of is deleted too,
along with every edge touching the person or those unions. The remaining
graph is laid out again.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.openEditor(args[0], opts)
			if err != nil {
				return err
			}
			before := ed.Graph()
			if err := ed.DeletePerson(cmd.Context(), args[1]); err != nil {
				return err
			}
			if err := c.saveEditor(args[0], ed); err != nil {
				return err
			}
			after := ed.Graph()
			printSuccess(c.Out, "Deleted %s", args[1])
			printDetail(c.Out, "%d nodes and %d edges removed",
				len(before.Nodes)-len(after.Nodes), len(before.Edges)-len(after.Edges))
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

// =============================================================================
// connect, cycle
// =============================================================================

func (c *CLI) connectCommand() *cobra.Command {
	var opts editOpts
	cmd := &cobra.Command{
		Use:   "connect <file> <source> <target>",
		Short: "Join partners or attach a child",
		Long: `Connect two nodes of a document.

  person -> person   find or create the union of the two partners
  union  -> person   add the person as a child of the union

Connections that would make someone their own ancestor are rejected. The
document is laid out again after every successful connection.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConnect(cmd.Context(), args[0], args[1], args[2], opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func (c *CLI) runConnect(ctx context.Context, path, source, target string, opts editOpts) error {
	ed, err := c.openEditor(path, opts)
	if err != nil {
		return err
	}
	conn, err := ed.Connect(ctx, source, target)
	if err != nil {
		return err
	}
	if err := c.saveEditor(path, ed); err != nil {
		return err
	}

	g := ed.Graph()
	u, _ := g.Node(conn.Union)
	switch {
	case conn.Child != "":
		printSuccess(c.Out, "Added %s as a child of %s", personName(g, conn.Child), nodeLabel(g, u))
	case conn.Created:
		printSuccess(c.Out, "Created %s", nodeLabel(g, u))
	default:
		printInfo(c.Out, "Union %s already exists", nodeLabel(g, u))
	}
	printKeyValue(c.Out, "union", conn.Union)
	return nil
}

func (c *CLI) cycleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <file> <source> <target>",
		Short: "Check whether an edge would create an ancestry cycle",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := document.Load(args[0])
			if err != nil {
				return err
			}
			for _, id := range args[1:] {
				if _, ok := g.Node(id); !ok {
					return errors.New(errors.ErrCodeNotFound, "no node %q in %s", id, args[0])
				}
			}
			if family.WouldCreateCycle(g, args[1], args[2]) {
				printWarning(c.Out, "%s → %s would create a cycle", args[1], args[2])
				return nil
			}
			printSuccess(c.Out, "%s → %s is safe", args[1], args[2])
			return nil
		},
	}
}

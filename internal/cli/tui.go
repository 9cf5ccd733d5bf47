package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familymap/pkg/document"
	"github.com/matzehuels/familymap/pkg/editor"
	"github.com/matzehuels/familymap/pkg/errors"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listMarkStyle   = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	statusOKStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	statusFailStyle = lipgloss.NewStyle().Foreground(colorRed)
)

func (c *CLI) editCommand() *cobra.Command {
	var opts editOpts
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Edit a family document in the terminal",
		Long: `Open a family document in an interactive editor.

  ↑/↓ or j/k   move
  a            add a person
  c            connect: mark a source, then press c on the target
  d            delete the person under the cursor
  u / r        undo / redo
  l            lay out again
  f            toggle the friendly span policy
  s            save
  q            quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := c.openEditor(args[0], opts)
			if err != nil {
				return err
			}
			m := newEditorModel(cmd.Context(), ed, args[0])
			final, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(editorModel); ok && fm.dirty {
				printWarning(c.Out, "Quit with unsaved changes")
			}
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

// =============================================================================
// editorModel
// =============================================================================

type editorMode int

const (
	modeBrowse editorMode = iota
	modeAddName
)

// editorModel is the bubbletea model of the terminal editor.
type editorModel struct {
	ctx  context.Context
	ed   *editor.Editor
	path string

	cursor int
	offset int
	height int

	mode   editorMode
	input  string
	source string // connect source, empty when none is marked

	dirty      bool
	quitArmed  bool
	status     string
	statusFail bool
}

func newEditorModel(ctx context.Context, ed *editor.Editor, path string) editorModel {
	return editorModel{ctx: ctx, ed: ed, path: path, height: 15}
}

func (m editorModel) Init() tea.Cmd { return nil }

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.scroll()
	case tea.KeyMsg:
		if m.mode == modeAddName {
			return m.updateName(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m editorModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" {
		m.quitArmed = false
	}

	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.dirty && !m.quitArmed {
			m.quitArmed = true
			m.setStatus(false, "Unsaved changes; press q again to quit or s to save")
			return m, nil
		}
		return m, tea.Quit
	case "esc":
		m.source = ""
		m.status = ""
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.ed.Graph().Nodes)-1 {
			m.cursor++
		}
	case "a":
		m.mode, m.input = modeAddName, ""
		m.setStatus(false, "Name of the new person, enter to add, esc to cancel")
	case "c":
		m.connect()
	case "d", "x":
		if id, ok := m.current(); ok {
			m.apply(m.ed.DeletePerson(m.ctx, id), "Deleted "+id)
		}
	case "u":
		if m.ed.Undo(m.ctx) {
			m.dirty = true
			m.setStatus(false, "Undone")
		} else {
			m.setStatus(true, "Nothing to undo")
		}
	case "r":
		if m.ed.Redo(m.ctx) {
			m.dirty = true
			m.setStatus(false, "Redone")
		} else {
			m.setStatus(true, "Nothing to redo")
		}
	case "l":
		m.layoutStatus(m.ed.Relayout(m.ctx).Err, "Laid out")
	case "f":
		friendly := m.ed.Policy() != layout.PolicyFriendly
		m.layoutStatus(m.ed.SetFriendly(m.ctx, friendly).Err, "Policy "+string(m.ed.Policy()))
	case "s":
		if err := document.WriteFile(m.path, m.ed.Document()); err != nil {
			m.setStatus(true, "Save failed: %v", err)
			break
		}
		m.dirty = false
		m.setStatus(false, "Saved %s", m.path)
	}
	m.clamp()
	return m, nil
}

func (m editorModel) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode, m.input, m.status = modeBrowse, "", ""
	case tea.KeyEnter:
		m.mode = modeBrowse
		id, err := m.ed.AddPerson(m.ctx, family.Person{Name: strings.TrimSpace(m.input)})
		m.input = ""
		m.apply(err, "Added "+id)
		if err == nil {
			m.cursor = len(m.ed.Graph().Nodes) - 1
			m.scroll()
		}
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// connect marks the node under the cursor as the source, or connects the
// marked source to it.
func (m *editorModel) connect() {
	id, ok := m.current()
	if !ok {
		return
	}
	if m.source == "" {
		m.source = id
		m.setStatus(false, "Connect %s to… (move and press c, esc to cancel)", id)
		return
	}
	source := m.source
	m.source = ""
	conn, err := m.ed.Connect(m.ctx, source, id)
	if err != nil {
		m.setStatus(true, "%s", errors.UserMessage(err))
		return
	}
	m.dirty = true
	if conn.Child != "" {
		m.layoutStatus(m.ed.LastLayout().Err, fmt.Sprintf("Added %s as a child of %s", conn.Child, conn.Union))
	} else {
		m.layoutStatus(m.ed.LastLayout().Err, "Partners joined in "+conn.Union)
	}
}

func (m *editorModel) apply(err error, ok string) {
	if err != nil {
		m.setStatus(true, "%s", errors.UserMessage(err))
		return
	}
	m.dirty = true
	m.layoutStatus(m.ed.LastLayout().Err, ok)
}

func (m *editorModel) layoutStatus(layoutErr error, ok string) {
	m.dirty = true
	if layoutErr != nil {
		m.setStatus(true, "%s (layout unavailable: %s)", ok, errors.UserMessage(layoutErr))
		return
	}
	m.setStatus(false, "%s", ok)
}

func (m *editorModel) setStatus(fail bool, format string, args ...any) {
	m.status, m.statusFail = fmt.Sprintf(format, args...), fail
}

func (m editorModel) current() (string, bool) {
	nodes := m.ed.Graph().Nodes
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return "", false
	}
	return nodes[m.cursor].ID, true
}

func (m *editorModel) clamp() {
	if n := len(m.ed.Graph().Nodes); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.scroll()
}

func (m *editorModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m editorModel) View() string {
	var b strings.Builder
	g := m.ed.Graph()

	title := StyleTitle.Render(m.path)
	if m.dirty {
		title += StyleWarning.Render(" ●")
	}
	b.WriteString(title + "  " + listDimStyle.Render(fmt.Sprintf("%d persons · %d unions · %s",
		len(g.Persons()), len(g.Unions()), m.ed.Policy())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  a add  c connect  d delete  u/r undo/redo  l layout  f friendly  s save  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(g.Nodes))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		n := g.Nodes[i]
		cursor := "  "
		switch {
		case i == m.cursor:
			cursor = "▸ "
		case n.ID == m.source:
			cursor = listMarkStyle.Render("◆ ")
		}
		rows = append(rows, []string{
			cursor,
			n.ID,
			nodeLabel(g, n),
			fmt.Sprintf("%.0f, %.0f", n.Position.X, n.Position.Y),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Node", "Position").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return lipgloss.NewStyle().Bold(true)
			}
			if col == 1 || col == 3 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	switch {
	case m.mode == modeAddName:
		b.WriteString("Name: " + m.input + "█")
	case m.statusFail:
		b.WriteString(statusFailStyle.Render(m.status))
	case m.status != "":
		b.WriteString(statusOKStyle.Render(m.status))
	}
	return b.String()
}

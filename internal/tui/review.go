// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
)

const (
	defaultListWidth  = 96
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// ReviewAction represents how the user left the review UI.
type ReviewAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone ReviewAction = iota
	// ActionConfirmed indicates the user accepted the current selection.
	ActionConfirmed
	// ActionStopped indicates the user aborted the run.
	ActionStopped
)

// Row is one pending change shown in the review list.
type Row struct {
	Title string
	Field string
	Old   string
	New   string
	Apply bool
}

type rowItem struct {
	row Row
}

func (i rowItem) Title() string {
	return i.row.Title
}

func (i rowItem) FilterValue() string {
	return i.row.Title
}

func (i rowItem) Description() string {
	return fmt.Sprintf("%s: %s -> %s", i.row.Field, i.row.Old, i.row.New)
}

type itemStyles struct {
	normal     lipgloss.Style
	selected   lipgloss.Style
	checkStyle lipgloss.Style
	titleStyle lipgloss.Style
	fieldStyle lipgloss.Style
	oldStyle   lipgloss.Style
	newStyle   lipgloss.Style
}

func newItemStyles() itemStyles {
	container := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		checkStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110")),
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		fieldStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
		oldStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("161")),
		newStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("78")),
	}
}

type reviewDelegate struct {
	styles itemStyles
}

func newDelegate() reviewDelegate {
	return reviewDelegate{styles: newItemStyles()}
}

func (d reviewDelegate) Height() int                         { return 2 }
func (d reviewDelegate) Spacing() int                        { return 0 }
func (d reviewDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d reviewDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	it, ok := item.(rowItem)
	if !ok {
		return
	}
	row := it.row

	width := m.Width() - 4
	check := "[ ]"
	if row.Apply {
		check = "[x]"
	}

	titleLine := lipgloss.JoinHorizontal(lipgloss.Left,
		d.styles.checkStyle.Render(check+" "),
		d.styles.titleStyle.Render(truncate(row.Title, width-4)),
	)
	changeLine := lipgloss.JoinHorizontal(lipgloss.Left,
		d.styles.fieldStyle.Render("    "+row.Field+": "),
		d.styles.oldStyle.Render(row.Old),
		d.styles.fieldStyle.Render(" -> "),
		d.styles.newStyle.Render(row.New),
	)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(lipgloss.JoinVertical(lipgloss.Left, titleLine, changeLine)))
}

type model struct {
	list    list.Model
	heading string
	rows    []Row
	action  ReviewAction
}

func newModel(heading string, rows []Row) *model {
	listItems := make([]list.Item, len(rows))
	for i, row := range rows {
		listItems[i] = rowItem{row: row}
	}

	l := list.New(listItems, newDelegate(), defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:    l,
		heading: heading,
		rows:    append([]Row(nil), rows...),
		action:  ActionNone,
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ":
			m.toggle(m.list.Index())
			return m, nil
		case "a":
			m.toggleAll()
			return m, nil
		case "enter":
			m.action = ActionConfirmed
			return m, tea.Quit
		case "ctrl+c", "q":
			m.action = ActionStopped
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 4)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) toggle(idx int) {
	if idx < 0 || idx >= len(m.rows) {
		return
	}
	m.rows[idx].Apply = !m.rows[idx].Apply
	m.list.SetItem(idx, rowItem{row: m.rows[idx]})
}

// toggleAll selects everything, or clears everything when all rows are
// already selected.
func (m *model) toggleAll() {
	apply := m.selected() < len(m.rows)
	for i := range m.rows {
		m.rows[i].Apply = apply
		m.list.SetItem(i, rowItem{row: m.rows[i]})
	}
}

func (m *model) selected() int {
	n := 0
	for _, row := range m.rows {
		if row.Apply {
			n++
		}
	}
	return n
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("%s (%d of %d selected)", m.heading, m.selected(), len(m.rows)))
	help := helpStyle.Render("Up/Down navigate | Space toggle | a toggle all | Enter apply | q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Review lets the user pick which changes to apply. It returns the rows
// with Apply updated. Quitting returns a StopProcessingError.
func Review(heading string, rows []Row) ([]Row, error) {
	if len(rows) == 0 {
		return rows, nil
	}

	finalModel, err := runProgram(newModel(heading, rows))
	if err != nil {
		return nil, err
	}

	typed, ok := finalModel.(*model)
	if !ok {
		return nil, fmt.Errorf("unexpected program result")
	}
	if typed.action != ActionConfirmed {
		return nil, apperrors.NewStopProcessingError("review cancelled")
	}
	return typed.rows, nil
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if width <= 0 || len(runes) <= width {
		return value
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}

package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lepinkainen/shelfsync/internal/errors"
)

func testRows() []Row {
	return []Row{
		{Title: "Dune", Field: "Reading Status", Old: "Want to Read", New: "Read", Apply: true},
		{Title: "Dune", Field: "Rating", Old: "(no rating)", New: "★★★★☆", Apply: true},
		{Title: "Emma", Field: "Review", Old: "(empty)", New: "Lovely", Apply: true},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func withProgram(t *testing.T, fn func(tea.Model) (tea.Model, error)) {
	t.Helper()
	orig := runProgram
	runProgram = fn
	t.Cleanup(func() { runProgram = orig })
}

func applied(rows []Row) []bool {
	out := make([]bool, len(rows))
	for i, r := range rows {
		out[i] = r.Apply
	}
	return out
}

func TestModelToggle(t *testing.T) {
	m := newModel("Sync from Hardcover", testRows())

	press(m, "space", "down", "down", "space")
	assert.Equal(t, []bool{false, true, false}, applied(m.rows))
	assert.Equal(t, 1, m.selected())
	assert.Contains(t, m.View(), "(1 of 3 selected)")
}

func TestModelToggleAll(t *testing.T) {
	m := newModel("Review", testRows())

	press(m, "a")
	assert.Equal(t, []bool{false, false, false}, applied(m.rows), "all selected clears everything")

	press(m, "space", "a")
	assert.Equal(t, []bool{true, true, true}, applied(m.rows), "partial selection selects everything")
}

func TestModelQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		m := newModel("Review", testRows())
		_, cmd := m.Update(key(k))
		require.NotNil(t, cmd)
		assert.Equal(t, ActionStopped, m.action, k)
	}

	m := newModel("Review", testRows())
	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, ActionConfirmed, m.action)
}

func TestModelViewRendersRows(t *testing.T) {
	m := newModel("Sync to Hardcover", testRows())
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()
	assert.Contains(t, view, "Sync to Hardcover")
	assert.Contains(t, view, "[x]")
	assert.Contains(t, view, "Want to Read")
	assert.Contains(t, view, "Emma")
}

func TestReviewConfirmed(t *testing.T) {
	withProgram(t, func(m tea.Model) (tea.Model, error) {
		return press(m, "down", "space", "enter"), nil
	})

	input := testRows()
	rows, err := Review("Review", input)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, applied(rows))
	assert.True(t, input[1].Apply, "input rows are not modified")
}

func TestReviewStopped(t *testing.T) {
	withProgram(t, func(m tea.Model) (tea.Model, error) {
		return press(m, "q"), nil
	})

	_, err := Review("Review", testRows())
	require.Error(t, err)
	assert.True(t, apperrors.IsStopProcessingError(err))
}

func TestReviewProgramError(t *testing.T) {
	withProgram(t, func(tea.Model) (tea.Model, error) {
		return nil, errors.New("no tty")
	})

	_, err := Review("Review", testRows())
	assert.EqualError(t, err, "no tty")
}

func TestReviewEmptySkipsProgram(t *testing.T) {
	withProgram(t, func(tea.Model) (tea.Model, error) {
		t.Fatal("program must not start without rows")
		return nil, nil
	})

	rows, err := Review("Review", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "åäö", truncate("åäö", 3))
}

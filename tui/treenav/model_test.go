package treenav

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/treescope/pkg/client"
	"github.com/grovetools/treescope/pkg/models"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := NewStatic(sampleTree(), Options{})
	m.SetSize(80, 24)
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func TestCursorMovesDown(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("down"))
	assert.Equal(t, "root/src", m.State().SelectedPath)
}

func TestCursorWrapsAtEdges(t *testing.T) {
	m := newTestModel(t)

	// Up from the first row wraps to the last visible row.
	m, _ = m.Update(keyMsg("up"))
	assert.Equal(t, "root/docs", m.State().SelectedPath)

	// Down from the last row wraps back to the root.
	m, _ = m.Update(keyMsg("down"))
	assert.Equal(t, "root", m.State().SelectedPath)
}

func TestExpandRevealsChildren(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("down")) // select src
	m, _ = m.Update(keyMsg("right"))

	require.True(t, m.State().Expanded.Has("root/src"))
	assert.Equal(t, []string{"root", "root/src", "root/src/a.ts", "root/src/b.ts", "root/docs"}, rowPaths(m.Rows()))
}

func TestExpandOnFileIsNoop(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("right")) // expand src
	m, _ = m.Update(keyMsg("down"))  // a.ts
	before := len(m.Rows())

	m, _ = m.Update(keyMsg("right"))
	assert.Len(t, m.Rows(), before)
	assert.Equal(t, "root/src/a.ts", m.State().SelectedPath)
}

func TestCollapseHidesChildren(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("right"))
	m, _ = m.Update(keyMsg("left"))

	assert.False(t, m.State().Expanded.Has("root/src"))
	assert.Equal(t, []string{"root", "root/src", "root/docs"}, rowPaths(m.Rows()))
}

func TestCollapseOnCollapsedFolderIsNoop(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("left"))
	assert.Equal(t, "root/src", m.State().SelectedPath)
}

func TestRootCannotCollapse(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("left"))
	assert.True(t, m.State().Expanded.Has("root"))
}

func TestTypeaheadSelectsMatch(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("d"))
	assert.Equal(t, "root/docs", m.State().SelectedPath)
}

func TestTypeaheadNoMatchKeepsSelection(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("z"))
	assert.Equal(t, "root", m.State().SelectedPath)
}

func TestTypeaheadWrapsUpward(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("down")) // docs, past src
	m, _ = m.Update(keyMsg("s"))
	assert.Equal(t, "root/src", m.State().SelectedPath)
}

func TestUpdateStreamMessageReconciles(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(keyMsg("down"))
	m, _ = m.Update(keyMsg("right")) // expand src
	m, _ = m.Update(keyMsg("down"))  // a.ts

	// a.ts vanishes in the next snapshot.
	incoming := folder("root", "root",
		folder("src", "root/src",
			file("b.ts", "root/src/b.ts"),
		),
		folder("docs", "root/docs"),
	)
	m, _ = m.Update(streamEventMsg{
		event: client.WatchEvent{Message: models.StreamMessage{Type: models.MessageUpdate, Tree: incoming}},
		ok:    true,
	})

	assert.Equal(t, "root/src", m.State().SelectedPath)
	assert.True(t, m.State().Expanded.Has("root/src"))
	assert.Equal(t, []string{"root", "root/src", "root/src/b.ts", "root/docs"}, rowPaths(m.Rows()))
}

func TestTransportDropShowsNotWatching(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(streamEventMsg{
		event: client.WatchEvent{Err: assert.AnError},
		ok:    true,
	})
	assert.Contains(t, m.View(), "not watching")
}

func TestScanErrorKeepsLastTree(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(streamEventMsg{
		event: client.WatchEvent{Message: models.StreamMessage{Type: models.MessageError, Message: "permission denied"}},
		ok:    true,
	})
	assert.Equal(t, []string{"root", "root/src", "root/docs"}, rowPaths(m.Rows()))
	assert.Contains(t, m.View(), "permission denied")
}

func TestRefreshKeyFetchesSnapshot(t *testing.T) {
	c := client.New("unix:" + filepath.Join(t.TempDir(), "missing.sock"))
	defer c.Close()

	m := New(Options{Client: c})
	defer m.Close()
	m.SetSize(80, 24)

	m, cmd := m.Update(keyMsg("ctrl+r"))
	require.NotNil(t, cmd, "refresh must issue a fetch")

	rm, ok := cmd().(refreshMsg)
	require.True(t, ok)
	require.Error(t, rm.err)

	m, _ = m.Update(rm)
	assert.Contains(t, m.View(), "not running")
}

func TestRefreshResultReconciles(t *testing.T) {
	m := newTestModel(t)
	updated := folder("root", "root",
		file("a.md", "root/a.md"),
	)
	m, _ = m.Update(refreshMsg{tree: updated})
	assert.Equal(t, []string{"root", "root/a.md"}, rowPaths(m.Rows()))
}

func TestRefreshWithoutClientIsNoop(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(keyMsg("ctrl+r"))
	assert.Nil(t, cmd)
}

func TestViewShowsKeyHelp(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, m.View(), "expand")
}

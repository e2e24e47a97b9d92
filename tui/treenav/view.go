package treenav

import (
	"fmt"
	"strings"

	"github.com/grovetools/treescope/tui/theme"
)

// View renders the navigator: header, tree viewport, status line, key
// help.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	t := theme.DefaultTheme
	title := t.Title.Render("treescope")
	if !m.connected {
		return title + "  " + t.Warning.Render(theme.IconDisconnected+" not watching")
	}
	return title
}

func (m Model) statusView() string {
	t := theme.DefaultTheme
	if m.errText != "" {
		return t.Error.Render(theme.IconError + " " + m.errText)
	}
	if m.typeahead.query != "" {
		return t.Highlight.Render("/" + m.typeahead.query)
	}
	return t.Muted.Render(fmt.Sprintf("%d entries", len(m.rows)))
}

// updateContent renders the visible rows into the viewport.
func (m *Model) updateContent() {
	if !m.ready {
		return
	}

	if m.state == nil || m.state.Root == nil {
		if m.errText != "" {
			m.viewport.SetContent(theme.DefaultTheme.Error.Render(m.errText))
		} else {
			m.viewport.SetContent(theme.DefaultTheme.Muted.Render("Waiting for snapshot..."))
		}
		return
	}

	lines := make([]string, 0, len(m.rows))
	for i, row := range m.rows {
		lines = append(lines, m.renderRow(row, i == m.cursor))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	// Keep the cursor visible.
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

// renderRow renders one line of the tree.
func (m *Model) renderRow(row Row, selected bool) string {
	t := theme.DefaultTheme
	indent := strings.Repeat("  ", row.Depth)

	var icon, name string
	if row.Node.IsFolder() {
		if m.state.Expanded.Has(row.Node.Path) {
			icon = theme.IconFolderOpen
		} else {
			icon = theme.IconFolder
		}
		name = t.Folder.Render(row.Node.Name)
	} else {
		icon = theme.IconFile
		name = t.File.Render(row.Node.Name)
	}

	line := fmt.Sprintf("%s%s %s", indent, icon, name)
	if selected {
		return t.Selected.Render(line)
	}
	return line
}

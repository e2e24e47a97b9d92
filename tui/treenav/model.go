package treenav

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/treescope/pkg/client"
	"github.com/grovetools/treescope/pkg/models"
	"github.com/grovetools/treescope/pkg/tree"
)

// streamEventMsg carries one event from the daemon stream.
type streamEventMsg struct {
	event client.WatchEvent
	ok    bool
}

// typeaheadResetMsg fires after the type-ahead timeout to clear a stale
// query from the status line.
type typeaheadResetMsg struct{}

// refreshMsg carries the result of a manual snapshot re-fetch.
type refreshMsg struct {
	tree *tree.Node
	err  error
}

// Model is the Bubble Tea model for the live tree navigator.
type Model struct {
	viewport  viewport.Model
	keys      KeyMap
	help      help.Model
	state     *State
	rows      []Row
	cursor    int
	typeahead typeahead

	connected bool
	errText   string

	client *client.Client
	events <-chan client.WatchEvent
	cancel context.CancelFunc

	width  int
	height int
	ready  bool
}

// Options configures a navigator.
type Options struct {
	// Client streams live updates when set. A nil client renders the
	// static snapshot only.
	Client *client.Client

	// TypeaheadTimeout overrides the idle reset window.
	TypeaheadTimeout time.Duration
}

// New creates a navigator that connects to the daemon and follows its
// update stream.
func New(opts Options) Model {
	m := Model{
		keys:      DefaultKeyMap(),
		help:      help.New(),
		typeahead: newTypeahead(opts.TypeaheadTimeout),
	}
	if opts.Client != nil {
		ctx, cancel := context.WithCancel(context.Background())
		m.client = opts.Client
		m.events = opts.Client.Watch(ctx)
		m.cancel = cancel
	}
	return m
}

// NewStatic creates a navigator over a fixed snapshot, with no stream.
func NewStatic(root *tree.Node, opts Options) Model {
	m := Model{
		keys:      DefaultKeyMap(),
		help:      help.New(),
		typeahead: newTypeahead(opts.TypeaheadTimeout),
		connected: true,
	}
	m.state = NewState(root)
	m.refreshRows()
	return m
}

// Init starts listening on the stream.
func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Close releases the stream subscription.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// State exposes the reconciled tree state, primarily for tests.
func (m *Model) State() *State { return m.state }

// Rows exposes the current visible projection, primarily for tests.
func (m *Model) Rows() []Row { return m.rows }

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		return streamEventMsg{event: ev, ok: ok}
	}
}

// SetSize sets the size of the component.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	// Lines reserved for the header, status line, and key help.
	bodyHeight := height - 3
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	if m.ready {
		m.viewport.Width = width
		m.viewport.Height = bodyHeight
	} else {
		m.viewport = viewport.New(width, bodyHeight)
		m.ready = true
	}
	m.updateContent()
}

// Update handles messages and user input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case streamEventMsg:
		if !msg.ok {
			// Stream closed for good (context cancelled).
			m.connected = false
			m.updateContent()
			return m, nil
		}
		m.applyEvent(msg.event)
		return m, m.waitForEvent()

	case typeaheadResetMsg:
		if m.typeahead.expired(time.Now()) {
			m.typeahead.reset()
			m.updateContent()
		}
		return m, nil

	case refreshMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else {
			m.errText = ""
			if m.state == nil {
				m.state = NewState(msg.tree)
			} else {
				Reconcile(m.state, msg.tree)
			}
			m.refreshRows()
		}
		m.updateContent()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyEvent folds one stream event into the model.
func (m *Model) applyEvent(ev client.WatchEvent) {
	if ev.Err != nil {
		// Transport drop; the stream reconnects on its own and the
		// daemon replays the snapshot once it does.
		m.connected = false
		m.updateContent()
		return
	}

	switch ev.Message.Type {
	case models.MessageConnected:
		m.connected = true
		m.errText = ""
	case models.MessageUpdate:
		m.connected = true
		m.errText = ""
		if m.state == nil {
			m.state = NewState(ev.Message.Tree)
		} else {
			Reconcile(m.state, ev.Message.Tree)
		}
		m.refreshRows()
	case models.MessageError:
		// The daemon could not scan the root; keep showing the last
		// good tree alongside the error.
		m.errText = ev.Message.Message
	}
	m.updateContent()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return m, tea.Quit
	}

	// Refresh works even before the first snapshot arrived.
	if key.Matches(msg, m.keys.Refresh) {
		return m, m.refreshCmd()
	}

	if m.state == nil || len(m.rows) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		// Cyclic: moving up from the first row wraps to the last.
		m.moveCursor((m.cursor - 1 + len(m.rows)) % len(m.rows))
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor((m.cursor + 1) % len(m.rows))
		return m, nil

	case key.Matches(msg, m.keys.GotoTop):
		m.moveCursor(0)
		return m, nil

	case key.Matches(msg, m.keys.GotoEnd):
		m.moveCursor(len(m.rows) - 1)
		return m, nil

	case key.Matches(msg, m.keys.Expand):
		n := m.rows[m.cursor].Node
		if n.IsFolder() && !m.state.Expanded.Has(n.Path) {
			m.state.Expanded.Add(n.Path)
			m.refreshRows()
			m.updateContent()
		}
		return m, nil

	case key.Matches(msg, m.keys.Collapse):
		n := m.rows[m.cursor].Node
		if n.IsFolder() && m.state.Expanded.Has(n.Path) && n.Path != tree.RootPath {
			m.state.Expanded.Remove(n.Path)
			m.refreshRows()
			m.updateContent()
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		n := m.rows[m.cursor].Node
		if n.IsFolder() && n.Path != tree.RootPath {
			m.state.Expanded.Toggle(n.Path)
			m.refreshRows()
			m.updateContent()
		}
		return m, nil
	}

	// Printable runes feed the type-ahead search.
	if msg.Type == tea.KeyRunes && !msg.Alt && len(msg.Runes) == 1 {
		now := time.Now()
		query := m.typeahead.push(msg.Runes[0], now)
		if idx := FindPrefix(m.rows, m.cursor, query); idx >= 0 {
			m.moveCursor(idx)
		} else {
			m.updateContent()
		}
		timeout := m.typeahead.timeout
		return m, tea.Tick(timeout, func(time.Time) tea.Msg {
			return typeaheadResetMsg{}
		})
	}

	return m, nil
}

// refreshCmd re-fetches the snapshot directly, outside the debounce
// cycle. A static navigator has nothing to re-fetch.
func (m Model) refreshCmd() tea.Cmd {
	if m.client == nil {
		return nil
	}
	c := m.client
	return func() tea.Msg {
		snap, err := c.GetTree(context.Background())
		return refreshMsg{tree: snap, err: err}
	}
}

// moveCursor selects the row at idx and scrolls it into view.
func (m *Model) moveCursor(idx int) {
	if idx < 0 || idx >= len(m.rows) {
		return
	}
	m.cursor = idx
	m.state.SelectedPath = m.rows[idx].Node.Path
	m.updateContent()
}

// refreshRows re-projects the visible rows and re-derives the cursor
// from the selected path.
func (m *Model) refreshRows() {
	m.rows = VisibleRows(m.state.Root, m.state.Expanded)
	if idx := RowIndex(m.rows, m.state.SelectedPath); idx >= 0 {
		m.cursor = idx
	} else if len(m.rows) > 0 {
		// Selection is hidden inside a collapsed ancestor; fall back to
		// the nearest visible ancestor.
		path := m.state.SelectedPath
		for path != tree.RootPath {
			path = tree.ParentPath(path)
			if idx := RowIndex(m.rows, path); idx >= 0 {
				m.cursor = idx
				m.state.SelectedPath = path
				return
			}
		}
		m.cursor = 0
		m.state.SelectedPath = tree.RootPath
	}
}

// Package viewer is the interactive dataset panel: one tab per open
// session, a variable list on the left, the xarray repr on the right.
package viewer

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/python"
	"github.com/xrview/xrv/internal/session"
)

const statusClearAfter = 4 * time.Second

// Messages for the bubbletea event loop.
type (
	loadDoneMsg struct {
		id  string
		err error
	}
	plotDoneMsg struct {
		id  string
		out *session.PlotOutput
		err error
	}
	clearStatusMsg struct{ seq int }
)

// varEntry is one selectable row in the variable pane.
type varEntry struct {
	group string
	info  protocol.VariableInfo
	coord bool
}

// qualifiedName is the form the helper's variable lookup accepts:
// bare for the root group, /group/name below it.
func (e varEntry) qualifiedName() string {
	if e.group == "" || e.group == "/" {
		return e.info.Name
	}
	return e.group + "/" + e.info.Name
}

// Model is the bubbletea model for the viewer panel.
type Model struct {
	registry *session.Registry
	plotOpts python.PlotOptions

	tabs   []*session.Session
	active int
	cursor map[string]int // variable cursor per session ID

	repr   viewport.Model
	keys   KeyMap
	styles Styles

	width, height int
	showHelp      bool
	confirmClose  bool
	status        string
	statusSeq     int
}

// NewModel creates a viewer over the registry's current sessions.
func NewModel(registry *session.Registry, plotOpts python.PlotOptions) Model {
	return Model{
		registry: registry,
		plotOpts: plotOpts,
		tabs:     registry.Sessions(),
		cursor:   make(map[string]int),
		repr:     viewport.New(0, 0),
		keys:     DefaultKeyMap(),
		styles:   DefaultStyles(),
	}
}

// Init starts the initial metadata fetch for every tab.
func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.tabs))
	for _, s := range m.tabs {
		cmds = append(cmds, loadCmd(s))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.repr.Width = m.rightWidth()
		m.repr.Height = m.contentHeight() - 2 // leave room for title
		m.syncRepr()
		return m, nil

	case loadDoneMsg:
		// The session itself discarded stale results; a tab that is
		// already gone needs no UI update either.
		if m.findTab(msg.id) == -1 {
			return m, nil
		}
		if errors.Is(msg.err, session.ErrBusy) {
			return m, m.setStatus("busy, try again in a moment")
		}
		m.clampCursor()
		m.syncRepr()
		return m, nil

	case plotDoneMsg:
		if m.findTab(msg.id) == -1 {
			return m, nil
		}
		switch {
		case errors.Is(msg.err, session.ErrBusy):
			return m, m.setStatus("busy, try again in a moment")
		case msg.err != nil:
			return m, m.setStatus("plot failed: " + msg.err.Error())
		case msg.out.Warning != "":
			return m, m.setStatus("plot saved: " + msg.out.Path + " (" + msg.out.Warning + ")")
		default:
			return m, m.setStatus("plot saved: " + msg.out.Path)
		}

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClose {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.confirmClose = false
			return m.closeActiveTab()
		case key.Matches(msg, m.keys.Cancel):
			m.confirmClose = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab(1), nil

	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab(-1), nil

	case key.Matches(msg, m.keys.Refresh):
		if s := m.activeTab(); s != nil {
			return m, refreshCmd(s)
		}
		return m, nil

	case key.Matches(msg, m.keys.Plot):
		s := m.activeTab()
		if s == nil {
			return m, nil
		}
		entry, ok := m.selectedEntry()
		if !ok {
			return m, m.setStatus("nothing to plot yet")
		}
		return m, plotCmd(s, entry.qualifiedName(), m.plotOpts)

	case key.Matches(msg, m.keys.Close):
		if len(m.tabs) > 0 {
			m.confirmClose = true
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	// Everything else scrolls the repr pane.
	var cmd tea.Cmd
	m.repr, cmd = m.repr.Update(msg)
	return m, cmd
}

// View renders the full panel.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.confirmClose {
		return m.renderConfirmOverlay()
	}
	return m.renderFrame()
}

// setStatus shows a transient footer message that clears itself unless
// a newer one replaced it.
func (m *Model) setStatus(s string) tea.Cmd {
	m.status = s
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusClearAfter, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m Model) findTab(id string) int {
	for i, s := range m.tabs {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) activeTab() *session.Session {
	if m.active < 0 || m.active >= len(m.tabs) {
		return nil
	}
	return m.tabs[m.active]
}

func (m Model) activeSnapshot() (session.Snapshot, bool) {
	s := m.activeTab()
	if s == nil {
		return session.Snapshot{}, false
	}
	return s.Snapshot(), true
}

func (m Model) switchTab(delta int) Model {
	if len(m.tabs) == 0 {
		return m
	}
	m.active = (m.active + delta + len(m.tabs)) % len(m.tabs)
	m.syncRepr()
	m.repr.GotoTop()
	return m
}

func (m *Model) moveCursor(delta int) {
	s := m.activeTab()
	if s == nil {
		return
	}
	entries := m.activeEntries()
	if len(entries) == 0 {
		return
	}
	cur := m.cursor[s.ID] + delta
	if cur < 0 {
		cur = 0
	}
	if cur > len(entries)-1 {
		cur = len(entries) - 1
	}
	m.cursor[s.ID] = cur
}

func (m *Model) clampCursor() {
	s := m.activeTab()
	if s == nil {
		return
	}
	entries := m.activeEntries()
	if m.cursor[s.ID] >= len(entries) {
		m.cursor[s.ID] = max(0, len(entries)-1)
	}
}

func (m Model) selectedEntry() (varEntry, bool) {
	s := m.activeTab()
	if s == nil {
		return varEntry{}, false
	}
	entries := m.activeEntries()
	cur := m.cursor[s.ID]
	if cur < 0 || cur >= len(entries) {
		return varEntry{}, false
	}
	return entries[cur], true
}

func (m Model) activeEntries() []varEntry {
	snap, ok := m.activeSnapshot()
	if !ok {
		return nil
	}
	return varEntries(snap.Info)
}

// varEntries flattens a dataset's variables then coordinates, groups in
// sorted order, into the navigable row list.
func varEntries(info *protocol.FileInfo) []varEntry {
	if info == nil {
		return nil
	}
	var out []varEntry
	for _, g := range info.Groups() {
		for _, v := range info.Variables[g] {
			out = append(out, varEntry{group: g, info: v})
		}
	}
	for _, g := range info.Groups() {
		for _, c := range info.Coordinates[g] {
			out = append(out, varEntry{group: g, info: c, coord: true})
		}
	}
	return out
}

func (m *Model) syncRepr() {
	snap, ok := m.activeSnapshot()
	if !ok || snap.Info == nil {
		m.repr.SetContent("")
		return
	}
	m.repr.SetContent(snap.Info.TextRepr)
}

func (m Model) closeActiveTab() (tea.Model, tea.Cmd) {
	s := m.activeTab()
	if s == nil {
		return m, nil
	}
	m.registry.Dispose(s)
	delete(m.cursor, s.ID)
	m.tabs = m.registry.Sessions()

	if len(m.tabs) == 0 {
		return m, tea.Quit
	}
	if m.active >= len(m.tabs) {
		m.active = len(m.tabs) - 1
	}
	m.syncRepr()
	m.repr.GotoTop()
	return m, nil
}

// Commands

func loadCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		err := s.Load(context.Background())
		return loadDoneMsg{id: s.ID, err: err}
	}
}

func refreshCmd(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		err := s.Refresh(context.Background())
		return loadDoneMsg{id: s.ID, err: err}
	}
}

func plotCmd(s *session.Session, variable string, opts python.PlotOptions) tea.Cmd {
	return func() tea.Msg {
		out, err := s.Plot(context.Background(), variable, opts)
		return plotDoneMsg{id: s.ID, out: out, err: err}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

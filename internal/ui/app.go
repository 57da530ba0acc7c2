package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/multiverse/internal/logtail"
	"github.com/five82/multiverse/internal/prefs"
	"github.com/five82/multiverse/internal/state"
	"github.com/five82/multiverse/internal/transport"
	"github.com/five82/multiverse/internal/universe"
)

// Actions are the server round trips the UI triggers.
type Actions interface {
	Save(ctx context.Context, h universe.Handle) error
	Reset(ctx context.Context) error
	Merge(ctx context.Context) error
}

// Options configure the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	Actions   Actions
	ThemeName string
	PerRow    int    // universes per gallery row; zero uses 4
	PrefsPath string // empty uses ~/.config/multiverse/prefs.toml
	LogPath   string // shown in the log pane; empty hides it
	Tick      time.Duration
	Changes   <-chan struct{} // store change signal; nil relies on Tick
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	actions   Actions
	prefsPath string
	logPath   string
	tick      time.Duration
	changes   <-chan struct{}

	// UI state
	keys     keyMap
	help     help.Model
	theme    Theme
	perRow   int
	width    int
	height   int
	ready    bool
	showHelp bool
	showLogs bool
	modal    Modal

	// Data state
	view state.View

	// Editor cursor over the active editable universe, cells[x][y].
	cursor cell

	gallery     viewport.Model
	logViewport viewport.Model
	logLines    []logtail.Line
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	perRow := opts.PerRow
	if perRow <= 0 {
		perRow = prefs.Default().UniversesPerRow
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		actions:   opts.Actions,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		tick:      tick,
		changes:   opts.Changes,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		theme:     GetTheme(opts.ThemeName),
		perRow:    perRow,
	}
	if m.store != nil {
		m.view = m.store.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.changes != nil {
		cmds = append(cmds, waitForChangeCmd(m.ctx, m.changes))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.gallery = viewport.New(1, 1)
			m.initLogViewport()
		}
		m.ready = true
		m.resize()
		m.refreshGallery()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		if m.showLogs {
			cmds = append(cmds, readLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case storeChangedMsg:
		var cmd tea.Cmd
		if m.changes != nil {
			cmd = waitForChangeCmd(m.ctx, m.changes)
		}
		if m.store != nil {
			m.applyView(m.store.Snapshot())
		}
		return m, cmd

	case snapshotMsg:
		m.applyView(state.View(msg))
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.modal = newAlert(msg.title+" failed", errorMessage(msg.err))
		}
		if m.store != nil {
			m.applyView(m.store.Snapshot())
		}
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var body string
	if m.showLogs {
		body = m.renderLogs()
	} else {
		body = m.renderBody()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.refreshGallery()
		if m.showLogs {
			m.logViewport.SetContent(m.renderLogContent())
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleLogs):
		if m.logPath == "" {
			return m, nil
		}
		m.showLogs = !m.showLogs
		if m.showLogs {
			return m, readLogsCmd(m.logPath)
		}
		return m, nil

	case key.Matches(msg, m.keys.Wider):
		m.setPerRow(m.perRow + 1)
		return m, nil

	case key.Matches(msg, m.keys.Narrower):
		m.setPerRow(m.perRow - 1)
		return m, nil

	case key.Matches(msg, m.keys.BigBang):
		m.modal = newConfirm("Big bang", "Are you sure you want to destroy everything?",
			m.actionCmd("Big bang", func(ctx context.Context) error { return m.actions.Reset(ctx) }))
		return m, nil

	case key.Matches(msg, m.keys.Merge):
		m.modal = newConfirm("Merge", "Make a big mess?",
			m.actionCmd("Merge", func(ctx context.Context) error { return m.actions.Merge(ctx) }))
		return m, nil
	}

	if m.showLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleEditorKey(msg)
}

// handleEditorKey processes keys that act on universes.
func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.store == nil {
		return m, nil
	}
	active, editing := m.view.Active()

	switch {
	case key.Matches(msg, m.keys.New):
		if _, err := m.store.CreateEditable(); err != nil {
			m.modal = newAlert("Cannot create universe", errorMessage(err))
			return m, nil
		}
		m.cursor = cell{}
		m.applyView(m.store.Snapshot())
		return m, nil

	case !editing:
		return m.handleGalleryKey(msg)

	case key.Matches(msg, m.keys.Toggle):
		if _, err := m.store.ToggleCell(active.Handle, m.cursor.x, m.cursor.y); err != nil {
			if !errors.Is(err, state.ErrSaveInFlight) {
				m.modal = newAlert("Cannot toggle cell", errorMessage(err))
			}
			return m, nil
		}
		m.applyView(m.store.Snapshot())
		return m, nil

	case key.Matches(msg, m.keys.Save):
		if active.Saving {
			return m, nil
		}
		h := active.Handle
		cmd := m.actionCmd("Save", func(ctx context.Context) error { return m.actions.Save(ctx, h) })
		return m, cmd

	case key.Matches(msg, m.keys.Drop):
		if err := m.store.DropEditable(active.Handle); err != nil {
			m.modal = newAlert("Cannot drop universe", errorMessage(err))
			return m, nil
		}
		m.applyView(m.store.Snapshot())
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1, 0)
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(0, 1)
	default:
		return m.handleGalleryKey(msg)
	}
	return m, nil
}

// handleGalleryKey scrolls the gallery.
func (m Model) handleGalleryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.gallery.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.gallery.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.gallery.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.gallery.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.gallery.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.gallery.GotoBottom()
	}
	return m, nil
}

// handleLogsKey scrolls the log pane.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
	}
	return m, nil
}

func (m *Model) moveCursor(dx, dy int) {
	active, ok := m.view.Active()
	if !ok {
		return
	}
	g := active.Grid
	m.cursor.x = clamp(m.cursor.x+dx, 0, g.Rows()-1)
	m.cursor.y = clamp(m.cursor.y+dy, 0, g.Cols()-1)
}

func (m *Model) setPerRow(n int) {
	n = clamp(n, 1, 8)
	if n == m.perRow {
		return
	}
	m.perRow = n
	m.savePrefs()
	m.refreshGallery()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, UniversesPerRow: m.perRow})
}

// applyView installs a fresh store view and re-renders what depends on it.
func (m *Model) applyView(v state.View) {
	m.view = v
	if active, ok := v.Active(); ok {
		m.cursor.x = clamp(m.cursor.x, 0, active.Grid.Rows()-1)
		m.cursor.y = clamp(m.cursor.y, 0, active.Grid.Cols()-1)
	} else {
		m.cursor = cell{}
	}
	m.resize()
	m.refreshGallery()
}

// resize fits the gallery next to the editor panel.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	width := m.width
	if active, ok := m.view.Active(); ok {
		width -= lipgloss.Width(m.renderEditor(active)) + 1
	}
	m.gallery.Width = max(width, 1)
	m.gallery.Height = max(m.height-2, 1)
	m.logViewport.Width = max(m.width-4, 1)
	m.logViewport.Height = max(m.height-5, 1)
}

func (m *Model) refreshGallery() {
	if !m.ready {
		return
	}
	m.gallery.SetContent(m.renderGallery())
}

func (m Model) renderBody() string {
	gallery := m.gallery.View()
	active, ok := m.view.Active()
	if !ok {
		return gallery
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderEditor(active), " ", gallery)
}

// renderEditor draws the active universe with the cursor.
func (m Model) renderEditor(u universe.EditableUniverse) string {
	styles := m.theme.Styles()
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(u.Color.Hex())).Bold(true).Render(u.Color.Hex())
	status := styles.MutedText.Render(formatCursor(m.cursor))
	if u.Saving {
		status = styles.WarningText.Render("saving...")
	}
	grid := renderGrid(u.Grid, paletteFor(u, m.theme), &m.cursor)
	return styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, title+" "+status, grid))
}

// Messages

type tickMsg time.Time

type snapshotMsg state.View

type storeChangedMsg struct{}

type actionResultMsg struct {
	title string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func waitForChangeCmd(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			return storeChangedMsg{}
		}
	}
}

func (m Model) actionCmd(title string, fn func(context.Context) error) tea.Cmd {
	if m.actions == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return actionResultMsg{title: title, err: fn(ctx)}
	}
}

// errorMessage returns the text shown in an alert: the server's response
// body for API errors, the error text otherwise.
func errorMessage(err error) string {
	if apiErr, ok := transport.AsAPIError(err); ok {
		return apiErr.Message()
	}
	return err.Error()
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dpshade/pocket-nodes/internal/catalog"
	"github.com/dpshade/pocket-nodes/internal/clipboard"
	apperrors "github.com/dpshade/pocket-nodes/internal/errors"
	"github.com/dpshade/pocket-nodes/internal/logger"
	"github.com/dpshade/pocket-nodes/internal/models"
	"github.com/dpshade/pocket-nodes/internal/notify"
	"github.com/dpshade/pocket-nodes/internal/renderer"
	"github.com/dpshade/pocket-nodes/internal/service"
)

const (
	defaultWidth  = 100
	defaultHeight = 30

	// seconds a notification stays on the status line
	statusSeconds = 3
)

// createGlamourRenderer creates a glamour renderer with improved contrast handling.
// A configured theme wins over terminal detection.
func createGlamourRenderer(theme string, wordWrap int) (*glamour.TermRenderer, error) {
	if theme != "" {
		return glamour.NewTermRenderer(
			glamour.WithStandardStyle(theme),
			glamour.WithWordWrap(wordWrap),
		)
	}

	profile := termenv.ColorProfile()

	var styleOption glamour.TermRendererOption
	switch {
	case profile != termenv.TrueColor && profile != termenv.ANSI256:
		// Fallback to auto-style for limited color terminals
		styleOption = glamour.WithAutoStyle()
	case lipgloss.HasDarkBackground():
		styleOption = glamour.WithStandardStyle("dark")
	default:
		styleOption = glamour.WithStandardStyle("light")
	}

	return glamour.NewTermRenderer(
		styleOption,
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(wordWrap),
	)
}

// pane identifies the focusable areas of the screen
type pane int

const (
	paneNodes pane = iota
	paneTemplates
	paneEditor
	panePreview
	paneCount
)

// Options configures the TUI
type Options struct {
	Theme     string
	Policy    renderer.Policy
	Log       *logger.Logger
	Clipboard clipboard.Sink
}

// Model represents the TUI application state
type Model struct {
	service *service.Service
	log     *logger.Logger
	events  *notify.Recorder
	errors  *apperrors.TUIErrorHandler
	theme   string

	// UI components
	focus        pane
	nodeList     list.Model
	templateList list.Model
	form         *InputForm
	viewport     viewport.Model
	help         help.Model
	keys         KeyMap

	glamourRenderer *glamour.TermRenderer

	// Window dimensions
	width  int
	height int

	// Status messages
	statusMsg     string
	statusLevel   notify.Level
	statusTimeout int

	showHelp bool
}

// KeyMap defines all key bindings
type KeyMap struct {
	NextPane key.Binding
	PrevPane key.Binding
	Enter    key.Binding
	Back     key.Binding
	Stage    key.Binding
	Copy     key.Binding
	FormCopy key.Binding
	Clear    key.Binding
	Policy   key.Binding
	Help     key.Binding
	Quit     key.Binding
	Force    key.Binding
}

// ShortHelp returns keybindings to show in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPane, k.Enter, k.Copy, k.Policy, k.Help, k.Quit}
}

// FullHelp returns keybindings to show in the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPane, k.PrevPane, k.Enter, k.Back},
		{k.Stage, k.Copy, k.FormCopy},
		{k.Clear, k.Policy},
		{k.Help, k.Quit},
	}
}

var keys = KeyMap{
	NextPane: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "next pane/field"),
	),
	PrevPane: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("Shift+Tab", "previous pane/field"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "leave editor"),
	),
	Stage: key.NewBinding(
		key.WithKeys("1", "2", "3"),
		key.WithHelp("1-3", "switch stage"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	FormCopy: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("Ctrl+s", "copy from editor"),
	),
	Clear: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "clear node inputs"),
	),
	Policy: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "toggle policy"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	Force: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

func newList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 30, 10)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	// the model owns quitting
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)
	return l
}

// NewModel creates a new TUI model over cat
func NewModel(cat *catalog.Catalog, opts Options) (*Model, error) {
	initializeColors(opts.Theme)

	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	policy := opts.Policy
	if policy == "" {
		policy = renderer.DefaultPolicy
	}
	events := &notify.Recorder{}

	svc, err := service.NewService(cat,
		service.WithLogger(log),
		service.WithNotifier(events),
		service.WithClipboard(opts.Clipboard),
		service.WithPolicy(policy),
	)
	if err != nil {
		return nil, err
	}

	glamourRenderer, err := createGlamourRenderer(opts.Theme, 60)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	vp := viewport.New(60, 10)
	vp.Style = lipgloss.NewStyle()

	m := &Model{
		service:         svc,
		log:             log,
		events:          events,
		errors:          apperrors.NewTUIErrorHandler(false, log),
		theme:           opts.Theme,
		focus:           paneNodes,
		nodeList:        newList(),
		templateList:    newList(),
		viewport:        vp,
		help:            help.New(),
		keys:            keys,
		glamourRenderer: glamourRenderer,
	}

	m.resize(defaultWidth, defaultHeight)
	m.syncNodes()
	m.syncTemplates()
	m.rebuildForm()
	m.renderPreview()
	return m, nil
}

// Service returns the session the model drives
func (m Model) Service() *service.Service {
	return m.service
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("pocket-nodes")
}

// tickMsg is sent to clear the status message
type tickMsg time.Time

// clearStatusCmd returns a command that clears the status message after a delay
func clearStatusCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.statusTimeout > 0 {
			m.statusTimeout--
			if m.statusTimeout == 0 {
				m.statusMsg = ""
				m.statusLevel = ""
			} else {
				return m, clearStatusCmd()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.renderPreview()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forward(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Force) {
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.focus == paneEditor {
		return m.handleEditorKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.NextPane):
		return m, m.setFocus((m.focus+1)%paneCount, false)

	case key.Matches(msg, m.keys.PrevPane):
		return m, m.setFocus((m.focus+paneCount-1)%paneCount, true)

	case key.Matches(msg, m.keys.Stage):
		stage := models.Stages[msg.String()[0]-'1']
		return m, m.selectStage(stage)

	case key.Matches(msg, m.keys.Copy):
		return m, m.copy()

	case key.Matches(msg, m.keys.Clear):
		return m, m.clearInputs()

	case key.Matches(msg, m.keys.Policy):
		policy := m.service.TogglePolicy()
		m.renderPreview()
		return m, m.setStatus("Policy: "+policy.String(), "")

	case key.Matches(msg, m.keys.Enter):
		switch m.focus {
		case paneNodes:
			if n, ok := m.nodeList.SelectedItem().(models.Node); ok {
				return m, m.selectNode(n.ID)
			}
		case paneTemplates:
			if t, ok := m.templateList.SelectedItem().(*models.ParsedTemplate); ok {
				return m, m.selectTemplate(t.ID)
			}
		}
		return m, nil
	}

	return m.forward(msg)
}

// handleEditorKey routes keys while a placeholder field has focus. Letter
// shortcuts are typed into the field, so only control keys act on the model.
func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextPane):
		if cmd, ok := m.form.Next(); ok {
			return m, cmd
		}
		return m, m.setFocus(panePreview, false)

	case key.Matches(msg, m.keys.PrevPane):
		if cmd, ok := m.form.Prev(); ok {
			return m, cmd
		}
		return m, m.setFocus(paneTemplates, true)

	case key.Matches(msg, m.keys.Back):
		return m, m.setFocus(paneTemplates, false)

	case key.Matches(msg, m.keys.FormCopy):
		return m, m.copy()
	}

	cmd, name, value, changed := m.form.Update(msg)
	if changed {
		m.service.SetInput(name, value)
		m.renderPreview()
	}
	return m, cmd
}

// forward passes msg to the focused component
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case paneNodes:
		m.nodeList, cmd = m.nodeList.Update(msg)
	case paneTemplates:
		m.templateList, cmd = m.templateList.Update(msg)
	case paneEditor:
		cmd, _, _, _ = m.form.Update(msg)
	case panePreview:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(p pane, fromEnd bool) tea.Cmd {
	if m.focus == paneEditor && p != paneEditor {
		m.form.Deactivate()
	}
	m.focus = p
	if p == paneEditor {
		return m.form.Activate(fromEnd)
	}
	return nil
}

func (m *Model) selectNode(id string) tea.Cmd {
	if !m.service.SelectNode(id) {
		return nil
	}
	m.syncTemplates()
	m.rebuildForm()
	m.renderPreview()
	return m.setFocus(paneTemplates, false)
}

func (m *Model) selectTemplate(id string) tea.Cmd {
	if !m.service.SelectTemplate(id) {
		return nil
	}
	m.rebuildForm()
	m.renderPreview()
	return m.setFocus(paneEditor, false)
}

func (m *Model) selectStage(stage models.Stage) tea.Cmd {
	if !m.service.SelectStage(stage) {
		return m.setStatus(fmt.Sprintf("No nodes in %s", stage.Title()), notify.LevelWarning)
	}
	m.syncNodes()
	m.syncTemplates()
	m.rebuildForm()
	m.renderPreview()
	return m.setFocus(paneNodes, false)
}

func (m *Model) copy() tea.Cmd {
	m.service.Copy()
	ev, ok := m.events.Last()
	if !ok {
		return nil
	}
	m.log.Debug("tui copy", "level", ev.Level)
	return m.setStatus(ev.Message, ev.Level)
}

func (m *Model) clearInputs() tea.Cmd {
	if !m.service.HasInputs() {
		return m.setStatus("No inputs to clear", "")
	}
	m.service.ClearNodeInputs()
	m.rebuildForm()
	m.renderPreview()
	return m.setStatus("Inputs cleared", notify.LevelSuccess)
}

func (m *Model) setStatus(text string, level notify.Level) tea.Cmd {
	restart := m.statusTimeout == 0
	m.statusMsg = text
	m.statusLevel = level
	m.statusTimeout = statusSeconds
	if !restart {
		// a tick is already scheduled
		return nil
	}
	return clearStatusCmd()
}

// syncNodes lists the nodes of the current stage and highlights the current node
func (m *Model) syncNodes() {
	current := m.service.CurrentNode()
	nodes := m.service.Catalog().NodesByStage(current.Stage)

	items := make([]list.Item, len(nodes))
	selected := 0
	for i, n := range nodes {
		items[i] = n
		if n.ID == current.ID {
			selected = i
		}
	}
	m.nodeList.SetItems(items)
	m.nodeList.Select(selected)
}

// syncTemplates lists the templates of the current node
func (m *Model) syncTemplates() {
	templates := m.service.Templates()
	current, _ := m.service.CurrentTemplate()

	items := make([]list.Item, len(templates))
	selected := 0
	for i, t := range templates {
		items[i] = t
		if current != nil && t.ID == current.ID {
			selected = i
		}
	}
	m.templateList.SetItems(items)
	m.templateList.Select(selected)
}

func (m *Model) rebuildForm() {
	t, _ := m.service.CurrentTemplate()
	w, _ := m.paneInner(m.rightWidth(), 0)
	m.form = NewInputForm(t, m.service.Input, w)
}

// renderPreview renders the current output for the preview pane
func (m *Model) renderPreview() {
	text := m.service.Preview()

	formatted, err := m.glamourRenderer.Render(text)
	if err != nil {
		// Show the raw text if markdown rendering fails
		m.errors.HandleError(apperrors.Wrap(err, apperrors.ErrCodeInternalError, "Failed to render preview"))
		formatted = text
	}
	m.viewport.SetContent(formatted)
}

func (m *Model) leftWidth() int {
	return max(m.width/3, 28)
}

func (m *Model) rightWidth() int {
	return max(m.width-m.leftWidth(), 20)
}

// bodyHeight is the height left for panes after the header, status and help lines
func (m *Model) bodyHeight() int {
	return max(m.height-3, 8)
}

// paneInner returns the content size of a pane of the given outer size
func (m *Model) paneInner(width, height int) (int, int) {
	return max(width-4, 1), max(height-3, 1)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	body := m.bodyHeight()
	top := body / 2

	w, h := m.paneInner(m.leftWidth(), top)
	m.nodeList.SetSize(w, h)
	w, h = m.paneInner(m.leftWidth(), body-top)
	m.templateList.SetSize(w, h)

	w, h = m.paneInner(m.rightWidth(), body-top)
	m.viewport.Width = w
	m.viewport.Height = h - 1
	if m.form != nil {
		m.form.SetWidth(w)
	}

	if r, err := createGlamourRenderer(m.theme, w); err == nil {
		m.glamourRenderer = r
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelpModal()
	}

	body := m.bodyHeight()
	top := body / 2

	left := lipgloss.JoinVertical(lipgloss.Left,
		CreatePane("Nodes", m.nodeList.View(), m.leftWidth(), top, m.focus == paneNodes),
		CreatePane("Templates", m.templateList.View(), m.leftWidth(), body-top, m.focus == paneTemplates),
	)

	_, formHeight := m.paneInner(m.rightWidth(), top)
	right := lipgloss.JoinVertical(lipgloss.Left,
		CreatePane(m.editorTitle(), m.form.View(formHeight), m.rightWidth(), top, m.focus == paneEditor),
		CreatePane(m.previewTitle(), m.previewBody(), m.rightWidth(), body-top, m.focus == panePreview),
	)

	var status string
	if m.statusMsg != "" {
		status = CreateStatus(m.statusMsg, m.statusLevel)
	}

	return AddMainPadding(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		status,
		CreateGuaranteedHelp(m.help.ShortHelpView(m.keys.ShortHelp()), m.width),
	))
}

func (m Model) renderHeader() string {
	current := m.service.CurrentNode()

	titles := make([]string, len(models.Stages))
	active := 0
	for i, s := range models.Stages {
		titles[i] = s.Title()
		if s == current.Stage {
			active = i
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		CreateMainHeader("Pocket Nodes"),
		CreateStageTabs(titles, active),
		CreateMetadata("policy: "+m.service.Policy().String()),
	)
}

func (m Model) editorTitle() string {
	t, ok := m.service.CurrentTemplate()
	if !ok {
		return "Editor"
	}
	return "Editor · " + t.Title()
}

func (m Model) previewTitle() string {
	filled, total := m.service.Progress()
	return fmt.Sprintf("Preview · %d/%d fields", filled, total)
}

func (m Model) previewBody() string {
	filled, total := m.service.Progress()
	bar := progressBar(filled, total, min(m.viewport.Width, 30))

	var note string
	if n := len(m.service.IncompleteSentences()); n > 0 && m.service.Policy() == renderer.PolicyCompleteOnly {
		note = StyleTextDim.Render(fmt.Sprintf(" %d sentence(s) hidden", n))
	}
	return lipgloss.JoinVertical(lipgloss.Left, bar+note, m.viewport.View())
}

func (m Model) renderHelpModal() string {
	h := m.help
	h.ShowAll = true

	content := lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render("Keys"),
		"",
		h.View(m.keys),
		"",
		StyleFormHelp.Render(strings.Join([]string{
			"Enter on a node selects it and clears its inputs.",
			"Switching stage clears every input.",
			"preserve keeps [placeholders]; complete-only hides unfinished sentences.",
		}, "\n")),
	)

	box := StylePaneFocused.Padding(1, 2).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Run starts the TUI on the alternate screen and blocks until it quits
func Run(cat *catalog.Catalog, opts Options) error {
	model, err := NewModel(cat, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

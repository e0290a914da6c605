// Package tui is the interactive terminal client: an upload screen, a chat
// screen with a context side panel, and the session reset flow.
package tui

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ashureev/docqa/internal/chat"
	"github.com/ashureev/docqa/internal/domain"
	"github.com/ashureev/docqa/internal/session"
	"github.com/ashureev/docqa/internal/upload"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenUpload screen = iota
	screenChat
)

type modal int

const (
	modalNone modal = iota
	modalConfirm
	modalAlert
)

const (
	headerHeight = 2
	footerHeight = 1
	inputHeight  = 3
	statusHeight = 2
	defaultWidth = 80
)

// Options configures the program.
type Options struct {
	Upload       upload.Options
	Samples      []string
	GlamourStyle string // glamour standard style name, "auto" to detect
	StartDir     string // initial file picker directory
	Drops        <-chan domain.File
}

// Model is the bubbletea model. Controllers are mutated only from Update.
type Model struct {
	ctx     context.Context
	backend Backend
	opts    Options

	// Upload and query requests run on sessCtx and carry gen. A session
	// reset cancels sessCtx and bumps gen so late results are dropped.
	sessCtx    context.Context
	cancelSess context.CancelFunc
	gen        int

	upload *upload.Controller
	chat   *chat.Controller
	reset  *session.Reset

	screen     screen
	modal      modal
	alert      string
	pickerOpen bool
	selected   int

	documents   []domain.Document
	stats       domain.Stats
	statsLoaded bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	picker   filepicker.Model
	renderer      *glamour.TermRenderer
	rendererWidth int
	styles        Styles

	width  int
	height int
}

// New creates the model. ctx bounds every request the UI issues.
func New(ctx context.Context, backend Backend, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.CharLimit = 2000
	ti.Width = defaultWidth - 8

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	vp := viewport.New(defaultWidth, 10)
	vp.KeyMap = viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Down:         key.NewBinding(key.WithKeys("down")),
		Up:           key.NewBinding(key.WithKeys("up")),
	}

	fp := filepicker.New()
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}
	if opts.Upload.FilterPicker && opts.Upload.Extension != "" {
		fp.AllowedTypes = []string{opts.Upload.Extension}
	}

	opts.GlamourStyle = ResolveStyle(opts.GlamourStyle)

	m := Model{
		ctx:      ctx,
		backend:  backend,
		opts:     opts,
		upload:   upload.New(opts.Upload),
		chat:     chat.New(opts.Samples),
		reset:    &session.Reset{},
		input:    ti,
		viewport: vp,
		spinner:  sp,
		picker:   fp,
		styles:   DefaultStyles(),
	}
	m.sessCtx, m.cancelSess = context.WithCancel(ctx)
	m.setRendererWidth(defaultWidth)
	m.refreshMessages()
	return m
}

// ResolveStyle maps "auto" (or "") to a concrete glamour style by asking the
// terminal for its background once. Call it before the program takes stdin.
func ResolveStyle(style string) string {
	if style != "" && style != "auto" {
		return style
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(width))
	if err != nil {
		slog.Warn("Markdown renderer unavailable, showing plain text", "style", style, "error", err)
		return nil
	}
	return r
}

// Init fetches the backend state and starts listening for dropped files.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.statsCmd(),
		listenDrops(m.opts.Drops),
	)
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case uploadDoneMsg:
		if msg.gen != m.gen {
			slog.Debug("Dropping upload result from a cleared session")
			return m, nil
		}
		out := m.upload.Finish(msg.resp, msg.err)
		m.clampSelection()
		if !out.Succeeded {
			return m, nil
		}
		if out.Documents != nil {
			m.documents = out.Documents
		}
		return m, reloadAfter(out.ReloadAfter, m.gen)

	case reloadMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.upload = m.upload.Reset()
		m.selected = 0
		return m, m.statsCmd()

	case queryDoneMsg:
		if msg.gen != m.gen {
			slog.Debug("Dropping query result from a cleared session")
			return m, nil
		}
		out := m.chat.Finish(msg.resp, msg.err)
		m.layout()
		m.refreshMessages()
		var cmds []tea.Cmd
		if out.ScrollToEnd {
			m.viewport.GotoBottom()
		}
		if out.Refocus && m.screen == screenChat {
			cmds = append(cmds, m.input.Focus())
		}
		cmds = append(cmds, m.statsCmd())
		return m, tea.Batch(cmds...)

	case clearDoneMsg:
		out := m.reset.Finish(msg.err)
		if out.Alert != "" {
			m.modal = modalAlert
			m.alert = out.Alert
			return m, nil
		}
		if out.Navigate {
			return m.navigateRoot()
		}
		return m, nil

	case statsMsg:
		if msg.err != nil {
			slog.Warn("Failed to fetch stats", "error", msg.err)
			return m, nil
		}
		m.stats = msg.stats
		if !m.statsLoaded {
			m.statsLoaded = true
			if m.stats.Documents > 0 && len(m.chat.Messages()) == 0 {
				return m.switchScreen(screenChat)
			}
		}
		return m, nil

	case dropMsg:
		if !msg.ok {
			return m, nil
		}
		if m.upload.AddDropped(msg.file) > 0 {
			slog.Info("File added from drop folder", "name", msg.file.Name)
		}
		return m, listenDrops(m.opts.Drops)
	}

	// Cursor blinks and directory listings.
	var inputCmd, pickerCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.picker, pickerCmd = m.picker.Update(msg)
	return m, tea.Batch(inputCmd, pickerCmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.modal {
	case modalAlert:
		m.modal = modalNone
		m.alert = ""
		return m, nil
	case modalConfirm:
		switch strings.ToLower(msg.String()) {
		case "y", "enter":
			m.modal = modalNone
			if !m.reset.Begin() {
				return m, nil
			}
			return m, tea.Batch(m.spinner.Tick, m.clearCmd())
		case "n", "esc":
			m.modal = modalNone
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+r":
		if !m.reset.Busy() {
			m.modal = modalConfirm
		}
		return m, nil
	case "tab":
		if !m.pickerOpen {
			next := screenChat
			if m.screen == screenChat {
				next = screenUpload
			}
			return m.switchScreen(next)
		}
	}

	if m.screen == screenUpload {
		return m.handleUploadKey(msg)
	}
	return m.handleChatKey(msg)
}

func (m Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pickerOpen {
		switch msg.String() {
		case "q", "ctrl+o":
			m.pickerOpen = false
			return m, nil
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		if ok, path := m.picker.DidSelectFile(msg); ok {
			f, err := domain.FileFromPath(path)
			if err != nil {
				slog.Warn("Cannot add picked file", "path", path, "error", err)
			} else {
				m.upload.AddPicked(f)
			}
		}
		return m, cmd
	}

	if msg.Paste {
		m.upload.AddDropped(pastedFiles(string(msg.Runes))...)
		return m, nil
	}

	switch msg.String() {
	case "o", "ctrl+o":
		m.pickerOpen = true
		return m, m.picker.Init()
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.upload.Files())-1 {
			m.selected++
		}
	case "d", "delete", "backspace":
		files := m.upload.Files()
		if m.selected < len(files) {
			m.upload.Remove(files[m.selected].Name)
			m.clampSelection()
		}
	case "enter", "u":
		files, err := m.upload.Begin()
		if err != nil {
			return m, nil
		}
		return m, tea.Batch(m.spinner.Tick, m.uploadCmd(files))
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Alt && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
		q, ok := m.chat.Sample(int(msg.Runes[0] - '1'))
		if !ok {
			return m, nil
		}
		return m.startQuery(q)
	}

	switch msg.String() {
	case "enter":
		m.chat.SetInput(m.input.Value())
		q, ok := m.chat.Begin()
		if !ok {
			return m, nil
		}
		return m.startQuery(q)
	case "ctrl+k":
		m.chat.ToggleContext()
		m.layout()
		return m, nil
	case "esc":
		m.chat.CloseContext()
		m.layout()
		return m, nil
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) startQuery(q string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.refreshMessages()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.spinner.Tick, m.queryCmd(q))
}

func (m Model) switchScreen(s screen) (tea.Model, tea.Cmd) {
	m.screen = s
	m.pickerOpen = false
	if s == screenChat {
		m.layout()
		return m, m.input.Focus()
	}
	m.input.Blur()
	return m, nil
}

// navigateRoot discards both controllers and returns to the upload screen.
// Requests still in flight for the old session are cancelled.
func (m Model) navigateRoot() (tea.Model, tea.Cmd) {
	m.cancelSess()
	m.sessCtx, m.cancelSess = context.WithCancel(m.ctx)
	m.gen++

	m.upload = m.upload.Reset()
	m.chat = chat.New(m.opts.Samples)
	m.documents = nil
	m.selected = 0
	m.input.Reset()
	m.screen = screenUpload
	m.pickerOpen = false
	m.input.Blur()
	m.layout()
	m.refreshMessages()
	return m, m.statsCmd()
}

func (m *Model) clampSelection() {
	n := len(m.upload.Files())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// layout sizes the message list, the input and the renderer.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	width := m.width - m.panelWidth()
	height := m.height - headerHeight - footerHeight - inputHeight - statusHeight
	if height < 3 {
		height = 3
	}
	m.viewport.Width = width
	m.viewport.Height = height
	m.input.Width = m.width - 8
	m.setRendererWidth(width - 4)
	m.refreshMessages()
}

// setRendererWidth rebuilds the markdown renderer only when the wrap width
// changes.
func (m *Model) setRendererWidth(width int) {
	if m.renderer != nil && width == m.rendererWidth {
		return
	}
	m.renderer = newRenderer(m.opts.GlamourStyle, width)
	m.rendererWidth = width
}

func (m Model) panelWidth() int {
	if m.screen != screenChat || !m.chat.Panel().Open || m.width < 60 {
		return 0
	}
	return m.width / 3
}

func (m *Model) refreshMessages() {
	m.viewport.SetContent(m.renderMessages())
}

func (m Model) busy() bool {
	return m.upload.Busy() || m.chat.Loading() || m.reset.Busy()
}

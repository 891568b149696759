// Package chat implements the interactive TUI for a MindRoot session:
// a transcript viewport fed by the turn assembler, a textarea editor,
// and the live event stream glue.
package chat

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/runvnc/mindroot-tui/internal/api"
	"github.com/runvnc/mindroot-tui/internal/config"
	"github.com/runvnc/mindroot-tui/internal/debuglog"
	"github.com/runvnc/mindroot-tui/internal/markdown"
	"github.com/runvnc/mindroot-tui/internal/scroll"
	"github.com/runvnc/mindroot-tui/internal/transcript"
	"github.com/runvnc/mindroot-tui/internal/ui"
)

const maxEditorHeight = 5

// Model is the main chat TUI model
type Model struct {
	// Dimensions
	width  int
	height int

	// Components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	styles   *ui.Styles
	keyMap   KeyMap

	// Session state
	client  *api.Client
	session string
	cfg     *config.Config

	// Transcript state
	asm      *transcript.Assembler
	registry *transcript.Registry
	renderer *markdown.Renderer

	// Scroll policy
	scrollCtl *scroll.Controller
	probe     *viewportProbe

	// Stream state
	streamCancel context.CancelFunc
	updateCh     chan struct{}
	connected    bool

	// Diagnostics
	log *debuglog.Logger

	// UI state
	quitting bool
	err      error
}

// Messages for tea.Program
type (
	historyMsg struct {
		records []api.HistoryRecord
		err     error
	}
	contentUpdatedMsg struct{}
	streamClosedMsg   struct{ err error }
	sendResultMsg     struct {
		taskID string
		err    error
	}
	cancelResultMsg struct{ err error }
)

// New creates a new chat model bound to one session.
func New(cfg *config.Config, client *api.Client, session string, log *debuglog.Logger) *Model {
	width := 80
	height := 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}

	theme := ui.ThemeFromConfig(ui.ThemeConfig{
		Primary:   cfg.Theme.Primary,
		Secondary: cfg.Theme.Secondary,
		Error:     cfg.Theme.Error,
		Muted:     cfg.Theme.Muted,
		Spinner:   cfg.Theme.Spinner,
	})
	styles := ui.NewStyles(os.Stdout, theme)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = "❯ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(width)
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = styles.Placeholder
	ta.FocusedStyle.Prompt = styles.Prompt
	ta.BlurredStyle = ta.FocusedStyle
	ta.Focus()

	renderer := markdown.NewRenderer(width - 2)
	registry := transcript.NewRegistry()
	asm := transcript.NewAssembler(renderer, registry)
	asm.SetPersonaFallback(cfg.Chat.PersonaFallback)
	asm.SetLogf(log.Errorf)

	// Coalescing wakeup from the stream goroutine to the program loop.
	updateCh := make(chan struct{}, 1)
	asm.SetUpdateHook(func() {
		select {
		case updateCh <- struct{}{}:
		default:
		}
	})

	m := &Model{
		width:    width,
		height:   height,
		viewport: viewport.New(width, height-3),
		textarea: ta,
		spinner:  s,
		styles:   styles,
		keyMap:   DefaultKeyMap(),
		client:   client,
		session:  session,
		cfg:      cfg,
		asm:      asm,
		registry: registry,
		renderer: renderer,
		updateCh: updateCh,
		log:      log,
	}

	// The probe must point at the model's viewport field, which Update
	// mutates in place.
	m.probe = &viewportProbe{vp: &m.viewport}
	m.scrollCtl = scroll.NewController(m.probe)
	m.scrollCtl.SetTolerance(cfg.Chat.ScrollTolerance)
	return m
}

// Registry exposes the command-result handler registry so callers can
// register handlers before the program starts.
func (m *Model) Registry() *transcript.Registry {
	return m.registry
}

// Init initializes the model. History is fetched and applied before the
// event stream is attached, so a live partial on a freshly loaded session
// opens a new turn instead of mutating a historical one.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.loadHistory(),
	)
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		m.log.APICall("history", m.session)
		records, err := m.client.History(context.Background(), m.session)
		return historyMsg{records: records, err: err}
	}
}

// attachStream opens the SSE subscription. The returned command blocks
// until the stream ends; content updates arrive through the update
// channel, not through this command.
func (m *Model) attachStream() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.streamCancel = cancel
	m.connected = true
	return func() tea.Msg {
		err := runStream(ctx, m.client.EventsURL(m.session), m.asm, m.log)
		return streamClosedMsg{err: err}
	}
}

// waitForUpdate delivers the next assembler content change to the
// program loop.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updateCh
		return contentUpdatedMsg{}
	}
}

func (m *Model) sendMessage(content string) tea.Cmd {
	return func() tea.Msg {
		m.log.APICall("send", m.session)
		taskID, err := m.client.Send(context.Background(), m.session, content)
		return sendResultMsg{taskID: taskID, err: err}
	}
}

func (m *Model) cancelTask(taskID string) tea.Cmd {
	return func() tea.Msg {
		m.log.APICall("cancel", m.session+" task="+taskID)
		return cancelResultMsg{err: m.client.Cancel(context.Background(), m.session, taskID)}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(m.width)
		m.viewport.Width = m.width
		m.viewport.Height = m.transcriptHeight()
		m.renderer.SetWidth(m.width - 2)
		m.asm.Rerender()
		m.refreshViewport()
		if !m.scrollCtl.UserScrolling() {
			m.viewport.GotoBottom()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.scrollCtl.OnUserScroll()
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.anySpinning() {
			m.refreshViewport()
		}

	case historyMsg:
		if msg.err != nil {
			m.err = msg.err
			m.log.Errorf("history load failed: %v", msg.err)
		} else {
			m.asm.LoadHistory(msg.records)
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
		// Attach only after history is in place.
		cmds = append(cmds, m.attachStream(), m.waitForUpdate())

	case contentUpdatedMsg:
		m.refreshViewport()
		cmds = append(cmds, m.waitForUpdate())

	case streamClosedMsg:
		m.connected = false
		if msg.err != nil {
			m.err = msg.err
			m.log.Errorf("event stream failed: %v", msg.err)
		}

	case sendResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.log.Errorf("send failed: %v", msg.err)
		} else {
			m.asm.SetTaskID(msg.taskID)
		}

	case cancelResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.log.Errorf("cancel failed: %v", msg.err)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		if m.streamCancel != nil {
			m.streamCancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Send):
		content := m.textarea.Value()
		if strings.TrimSpace(content) == "" {
			return m, nil
		}
		m.err = nil
		m.asm.AppendUserTurn(content)
		m.scrollCtl.OnUserSend()
		m.refreshViewport()
		m.viewport.GotoBottom()
		m.textarea.Reset()
		m.textarea.SetHeight(1)
		return m, tea.Batch(m.sendMessage(content), m.spinner.Tick)

	case key.Matches(msg, m.keyMap.Newline), key.Matches(msg, m.keyMap.NewlineAlt):
		m.textarea.InsertString("\n")
		m.resizeEditor()
		return m, nil

	case key.Matches(msg, m.keyMap.ClearLine):
		m.textarea.Reset()
		m.textarea.SetHeight(1)
		m.viewport.Height = m.transcriptHeight()
		return m, nil

	case key.Matches(msg, m.keyMap.Cancel):
		if taskID := m.asm.TaskID(); taskID != "" {
			return m, m.cancelTask(taskID)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		m.scrollCtl.OnUserScroll()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		m.scrollCtl.OnUserScroll()
		return m, nil

	case key.Matches(msg, m.keyMap.GoToTop):
		m.viewport.GotoTop()
		m.scrollCtl.OnUserScroll()
		return m, nil

	case key.Matches(msg, m.keyMap.GoToBottom):
		m.viewport.GotoBottom()
		m.scrollCtl.OnUserScroll()
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.resizeEditor()
	return m, cmd
}

// refreshViewport re-renders the transcript into the viewport and runs
// the autoscroll decision.
func (m *Model) refreshViewport() {
	content := renderTranscript(m.asm.Turns(), m.styles, m.spinner.View(), m.width)
	m.viewport.SetContent(content)
	m.scrollCtl.OnContentChanged()
}

// resizeEditor grows the textarea with its content, shrinking the
// transcript to make room. Visual lines account for word wrap.
func (m *Model) resizeEditor() {
	width := m.textarea.Width()
	if width <= 0 {
		width = m.width
	}
	// Account for the "❯ " prompt.
	effective := width - 2
	if effective <= 0 {
		effective = 1
	}

	visual := 0
	for _, line := range strings.Split(m.textarea.Value(), "\n") {
		w := runewidth.StringWidth(line)
		if w == 0 {
			visual++
		} else {
			visual += (w + effective - 1) / effective
		}
	}
	if visual < 1 {
		visual = 1
	}
	if visual > maxEditorHeight {
		visual = maxEditorHeight
	}

	if visual != m.textarea.Height() {
		m.textarea.SetHeight(visual)
		m.viewport.Height = m.transcriptHeight()
	}
}

func (m *Model) transcriptHeight() int {
	h := m.height - m.textarea.Height() - 2
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) anySpinning() bool {
	for _, t := range m.asm.Turns() {
		if t.Spinning {
			return true
		}
	}
	return false
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m *Model) footerView() string {
	var parts []string
	parts = append(parts, m.session)

	if m.asm.TaskID() != "" {
		parts = append(parts, m.spinner.View()+" working")
	}
	if !m.connected && m.err == nil {
		parts = append(parts, "connecting...")
	}

	footer := m.styles.Footer.Render(strings.Join(parts, "  ·  "))
	if m.err != nil {
		footer += "  " + m.styles.Error.Render(m.err.Error())
	}
	return footer
}

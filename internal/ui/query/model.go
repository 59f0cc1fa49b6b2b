package query

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/privypulse/internal/keys"
	"github.com/nhle/privypulse/internal/model"
	queryctl "github.com/nhle/privypulse/internal/query"
	"github.com/nhle/privypulse/internal/render"
	"github.com/nhle/privypulse/internal/theme"
)

// inputHeight is the number of text rows in the query box.
const inputHeight = 3

// OutcomeMsg carries the settled outcome of a submission back to the
// update loop.
type OutcomeMsg struct {
	Submission queryctl.Submission
	Outcome    model.Outcome
}

// Model is the query screen. The result panel sits in a scrollable
// viewport below the input box.
type Model struct {
	ctrl     queryctl.Controller
	backend  queryctl.Backend
	timeout  time.Duration
	logger   *slog.Logger
	input    textarea.Model
	spinner  spinner.Model
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates the query screen. backend may be swapped later with
// SetBackend; a zero timeout leaves requests unbounded.
func New(
	backend queryctl.Backend,
	timeout time.Duration,
	k *keys.KeyMap,
	logger *slog.Logger,
	width, height int,
) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask a market research question..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetWidth(max(width-4, 10))
	ta.SetHeight(inputHeight)
	// Enter submits; only the modified form inserts a newline.
	ta.KeyMap.InsertNewline = k.Newline
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	vp := viewport.New(max(width-2, 10), viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	return Model{
		ctrl:     queryctl.NewController(logger),
		backend:  backend,
		timeout:  timeout,
		logger:   logger,
		input:    ta,
		spinner:  sp,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

func viewportHeight(height int) int {
	// input rows + its border + status line + spacing
	h := height - inputHeight - 5
	if h < 3 {
		h = 3
	}
	return h
}

// Init returns the initial command for the query screen.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// State returns the controller's current UI state.
func (m Model) State() queryctl.State {
	return m.ctrl.State()
}

// SetBackend replaces the backend used by future submissions. A request
// already in flight finishes against the backend it started with.
func (m *Model) SetBackend(backend queryctl.Backend, timeout time.Duration) {
	m.backend = backend
	m.timeout = timeout
}

// Update handles messages for the query screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case OutcomeMsg:
		m.ctrl.Complete(msg.Submission, msg.Outcome)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.State().Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Delegate to textarea (cursor blink) and viewport (mouse wheel)
	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the query screen.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Clear):
		if m.ctrl.Reset() {
			m.input.Reset()
			m.refreshViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.UpdateQuery(m.input.Value())
	return m, cmd
}

// submit starts a submission when the controller accepts it.
func (m Model) submit() (Model, tea.Cmd) {
	m.ctrl.UpdateQuery(m.input.Value())

	sub, ok := m.ctrl.Submit()
	if !ok {
		return m, nil
	}

	m.refreshViewport()
	return m, tea.Batch(m.spinner.Tick, m.runSubmission(sub))
}

// runSubmission returns a command that performs the request off the
// update loop. queryctl.Run never panics, so the command always yields an
// OutcomeMsg and loading is always cleared.
func (m Model) runSubmission(sub queryctl.Submission) tea.Cmd {
	backend := m.backend
	timeout := m.timeout
	logger := m.logger

	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		return OutcomeMsg{
			Submission: sub,
			Outcome:    queryctl.Run(ctx, backend, sub, logger),
		}
	}
}

// refreshViewport re-renders the result panel and scrolls to the top.
func (m *Model) refreshViewport() {
	m.renderOutcome()
	m.viewport.GotoTop()
}

// renderOutcome draws the current outcome wrapped to the viewport width.
func (m *Model) renderOutcome() {
	m.viewport.SetContent(render.RenderWidth(m.ctrl.State().Outcome, m.viewport.Width))
}

// View renders the query screen.
func (m Model) View() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(m.input.View())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		box,
		m.statusLine(),
		"",
		m.viewport.View(),
	)
}

// statusLine shows the spinner while loading and a hint otherwise.
func (m Model) statusLine() string {
	st := m.ctrl.State()
	if st.Loading {
		return m.spinner.View() + " " +
			theme.HelpStyle.Render("Consulting agents...")
	}
	if strings.TrimSpace(st.Query) == "" {
		return theme.HelpStyle.Render("Type a question and press enter.")
	}
	return theme.HelpStyle.Render("enter to submit, alt+enter for a new line")
}

// SetSize updates the query screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(max(width-4, 10))
	m.viewport.Width = max(width-2, 10)
	m.viewport.Height = viewportHeight(height)
	// Keep the scroll position; SetContent clamps it to the new length.
	m.renderOutcome()
}

// Focus gives keyboard focus to the query input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes keyboard focus from the query input.
func (m *Model) Blur() {
	m.input.Blur()
}

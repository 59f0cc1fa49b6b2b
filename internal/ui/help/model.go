// Package help renders the shortcut reference and the active backend
// settings.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/privypulse/internal/keys"
	"github.com/nhle/privypulse/internal/model"
	"github.com/nhle/privypulse/internal/theme"
)

// section is one titled group of bindings.
type section struct {
	title    string
	bindings []key.Binding
}

// Model is the help overlay view.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	backend model.BackendConfig
	width   int
	height  int
}

// New creates a help view describing k and the backend in cfg.
func New(k *keys.KeyMap, cfg model.BackendConfig, width, height int) Model {
	return Model{
		keys:    k,
		help:    help.New(),
		backend: cfg,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// SetBackend replaces the backend settings shown after a save.
func (m *Model) SetBackend(cfg model.BackendConfig) {
	m.backend = cfg
}

func (m Model) sections() []section {
	k := m.keys
	return []section{
		{title: "Query", bindings: []key.Binding{k.Submit, k.Newline, k.Clear}},
		{title: "Result", bindings: []key.Binding{k.ScrollUp, k.ScrollDown}},
		{title: "App", bindings: []key.Binding{k.Help, k.Settings, k.Refresh, k.Back, k.Quit}},
	}
}

// View renders the help overlay.
func (m Model) View() string {
	heading := theme.TitleStyle.Render

	parts := []string{heading("Keyboard Shortcuts"), ""}
	for _, s := range m.sections() {
		parts = append(parts,
			theme.LabelStyle.Render(s.title),
			m.help.FullHelpView([][]key.Binding{s.bindings}),
			"",
		)
	}

	parts = append(parts, heading("Backend"), m.backendInfo())

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// backendInfo lists where queries go and how long they may take.
func (m Model) backendInfo() string {
	b := m.backend

	timeout := "none"
	if d := b.Timeout(); d > 0 {
		timeout = d.String()
	}
	health := "off"
	if d := b.HealthInterval(); d > 0 {
		health = "every " + d.String()
	}

	rows := [][2]string{
		{"Submit to", "POST " + strings.TrimRight(b.BaseURL, "/") + "/" + strings.TrimLeft(b.QueryPath, "/")},
		{"Timeout", timeout},
		{"Health check", health},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s %s", theme.LabelStyle.Width(14).Render(r[0]), r[1]))
	}
	return strings.Join(lines, "\n")
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(width-8, 0)
}

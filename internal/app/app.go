package app

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/privypulse/internal/backend"
	"github.com/nhle/privypulse/internal/keys"
	"github.com/nhle/privypulse/internal/logging"
	"github.com/nhle/privypulse/internal/model"
	appsync "github.com/nhle/privypulse/internal/sync"
	"github.com/nhle/privypulse/internal/ui"
	helpview "github.com/nhle/privypulse/internal/ui/help"
	queryview "github.com/nhle/privypulse/internal/ui/query"
	"github.com/nhle/privypulse/internal/ui/settings"
)

const appTitle = "PrivyPulse"

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewQuery ViewState = iota
	ViewHelp
	ViewSettings
)

// Options configures the root model.
type Options struct {
	// Config is the effective configuration the session runs with.
	Config model.AppConfig

	// FileConfig holds only what is stored at ConfigPath. The settings
	// form starts from it so flag and environment overrides are not
	// saved. Nil falls back to Config.
	FileConfig *model.AppConfig

	ConfigPath string
	Logger     *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the backend health poller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	frame        ui.Frame
	cfg          model.AppConfig
	keys         *keys.KeyMap
	logger       *slog.Logger
	appLogger    *slog.Logger
	client       *backend.Client
	queryView    queryview.Model
	helpView     helpview.Model
	settingsView settings.Model
	poller       *appsync.Poller
	ready        bool
}

// New creates the root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	client := backend.NewClientFromConfig(opts.Config.Backend, opts.Logger)

	stored := opts.Config
	if opts.FileConfig != nil {
		stored = *opts.FileConfig
	}

	return Model{
		currentView:  ViewQuery,
		cfg:          opts.Config,
		keys:         k,
		logger:       opts.Logger,
		appLogger:    logging.Component(opts.Logger, "app"),
		client:       client,
		queryView:    queryview.New(client, opts.Config.Backend.Timeout(), k, opts.Logger, 80, 24),
		helpView:     helpview.New(k, opts.Config.Backend, 80, 24),
		settingsView: settings.New(stored, opts.ConfigPath, k, 80, 24),
		poller:       newPoller(client, opts.Config.Backend, opts.Logger),
	}
}

// newPoller returns nil when health probing is disabled.
func newPoller(client *backend.Client, cfg model.BackendConfig, logger *slog.Logger) *appsync.Poller {
	interval := cfg.HealthInterval()
	if interval <= 0 {
		return nil
	}
	return appsync.New(client, interval, logger)
}

// Init focuses the query input and starts the health poller.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.queryView.Init()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.frame = ui.NewFrame(msg.Width, msg.Height)
		m.ready = true
		w, h := m.frame.BodyWidth(), m.frame.BodyHeight()
		m.queryView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case queryview.OutcomeMsg:
		// Outcomes land on the query view whatever is on screen.
		var cmd tea.Cmd
		m.queryView, cmd = m.queryView.Update(msg)
		return m, cmd

	case appsync.HealthResultMsg:
		if msg.Poller != m.poller || m.poller == nil {
			return m, nil
		}
		return m, m.poller.WaitForNextResult()

	case settings.SettingsSavedMsg:
		m.currentView = ViewQuery
		return m, m.applyConfig(msg.Config)

	case settings.SettingsCancelMsg:
		m.currentView = ViewQuery
		return m, m.queryView.Focus()

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.stopPoller()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Settings):
			if m.currentView == ViewSettings {
				break
			}
			m.previousView = m.currentView
			m.currentView = ViewSettings
			m.queryView.Blur()
			return m, m.settingsView.Init()

		case key.Matches(msg, m.keys.Refresh):
			if m.poller != nil {
				m.poller.RefreshAll()
			}
			return m, nil

		case key.Matches(msg, m.keys.Back):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewQuery:
		m.queryView, cmd = m.queryView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// applyConfig swaps in a backend built from cfg and restarts the poller.
// A query already in flight settles against the previous client.
func (m *Model) applyConfig(cfg model.AppConfig) tea.Cmd {
	m.cfg = cfg
	m.client = backend.NewClientFromConfig(cfg.Backend, m.logger)
	m.queryView.SetBackend(m.client, cfg.Backend.Timeout())
	m.helpView.SetBackend(cfg.Backend)

	m.stopPoller()
	m.poller = newPoller(m.client, cfg.Backend, m.logger)

	m.appLogger.Info("settings applied",
		"base_url", m.client.BaseURL(),
		"query_path", cfg.Backend.QueryPath,
		"timeout_sec", cfg.Backend.TimeoutSec,
	)

	cmds := []tea.Cmd{m.queryView.Focus()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// View renders the active view inside the frame.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.frame.RenderHeader(ui.Header{
		Title:  appTitle,
		Target: m.client.BaseURL(),
		Health: m.healthLabel(),
	})

	return m.frame.Compose(header, m.renderContent(), m.frame.RenderKeyBar(m.keyHints()))
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewQuery:
		return m.queryView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

// healthLabel is the poller state for the header badge, or empty when
// probing is disabled.
func (m Model) healthLabel() string {
	if m.poller == nil {
		return ""
	}
	return m.poller.GetStatus().State.String()
}

// Settings-form bindings are owned by huh; these only label them.
var (
	formNext   = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next field"))
	formCancel = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
)

// keyHints returns the bindings shown in the key bar for the active view.
func (m Model) keyHints() []key.Binding {
	k := m.keys
	switch m.currentView {
	case ViewHelp:
		return []key.Binding{k.Help, k.Back, k.Quit}
	case ViewSettings:
		return []key.Binding{formNext, formCancel, k.Quit}
	default:
		return []key.Binding{k.Submit, k.Newline, k.Clear, k.Help, k.Settings, k.Quit}
	}
}

package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/privypulse/internal/keys"
	"github.com/nhle/privypulse/internal/model"
	"github.com/nhle/privypulse/internal/theme"
)

// SettingsSavedMsg signals the configuration was written to disk.
type SettingsSavedMsg struct {
	Config model.AppConfig
}

// SettingsCancelMsg signals the settings view closed without saving.
type SettingsCancelMsg struct{}

// savedInternalMsg is sent after the config file write finishes.
type savedInternalMsg struct {
	cfg model.AppConfig
	err error
}

// formValues holds the strings huh binds to. It lives behind a pointer
// so the form keeps writing to the same values as Model is copied.
type formValues struct {
	baseURL        string
	queryPath      string
	timeoutSec     string
	healthInterval string
	logLevel       string
}

// Model is the Bubble Tea model for the settings form.
type Model struct {
	cfg    model.AppConfig
	path   string
	form   *huh.Form
	values *formValues
	saving bool

	// Status message for the last failed save
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view editing cfg, persisted to path.
func New(cfg model.AppConfig, path string, k *keys.KeyMap, width, height int) Model {
	return Model{
		cfg:    cfg,
		path:   path,
		values: &formValues{},
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init builds a fresh form from the current configuration.
func (m *Model) Init() tea.Cmd {
	m.loadValues()
	m.statusMsg = ""
	m.saving = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Config returns the configuration the view currently holds.
func (m Model) Config() model.AppConfig {
	return m.cfg
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedInternalMsg:
		m.saving = false
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.cfg = msg.cfg
		cfg := msg.cfg
		return m, func() tea.Msg { return SettingsSavedMsg{Config: cfg} }

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return SettingsCancelMsg{} }
		}
	}

	return m.updateForm(msg)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.saving {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.save()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return SettingsCancelMsg{} }
	}

	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	v := m.values
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Root URL of the query service").
				Placeholder(model.DefaultBaseURL).
				Value(&v.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Query path").
				Description("Route for submissions; the trailing slash is kept").
				Placeholder(model.DefaultQueryPath).
				Value(&v.queryPath).
				Validate(validatePath),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Description("0 waits as long as the backend takes").
				Placeholder("0").
				Value(&v.timeoutSec).
				Validate(validateSeconds("Timeout")),
			huh.NewInput().
				Title("Health check interval (seconds)").
				Description("0 disables the header health probe").
				Placeholder(strconv.Itoa(model.DefaultHealthIntervalSec)).
				Value(&v.healthInterval).
				Validate(validateSeconds("Interval")),
			huh.NewSelect[string]().
				Title("Log level").
				Description("Applies on next start").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&v.logLevel),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

// loadValues copies the current configuration into the form fields.
func (m *Model) loadValues() {
	m.values.baseURL = m.cfg.Backend.BaseURL
	m.values.queryPath = m.cfg.Backend.QueryPath
	m.values.timeoutSec = strconv.Itoa(m.cfg.Backend.TimeoutSec)
	m.values.healthInterval = strconv.Itoa(m.cfg.Backend.HealthIntervalSec)
	m.values.logLevel = strings.ToLower(m.cfg.Log.Level)
	if m.values.logLevel == "" {
		m.values.logLevel = model.DefaultLogLevel
	}
}

// save applies the form values and writes the config file.
func (m Model) save() (Model, tea.Cmd) {
	cfg, err := m.applyValues()
	if err != nil {
		m.statusMsg = err.Error()
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.saving = true
	path := m.path
	return m, func() tea.Msg {
		err := model.SaveConfig(path, &cfg)
		return savedInternalMsg{cfg: cfg, err: err}
	}
}

// applyValues returns a copy of the configuration with the form values
// applied.
func (m Model) applyValues() (model.AppConfig, error) {
	cfg := m.cfg
	v := m.values

	timeout, err := parseSeconds(v.timeoutSec)
	if err != nil {
		return cfg, fmt.Errorf("timeout: %w", err)
	}
	interval, err := parseSeconds(v.healthInterval)
	if err != nil {
		return cfg, fmt.Errorf("interval: %w", err)
	}

	cfg.Backend.BaseURL = strings.TrimSpace(v.baseURL)
	cfg.Backend.QueryPath = strings.TrimSpace(v.queryPath)
	if cfg.Backend.QueryPath == "" {
		cfg.Backend.QueryPath = model.DefaultQueryPath
	}
	cfg.Backend.TimeoutSec = timeout
	cfg.Backend.HealthIntervalSec = interval
	cfg.Log.Level = v.logLevel

	return cfg, nil
}

// View renders the settings form.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Settings")

	parts := []string{title}
	if m.statusMsg != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render(m.statusMsg))
	}

	switch {
	case m.saving:
		parts = append(parts, theme.HelpStyle.Render("Saving..."))
	case m.form != nil:
		parts = append(parts, m.form.View())
	}

	parts = append(parts, "",
		theme.HelpStyle.Render("Saved to "+m.path),
		theme.HelpStyle.Render("Values come from the file; flag and PRIVYPULSE_* overrides are not saved"),
	)

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validation ---

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host (e.g., http://localhost:8000)")
	}
	return nil
}

func validatePath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.ContainsAny(s, " ?#") {
		return fmt.Errorf("path must not contain spaces or a query string")
	}
	return nil
}

func validateSeconds(fieldName string) func(string) error {
	return func(s string) error {
		if _, err := parseSeconds(s); err != nil {
			return fmt.Errorf("%s %w", fieldName, err)
		}
		return nil
	}
}

// parseSeconds reads a non-negative whole number. Blank means zero.
func parseSeconds(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("must be a whole number of seconds")
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("must be a whole number of seconds")
	}
	return n, nil
}

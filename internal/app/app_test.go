package app

import (
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/privypulse/internal/logging"
	"github.com/nhle/privypulse/internal/model"
	appsync "github.com/nhle/privypulse/internal/sync"
	"github.com/nhle/privypulse/internal/ui/settings"
	"github.com/nhle/privypulse/tests/testutil"
)

func newTestApp(t *testing.T, baseURL string) Model {
	t.Helper()

	cfg := *model.DefaultAppConfig()
	cfg.Backend.BaseURL = baseURL
	cfg.Backend.HealthIntervalSec = 0

	m := New(Options{
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Logger:     logging.Discard(),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestApp_ViewBeforeSize(t *testing.T) {
	m := New(Options{Config: *model.DefaultAppConfig(), Logger: logging.Discard()})
	assert.Equal(t, "Loading...", m.View())
}

func TestApp_HeaderShowsBackend(t *testing.T) {
	m := newTestApp(t, "http://localhost:8000")

	view := m.View()
	assert.Contains(t, view, "PrivyPulse")
	assert.Contains(t, view, "http://localhost:8000")
	assert.Contains(t, view, "ctrl+c quit")
	assert.NotContains(t, view, "checking")
	assert.Len(t, strings.Split(view, "\n"), 40)
}

func TestApp_KeyBarFollowsView(t *testing.T) {
	m := newTestApp(t, "http://localhost:8000")
	assert.Contains(t, m.View(), "enter submit query")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.Contains(t, m.View(), "f1 toggle help · esc back")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Contains(t, m.View(), "esc cancel")
}

func TestApp_HelpShowsSavedBackend(t *testing.T) {
	m := newTestApp(t, "http://localhost:8000")

	cfg := *model.DefaultAppConfig()
	cfg.Backend.BaseURL = "http://research:9000"
	cfg.Backend.HealthIntervalSec = 0
	m, _ = update(t, m, settings.SettingsSavedMsg{Config: cfg})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.Contains(t, m.View(), "POST http://research:9000/query/")
}

func TestApp_HelpToggle(t *testing.T) {
	m := newTestApp(t, "http://localhost:8000")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, ViewHelp, m.CurrentView())
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewQuery, m.CurrentView())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, ViewQuery, m.CurrentView())
}

func TestApp_SettingsOpenAndCancel(t *testing.T) {
	m := newTestApp(t, "http://localhost:8000")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(t, ViewSettings, m.CurrentView())
	assert.Contains(t, m.View(), "Settings")

	m, _ = update(t, m, settings.SettingsCancelMsg{})
	assert.Equal(t, ViewQuery, m.CurrentView())
}

func TestApp_SettingsStartFromFileConfig(t *testing.T) {
	effective := *model.DefaultAppConfig()
	effective.Backend.BaseURL = "http://from-flag:9000"
	effective.Backend.HealthIntervalSec = 0

	stored := *model.DefaultAppConfig()
	stored.Backend.BaseURL = "http://stored:8000"

	m := New(Options{
		Config:     effective,
		FileConfig: &stored,
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Logger:     logging.Discard(),
	})

	assert.Equal(t, "http://from-flag:9000", m.client.BaseURL())
	assert.Equal(t, stored, m.settingsView.Config())
}

func TestApp_SettingsFallBackToEffectiveConfig(t *testing.T) {
	m := newTestApp(t, "http://localhost:8000")
	assert.Equal(t, "http://localhost:8000", m.settingsView.Config().Backend.BaseURL)
}

func TestApp_SettingsSavedSwapsBackend(t *testing.T) {
	var hits atomic.Int32
	_, srv := testutil.NewTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"response":"from new backend","agents_used":["research"]}`))
	}))

	m := newTestApp(t, "http://localhost:1")

	cfg := *model.DefaultAppConfig()
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.HealthIntervalSec = 0
	m, _ = update(t, m, settings.SettingsSavedMsg{Config: cfg})

	assert.Equal(t, ViewQuery, m.CurrentView())
	assert.Contains(t, m.View(), srv.URL)
	assert.Nil(t, m.poller)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	for _, c := range cmd().(tea.BatchMsg) {
		msg := c()
		m, _ = update(t, m, msg)
	}

	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, m.View(), "from new backend")
}

func TestApp_PollerResultsFromOldPollerIgnored(t *testing.T) {
	m := newTestApp(t, "http://localhost:8000")

	stale := appsync.New(nil, 0, nil)
	_, cmd := update(t, m, appsync.HealthResultMsg{Poller: stale})
	assert.Nil(t, cmd)
}

func TestApp_HealthHeaderWithPoller(t *testing.T) {
	_, srv := testutil.NewTestBackend(t, testutil.JSONHandler(http.StatusOK, `{"status":"ok"}`))

	cfg := *model.DefaultAppConfig()
	cfg.Backend.BaseURL = srv.URL
	m := New(Options{Config: cfg, Logger: logging.Discard()})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	require.NotNil(t, m.poller)
	defer m.poller.Stop()

	assert.Contains(t, m.View(), "○ checking")

	msg := m.poller.Start()()
	res, ok := msg.(appsync.HealthResultMsg)
	require.True(t, ok)
	assert.Equal(t, appsync.HealthOK, res.Status.State)

	m, cmd := update(t, m, res)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "● ok")
}

func TestApp_Quit(t *testing.T) {
	m := newTestApp(t, "http://localhost:8000")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

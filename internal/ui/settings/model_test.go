package settings

import (
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/privypulse/internal/keys"
	"github.com/nhle/privypulse/internal/model"
)

func newTestSettings(t *testing.T) (Model, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := New(*model.DefaultAppConfig(), path, keys.DefaultKeyMap(), 100, 40)
	m.Init()
	return m, path
}

func TestInit_LoadsCurrentValues(t *testing.T) {
	m, _ := newTestSettings(t)

	assert.Equal(t, model.DefaultBaseURL, m.values.baseURL)
	assert.Equal(t, model.DefaultQueryPath, m.values.queryPath)
	assert.Equal(t, "0", m.values.timeoutSec)
	assert.Equal(t, "30", m.values.healthInterval)
	assert.Equal(t, "info", m.values.logLevel)
	assert.NotNil(t, m.form)
}

func TestSave_WritesConfigAndEmitsSaved(t *testing.T) {
	m, path := newTestSettings(t)
	m.values.baseURL = " http://research.internal:9000 "
	m.values.queryPath = "/query"
	m.values.timeoutSec = "20"
	m.values.healthInterval = ""
	m.values.logLevel = "debug"

	m, cmd := m.save()
	require.NotNil(t, cmd)
	assert.True(t, m.saving)

	m, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	saved, ok := cmd().(SettingsSavedMsg)
	require.True(t, ok)

	assert.Equal(t, "http://research.internal:9000", saved.Config.Backend.BaseURL)
	assert.Equal(t, "/query", saved.Config.Backend.QueryPath)
	assert.Equal(t, 20, saved.Config.Backend.TimeoutSec)
	assert.Equal(t, 0, saved.Config.Backend.HealthIntervalSec)
	assert.Equal(t, "debug", saved.Config.Log.Level)
	assert.Equal(t, saved.Config, m.Config())

	onDisk, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, saved.Config.Backend, onDisk.Backend)
}

func TestSave_EmptyPathFallsBack(t *testing.T) {
	m, _ := newTestSettings(t)
	m.values.queryPath = "  "

	cfg, err := m.applyValues()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultQueryPath, cfg.Backend.QueryPath)
}

func TestSave_InvalidNumberStaysOnForm(t *testing.T) {
	m, _ := newTestSettings(t)
	m.values.timeoutSec = "ten"

	m, _ = m.save()
	assert.False(t, m.saving)
	assert.Contains(t, m.statusMsg, "timeout")
}

func TestUpdate_SaveErrorShown(t *testing.T) {
	m, _ := newTestSettings(t)

	m, _ = m.Update(savedInternalMsg{err: errors.New("disk full")})
	assert.False(t, m.saving)
	assert.Contains(t, m.View(), "disk full")
}

func TestUpdate_EscCancels(t *testing.T) {
	m, _ := newTestSettings(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, SettingsCancelMsg{}, cmd())
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, validateURL("http://localhost:8000"))
	assert.NoError(t, validateURL("https://pulse.example.com/"))
	assert.Error(t, validateURL(""))
	assert.Error(t, validateURL("localhost:8000"))
	assert.Error(t, validateURL("ftp://host"))
	assert.Error(t, validateURL("http://"))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath(""))
	assert.NoError(t, validatePath("/query/"))
	assert.Error(t, validatePath("/query?x=1"))
	assert.Error(t, validatePath("/my query"))
}

func TestParseSeconds(t *testing.T) {
	n, err := parseSeconds("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = parseSeconds(" 45 ")
	require.NoError(t, err)
	assert.Equal(t, 45, n)

	_, err = parseSeconds("-1")
	assert.Error(t, err)
	_, err = parseSeconds("1.5")
	assert.Error(t, err)
}

func TestView_NotesOverridesAreNotSaved(t *testing.T) {
	m, path := newTestSettings(t)

	view := m.View()
	assert.Contains(t, view, path)
	assert.Contains(t, view, "PRIVYPULSE_*")
}

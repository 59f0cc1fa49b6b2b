package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/privypulse/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func TestBuild_NilOutcome(t *testing.T) {
	p := Build(nil)
	assert.Equal(t, PanelNone, p.Kind)
	assert.Empty(t, Render(nil))
}

func TestBuild_SuccessWithAgentsOnly(t *testing.T) {
	o := model.Success{
		Response:   "Trend summary...",
		AgentsUsed: []string{"research", "synth"},
	}

	p := Build(o)
	assert.Equal(t, PanelSuccess, p.Kind)
	assert.Equal(t, "Trend summary...", p.Message)
	assert.Equal(t, []string{"research", "synth"}, p.Agents)
	assert.Nil(t, p.Validation)
	assert.Empty(t, p.Focus)
	assert.Empty(t, p.DataSources)

	out := Render(o)
	assert.Contains(t, out, "Trend summary...")
	assert.Contains(t, out, "research")
	assert.Contains(t, out, "synth")
	assert.NotContains(t, out, "Validation")
	assert.NotContains(t, out, "Data sources")
	assert.NotContains(t, out, "Focus")
}

func TestBuild_EmptyAgentsAndSources(t *testing.T) {
	o := model.Success{
		Response:   "ok",
		AgentsUsed: []string{},
		Metadata: &model.Metadata{
			ValidationPassed: boolPtr(false),
			DataSources:      []string{},
		},
	}

	p := Build(o)
	require.NotNil(t, p.Agents)
	assert.Empty(t, p.Agents)
	require.NotNil(t, p.Validation)
	assert.False(t, *p.Validation)
	assert.Nil(t, p.DataSources)

	out := Render(o)
	assert.Contains(t, out, "Agents used")
	assert.Contains(t, out, "needs review")
	assert.NotContains(t, out, "passed")
	assert.NotContains(t, out, "Data sources")
}

func TestBuild_AllFields(t *testing.T) {
	o := model.Success{
		Response:   "Cloud spend grew.",
		AgentsUsed: []string{"research"},
		TaskPlan:   &model.TaskPlan{Focus: "trend_analysis"},
		Metadata: &model.Metadata{
			ValidationPassed: boolPtr(true),
			DataSources:      []string{"gartner", "idc"},
		},
	}

	p := Build(o)
	assert.Equal(t, "trend analysis", p.Focus)
	require.NotNil(t, p.Validation)
	assert.True(t, *p.Validation)
	assert.Equal(t, []string{"gartner", "idc"}, p.DataSources)

	out := Render(o)
	assert.Contains(t, out, "Focus: trend analysis")
	assert.Contains(t, out, "✓ passed")
	assert.Contains(t, out, "Data sources")
	assert.Less(t, strings.Index(out, "gartner"), strings.Index(out, "idc"))
}

func TestBuild_DoesNotAliasOutcome(t *testing.T) {
	agents := []string{"a", "b"}
	sources := []string{"s"}
	passed := true
	o := model.Success{
		AgentsUsed: agents,
		Metadata:   &model.Metadata{ValidationPassed: &passed, DataSources: sources},
	}

	p := Build(o)
	agents[0] = "changed"
	sources[0] = "changed"
	passed = false

	assert.Equal(t, []string{"a", "b"}, p.Agents)
	assert.Equal(t, []string{"s"}, p.DataSources)
	assert.True(t, *p.Validation)
}

func TestBuild_Failure(t *testing.T) {
	o := model.Failure{Response: "partial", ErrorAgent: "Validator"}

	p := Build(o)
	assert.Equal(t, PanelFailure, p.Kind)
	assert.Equal(t, "partial", p.Message)
	assert.Equal(t, "Validator", p.FailedAt)

	out := Render(o)
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "Failed at: Validator")
	assert.NotContains(t, out, "Agents used")
}

func TestBuild_NetworkFailure(t *testing.T) {
	out := Render(model.NetworkFailure())
	assert.Contains(t, out, "Failed to connect to backend.")
	assert.Contains(t, out, "Failed at: Network")
}

func TestBuild_FailureWithoutAgent(t *testing.T) {
	out := Render(model.Failure{Response: "boom"})
	assert.Contains(t, out, "boom")
	assert.NotContains(t, out, "Failed at")
}

func TestRender_MessageVerbatim(t *testing.T) {
	msg := "## Summary\n  - indented *item*\n<b>not html</b>"
	out := Render(model.Success{Response: msg})

	for _, line := range strings.Split(msg, "\n") {
		assert.Contains(t, out, line)
	}
}

func TestFocusLabel(t *testing.T) {
	tests := map[string]string{
		"trend_analysis":   "trend analysis",
		"comparison":       "comparison",
		"general_research": "general research",
		"a__b":             "a b",
		"_edge_":           "edge",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FocusLabel(in), "FocusLabel(%q)", in)
	}
}

func TestBuild_EmptyFocusOmitted(t *testing.T) {
	p := Build(model.Success{TaskPlan: &model.TaskPlan{}})
	assert.Empty(t, p.Focus)
	assert.NotContains(t, View(p), "Focus")
}

// Every combination of optional fields must render without panicking.
func TestRender_AllOptionalSubsets(t *testing.T) {
	agents := [][]string{nil, {}, {"research"}}
	plans := []*model.TaskPlan{nil, {}, {Focus: "comparison"}}
	validations := []*bool{nil, boolPtr(true), boolPtr(false)}
	sources := [][]string{nil, {}, {"web"}}

	for _, a := range agents {
		for _, tp := range plans {
			for _, v := range validations {
				for _, s := range sources {
					metas := []*model.Metadata{
						nil,
						{ValidationPassed: v, DataSources: s},
					}
					for _, md := range metas {
						o := model.Success{
							Response:   "r",
							AgentsUsed: a,
							TaskPlan:   tp,
							Metadata:   md,
						}
						assert.NotPanics(t, func() {
							out := Render(o)
							assert.Contains(t, out, "Agents used")
						})
					}
				}
			}
		}
	}

	for _, f := range []model.Failure{{}, {Response: "x"}, {ErrorAgent: "y"}} {
		assert.NotPanics(t, func() { _ = Render(f) })
	}
}

func TestRenderWidth_WrapsLongLines(t *testing.T) {
	words := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		words = append(words, "segment")
	}
	response := strings.Join(words, " ") + " END_MARKER"

	tests := []struct {
		name    string
		outcome model.Outcome
	}{
		{name: "success", outcome: model.Success{Response: response, AgentsUsed: []string{"research"}}},
		{name: "failure", outcome: model.Failure{Response: response, ErrorAgent: "Validator"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderWidth(tt.outcome, 60)
			for _, line := range strings.Split(out, "\n") {
				assert.LessOrEqual(t, lipgloss.Width(line), 60, line)
			}
			assert.Contains(t, out, "END_MARKER")
			assert.Equal(t, 40, strings.Count(out, "segment"))
		})
	}
}

func TestRenderWidth_LongWordIsBrokenNotDropped(t *testing.T) {
	word := strings.Repeat("x", 90)
	out := RenderWidth(model.Success{Response: word + "END"}, 40)

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 40)
	}
	assert.Equal(t, 90, strings.Count(out, "x"))
	assert.Contains(t, out, "END")
}

func TestRenderWidth_ZeroIsUnbounded(t *testing.T) {
	o := model.Success{Response: strings.Repeat("y", 200)}
	assert.Equal(t, Render(o), RenderWidth(o, 0))
	assert.Contains(t, Render(o), strings.Repeat("y", 200))
}

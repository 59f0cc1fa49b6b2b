// Package render maps a query outcome to displayed terminal content.
// Everything here is a pure function of its input.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nhle/privypulse/internal/model"
	"github.com/nhle/privypulse/internal/theme"
)

// PanelKind selects which panel, if any, is drawn.
type PanelKind int

const (
	PanelNone PanelKind = iota
	PanelSuccess
	PanelFailure
)

// Panel is the display structure derived from an outcome.
type Panel struct {
	Kind PanelKind

	// Message is the response text, kept verbatim.
	Message string

	// FailedAt names the failing agent; empty hides the line.
	FailedAt string

	// Agents is never nil for a success panel so the region always exists.
	Agents []string

	// Focus is the display label of the task plan focus; empty hides it.
	Focus string

	// Validation is nil when the backend did not report a result.
	Validation *bool

	// DataSources is empty when the section is omitted.
	DataSources []string
}

// Build derives the panel for o. A nil outcome yields PanelNone.
func Build(o model.Outcome) Panel {
	switch o := o.(type) {
	case model.Failure:
		return Panel{
			Kind:     PanelFailure,
			Message:  o.Response,
			FailedAt: o.ErrorAgent,
		}

	case model.Success:
		p := Panel{
			Kind:    PanelSuccess,
			Message: o.Response,
			Agents:  copyStrings(o.AgentsUsed),
		}
		if o.TaskPlan != nil && o.TaskPlan.Focus != "" {
			p.Focus = FocusLabel(o.TaskPlan.Focus)
		}
		if o.Metadata != nil {
			if o.Metadata.ValidationPassed != nil {
				v := *o.Metadata.ValidationPassed
				p.Validation = &v
			}
			if len(o.Metadata.DataSources) > 0 {
				p.DataSources = copyStrings(o.Metadata.DataSources)
			}
		}
		return p

	default:
		return Panel{Kind: PanelNone}
	}
}

// FocusLabel turns a backend focus key such as "trend_analysis" into a
// display label. Runs of underscores collapse to one space.
func FocusLabel(focus string) string {
	parts := strings.FieldsFunc(focus, func(r rune) bool {
		return r == '_'
	})
	return strings.Join(parts, " ")
}

// Render builds and draws the panel for o with no width limit.
func Render(o model.Outcome) string {
	return View(Build(o))
}

// RenderWidth builds and draws the panel for o so that no line is wider
// than width cells. A non-positive width means no limit.
func RenderWidth(o model.Outcome, width int) string {
	return ViewWidth(Build(o), width)
}

// View draws p. PanelNone renders as the empty string.
func View(p Panel) string {
	return ViewWidth(p, 0)
}

// ViewWidth draws p, soft-wrapping its content to fit width cells
// including the panel frame.
func ViewWidth(p Panel, width int) string {
	switch p.Kind {
	case PanelFailure:
		return viewFailure(p, innerWidth(theme.ErrorPanelStyle, width))
	case PanelSuccess:
		return viewSuccess(p, innerWidth(theme.ResultPanelStyle, width))
	default:
		return ""
	}
}

// innerWidth is the content width left inside frame, or 0 for no limit.
func innerWidth(frame lipgloss.Style, width int) int {
	if width <= 0 {
		return 0
	}
	return max(width-frame.GetHorizontalFrameSize(), 1)
}

// verbatim renders text without tab conversion. Wrapping is done by
// fit so the characters themselves are never altered.
var verbatim = lipgloss.NewStyle().
	Foreground(theme.ColorWhite).
	TabWidth(lipgloss.NoTabConversion)

// fit wraps s at word boundaries, breaking long words, when limit > 0.
func fit(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	return ansi.Wrap(s, limit, "")
}

func viewFailure(p Panel, limit int) string {
	title := theme.TitleStyle.Foreground(theme.ColorRed).Render("Error")

	lines := []string{title, verbatim.Render(fit(p.Message, limit))}
	if p.FailedAt != "" {
		lines = append(lines,
			"",
			fit(theme.LabelStyle.Render("Failed at: ")+p.FailedAt, limit),
		)
	}

	return theme.ErrorPanelStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func viewSuccess(p Panel, limit int) string {
	title := theme.TitleStyle.Foreground(theme.ColorGreen).Render("Result")

	lines := []string{
		title,
		verbatim.Render(fit(p.Message, limit)),
		"",
		fit(theme.LabelStyle.Render("Agents used: ")+chips("agent", p.Agents), limit),
	}

	if p.Focus != "" {
		lines = append(lines, fit(theme.LabelStyle.Render("Focus: ")+p.Focus, limit))
	}

	if p.Validation != nil {
		lines = append(lines,
			theme.LabelStyle.Render("Validation: ")+validationIndicator(*p.Validation),
		)
	}

	if len(p.DataSources) > 0 {
		lines = append(lines,
			fit(theme.LabelStyle.Render("Data sources: ")+chips("source", p.DataSources), limit),
		)
	}

	return theme.ResultPanelStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func validationIndicator(passed bool) string {
	if passed {
		return theme.ValidationStyle(true).Render("✓ passed")
	}
	return theme.ValidationStyle(false).Render("⚠ needs review")
}

// chips renders labels in order, one chip each.
func chips(kind string, labels []string) string {
	style := theme.ChipStyle(kind)
	rendered := make([]string, 0, len(labels))
	for _, l := range labels {
		rendered = append(rendered, style.Render(l))
	}
	return strings.Join(rendered, " ")
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

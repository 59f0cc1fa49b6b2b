// Package ui holds the screen chrome shared by every view.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nhle/privypulse/internal/theme"
)

// Frame is the chrome around the active view: a header line naming the
// backend and its health, the view body, and a key bar line.
type Frame struct {
	Width  int
	Height int
}

// chromeRows is the header line plus the key bar line.
const chromeRows = 2

// NewFrame returns the frame for a terminal of the given size.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height}
}

// BodyWidth is the width handed to the active view.
func (f Frame) BodyWidth() int {
	return max(f.Width, 0)
}

// BodyHeight is the height handed to the active view.
func (f Frame) BodyHeight() int {
	return max(f.Height-chromeRows, 0)
}

// Header is what the top line shows.
type Header struct {
	Title string

	// Target is the backend root URL.
	Target string

	// Health is a poller state label ("checking", "ok", "unreachable").
	// Empty hides the badge, as when probing is disabled.
	Health string
}

// healthGlyph prefixes the badge so the state reads without color.
func healthGlyph(state string) string {
	switch state {
	case "ok":
		return "●"
	case "unreachable":
		return "⚠"
	default:
		return "○"
	}
}

// RenderHeader draws h across the full width. The title stays on the
// left and the health badge on the right; the target URL is shortened
// when the line is too narrow.
func (f Frame) RenderHeader(h Header) string {
	bg := theme.HeaderStyle.GetBackground()
	title := theme.HeaderStyle.Render(h.Title)

	badge := ""
	if h.Health != "" {
		badge = theme.HealthStyle(h.Health).
			Background(bg).
			Padding(0, 1).
			Render(healthGlyph(h.Health) + " " + h.Health)
	}

	room := f.Width - lipgloss.Width(title) - lipgloss.Width(badge) - 2
	target := ""
	if room > 0 && h.Target != "" {
		target = theme.HeaderStyle.
			Bold(false).
			Padding(0, 0, 0, 1).
			Render(ansi.Truncate(h.Target, room-1, "…"))
	}

	gap := max(f.Width-lipgloss.Width(title)-lipgloss.Width(target)-lipgloss.Width(badge), 0)
	filler := lipgloss.NewStyle().Width(gap).Background(bg).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, title, filler, target, badge)
}

// RenderKeyBar draws the enabled bindings as "key desc" pairs, cut to
// the frame width.
func (f Frame) RenderKeyBar(bindings []key.Binding) string {
	pairs := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		pairs = append(pairs, h.Key+" "+h.Desc)
	}

	frame := theme.StatusBarStyle.GetHorizontalFrameSize()
	text := ansi.Truncate(strings.Join(pairs, " · "), max(f.Width-frame, 0), "…")

	return theme.StatusBarStyle.
		Width(max(f.Width, 0)).
		Render(text)
}

// Compose stacks header, body and key bar. The body is held to
// BodyHeight so the key bar stays on the last row.
func (f Frame) Compose(header, body, keyBar string) string {
	h := f.BodyHeight()
	body = lipgloss.NewStyle().Height(h).MaxHeight(h).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, keyBar)
}

package ui

import (
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders the prose blocks (intro, interpretations) with
// glamour, rebuilding the term renderer only when the wrap width changes.
type markdownRenderer struct {
	style string
	width int
	r     *glamour.TermRenderer
}

// glamour standard style names
const (
	markdownStyleDracula = "dracula"
	markdownStylePlain   = "notty"
)

// defaultMarkdownStyle matches the Dracula theme on colour terminals.
func defaultMarkdownStyle() string {
	if TermProfile < colorprofile.ANSI {
		return markdownStylePlain
	}
	return markdownStyleDracula
}

func newMarkdownRenderer(style string) *markdownRenderer {
	if style == "" {
		style = defaultMarkdownStyle()
	}
	return &markdownRenderer{style: style}
}

// Render returns md wrapped to width. On any glamour error the raw
// Markdown is returned so the view still shows the text.
func (m *markdownRenderer) Render(md string, width int) string {
	width = max(width, 20)
	if m.r == nil || m.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		m.r, m.width = r, width
	}
	out, err := m.r.Render(md)
	if err != nil {
		return md
	}
	// Strip the blank margin glamour adds around the document
	return strings.Trim(out, "\n")
}

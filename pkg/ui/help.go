package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpGlobal = `1-4         Jump to view
tab         Next view
shift+tab   Previous view
j/k ↑/↓     Scroll
pgup/pgdn   Page
?           Toggle this help
q           Quit`

var helpByView = map[View]string{
	ViewOverview: `Dataset summary, the first songs
and the cluster size distribution.`,
	ViewMetrics: `Silhouette: higher is better.
Davies-Bouldin: lower is better.`,
	ViewVisualization: `s           Save all charts as SVG
p           Save all charts as PNG`,
	ViewInsights: `←/→ h/l     Previous/next cluster
+/-         More/fewer songs (5-20)
e           Save clustered CSV
y           Copy song table to clipboard`,
}

// renderHelp renders the help panel for v: the view's own keys first,
// then the global ones.
func renderHelp(theme Theme, v View, width int) string {
	r := theme.Renderer
	panelWidth := min(56, max(width-4, 20))

	var b strings.Builder
	b.WriteString(theme.PrimaryBold.Render(v.Label()))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat(glyphAxisH, panelWidth-6)))
	b.WriteString("\n")
	if s, ok := helpByView[v]; ok {
		b.WriteString(theme.Base.Render(s))
		b.WriteString("\n\n")
	}
	b.WriteString(r.NewStyle().Foreground(theme.Subtext).Render(helpGlobal))
	b.WriteString("\n\n")
	b.WriteString(r.NewStyle().Foreground(theme.Muted).Italic(true).Render("? or esc to close"))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(panelWidth).
		Render(b.String())
}

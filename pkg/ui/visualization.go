package ui

import (
	"errors"
	"strings"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/chart"
)

// renderVisualization draws the PCA scatter, the profile heatmap and the
// key-feature bars. A missing key feature only replaces its own chart with
// an error line.
func (m *Model) renderVisualization(width int) string {
	t := m.theme
	b := m.app.Bundle

	var sb strings.Builder
	sb.WriteString(t.Subtitle.Render(chart.KindPCAScatter.Title()) + "\n")
	sb.WriteString(renderScatter(t, b, width) + "\n")

	sb.WriteString(t.Subtitle.Render(chart.KindProfileHeatmap.Title()) + "\n")
	sb.WriteString(renderHeatmap(t, b.Profile, width) + "\n")

	sb.WriteString(t.Subtitle.Render(chart.KindKeyFeatures.Title()) + "\n")
	bars, err := renderKeyFeatures(t, b.Profile, width)
	switch {
	case errors.Is(err, analysis.ErrMissingFeature):
		sb.WriteString(t.ErrorText.Render("Cannot draw key features: "+err.Error()) + "\n")
	case err != nil:
		sb.WriteString(t.ErrorText.Render(err.Error()) + "\n")
	default:
		sb.WriteString(bars + "\n")
	}

	sb.WriteString("\n" + t.MutedText.Render("s save charts as SVG · p save charts as PNG"))
	return sb.String()
}

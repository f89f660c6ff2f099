package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/config"
)

// View is the one piece of navigation state: which page is shown.
type View int

const (
	ViewOverview View = iota
	ViewMetrics
	ViewVisualization
	ViewInsights
	viewCount
)

// Views lists every view in tab order.
var Views = []View{ViewOverview, ViewMetrics, ViewVisualization, ViewInsights}

// Name is the config/flag spelling of the view.
func (v View) Name() string {
	if v >= 0 && v < viewCount {
		return config.ViewNames[v]
	}
	return "unknown"
}

// Label is the tab caption.
func (v View) Label() string {
	switch v {
	case ViewOverview:
		return "Overview"
	case ViewMetrics:
		return "Metrics"
	case ViewVisualization:
		return "Visualization"
	case ViewInsights:
		return "Insights & Export"
	}
	return "?"
}

// Title is the heading shown at the top of the view.
func (v View) Title() string {
	switch v {
	case ViewOverview:
		return analysis.DashboardTitle
	case ViewMetrics:
		return "Cluster Evaluation Metrics"
	case ViewVisualization:
		return "Cluster Visualizations"
	case ViewInsights:
		return "Insights and Export"
	}
	return ""
}

// next returns the view delta steps away, wrapping.
func (v View) next(delta int) View {
	n := int(viewCount)
	return View(((int(v)+delta)%n + n) % n)
}

// ParseView accepts a view name as written in config or on the command line.
func ParseView(name string) (View, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range Views {
		if v.Name() == name {
			return v, nil
		}
	}
	return ViewOverview, fmt.Errorf("unknown view %q: want one of %s", name, strings.Join(config.ViewNames, ", "))
}

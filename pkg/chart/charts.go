package chart

import (
	"fmt"
	"strconv"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// Kind names one of the dashboard plots. The value doubles as the export
// file stem.
type Kind string

const (
	KindClusterSizes   Kind = "cluster_sizes"
	KindPCAScatter     Kind = "pca_scatter"
	KindProfileHeatmap Kind = "profile_heatmap"
	KindKeyFeatures    Kind = "key_features"
)

// Kinds lists every plot in display order.
var Kinds = []Kind{KindClusterSizes, KindPCAScatter, KindProfileHeatmap, KindKeyFeatures}

// Title returns the plot heading.
func (k Kind) Title() string {
	switch k {
	case KindClusterSizes:
		return "Cluster Size Distribution"
	case KindPCAScatter:
		return "PCA Visualization of Clusters"
	case KindProfileHeatmap:
		return "Cluster-wise Feature Comparison"
	case KindKeyFeatures:
		return "Key Features by Cluster"
	default:
		return string(k)
	}
}

// Build lays out the named plot for b.
func Build(kind Kind, b *model.Bundle) (Scene, error) {
	switch kind {
	case KindClusterSizes:
		return ClusterSizes(analysis.ClusterSizes(b)), nil
	case KindPCAScatter:
		return PCAScatter(b)
	case KindProfileHeatmap:
		return ProfileHeatmap(b.Profile), nil
	case KindKeyFeatures:
		return KeyFeatures(b.Profile)
	default:
		return Scene{}, fmt.Errorf("unknown chart %q", kind)
	}
}

// ClusterSizes lays out the cluster-size bar chart.
func ClusterSizes(sizes []analysis.ClusterSize) Scene {
	s := Scene{Title: KindClusterSizes.Title(), Width: 800, Height: 500}
	p := newPlotArea(s.Width, s.Height, 0)
	drawFrame(&s, p, s.Title, "Cluster", "Number of Songs")

	counts := make([]float64, len(sizes))
	for i, cs := range sizes {
		counts[i] = float64(cs.Count)
	}
	_, hi := rangeOf(counts)
	y := niceAxis(0, hi, true)
	drawYAxis(&s, p, y, false)

	if len(sizes) == 0 {
		s.text(p.Left+p.Width/2, p.Top+p.Height/2, "no clusters", labelSize, 0.5, colorSubtle)
		return s
	}

	slot := p.Width / float64(len(sizes))
	barW := slot * 0.7
	base := y.toPixel(0, p.Bottom(), p.Top)
	for i, cs := range sizes {
		x := p.Left + float64(i)*slot + (slot-barW)/2
		top := y.toPixel(float64(cs.Count), p.Bottom(), p.Top)
		s.rect(x, top, barW, base-top, ClusterColor(i, len(sizes)))
		s.text(x+barW/2, top-10, strconv.Itoa(cs.Count), tickSize, 0.5, colorText)
		s.text(x+barW/2, p.Bottom()+18, strconv.Itoa(cs.Cluster), tickSize, 0.5, colorSubtle)
	}
	s.line(p.Left, p.Bottom(), p.Right(), p.Bottom(), colorAxis, 1, false)
	return s
}

// PCAScatter lays out the first two PCA components coloured by cluster.
func PCAScatter(b *model.Bundle) (Scene, error) {
	if len(b.PCA.Columns) < 2 {
		return Scene{}, fmt.Errorf("pca scatter needs 2 components, have %d", len(b.PCA.Columns))
	}
	const markerRadius = 3.5
	const legendW = 110.0

	s := Scene{Title: KindPCAScatter.Title(), Width: 900, Height: 640}
	p := newPlotArea(s.Width, s.Height, legendW)
	drawFrame(&s, p, s.Title, "PC1", "PC2")

	xs := b.PCA.ColumnAt(0)
	ys := b.PCA.ColumnAt(1)
	xlo, xhi := rangeOf(xs)
	ylo, yhi := rangeOf(ys)
	x := niceAxis(xlo, xhi, false)
	y := niceAxis(ylo, yhi, false)
	drawXAxis(&s, p, x, true)
	drawYAxis(&s, p, y, true)

	ids := b.DistinctClusters()
	pos := make(map[int]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	for i := range xs {
		c := ClusterColor(pos[b.Reference.Clusters[i]], len(ids))
		s.circle(x.toPixel(xs[i], p.Left, p.Right()), y.toPixel(ys[i], p.Bottom(), p.Top), markerRadius, c, colorMarker)
	}

	lx := p.Right() + 20
	s.boldText(lx, p.Top+8, "Cluster", labelSize, 0, colorText)
	for i, id := range ids {
		ly := p.Top + 30 + float64(i)*20
		s.circle(lx+6, ly, 5, ClusterColor(i, len(ids)), colorMarker)
		s.text(lx+18, ly, strconv.Itoa(id), tickSize, 0, colorText)
	}
	return s, nil
}

// ProfileHeatmap lays out the cluster profile as an annotated heatmap.
func ProfileHeatmap(prof model.ClusterProfile) Scene {
	const (
		cellW     = 72.0
		cellH     = 34.0
		left      = 90.0
		top       = 60.0
		barW      = 18.0
		barGap    = 24.0
		rightPad  = 80.0
		bottomPad = 70.0
	)
	nf, nc := len(prof.Features), len(prof.Clusters)
	s := Scene{
		Title:  KindProfileHeatmap.Title(),
		Width:  int(left + cellW*float64(max(nf, 4)) + barGap + barW + rightPad),
		Height: int(top + cellH*float64(max(nc, 1)) + bottomPad),
	}
	s.boldText(float64(s.Width)/2, 28, s.Title, titleSize, 0.5, colorText)
	s.rotatedText(22, top+cellH*float64(nc)/2, "Cluster", labelSize, colorText)

	lo, hi := prof.Range()
	norm := func(v float64) float64 {
		if hi == lo {
			return 0.5
		}
		return (v - lo) / (hi - lo)
	}

	for r, cluster := range prof.Clusters {
		y := top + float64(r)*cellH
		s.text(left-10, y+cellH/2, strconv.Itoa(cluster), tickSize, 1, colorSubtle)
		for f := range prof.Features {
			x := left + float64(f)*cellW
			bg := Coolwarm(norm(prof.Means[r][f]))
			s.rect(x, y, cellW, cellH, bg)
			s.text(x+cellW/2, y+cellH/2, fmt.Sprintf("%.2f", prof.Means[r][f]), tickSize, 0.5, ContrastText(bg))
		}
	}
	gridBottom := top + cellH*float64(nc)
	for f, name := range prof.Features {
		s.text(left+float64(f)*cellW+cellW/2, gridBottom+16, truncate(name, 10), tickSize, 0.5, colorSubtle)
	}

	// colour bar
	bx := left + cellW*float64(nf) + barGap
	const steps = 24
	stepH := (cellH * float64(max(nc, 1))) / steps
	for i := 0; i < steps; i++ {
		t := 1 - float64(i)/float64(steps-1)
		s.rect(bx, top+float64(i)*stepH, barW, stepH+0.5, Coolwarm(t))
	}
	s.text(bx+barW+6, top+4, fmt.Sprintf("%.2f", hi), tickSize, 0, colorSubtle)
	s.text(bx+barW+6, top+stepH*steps-4, fmt.Sprintf("%.2f", lo), tickSize, 0, colorSubtle)
	return s
}

// KeyFeatures lays out the grouped bar chart of analysis.KeyFeatureNames.
// A missing feature yields analysis.ErrMissingFeature.
func KeyFeatures(prof model.ClusterProfile) (Scene, error) {
	kf, err := analysis.KeyFeatures(prof)
	if err != nil {
		return Scene{}, err
	}
	const legendW = 150.0

	s := Scene{Title: KindKeyFeatures.Title(), Width: 900, Height: 560}
	p := newPlotArea(s.Width, s.Height, legendW)
	drawFrame(&s, p, s.Title, "Cluster", "Scaled Feature Value")

	var all []float64
	for _, row := range kf.Means {
		all = append(all, row...)
	}
	lo, hi := rangeOf(all)
	y := niceAxis(lo, hi, true)
	drawYAxis(&s, p, y, true)

	if len(kf.Clusters) > 0 {
		slot := p.Width / float64(len(kf.Clusters))
		groupW := slot * 0.8
		barW := groupW / float64(len(kf.Features))
		zero := y.toPixel(0, p.Bottom(), p.Top)
		for g, cluster := range kf.Clusters {
			gx := p.Left + float64(g)*slot + (slot-groupW)/2
			for f := range kf.Features {
				v := y.toPixel(kf.Means[g][f], p.Bottom(), p.Top)
				top, h := v, zero-v
				if h < 0 {
					top, h = zero, -h
				}
				s.rect(gx+float64(f)*barW, top, barW, h, SeriesColor(f))
			}
			s.text(gx+groupW/2, p.Bottom()+18, strconv.Itoa(cluster), tickSize, 0.5, colorSubtle)
		}
		s.line(p.Left, zero, p.Right(), zero, colorAxis, 1, false)
	}

	lx := p.Right() + 20
	for f, name := range kf.Features {
		ly := p.Top + 10 + float64(f)*20
		s.outlinedRect(lx, ly-6, 12, 12, SeriesColor(f), colorAxis)
		s.text(lx+18, ly, name, tickSize, 0, colorText)
	}
	return s, nil
}

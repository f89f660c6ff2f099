package chart

import "github.com/vanderheijden86/clusterboard/pkg/model"

// Empty marks a grid cell with no point.
const Empty = -1

// ScatterGrid rasterises the first two PCA components onto a rows x cols
// character grid for terminal display. Each cell holds the position (in
// DistinctClusters order) of the last cluster drawn there, or Empty.
// Row 0 is the top of the plot.
func ScatterGrid(b *model.Bundle, rows, cols int) [][]int {
	grid := make([][]int, max(rows, 0))
	for r := range grid {
		grid[r] = make([]int, max(cols, 0))
		for c := range grid[r] {
			grid[r][c] = Empty
		}
	}
	if rows <= 0 || cols <= 0 || len(b.PCA.Columns) < 2 {
		return grid
	}

	xs := b.PCA.ColumnAt(0)
	ys := b.PCA.ColumnAt(1)
	xlo, xhi := rangeOf(xs)
	ylo, yhi := rangeOf(ys)
	x := axis{Min: xlo, Max: xhi}
	y := axis{Min: ylo, Max: yhi}

	ids := b.DistinctClusters()
	pos := make(map[int]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}

	for i := range xs {
		c := px(x.toPixel(xs[i], 0, float64(cols-1)))
		r := px(y.toPixel(ys[i], float64(rows-1), 0))
		c = max(0, min(cols-1, c))
		r = max(0, min(rows-1, r))
		grid[r][c] = pos[b.Reference.Clusters[i]]
	}
	return grid
}

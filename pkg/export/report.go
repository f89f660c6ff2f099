package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/clusterboard/pkg/analysis"
	"github.com/vanderheijden86/clusterboard/pkg/chart"
	"github.com/vanderheijden86/clusterboard/pkg/metrics"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// ReportFileName is the Markdown report written by All.
const ReportFileName = "cluster_report.md"

// maxCellWidth caps plain-text table columns; long song names are cut.
const maxCellWidth = 36

// ReportOptions tunes both report renderers.
type ReportOptions struct {
	TopN       int      // songs listed per cluster, clamped like the Insights slider
	ChartFiles []string // chart images to link from the Markdown report, relative to it
}

// songRows projects songs onto the displayed columns.
func songRows(songs []model.Song, withCluster bool) [][]string {
	rows := make([][]string, len(songs))
	for i, s := range songs {
		rows[i] = []string{s.Name, s.Artists, s.Genres}
		if withCluster {
			rows[i] = append(rows[i], strconv.Itoa(s.Cluster))
		}
	}
	return rows
}

func profileTable(p model.ClusterProfile) (header []string, rows [][]string) {
	header = append([]string{model.ColumnCluster}, p.Features...)
	rows = make([][]string, len(p.Clusters))
	for r, c := range p.Clusters {
		row := []string{strconv.Itoa(c)}
		for _, v := range p.Means[r] {
			row = append(row, strconv.FormatFloat(v, 'f', 4, 64))
		}
		rows[r] = row
	}
	return header, rows
}

func sizeRows(sizes []analysis.ClusterSize) [][]string {
	rows := make([][]string, len(sizes))
	for i, s := range sizes {
		rows[i] = []string{strconv.Itoa(s.Cluster), strconv.Itoa(s.Count)}
	}
	return rows
}

var displayHeader = []string{"Song", "Artists", "Genres"}

// RenderMarkdown renders every dashboard view into one Markdown document.
func RenderMarkdown(b *model.Bundle, opts ReportOptions) string {
	defer metrics.Timer(metrics.ReportRender)()

	sum := analysis.Overview(b)
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n%s\n", analysis.DashboardTitle, analysis.IntroMarkdown)

	sb.WriteString("## Dataset Summary\n\n")
	fmt.Fprintf(&sb, "- Total Songs: %d\n", sum.TotalSongs)
	fmt.Fprintf(&sb, "- Audio Features Used: %d\n", sum.FeatureCount)
	fmt.Fprintf(&sb, "- Number of Clusters: %d\n\n", sum.ClusterCount)

	fmt.Fprintf(&sb, "### Top %d Songs\n\n", analysis.OverviewSampleSize)
	writeMarkdownTable(&sb, append(displayHeader[:3:3], model.ColumnCluster), songRows(sum.Sample, true))

	sb.WriteString("### Cluster Distribution\n\n")
	writeMarkdownTable(&sb, []string{model.ColumnCluster, "Number of Songs"}, sizeRows(sum.Sizes))

	sb.WriteString("## Cluster Evaluation Metrics\n\n")
	fmt.Fprintf(&sb, "- %s: %s\n", analysis.LabelSilhouette, analysis.FormatScore(b.Scores.Silhouette))
	fmt.Fprintf(&sb, "- %s: %s\n\n", analysis.LabelDaviesBouldin, analysis.FormatScore(b.Scores.DaviesBouldin))

	sb.WriteString("### Cluster-wise Feature Mean\n\n")
	h, rows := profileTable(b.Profile)
	writeMarkdownTable(&sb, h, rows)

	if len(opts.ChartFiles) > 0 {
		sb.WriteString("## Cluster Visualizations\n\n")
		for _, f := range opts.ChartFiles {
			stem := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
			fmt.Fprintf(&sb, "![%s](%s)\n\n", chart.Kind(stem).Title(), filepath.ToSlash(f))
		}
	}

	sb.WriteString("## Top Songs per Cluster\n\n")
	n := analysis.ClampTopN(opts.TopN)
	for _, id := range b.DistinctClusters() {
		fmt.Fprintf(&sb, "### Cluster %d\n\n", id)
		writeMarkdownTable(&sb, displayHeader, songRows(analysis.TopSongs(b, id, n), false))
	}

	sb.WriteString("## Cluster Interpretation (Example)\n\n")
	sb.WriteString(analysis.ExampleMarkdown())
	sb.WriteString("\n## Cluster Interpretation (Generated)\n\n")
	sb.WriteString(analysis.DescribeMarkdown(b.Profile))
	return sb.String()
}

// SaveMarkdownReport writes ReportFileName into dir.
func SaveMarkdownReport(dir string, b *model.Bundle, opts ReportOptions) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(path, []byte(RenderMarkdown(b, opts)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func writeMarkdownTable(sb *strings.Builder, header []string, rows [][]string) {
	if len(rows) == 0 {
		sb.WriteString("_No rows._\n\n")
		return
	}
	sb.WriteString("| " + strings.Join(escapeCells(header), " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		sb.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}
	sb.WriteString("\n")
}

func escapeCells(cells []string) []string {
	r := strings.NewReplacer("|", "\\|", "\n", " ", "\r", "")
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = r.Replace(c)
	}
	return out
}

// WriteTextReport prints every dashboard view as plain text. It backs the
// -report flag and non-terminal output.
func WriteTextReport(w io.Writer, b *model.Bundle, opts ReportOptions) error {
	defer metrics.Timer(metrics.ReportRender)()

	sum := analysis.Overview(b)
	var sb strings.Builder

	heading(&sb, analysis.DashboardTitle, '=')
	fmt.Fprintf(&sb, "Total Songs: %d\n", sum.TotalSongs)
	fmt.Fprintf(&sb, "Audio Features Used: %d\n", sum.FeatureCount)
	fmt.Fprintf(&sb, "Number of Clusters: %d\n\n", sum.ClusterCount)
	writeTextTable(&sb, append(displayHeader[:3:3], model.ColumnCluster), songRows(sum.Sample, true))
	sb.WriteString("\n")
	writeTextTable(&sb, []string{model.ColumnCluster, "Number of Songs"}, sizeRows(sum.Sizes))

	sb.WriteString("\n")
	heading(&sb, "Cluster Evaluation Metrics", '=')
	fmt.Fprintf(&sb, "%s: %s\n", analysis.LabelSilhouette, analysis.FormatScore(b.Scores.Silhouette))
	fmt.Fprintf(&sb, "%s: %s\n\n", analysis.LabelDaviesBouldin, analysis.FormatScore(b.Scores.DaviesBouldin))
	h, rows := profileTable(b.Profile)
	writeTextTable(&sb, h, rows)

	sb.WriteString("\n")
	heading(&sb, "Key Features by Cluster", '=')
	if kf, err := analysis.KeyFeatures(b.Profile); err != nil {
		fmt.Fprintf(&sb, "unavailable: %v\n", err)
	} else {
		h, rows := profileTable(kf)
		writeTextTable(&sb, h, rows)
	}

	sb.WriteString("\n")
	heading(&sb, "Insights", '=')
	n := analysis.ClampTopN(opts.TopN)
	for _, id := range b.DistinctClusters() {
		heading(&sb, fmt.Sprintf("Cluster %d (top %d)", id, n), '-')
		writeTextTable(&sb, displayHeader, songRows(analysis.TopSongs(b, id, n), false))
		sb.WriteString("\n")
	}
	for _, d := range analysis.Describe(b.Profile) {
		fmt.Fprintf(&sb, "Cluster %d: %s\n", d.Cluster, d.Summary())
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func heading(sb *strings.Builder, title string, rule rune) {
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat(string(rule), runewidth.StringWidth(title)) + "\n")
}

// writeTextTable lays rows out in space-padded columns measured in
// terminal cells, so wide glyphs in song names stay aligned.
func writeTextTable(sb *strings.Builder, header []string, rows [][]string) {
	if len(rows) == 0 {
		sb.WriteString("(no rows)\n")
		return
	}
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = min(runewidth.StringWidth(h), maxCellWidth)
	}
	for _, row := range rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], min(runewidth.StringWidth(c), maxCellWidth))
			}
		}
	}
	line := func(cells []string) {
		parts := make([]string, len(widths))
		for i := range widths {
			c := ""
			if i < len(cells) {
				c = runewidth.Truncate(cells[i], widths[i], "…")
			}
			parts[i] = runewidth.FillRight(c, widths[i])
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " ") + "\n")
	}
	line(header)
	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	line(seps)
	for _, row := range rows {
		line(row)
	}
}


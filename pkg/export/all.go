// Package export writes the dashboard's static outputs: the clustered CSV,
// chart images, a Markdown report and a SQLite copy of the bundle.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/clusterboard/internal/datasource"
	"github.com/vanderheijden86/clusterboard/pkg/chart"
	"github.com/vanderheijden86/clusterboard/pkg/config"
	"github.com/vanderheijden86/clusterboard/pkg/debug"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// SQLiteFileName is the database written by All.
const SQLiteFileName = "clusters.sqlite3"

// maxParallelWrites bounds concurrent export tasks.
const maxParallelWrites = 4

// Options selects what All writes.
type Options struct {
	Dir     string
	Formats []string // any of config.ExportFormats
	TopN    int
}

// OptionsFromConfig builds Options from the export section of cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{Dir: cfg.Export.Dir, Formats: cfg.Export.Formats, TopN: cfg.UI.DefaultTopN}
}

func (o Options) has(format string) bool {
	return slices.Contains(o.Formats, format)
}

// TaskResult records one written file or the error that stopped it.
type TaskResult struct {
	Name  string
	Path  string
	Error error
}

// Result summarises an All run.
type Result struct {
	Tasks []TaskResult
}

// Files returns the paths that were written, sorted.
func (r Result) Files() []string {
	var out []string
	for _, t := range r.Tasks {
		if t.Error == nil && t.Path != "" {
			out = append(out, t.Path)
		}
	}
	sort.Strings(out)
	return out
}

// Failed returns the tasks that did not produce a file.
func (r Result) Failed() []TaskResult {
	var out []TaskResult
	for _, t := range r.Tasks {
		if t.Error != nil {
			out = append(out, t)
		}
	}
	return out
}

type task struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// All writes every requested output into opts.Dir. Individual failures
// (such as a chart whose key feature is missing) are captured per task and
// do not stop the others; the Markdown report links only the charts that
// were written. A cancelled context marks unstarted tasks with ctx.Err().
func All(ctx context.Context, b *model.Bundle, opts Options) (Result, error) {
	if b == nil {
		return Result{}, fmt.Errorf("no bundle to export")
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	var tasks []task
	if opts.has("csv") {
		tasks = append(tasks, task{name: CSVFileName, run: func(context.Context) (string, error) {
			return SaveCSV(dir, b)
		}})
	}
	for _, format := range []string{"svg", "png"} {
		if !opts.has(format) {
			continue
		}
		for _, kind := range chart.Kinds {
			path := filepath.Join(dir, string(kind)+"."+format)
			tasks = append(tasks, task{name: filepath.Base(path), run: func(context.Context) (string, error) {
				return path, chart.Save(chart.SaveOptions{Path: path, Format: format, Kind: kind, Bundle: b})
			}})
		}
	}
	if opts.has("sqlite") {
		path := filepath.Join(dir, SQLiteFileName)
		tasks = append(tasks, task{name: SQLiteFileName, run: func(ctx context.Context) (string, error) {
			return path, datasource.WriteBundle(ctx, path, b)
		}})
	}

	results := make([]TaskResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrites)
	for i, t := range tasks {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = TaskResult{Name: t.name, Error: gctx.Err()}
				return nil
			default:
			}
			path, err := t.run(gctx)
			if err != nil {
				path = ""
				debug.Log("export: %s failed: %v", t.name, err)
			}
			results[i] = TaskResult{Name: t.name, Path: path, Error: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Tasks: results}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{Tasks: results}, err
	}

	if opts.has("markdown") {
		var charts []string
		for _, r := range results {
			if r.Error == nil && r.Path != "" && isImage(r.Path) {
				charts = append(charts, filepath.Base(r.Path))
			}
		}
		sort.Strings(charts)
		path, err := SaveMarkdownReport(dir, b, ReportOptions{TopN: opts.TopN, ChartFiles: charts})
		results = append(results, TaskResult{Name: ReportFileName, Path: path, Error: err})
	}

	return Result{Tasks: results}, nil
}

func isImage(path string) bool {
	switch filepath.Ext(path) {
	case ".svg", ".png":
		return true
	}
	return false
}

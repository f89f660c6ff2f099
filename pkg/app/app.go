// Package app holds the application context: the loaded bundle plus the
// settings every view and exporter reads. It is built once at startup and
// shared by pointer; nothing in it changes afterwards.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vanderheijden86/clusterboard/internal/datasource"
	"github.com/vanderheijden86/clusterboard/pkg/artifact"
	"github.com/vanderheijden86/clusterboard/pkg/chart"
	"github.com/vanderheijden86/clusterboard/pkg/config"
	"github.com/vanderheijden86/clusterboard/pkg/export"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// App is the read-only context handed to renderers and exporters.
type App struct {
	Bundle       *model.Bundle
	Config       config.Config
	ArtifactPath string
}

// New wraps an already loaded bundle.
func New(b *model.Bundle, cfg config.Config, artifactPath string) (*App, error) {
	if b == nil {
		return nil, errors.New("app: nil bundle")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return &App{Bundle: b, Config: cfg, ArtifactPath: artifactPath}, nil
}

// Open loads the bundle at path through cache and builds the App.
func Open(cache *artifact.Cache, path string, cfg config.Config) (*App, error) {
	b, err := cache.Get(path)
	if err != nil {
		return nil, err
	}
	return New(b, cfg, path)
}

// ResolveArtifactPath picks the bundle to load: the explicit flag value,
// then the config file, then datasource.DiscoverArtifact in dir (which
// honours CLUSTERBOARD_ARTIFACT). The discovery default is returned even
// when nothing was found so the load error names the expected file.
func ResolveArtifactPath(flagValue string, cfg config.Config, dir string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.Artifact != "" {
		return cfg.Artifact
	}
	path, _ := datasource.DiscoverArtifact(dir)
	return path
}

// ExportDir is where every export lands.
func (a *App) ExportDir() string {
	if a.Config.Export.Dir == "" {
		return "."
	}
	return a.Config.Export.Dir
}

// SaveCSV writes the clustered dataset.
func (a *App) SaveCSV() (string, error) {
	return export.SaveCSV(a.ExportDir(), a.Bundle)
}

// SaveChart writes one chart as format ("svg" or "png").
func (a *App) SaveChart(kind chart.Kind, format string) (string, error) {
	path := filepath.Join(a.ExportDir(), string(kind)+"."+format)
	if err := chart.Save(chart.SaveOptions{Path: path, Format: format, Kind: kind, Bundle: a.Bundle}); err != nil {
		return "", err
	}
	return path, nil
}

// SaveCharts writes every chart in format. Charts that fail (for example a
// missing key feature) are reported in errs; the rest are still written.
func (a *App) SaveCharts(format string) (paths []string, errs []error) {
	for _, kind := range chart.Kinds {
		path, err := a.SaveChart(kind, format)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errs
}

// ExportAll runs every export enabled in the config.
func (a *App) ExportAll(ctx context.Context) (export.Result, error) {
	opts := export.OptionsFromConfig(a.Config)
	opts.Dir = a.ExportDir()
	return export.All(ctx, a.Bundle, opts)
}

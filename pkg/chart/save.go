package chart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/clusterboard/pkg/debug"
	"github.com/vanderheijden86/clusterboard/pkg/metrics"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// SaveOptions controls chart file export.
type SaveOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Kind   Kind
	Bundle *model.Bundle
}

// Save lays out and writes one chart. A layout error (for example a missing
// key feature) is returned before any file is created.
func Save(opts SaveOptions) error {
	if opts.Bundle == nil {
		return fmt.Errorf("no bundle to chart")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	format, err := resolveFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}

	defer metrics.Timer(metrics.ChartRender)()
	scene, err := Build(opts.Kind, opts.Bundle)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.Kind, err)
	}

	var buf bytes.Buffer
	switch format {
	case "svg":
		err = WriteSVG(&buf, scene)
	case "png":
		err = WritePNG(&buf, scene)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", opts.Kind, err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(opts.Path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.Path, err)
	}
	debug.Log("chart %s written to %s (%d bytes)", opts.Kind, opts.Path, buf.Len())
	return nil
}

func resolveFormat(format, path string) (string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}
	if format != "svg" && format != "png" {
		return "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	return format, nil
}

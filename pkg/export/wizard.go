package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/clusterboard/pkg/config"
	"github.com/vanderheijden86/clusterboard/pkg/model"
)

// Wizard collects export options interactively and then runs All.
type Wizard struct {
	cfg        config.Config
	configPath string
	out        io.Writer

	dir        string
	formats    []string
	topN       string
	saveConfig bool
}

// NewWizard seeds the form from cfg. configPath is where "save as
// defaults" writes; empty disables that question.
func NewWizard(cfg config.Config, configPath string, out io.Writer) *Wizard {
	if out == nil {
		out = os.Stdout
	}
	return &Wizard{
		cfg:        cfg,
		configPath: configPath,
		out:        out,
		dir:        cfg.Export.Dir,
		formats:    append([]string(nil), cfg.Export.Formats...),
		topN:       strconv.Itoa(cfg.UI.DefaultTopN),
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func (w *Wizard) form() *huh.Form {
	formatOpts := make([]huh.Option[string], 0, len(config.ExportFormats))
	for _, f := range config.ExportFormats {
		formatOpts = append(formatOpts, huh.NewOption(formatLabel(f), f))
	}

	fields := []huh.Field{
		huh.NewInput().
			Title("Output directory").
			Value(&w.dir).
			Placeholder(".").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("directory is required")
				}
				return nil
			}),
		huh.NewMultiSelect[string]().
			Title("What should be exported?").
			Options(formatOpts...).
			Value(&w.formats).
			Validate(func(s []string) error {
				if len(s) == 0 {
					return fmt.Errorf("pick at least one format")
				}
				return nil
			}),
		huh.NewInput().
			Title("Songs per cluster in the report").
			Description(fmt.Sprintf("%d-%d", config.MinTopN, config.MaxTopN)).
			Value(&w.topN).
			Validate(validateTopN),
	}
	if w.configPath != "" {
		fields = append(fields, huh.NewConfirm().
			Title("Save these choices as defaults?").
			Value(&w.saveConfig))
	}
	return newForm(huh.NewGroup(fields...))
}

func formatLabel(format string) string {
	switch format {
	case "csv":
		return "Clustered dataset (" + CSVFileName + ")"
	case "svg":
		return "Charts as SVG"
	case "png":
		return "Charts as PNG"
	case "markdown":
		return "Markdown report (" + ReportFileName + ")"
	case "sqlite":
		return "SQLite database (" + SQLiteFileName + ")"
	}
	return format
}

func validateTopN(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if n < config.MinTopN || n > config.MaxTopN {
		return fmt.Errorf("must be between %d and %d", config.MinTopN, config.MaxTopN)
	}
	return nil
}

// Options returns the choices collected so far.
func (w *Wizard) Options() Options {
	n, err := strconv.Atoi(strings.TrimSpace(w.topN))
	if err != nil {
		n = w.cfg.UI.DefaultTopN
	}
	return Options{Dir: strings.TrimSpace(w.dir), Formats: w.formats, TopN: n}
}

// Run shows the form, optionally saves the choices to the config file,
// exports and prints a summary.
func (w *Wizard) Run(ctx context.Context, b *model.Bundle) (Result, error) {
	fmt.Fprintln(w.out, "Export clustered dataset")
	fmt.Fprintln(w.out, "────────────────────────")

	if err := w.form().Run(); err != nil {
		return Result{}, err
	}
	opts := w.Options()

	if w.saveConfig {
		cfg := w.cfg
		cfg.Export.Dir = opts.Dir
		cfg.Export.Formats = opts.Formats
		cfg.UI.DefaultTopN = opts.TopN
		if err := config.SaveTo(cfg, w.configPath); err != nil {
			return Result{}, fmt.Errorf("save defaults: %w", err)
		}
		fmt.Fprintf(w.out, "Saved defaults to %s\n", w.configPath)
	}

	res, err := All(ctx, b, opts)
	PrintSummary(w.out, res)
	return res, err
}

// PrintSummary lists written files and failed tasks.
func PrintSummary(out io.Writer, res Result) {
	for _, f := range res.Files() {
		fmt.Fprintf(out, "  ✓ %s\n", f)
	}
	for _, t := range res.Failed() {
		fmt.Fprintf(out, "  ✗ %s: %v\n", t.Name, t.Error)
	}
}

package main

import (
	// Sets CI before any terminal probing can happen.
	_ "github.com/vanderheijden86/clusterboard/pkg/ttyguard"

	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vanderheijden86/clusterboard/pkg/app"
	"github.com/vanderheijden86/clusterboard/pkg/artifact"
	"github.com/vanderheijden86/clusterboard/pkg/config"
	"github.com/vanderheijden86/clusterboard/pkg/debug"
	"github.com/vanderheijden86/clusterboard/pkg/export"
	"github.com/vanderheijden86/clusterboard/pkg/metrics"
	"github.com/vanderheijden86/clusterboard/pkg/ui"
	"github.com/vanderheijden86/clusterboard/pkg/version"
	"github.com/vanderheijden86/clusterboard/pkg/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	artifact     string
	configPath   string
	view         string
	exportDir    string
	export       bool
	exportWizard bool
	report       bool
	noWatch      bool
	version      bool
	help         bool
	cpuProfile   string
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("clusterboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.artifact, "artifact", "", "Clustering bundle to load (.json or .sqlite)")
	fs.StringVar(&o.configPath, "config", "", "Config file (default "+config.ConfigPath()+")")
	fs.StringVar(&o.view, "view", "", "Initial view: overview, metrics, visualization or insights")
	fs.StringVar(&o.exportDir, "export-dir", "", "Directory for exported files")
	fs.BoolVar(&o.export, "export", false, "Write every configured export and exit")
	fs.BoolVar(&o.exportWizard, "export-wizard", false, "Choose exports interactively, write them and exit")
	fs.BoolVar(&o.report, "report", false, "Print a plain-text report of every view and exit")
	fs.BoolVar(&o.noWatch, "no-watch", false, "Do not watch the bundle for changes")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.help, "help", false, "Show help")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	err := fs.Parse(args)
	return o, fs, err
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.help {
		fmt.Fprintln(stdout, "Usage: clusterboard [options]")
		fmt.Fprintln(stdout, "\nA terminal dashboard for K-Means clusters of Amazon Music songs.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "clusterboard %s\n", version.Version)
		return 0
	}

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	cfg, configPath, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	path := app.ResolveArtifactPath(opts.artifact, cfg, cwd)

	a, err := app.Open(artifact.NewCache(), path, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading clustering bundle: %v\n", err)
		if errors.Is(err, artifact.ErrArtifactNotFound) {
			fmt.Fprintln(stderr, "Pass -artifact, set CLUSTERBOARD_ARTIFACT, or run from the directory holding cleaned_data.json.")
		}
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.export:
		res, err := a.ExportAll(ctx)
		export.PrintSummary(stdout, res)
		return exportStatus(stderr, res, err)

	case opts.exportWizard:
		res, err := export.NewWizard(cfg, configPath, stdout).Run(ctx, a.Bundle)
		return exportStatus(stderr, res, err)

	case opts.report || !isTerminal(stdout):
		if err := export.WriteTextReport(stdout, a.Bundle, export.ReportOptions{TopN: cfg.UI.DefaultTopN}); err != nil {
			fmt.Fprintf(stderr, "Error writing report: %v\n", err)
			return 1
		}
		if debug.Enabled() {
			fmt.Fprint(stderr, metrics.Summary())
		}
		return 0
	}

	var modelOpts []ui.Option
	if cfg.WatchEnabled() {
		if w := startWatcher(path); w != nil {
			defer w.Stop()
			modelOpts = append(modelOpts, ui.WithWatcher(w))
		}
	}
	if err := runTUIProgram(ui.NewModel(a, modelOpts...)); err != nil {
		fmt.Fprintf(stderr, "Error running dashboard: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads -config when given (an unreadable or invalid file is
// then an error) or the default config file (problems there fall back to
// defaults), and applies the flag overrides.
func loadConfig(opts options) (config.Config, string, error) {
	var cfg config.Config
	configPath := opts.configPath
	if configPath != "" {
		c, err := config.LoadFrom(configPath)
		if err != nil {
			return cfg, "", err
		}
		cfg = c
	} else {
		configPath = config.ConfigPath()
		c, err := config.Load()
		if err != nil {
			debug.Log("config: %v; using defaults", err)
			c = config.DefaultConfig()
		}
		cfg = c
	}

	if opts.view != "" {
		v, err := ui.ParseView(opts.view)
		if err != nil {
			return cfg, "", err
		}
		cfg.UI.DefaultView = v.Name()
	}
	if opts.exportDir != "" {
		cfg.Export.Dir = opts.exportDir
	}
	if opts.noWatch {
		off := false
		cfg.Watch = &off
	}
	return cfg, configPath, nil
}

func exportStatus(stderr io.Writer, res export.Result, err error) int {
	if err != nil {
		fmt.Fprintf(stderr, "Export failed: %v\n", err)
		return 1
	}
	if failed := res.Failed(); len(failed) > 0 {
		fmt.Fprintf(stderr, "%d export(s) failed\n", len(failed))
		return 1
	}
	return 0
}

func startWatcher(path string) *watcher.Watcher {
	w, err := watcher.New(path)
	if err != nil {
		debug.Log("watcher: %v", err)
		return nil
	}
	if err := w.Start(); err != nil {
		debug.Log("watcher: %v", err)
		return nil
	}
	return w
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set CLUSTERBOARD_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("CLUSTERBOARD_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

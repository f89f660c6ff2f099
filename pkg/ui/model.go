package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/clusterboard/pkg/app"
	"github.com/vanderheijden86/clusterboard/pkg/metrics"
	"github.com/vanderheijden86/clusterboard/pkg/watcher"
)

const (
	defaultWidth  = 100
	defaultHeight = 30

	// rows taken by the tab bar, title and footer
	chromeHeight = 3
	minBody      = 3
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// ArtifactChangedMsg is sent when the loaded artifact changes on disk.
// The dashboard keeps showing the data it loaded at startup.
type ArtifactChangedMsg struct {
	Change watcher.Change
}

// WatchArtifactCmd waits for the next change reported by w.
func WatchArtifactCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		return ArtifactChangedMsg{Change: <-w.Changes()}
	}
}

// exportDoneMsg reports a finished background export.
type exportDoneMsg struct {
	what  string
	paths []string
	errs  []error
}

// Model is the dashboard. It only ever reads the App.
type Model struct {
	app   *app.App
	theme Theme
	md    *markdownRenderer

	view     View
	insights insightsState

	viewport viewport.Model
	width    int
	height   int
	showHelp bool

	statusMsg     string
	statusIsError bool
	notice        string // persistent, set when the artifact changes on disk
	exporting     bool

	watcher *watcher.Watcher
}

// Option configures a Model.
type Option func(*Model)

// WithWatcher subscribes the dashboard to on-disk artifact changes.
func WithWatcher(w *watcher.Watcher) Option {
	return func(m *Model) { m.watcher = w }
}

// WithMarkdownStyle overrides the glamour style ("dracula", "notty", ...).
func WithMarkdownStyle(style string) Option {
	return func(m *Model) { m.md = newMarkdownRenderer(style) }
}

// WithView sets the initial view, overriding the configured default.
func WithView(v View) Option {
	return func(m *Model) { m.view = v }
}

// WithTheme replaces the default theme.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// NewModel builds the dashboard for a. The model starts at a default size
// so it renders before the first WindowSizeMsg arrives.
func NewModel(a *app.App, opts ...Option) Model {
	m := Model{
		app:      a,
		theme:    DefaultTheme(lipgloss.DefaultRenderer()),
		md:       newMarkdownRenderer(""),
		width:    defaultWidth,
		height:   defaultHeight,
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
	}
	if v, err := ParseView(a.Config.UI.DefaultView); err == nil {
		m.view = v
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.resetInsights()
	m.refresh()
	return m
}

// CurrentView returns the view on screen.
func (m Model) CurrentView() View {
	return m.view
}

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return WatchArtifactCmd(m.watcher)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, minBody)
		m.refresh()
		return m, nil

	case ArtifactChangedMsg:
		m.notice = msg.Change.Notice()
		if m.watcher == nil {
			return m, nil
		}
		return m, WatchArtifactCmd(m.watcher)

	case exportDoneMsg:
		m.exporting = false
		m.setExportStatus(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.showHelp {
		switch key {
		case "?", "esc", "q":
			m.showHelp = false
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "1", "2", "3", "4":
		m.setView(View(key[0] - '1'))
		return m, nil
	case "tab":
		m.setView(m.view.next(1))
		return m, nil
	case "shift+tab":
		m.setView(m.view.next(-1))
		return m, nil
	}

	switch m.view {
	case ViewVisualization:
		if cmd, ok := m.handleVisualizationKey(key); ok {
			return m, cmd
		}
	case ViewInsights:
		if cmd, ok := m.handleInsightsKey(key); ok {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleVisualizationKey(key string) (tea.Cmd, bool) {
	switch key {
	case "s":
		return m.startExport(saveChartsCmd(m.app, "svg")), true
	case "p":
		return m.startExport(saveChartsCmd(m.app, "png")), true
	}
	return nil, false
}

func (m *Model) handleInsightsKey(key string) (tea.Cmd, bool) {
	switch key {
	case "left", "h":
		m.cycleCluster(-1)
	case "right", "l":
		m.cycleCluster(1)
	case "+", "=":
		m.adjustTopN(1)
	case "-", "_":
		m.adjustTopN(-1)
	case "e":
		return m.startExport(saveCSVCmd(m.app)), true
	case "y":
		m.copySelection()
	default:
		return nil, false
	}
	m.refreshKeepOffset()
	return nil, true
}

// startExport runs cmd unless an export is already in flight.
func (m *Model) startExport(cmd tea.Cmd) tea.Cmd {
	if m.exporting {
		m.statusMsg = "Export already running"
		m.statusIsError = false
		return nil
	}
	m.exporting = true
	m.statusMsg = "Exporting…"
	m.statusIsError = false
	return cmd
}

func saveChartsCmd(a *app.App, format string) tea.Cmd {
	return func() tea.Msg {
		paths, errs := a.SaveCharts(format)
		return exportDoneMsg{what: strings.ToUpper(format) + " charts", paths: paths, errs: errs}
	}
}

func saveCSVCmd(a *app.App) tea.Cmd {
	return func() tea.Msg {
		path, err := a.SaveCSV()
		if err != nil {
			return exportDoneMsg{what: "CSV", errs: []error{err}}
		}
		return exportDoneMsg{what: "CSV", paths: []string{path}}
	}
}

func (m *Model) setExportStatus(msg exportDoneMsg) {
	switch {
	case len(msg.errs) == 0:
		m.statusMsg = fmt.Sprintf("Saved %s: %s", msg.what, joinBase(msg.paths))
		m.statusIsError = false
	case len(msg.paths) == 0:
		m.statusMsg = fmt.Sprintf("%s export failed: %v", msg.what, msg.errs[0])
		m.statusIsError = true
	default:
		m.statusMsg = fmt.Sprintf("Saved %d %s, %d failed: %v", len(msg.paths), msg.what, len(msg.errs), msg.errs[0])
		m.statusIsError = true
	}
}

func joinBase(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, ", ")
}

func (m *Model) copySelection() {
	songs := m.selectedSongs()
	if len(songs) == 0 {
		m.statusMsg = "Nothing to copy"
		m.statusIsError = false
		return
	}
	if err := writeClipboard(songsTSV(songs)); err != nil {
		m.statusMsg = fmt.Sprintf("Clipboard error: %v", err)
		m.statusIsError = true
		return
	}
	m.statusMsg = fmt.Sprintf("Copied %d songs from cluster %d", len(songs), m.insights.cluster)
	m.statusIsError = false
}

// setView switches page. Entering Insights starts from the default
// selection every time.
func (m *Model) setView(v View) {
	if v == ViewInsights {
		m.resetInsights()
	}
	m.view = v
	m.refresh()
	m.viewport.GotoTop()
}

// refresh re-renders the current view into the viewport.
func (m *Model) refresh() {
	defer metrics.Timer(metrics.UIRender)()
	width := max(m.viewport.Width, 20)

	var body string
	switch m.view {
	case ViewOverview:
		body = m.renderOverview(width)
	case ViewMetrics:
		body = m.renderMetrics(width)
	case ViewVisualization:
		body = m.renderVisualization(width)
	case ViewInsights:
		body = m.renderInsights(width)
	}
	m.viewport.SetContent(body)
}

// refreshKeepOffset re-renders without jumping back to the top.
func (m *Model) refreshKeepOffset() {
	off := m.viewport.YOffset
	m.refresh()
	m.viewport.SetYOffset(off)
}

func (m Model) View() string {
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			renderHelp(m.theme, m.view, m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		m.theme.Title.Render(truncate(m.view.Title(), m.width)),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(Views))
	for i, v := range Views {
		label := fmt.Sprintf("%d %s", i+1, v.Label())
		if v == m.view {
			tabs[i] = m.theme.ActiveTab.Render(label)
		} else {
			tabs[i] = m.theme.Tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderFooter() string {
	var parts []string
	if m.notice != "" {
		parts = append(parts, m.theme.WarningText.Render(m.notice))
	}
	if m.statusMsg != "" {
		style := m.theme.InfoText
		if m.statusIsError {
			style = m.theme.ErrorText
		}
		parts = append(parts, style.Render(m.statusMsg))
	}
	if len(parts) == 0 {
		parts = append(parts, m.theme.MutedText.Render("1-4 views · tab next · ? help · q quit"))
	}
	return strings.Join(parts, m.theme.MutedText.Render(" · "))
}

package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jfin/internal/importer"
	"github.com/desertthunder/jfin/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	ResultView
)

// RunFunc executes the import and streams updates into the channel. The UI
// owns the channel lifecycle; the function must not close it.
type RunFunc func(ctx context.Context, progress chan<- importer.ProgressUpdate) (*models.RunSummary, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	run          RunFunc
	width        int
	spin         spinner.Model
	bar          progress.Model
	progressChan chan importer.ProgressUpdate
	done         chan runCompleteMsg
	progress     importer.ProgressUpdate
	recent       []string
	summary      *models.RunSummary
	err          error
	help         help.Model
	keys         keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.quit}}
}

type progressUpdateMsg importer.ProgressUpdate

type runCompleteMsg struct {
	summary *models.RunSummary
	err     error
}

// recentLines caps the scrollback of per-track messages shown under the bar.
const recentLines = 8

// NewModel creates a new TUI model around an import run.
func NewModel(ctx context.Context, run RunFunc) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title

	return &Model{
		ctx:  ctx,
		view: RunView,
		run:  run,
		spin: sp,
		bar:  progress.New(progress.WithDefaultGradient()),
		help: help.New(),
		keys: newKeyMap(),
	}
}

// Init starts the spinner and kicks off the import run.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.startRun())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = importer.ProgressUpdate(msg)
		if m.progress.Phase == importer.MatchTracks || m.progress.Phase == importer.MergePlaylists {
			m.recent = append(m.recent, m.progress.Message)
			if len(m.recent) > recentLines {
				m.recent = m.recent[len(m.recent)-recentLines:]
			}
		}
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Summary exposes the final run summary after the TUI exits, so the CLI can
// set its exit code and persist run history.
func (m *Model) Summary() (*models.RunSummary, error) {
	return m.summary, m.err
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan importer.ProgressUpdate, 64)

	done := make(chan runCompleteMsg, 1)
	go func() {
		summary, err := m.run(m.ctx, m.progressChan)
		done <- runCompleteMsg{summary: summary, err: err}
		close(m.progressChan)
	}()
	m.done = done

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Importing Playlists")

	var body string
	switch m.progress.Phase {
	case importer.BuildCatalog:
		body = fmt.Sprintf("%s %s", m.spin.View(), m.progress.Message)
	case importer.MatchTracks, importer.MergePlaylists:
		percent := 0.0
		if m.progress.Total > 0 {
			percent = float64(m.progress.Step) / float64(m.progress.Total)
		}
		body = fmt.Sprintf("%s\n\n%s", m.bar.ViewAs(percent), strings.Join(m.recent, "\n"))
	default:
		body = fmt.Sprintf("%s Starting...", m.spin.View())
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Import failed: %v\n\nPress q to quit", m.err))
	}

	if m.summary == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Import Complete")
	info := fmt.Sprintf("\nMatched: %d\nUnmatched: %d\n", m.summary.Matched, m.summary.Unmatched)

	var lines []string
	for _, pl := range m.summary.Playlists {
		switch {
		case pl.Err != nil:
			lines = append(lines, styles.err.Render(fmt.Sprintf("  ✗ %s: %v", pl.Name, pl.Err)))
		case pl.Created:
			lines = append(lines, fmt.Sprintf("  ✓ %s: created with %d tracks", pl.Name, pl.Appended))
		case pl.Appended > 0:
			lines = append(lines, fmt.Sprintf("  ✓ %s: appended %d tracks", pl.Name, pl.Appended))
		default:
			lines = append(lines, fmt.Sprintf("  • %s: nothing to do", pl.Name))
		}
	}

	var unmatched string
	if len(m.summary.Skipped) > 0 {
		unmatched = "\n\n" + styles.warn.Render(fmt.Sprintf("Unmatched tracks (%d):", len(m.summary.Skipped)))
		for _, track := range m.summary.Skipped {
			unmatched += fmt.Sprintf("\n  • %s - %s", track.Artist, track.Title)
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s%s%s\n\n%s", title, info, strings.Join(lines, "\n"), unmatched, helpView)
}

package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
	"github.com/desertthunder/tunebot/internal/tasks"
)

// localUserID tags TUI downloads in file names and history rows.
const localUserID int64 = 1

// ViewState represents the current view in the TUI.
type ViewState int

const (
	QueryView ViewState = iota
	SearchingView
	ResultsView
	DownloadView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	search       *tasks.SearchEngine
	downloads    *tasks.DownloadEngine
	history      models.HistoryStore
	limit        int
	width        int
	height       int
	input        textinput.Model
	resultList   list.Model
	tracks       []models.Track
	selected     models.Track
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.DownloadResult
	err          error
	help         help.Model
	keys         keyMap
}

type searchDoneMsg struct {
	tracks []models.Track
	err    error
}

type progressUpdateMsg tasks.ProgressUpdate

type downloadDoneMsg tasks.DownloadResult

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, search *tasks.SearchEngine, downloads *tasks.DownloadEngine, history models.HistoryStore, limit int) *Model {
	input := textinput.New()
	input.Placeholder = "song name or artist"
	input.Focus()
	input.CharLimit = 200

	if limit <= 0 {
		limit = 5
	}

	return &Model{
		ctx:       ctx,
		view:      QueryView,
		search:    search,
		downloads: downloads,
		history:   history,
		limit:     limit,
		input:     input,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI with a blinking query prompt.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resultList.Width() == 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case QueryView:
			return m.handleQueryKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case SearchingView, DownloadView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case searchDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.tracks = msg.tracks
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = fmt.Sprintf("Results for %q", m.input.Value())
		m.resultList.SetSize(m.width-4, m.height-8)
		m.view = ResultsView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case downloadDoneMsg:
		result := tasks.DownloadResult(msg)
		m.result = &result
		m.err = result.Err
		m.view = ResultView
		if m.progressChan != nil {
			m.progressChan = nil
		}
		if result.Err == nil {
			m.recordHistory(result)
		}
		return m, nil
	}

	if m.view == ResultsView {
		var cmd tea.Cmd
		m.resultList, cmd = m.resultList.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case QueryView:
		return m.renderQuery()
	case SearchingView:
		return m.renderSearching()
	case ResultsView:
		return m.renderResults()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		query := m.input.Value()
		if shared.NormalizeQuery(query) == "" {
			return m, nil
		}
		m.view = SearchingView
		return m, m.runSearch(query)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = QueryView
		m.input.Focus()
		return m, textinput.Blink
	case "enter":
		selected := m.resultList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(trackItem); ok {
				m.selected = item.track
				m.view = DownloadView
				return m, m.startDownload()
			}
		}
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = QueryView
		m.tracks = nil
		m.result = nil
		m.err = nil
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.search.Aggregate(m.ctx, query, m.limit, tasks.AllSources)
		return searchDoneMsg{tracks: tracks, err: err}
	}
}

func (m *Model) startDownload() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	resultChan := m.downloads.Submit(m.ctx, m.selected, localUserID, m.progressChan)
	progressChan := m.progressChan

	go func() {
		result := <-resultChan
		// Unblocks waitForProgress; the final message carries the result.
		progressChan <- tasks.ProgressUpdate{Phase: tasks.Complete, Data: result}
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		for update := range progressChan {
			if result, ok := update.Data.(tasks.DownloadResult); ok {
				return downloadDoneMsg(result)
			}
			return progressUpdateMsg(update)
		}
		return nil
	}
}

// recordHistory appends a history row for a completed TUI download.
// Failures are swallowed; the file is already on disk either way.
func (m *Model) recordHistory(result tasks.DownloadResult) {
	if m.history == nil || result.File == nil {
		return
	}
	_ = m.history.Create(&models.HistoryRecord{
		UserID:     localUserID,
		Title:      m.selected.Title,
		Artist:     m.selected.Artist,
		Provenance: m.selected.Provenance,
		SourceRef:  m.selected.SourceRef,
		Duration:   m.selected.Duration,
		FileSize:   result.File.Size,
	})
}

func (m *Model) renderQuery() string {
	title := styles.title.Render("Search for a song")
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderSearching() string {
	return styles.help.Render(fmt.Sprintf("Searching for %q...", m.input.Value()))
}

func (m *Model) renderResults() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render("Downloading")

	var phase string
	switch m.progress.Phase {
	case tasks.Resolving:
		phase = "Matching track..."
	case tasks.Fetching:
		phase = "Fetching audio..."
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		body := styles.err.Render(fmt.Sprintf("Download failed: %v", m.err))
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}

	if m.result == nil || m.result.File == nil {
		body := styles.warn.Render("No result available")
		return fmt.Sprintf("%s\n\n%s", body, helpView)
	}

	title := styles.ok.Render("✓ Download Complete")
	info := fmt.Sprintf(
		"\n%s - %s\nSaved to: %s (%s)",
		m.result.Resolved.Artist,
		m.result.Resolved.Title,
		m.result.File.Path,
		shared.FormatSize(m.result.File.Size),
	)

	return fmt.Sprintf("%s%s\n\n%s", title, info, helpView)
}

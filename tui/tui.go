// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive board for triaging insights and status advisories
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/leadengine/models"
)

// Backend is what the board reads from and acts on. *service.Service
// satisfies it.
type Backend interface {
	GenerateAllInsights(ctx context.Context) ([]models.Insight, error)
	ScanAdvisories(ctx context.Context) ([]models.StatusAdvisory, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	AcceptInsight(ctx context.Context, id string) (models.Task, error)
	DismissInsight(ctx context.Context, id string) (models.ExclusionState, error)
	RestoreInsight(ctx context.Context, id string) (models.ExclusionState, error)
	ApplyAdvisory(ctx context.Context, id string) (models.Transaction, error)
	DismissAdvisory(ctx context.Context, id string) (models.ExclusionState, error)
}

// Tab is the list currently shown.
type Tab int

const (
	TabInsights Tab = iota
	TabAdvisories
	TabPipeline
)

var tabNames = []string{"Insights", "Advisories", "Pipeline"}

// Model is the main bubbletea model
type Model struct {
	ctx     context.Context
	backend Backend
	tab     Tab

	insights     []models.Insight
	advisories   []models.StatusAdvisory
	transactions []models.Transaction

	showDismissed bool
	selectedRow   int
	loading       bool
	pending       int

	status string
	err    error

	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, backend Backend) Model {
	return Model{
		ctx:     ctx,
		backend: backend,
		tab:     TabInsights,
		loading: true,
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case dataLoadedMsg:
		return m.handleLoaded(msg), nil
	case actionDoneMsg:
		return m.handleActionDone(msg)
	}
	return m, nil
}

func (m Model) View() string {
	return m.renderBoard()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.selectedRow = 0
		return m, nil
	case "shift+tab":
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		m.selectedRow = 0
		return m, nil
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
		return m, nil
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
		return m, nil
	case "R":
		m.loading = true
		return m, m.loadCmd()
	}

	switch m.tab {
	case TabInsights:
		return m.handleInsightKeys(msg)
	case TabAdvisories:
		return m.handleAdvisoryKeys(msg)
	}
	return m, nil
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabInsights:
		return len(m.visibleInsights())
	case TabAdvisories:
		return len(m.advisories)
	case TabPipeline:
		return len(m.transactions)
	}
	return 0
}

// visibleInsights hides dismissed entries unless they were asked for.
func (m Model) visibleInsights() []models.Insight {
	if m.showDismissed {
		return m.insights
	}
	out := make([]models.Insight, 0, len(m.insights))
	for _, in := range m.insights {
		if !in.Dismissed {
			out = append(out, in)
		}
	}
	return out
}

func (m Model) clampSelection() Model {
	if n := m.rowCount(); m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
	return m
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

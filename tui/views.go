// ABOUTME: Rendering for the insight board
// ABOUTME: Draws tabs, the active table, a status line, and key help
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

func (m Model) renderBoard() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("LEAD ENGINE"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.loading && len(m.insights) == 0 && len(m.advisories) == 0 {
		s.WriteString("Loading...")
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.status != "" {
		s.WriteString(statusStyle.Render("✓ " + m.status))
		s.WriteString("\n")
	}

	s.WriteString(m.renderHelp())
	return s.String()
}

func (m Model) renderTabs() string {
	counts := []int{len(m.visibleInsights()), len(m.advisories), len(m.transactions)}
	var rendered []string
	for i, name := range tabNames {
		label := fmt.Sprintf("%s (%d)", name, counts[i])
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	var (
		columns []table.Column
		rows    []table.Row
	)

	switch m.tab {
	case TabInsights:
		columns = []table.Column{
			{Title: "P", Width: 2},
			{Title: "Kind", Width: 11},
			{Title: "Insight", Width: 44},
			{Title: "Action", Width: 18},
		}
		for _, in := range m.visibleInsights() {
			title := in.Title
			if in.Dismissed {
				title = "(dismissed) " + title
			}
			rows = append(rows, table.Row{fmt.Sprint(in.Priority), in.Kind, title, in.ActionLabel})
		}
		if len(rows) == 0 {
			return "Nothing needs attention."
		}

	case TabAdvisories:
		columns = []table.Column{
			{Title: "Lead", Width: 20},
			{Title: "Phrase", Width: 24},
			{Title: "Suggests", Width: 15},
			{Title: "Action", Width: 16},
		}
		for _, adv := range m.advisories {
			action := "advance"
			if adv.Action == models.AdvisoryActionCreateTransaction {
				action = "new transaction"
			}
			rows = append(rows, table.Row{adv.LeadName, adv.MatchedPhrase, engine.StageLabel(adv.SuggestedStatus), action})
		}
		if len(rows) == 0 {
			return "No advisories."
		}

	case TabPipeline:
		columns = []table.Column{
			{Title: "Address", Width: 28},
			{Title: "Client", Width: 18},
			{Title: "Stage", Width: 15},
			{Title: "Price", Width: 12},
		}
		for i := range m.transactions {
			tx := &m.transactions[i]
			rows = append(rows, table.Row{tx.PropertyAddress, tx.ClientName, engine.StageLabel(tx.Status), "$" + humanize.Comma(tx.SalePrice/100)})
		}
		if len(rows) == 0 {
			return "No transactions."
		}
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderHelp() string {
	help := []string{"↑/↓: Navigate", "Tab: Switch"}
	switch m.tab {
	case TabInsights:
		help = append(help, "a: Accept", "d: Dismiss", "r: Restore", "h: Show dismissed")
	case TabAdvisories:
		help = append(help, "a: Apply", "d: Dismiss")
	}
	help = append(help, "R: Reload", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

// ABOUTME: Commands and messages for loading data and acting on rows
// ABOUTME: Actions update the board first and undo their own row if the write fails
package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/leadengine/models"
)

type dataLoadedMsg struct {
	insights     []models.Insight
	advisories   []models.StatusAdvisory
	transactions []models.Transaction
	err          error
}

// actionDoneMsg reports a finished write. undo puts back only the row this
// action changed, so other in-flight changes on the board are left alone.
type actionDoneMsg struct {
	label string
	err   error
	undo  func(Model) Model
}

func (m Model) loadCmd() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		insights, err := backend.GenerateAllInsights(ctx)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		advisories, err := backend.ScanAdvisories(ctx)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		txs, err := backend.ListTransactions(ctx)
		if err != nil {
			return dataLoadedMsg{err: err}
		}
		return dataLoadedMsg{insights: insights, advisories: advisories, transactions: txs}
	}
}

func (m Model) handleLoaded(msg dataLoadedMsg) Model {
	m.loading = false
	if msg.err != nil {
		m.err = msg.err
		return m
	}
	m.insights = msg.insights
	m.advisories = msg.advisories
	m.transactions = msg.transactions
	return m.clampSelection()
}

func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	m.pending--
	if msg.err != nil {
		m = msg.undo(m)
		m.err = fmt.Errorf("%s: %w", msg.label, msg.err)
		m.status = ""
		// Reload so the board matches storage.
		return m.clampSelection(), m.loadCmd()
	}
	m.err = nil
	m.status = msg.label
	return m, m.loadCmd()
}

func (m Model) selectedInsight() (models.Insight, bool) {
	visible := m.visibleInsights()
	if m.selectedRow < 0 || m.selectedRow >= len(visible) {
		return models.Insight{}, false
	}
	return visible[m.selectedRow], true
}

func (m Model) selectedAdvisory() (models.StatusAdvisory, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.advisories) {
		return models.StatusAdvisory{}, false
	}
	return m.advisories[m.selectedRow], true
}

// runAction performs write in the background and reports back.
func (m Model) runAction(label string, undo func(Model) Model, write func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{label: label, err: write(), undo: undo}
	}
}

func (m Model) handleInsightKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h":
		m.showDismissed = !m.showDismissed
		return m.clampSelection(), nil
	case "a", "enter":
		in, ok := m.selectedInsight()
		if !ok || in.Dismissed {
			return m, nil
		}
		undo := reinsertInsight(in, indexOfInsight(m.insights, in.ID))
		m.insights = removeInsight(m.insights, in.ID)
		m.pending++
		ctx, backend := m.ctx, m.backend
		return m.clampSelection(), m.runAction("accepted: "+in.Title, undo, func() error {
			_, err := backend.AcceptInsight(ctx, in.ID)
			return err
		})
	case "d":
		in, ok := m.selectedInsight()
		if !ok || in.Dismissed {
			return m, nil
		}
		undo := flagInsight(in.ID, false)
		m.insights = setInsightDismissed(m.insights, in.ID, true)
		m.pending++
		ctx, backend := m.ctx, m.backend
		return m.clampSelection(), m.runAction("dismissed: "+in.Title, undo, func() error {
			_, err := backend.DismissInsight(ctx, in.ID)
			return err
		})
	case "r":
		in, ok := m.selectedInsight()
		if !ok || !in.Dismissed {
			return m, nil
		}
		undo := flagInsight(in.ID, true)
		m.insights = setInsightDismissed(m.insights, in.ID, false)
		m.pending++
		ctx, backend := m.ctx, m.backend
		return m.clampSelection(), m.runAction("restored: "+in.Title, undo, func() error {
			_, err := backend.RestoreInsight(ctx, in.ID)
			return err
		})
	}
	return m, nil
}

func (m Model) handleAdvisoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a", "enter":
		adv, ok := m.selectedAdvisory()
		if !ok {
			return m, nil
		}
		undo := reinsertAdvisory(adv, indexOfAdvisory(m.advisories, adv.ID))
		m.advisories = removeAdvisory(m.advisories, adv.ID)
		m.pending++
		ctx, backend := m.ctx, m.backend
		return m.clampSelection(), m.runAction("applied: "+adv.LeadName, undo, func() error {
			_, err := backend.ApplyAdvisory(ctx, adv.ID)
			return err
		})
	case "d":
		adv, ok := m.selectedAdvisory()
		if !ok {
			return m, nil
		}
		undo := reinsertAdvisory(adv, indexOfAdvisory(m.advisories, adv.ID))
		m.advisories = removeAdvisory(m.advisories, adv.ID)
		m.pending++
		ctx, backend := m.ctx, m.backend
		return m.clampSelection(), m.runAction("dismissed advisory: "+adv.LeadName, undo, func() error {
			_, err := backend.DismissAdvisory(ctx, adv.ID)
			return err
		})
	}
	return m, nil
}

func removeInsight(list []models.Insight, id string) []models.Insight {
	out := make([]models.Insight, 0, len(list))
	for _, in := range list {
		if in.ID != id {
			out = append(out, in)
		}
	}
	return out
}

func setInsightDismissed(list []models.Insight, id string, dismissed bool) []models.Insight {
	out := make([]models.Insight, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == id {
			out[i].Dismissed = dismissed
		}
	}
	return out
}

func removeAdvisory(list []models.StatusAdvisory, id string) []models.StatusAdvisory {
	out := make([]models.StatusAdvisory, 0, len(list))
	for _, a := range list {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func indexOfInsight(list []models.Insight, id string) int {
	for i, in := range list {
		if in.ID == id {
			return i
		}
	}
	return len(list)
}

func indexOfAdvisory(list []models.StatusAdvisory, id string) int {
	for i, a := range list {
		if a.ID == id {
			return i
		}
	}
	return len(list)
}

// reinsertInsight returns an undo that puts in back near index at, unless a
// reload already brought it back.
func reinsertInsight(in models.Insight, at int) func(Model) Model {
	return func(m Model) Model {
		if indexOfInsight(m.insights, in.ID) < len(m.insights) {
			return m
		}
		i := min(at, len(m.insights))
		m.insights = slices.Insert(slices.Clone(m.insights), i, in)
		return m
	}
}

func flagInsight(id string, dismissed bool) func(Model) Model {
	return func(m Model) Model {
		m.insights = setInsightDismissed(m.insights, id, dismissed)
		return m
	}
}

func reinsertAdvisory(adv models.StatusAdvisory, at int) func(Model) Model {
	return func(m Model) Model {
		if indexOfAdvisory(m.advisories, adv.ID) < len(m.advisories) {
			return m
		}
		i := min(at, len(m.advisories))
		m.advisories = slices.Insert(slices.Clone(m.advisories), i, adv)
		return m
	}
}

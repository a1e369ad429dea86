// ABOUTME: Tests for the insight board model
// ABOUTME: Drives key presses through Update and runs the returned commands by hand
package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadengine/models"
)

type fakeBackend struct {
	insights   []models.Insight
	advisories []models.StatusAdvisory
	txs        []models.Transaction

	failWrites bool
	failIDs    map[string]bool
	calls      []string
}

var errWrite = errors.New("disk full")

func (f *fakeBackend) GenerateAllInsights(context.Context) ([]models.Insight, error) {
	return append([]models.Insight(nil), f.insights...), nil
}

func (f *fakeBackend) ScanAdvisories(context.Context) ([]models.StatusAdvisory, error) {
	return append([]models.StatusAdvisory(nil), f.advisories...), nil
}

func (f *fakeBackend) ListTransactions(context.Context) ([]models.Transaction, error) {
	return f.txs, nil
}

func (f *fakeBackend) write(call, id string) error {
	f.calls = append(f.calls, call+":"+id)
	if f.failWrites || f.failIDs[id] {
		return errWrite
	}
	return nil
}

func (f *fakeBackend) AcceptInsight(_ context.Context, id string) (models.Task, error) {
	if err := f.write("accept", id); err != nil {
		return models.Task{}, err
	}
	f.insights = removeInsight(f.insights, id)
	return models.Task{}, nil
}

func (f *fakeBackend) DismissInsight(_ context.Context, id string) (models.ExclusionState, error) {
	if err := f.write("dismiss", id); err != nil {
		return models.ExclusionState{}, err
	}
	f.insights = setInsightDismissed(f.insights, id, true)
	return models.NewExclusionState(), nil
}

func (f *fakeBackend) RestoreInsight(_ context.Context, id string) (models.ExclusionState, error) {
	if err := f.write("restore", id); err != nil {
		return models.ExclusionState{}, err
	}
	f.insights = setInsightDismissed(f.insights, id, false)
	return models.NewExclusionState(), nil
}

func (f *fakeBackend) ApplyAdvisory(_ context.Context, id string) (models.Transaction, error) {
	if err := f.write("apply", id); err != nil {
		return models.Transaction{}, err
	}
	f.advisories = removeAdvisory(f.advisories, id)
	return models.Transaction{}, nil
}

func (f *fakeBackend) DismissAdvisory(_ context.Context, id string) (models.ExclusionState, error) {
	if err := f.write("dismiss-advisory", id); err != nil {
		return models.ExclusionState{}, err
	}
	f.advisories = removeAdvisory(f.advisories, id)
	return models.NewExclusionState(), nil
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		insights: []models.Insight{
			{ID: "hot-1", Kind: models.KindUrgent, Priority: 1, Title: "Hot lead going quiet: Dana"},
			{ID: "cold-2", Kind: models.KindWarning, Priority: 3, Title: "Lead going cold: Eli"},
		},
		advisories: []models.StatusAdvisory{
			{ID: "lead-under-contract", LeadID: uuid.New(), LeadName: "Dana", MatchedPhrase: "under contract", SuggestedStatus: models.StageUnderContract},
		},
	}
}

// loaded returns a model after running its initial load.
func loaded(t *testing.T, b Backend) Model {
	t.Helper()
	m := NewModel(context.Background(), b)
	return update(t, m, m.Init()())
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// press sends a key and runs the resulting command chain to completion.
func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	m = next.(Model)
	for cmd != nil {
		msg := cmd()
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestInitialLoad(t *testing.T) {
	m := loaded(t, newFakeBackend())

	assert.False(t, m.loading)
	assert.Len(t, m.insights, 2)
	assert.Len(t, m.advisories, 1)
	assert.Contains(t, m.View(), "Hot lead going quiet: Dana")
}

func TestDismissThenRestore(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b)

	m = press(t, m, "d")
	assert.Equal(t, []string{"dismiss:hot-1"}, b.calls)
	assert.Len(t, m.visibleInsights(), 1)
	assert.Equal(t, "cold-2", m.visibleInsights()[0].ID)

	m = press(t, m, "h")
	require.Len(t, m.visibleInsights(), 2)
	assert.Contains(t, m.View(), "(dismissed)")

	m = press(t, m, "r")
	assert.Equal(t, []string{"dismiss:hot-1", "restore:hot-1"}, b.calls)
	for _, in := range m.insights {
		assert.False(t, in.Dismissed)
	}
}

func TestAcceptRemovesInsight(t *testing.T) {
	b := newFakeBackend()
	m := loaded(t, b)

	m = press(t, m, "a")

	assert.Equal(t, []string{"accept:hot-1"}, b.calls)
	require.Len(t, m.insights, 1)
	assert.Equal(t, "cold-2", m.insights[0].ID)
	assert.Contains(t, m.status, "accepted")
}

func TestFailedWriteRevertsOptimisticChange(t *testing.T) {
	b := newFakeBackend()
	b.failWrites = true
	m := loaded(t, b)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = next.(Model)
	assert.Len(t, m.visibleInsights(), 1, "dismissal shows before the write finishes")
	require.NotNil(t, cmd)

	m = update(t, m, cmd())

	assert.Len(t, m.visibleInsights(), 2)
	require.Error(t, m.err)
	assert.ErrorIs(t, m.err, errWrite)
	assert.Contains(t, m.View(), "disk full")
}

func TestFailedWriteKeepsOtherPendingChange(t *testing.T) {
	b := newFakeBackend()
	b.failIDs = map[string]bool{"cold-2": true}
	m := loaded(t, b)

	next, acceptCmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = next.(Model)
	require.NotNil(t, acceptCmd)
	next, dismissCmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	m = next.(Model)
	require.NotNil(t, dismissCmd)
	assert.Equal(t, 2, m.pending)

	// The dismissal fails first; the accepted row must stay gone.
	next, reload := m.Update(dismissCmd())
	m = next.(Model)
	require.Len(t, m.insights, 1)
	assert.Equal(t, "cold-2", m.insights[0].ID)
	assert.False(t, m.insights[0].Dismissed)
	assert.ErrorIs(t, m.err, errWrite)
	require.NotNil(t, reload, "a failed write reloads the board")

	next, reload = m.Update(acceptCmd())
	m = next.(Model)
	require.NotNil(t, reload)
	m = update(t, m, reload())

	assert.Equal(t, 0, m.pending)
	assert.Equal(t, []string{"dismiss:cold-2", "accept:hot-1"}, b.calls)
	require.Len(t, m.insights, 1)
	assert.Equal(t, "cold-2", m.insights[0].ID)
	assert.False(t, m.insights[0].Dismissed)
}

func TestAcceptUndoPutsRowBackInPlace(t *testing.T) {
	b := newFakeBackend()
	b.failWrites = true
	m := loaded(t, b)

	m = press(t, m, "a")

	require.Len(t, m.insights, 2)
	assert.Equal(t, "hot-1", m.insights[0].ID)
	assert.Equal(t, "cold-2", m.insights[1].ID)
	assert.ErrorIs(t, m.err, errWrite)
}

func TestAdvisoryApplyAndFailedDismiss(t *testing.T) {
	b := newFakeBackend()
	b.advisories = append(b.advisories, models.StatusAdvisory{ID: "other-inspection", LeadName: "Eli"})
	m := loaded(t, b)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabAdvisories, m.tab)

	m = press(t, m, "a")
	assert.Equal(t, []string{"apply:lead-under-contract"}, b.calls)
	require.Len(t, m.advisories, 1)

	b.failWrites = true
	m = press(t, m, "d")
	assert.Len(t, m.advisories, 1)
	assert.Error(t, m.err)
}

func TestNavigationStaysInBounds(t *testing.T) {
	m := loaded(t, newFakeBackend())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.selectedRow)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selectedRow)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.selectedRow)
}

func TestQuit(t *testing.T) {
	m := loaded(t, newFakeBackend())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

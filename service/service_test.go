// ABOUTME: Tests for the owner-scoped service over in-memory stores
// ABOUTME: Covers insight lifecycle, advisories, record operations, and write failures
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type memStore struct {
	mu         sync.Mutex
	leads      map[uuid.UUID]models.Lead
	order      []uuid.UUID
	tasks      map[uuid.UUID]models.Task
	taskOrder  []uuid.UUID
	txs        map[uuid.UUID]models.Transaction
	txOrder    []uuid.UUID
	exclusions map[string]models.ExclusionState
	txSaveErr  error
}

func newMemStore() *memStore {
	return &memStore{
		leads:      map[uuid.UUID]models.Lead{},
		tasks:      map[uuid.UUID]models.Task{},
		txs:        map[uuid.UUID]models.Transaction{},
		exclusions: map[string]models.ExclusionState{},
	}
}

func (m *memStore) stores() Stores {
	return Stores{Leads: m, Tasks: m, Transactions: m, Exclusions: m}
}

func (m *memStore) ListLeads(_ context.Context, owner string) ([]models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Lead
	for _, id := range m.order {
		if l := m.leads[id]; l.OwnerID == owner {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) GetLead(_ context.Context, owner string, id uuid.UUID) (models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || l.OwnerID != owner {
		return models.Lead{}, fmt.Errorf("%w: %s", models.ErrLeadNotFound, id)
	}
	return l, nil
}

func (m *memStore) SaveLead(_ context.Context, lead models.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[lead.ID]; !ok {
		m.order = append(m.order, lead.ID)
	}
	m.leads[lead.ID] = lead
	return nil
}

func (m *memStore) ListTasks(_ context.Context, owner string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, id := range m.taskOrder {
		if t, ok := m.tasks[id]; ok && t.OwnerID == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) GetTask(_ context.Context, owner string, id uuid.UUID) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != owner {
		return models.Task{}, fmt.Errorf("%w: %s", models.ErrTaskNotFound, id)
	}
	return t, nil
}

func (m *memStore) SaveTask(_ context.Context, task models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		m.taskOrder = append(m.taskOrder, task.ID)
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *memStore) DeleteTask(_ context.Context, _ string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *memStore) ListTransactions(_ context.Context, owner string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, id := range m.txOrder {
		if tx, ok := m.txs[id]; ok && tx.OwnerID == owner {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memStore) GetTransaction(_ context.Context, owner string, id uuid.UUID) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok || tx.OwnerID != owner {
		return models.Transaction{}, fmt.Errorf("%w: %s", models.ErrTransactionNotFound, id)
	}
	return tx, nil
}

func (m *memStore) SaveTransaction(_ context.Context, tx models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txSaveErr != nil {
		return m.txSaveErr
	}
	if _, ok := m.txs[tx.ID]; !ok {
		m.txOrder = append(m.txOrder, tx.ID)
	}
	m.txs[tx.ID] = tx
	return nil
}

func (m *memStore) DeleteTransaction(_ context.Context, _ string, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.txs, id)
	return nil
}

func (m *memStore) LoadExclusions(_ context.Context, owner string) (models.ExclusionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.exclusions[owner]
	if !ok {
		return models.NewExclusionState(), nil
	}
	return st.Clone(), nil
}

func (m *memStore) SaveExclusions(_ context.Context, owner string, state models.ExclusionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exclusions[owner] = state.Clone()
	return nil
}

type mockExclusions struct {
	mock.Mock
}

func (m *mockExclusions) LoadExclusions(ctx context.Context, owner string) (models.ExclusionState, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(models.ExclusionState), args.Error(1)
}

func (m *mockExclusions) SaveExclusions(ctx context.Context, owner string, state models.ExclusionState) error {
	return m.Called(ctx, owner, state).Error(0)
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	return New("agent-1", store.stores(), WithClock(FixedClock(testNow))), store
}

func ago(days int) *time.Time {
	ts := testNow.AddDate(0, 0, -days)
	return &ts
}

func addLead(t *testing.T, svc *Service, lead models.Lead) models.Lead {
	t.Helper()
	created := lead.CreatedAt
	out, err := svc.AddLead(context.Background(), lead)
	require.NoError(t, err)
	if !created.IsZero() {
		out.CreatedAt = created
		require.NoError(t, svc.stores.Leads.SaveLead(context.Background(), out))
	}
	return out
}

func TestGenerateInsightsForHotLead(t *testing.T) {
	svc, _ := newTestService(t)
	lead := addLead(t, svc, models.Lead{
		Name: "Harper", Status: "hot", LastContact: ago(4), CreatedAt: *ago(60),
	})

	insights, err := svc.GenerateInsights(context.Background())
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, "hot-"+lead.ID.String(), insights[0].ID)
	assert.Equal(t, 1, insights[0].Priority)
}

func TestAcceptInsightCreatesTaskAndHidesInsight(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{
		Name: "Harper", Status: "hot", LastContact: ago(4), CreatedAt: *ago(60),
	})
	id := "hot-" + lead.ID.String()

	task, err := svc.AcceptInsight(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, task.SourceInsightID)
	assert.Equal(t, models.TaskPriorityHigh, task.Priority)
	require.NotNil(t, task.LeadID)
	assert.Equal(t, lead.ID, *task.LeadID)

	assert.True(t, store.exclusions["agent-1"].Accepted.Has(id))

	insights, err := svc.GenerateInsights(ctx)
	require.NoError(t, err)
	assert.Empty(t, insights)

	_, err = svc.AcceptInsight(ctx, id)
	assert.ErrorIs(t, err, models.ErrInsightNotFound)
}

func TestAcceptInsightRollsBackTaskWhenExclusionWriteFails(t *testing.T) {
	store := newMemStore()
	excl := &mockExclusions{}
	excl.On("LoadExclusions", mock.Anything, "agent-1").Return(models.NewExclusionState(), nil)
	excl.On("SaveExclusions", mock.Anything, "agent-1", mock.Anything).Return(errors.New("disk full"))

	stores := store.stores()
	stores.Exclusions = excl
	svc := New("agent-1", stores, WithClock(FixedClock(testNow)))
	lead := addLead(t, svc, models.Lead{Name: "Harper", Status: "hot", LastContact: ago(4), CreatedAt: *ago(60)})

	_, err := svc.AcceptInsight(context.Background(), "hot-"+lead.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, store.tasks)
	excl.AssertExpectations(t)
}

func TestDismissReturnsPreviousStateWhenWriteFails(t *testing.T) {
	prev := models.NewExclusionState()
	prev.Dismissed["cold-x"] = struct{}{}

	excl := &mockExclusions{}
	excl.On("LoadExclusions", mock.Anything, "agent-1").Return(prev, nil)
	excl.On("SaveExclusions", mock.Anything, "agent-1", mock.Anything).Return(errors.New("offline"))

	stores := newMemStore().stores()
	stores.Exclusions = excl
	svc := New("agent-1", stores, WithClock(FixedClock(testNow)))

	got, err := svc.DismissInsight(context.Background(), "hot-y")
	require.Error(t, err)
	assert.Equal(t, []string{"cold-x"}, got.Dismissed.Slice())
	assert.False(t, prev.Dismissed.Has("hot-y"))
}

func TestDismissAndRestoreInsight(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{Name: "Cole", Status: "warm", CreatedAt: *ago(40)})
	id := "cold-" + lead.ID.String()

	state, err := svc.DismissInsight(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.Dismissed.Has(id))

	state, err = svc.DismissInsight(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.Dismissed, 1)

	live, err := svc.GenerateInsights(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)

	all, err := svc.GenerateAllInsights(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Dismissed)

	state, err = svc.RestoreInsight(ctx, id)
	require.NoError(t, err)
	assert.False(t, state.Dismissed.Has(id))

	live, err = svc.GenerateInsights(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}

func TestSetTransactionStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx, err := svc.AddTransaction(ctx, models.Transaction{PropertyAddress: "1 Main St"})
	require.NoError(t, err)
	assert.Len(t, tx.StatusHistory, 1)

	tx, err = svc.SetTransactionStatus(ctx, tx.ID, models.StageInspection)
	require.NoError(t, err)
	assert.Len(t, tx.StatusHistory, 2)

	_, err = svc.SetTransactionStatus(ctx, tx.ID, "escrow")
	assert.ErrorIs(t, err, engine.ErrUnknownStage)

	stored, err := svc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageInspection, stored.Status)
	assert.Len(t, stored.StatusHistory, 2)

	_, err = svc.SetTransactionStatus(ctx, uuid.New(), models.StageClosed)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestApplyLinkedAdvisory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{Name: "Dana", Status: "negotiating", LastContact: ago(1)})
	tx, err := svc.AddTransaction(ctx, models.Transaction{PropertyAddress: "9 Oak Ave", LeadID: &lead.ID})
	require.NoError(t, err)
	assert.Equal(t, "Dana", tx.ClientName)

	_, advisories, err := svc.UpdateLeadNotes(ctx, lead.ID, "Great news, we are under contract")
	require.NoError(t, err)
	require.Len(t, advisories, 1)

	applied, err := svc.ApplyAdvisory(ctx, advisories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, applied.ID)
	assert.Equal(t, models.StageUnderContract, applied.Status)
	assert.Len(t, applied.StatusHistory, 2)

	again, err := svc.ScanAdvisories(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestApplyUnlinkedAdvisoryCreatesTransaction(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{Name: "Eli", Type: "buyer", Status: "hot", LastContact: ago(1)})

	_, advisories, err := svc.UpdateLeadNotes(ctx, lead.ID, "offer accepted on the condo")
	require.NoError(t, err)
	require.Len(t, advisories, 1)
	assert.Equal(t, models.AdvisoryActionCreateTransaction, advisories[0].Action)

	created, err := svc.ApplyAdvisory(ctx, advisories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StagePending, created.Status)
	assert.True(t, created.LinkedTo(lead.ID))
	assert.Equal(t, "agent-1", created.OwnerID)
	assert.Len(t, store.txs, 1)

	_, err = svc.ApplyAdvisory(ctx, advisories[0].ID)
	assert.ErrorIs(t, err, models.ErrAdvisoryNotFound)
}

func failingExclusionService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	excl := &mockExclusions{}
	excl.On("LoadExclusions", mock.Anything, "agent-1").Return(models.NewExclusionState(), nil)
	excl.On("SaveExclusions", mock.Anything, "agent-1", mock.Anything).Return(errors.New("offline"))

	stores := store.stores()
	stores.Exclusions = excl
	return New("agent-1", stores, WithClock(FixedClock(testNow))), store
}

func TestApplyUnlinkedAdvisoryRemovesTransactionWhenExclusionWriteFails(t *testing.T) {
	svc, store := failingExclusionService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{Name: "Eli", Status: "hot", LastContact: ago(1)})

	_, advisories, err := svc.UpdateLeadNotes(ctx, lead.ID, "we are under contract")
	require.NoError(t, err)
	require.Len(t, advisories, 1)
	id := advisories[0].ID

	_, err = svc.ApplyAdvisory(ctx, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
	assert.Empty(t, store.txs)

	again, err := svc.ScanAdvisories(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, id, again[0].ID)
	assert.Equal(t, models.AdvisoryActionCreateTransaction, again[0].Action)

	_, err = svc.ApplyAdvisory(ctx, id)
	require.Error(t, err)
	assert.Empty(t, store.txs)
}

func TestApplyLinkedAdvisoryKeepsStageWhenExclusionWriteFails(t *testing.T) {
	svc, store := failingExclusionService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{Name: "Dana", Status: "negotiating", LastContact: ago(1)})
	tx, err := svc.AddTransaction(ctx, models.Transaction{PropertyAddress: "9 Oak Ave", LeadID: &lead.ID})
	require.NoError(t, err)

	_, advisories, err := svc.UpdateLeadNotes(ctx, lead.ID, "we are under contract")
	require.NoError(t, err)
	require.Len(t, advisories, 1)

	_, err = svc.ApplyAdvisory(ctx, advisories[0].ID)
	require.Error(t, err)

	stored := store.txs[tx.ID]
	assert.Equal(t, models.StagePending, stored.Status)
	assert.Len(t, stored.StatusHistory, 1)
}

func TestApplyLinkedAdvisoryRestoresDismissalWhenTransactionSaveFails(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{Name: "Dana", Status: "negotiating", LastContact: ago(1)})
	_, err := svc.AddTransaction(ctx, models.Transaction{PropertyAddress: "9 Oak Ave", LeadID: &lead.ID})
	require.NoError(t, err)

	_, advisories, err := svc.UpdateLeadNotes(ctx, lead.ID, "we are under contract")
	require.NoError(t, err)
	require.Len(t, advisories, 1)
	id := advisories[0].ID

	store.txSaveErr = errors.New("locked")
	_, err = svc.ApplyAdvisory(ctx, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
	assert.False(t, store.exclusions["agent-1"].DismissedAdvisories.Has(id))

	store.txSaveErr = nil
	again, err := svc.ScanAdvisories(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, id, again[0].ID)
}

func TestDismissAdvisorySuppressesKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{Name: "Fay", Status: "warm", LastContact: ago(1)})

	_, advisories, err := svc.UpdateLeadNotes(ctx, lead.ID, "inspection scheduled for monday")
	require.NoError(t, err)
	require.Len(t, advisories, 1)

	_, err = svc.DismissAdvisory(ctx, advisories[0].ID)
	require.NoError(t, err)

	_, advisories, err = svc.UpdateLeadNotes(ctx, lead.ID, "inspection scheduled for tuesday instead")
	require.NoError(t, err)
	assert.Empty(t, advisories)
}

func TestLogContactOnlyMovesForward(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	lead := addLead(t, svc, models.Lead{Name: "Gus", LastContact: ago(2)})

	got, err := svc.LogContact(ctx, lead.ID, *ago(10))
	require.NoError(t, err)
	assert.Equal(t, *ago(2), *got.LastContact)

	got, err = svc.LogContact(ctx, lead.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, testNow, *got.LastContact)
}

func TestAddLeadValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddLead(ctx, models.Lead{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := 11
	_, err = svc.AddLead(ctx, models.Lead{Name: "Ivy", Priority: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	lead, err := svc.AddLead(ctx, models.Lead{Name: "Ivy", Status: "HOT"})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusHot, lead.Status)
	assert.Equal(t, "agent-1", lead.OwnerID)
	assert.Equal(t, testNow, lead.CreatedAt)

	lead, err = svc.AddLead(ctx, models.Lead{Name: "Jo"})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
}

func TestAddTaskAndComplete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	missing := uuid.New()
	_, err := svc.AddTask(ctx, models.Task{Title: "Call", LeadID: &missing})
	assert.ErrorIs(t, err, models.ErrLeadNotFound)

	_, err = svc.AddTask(ctx, models.Task{Title: "Call", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	task, err := svc.AddTask(ctx, models.Task{Title: "Send comps", DueDate: testNow.AddDate(0, 0, -2)})
	require.NoError(t, err)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)

	insights, err := svc.GenerateInsights(ctx)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, "overdue-"+task.ID.String(), insights[0].ID)

	done, err := svc.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)

	insights, err = svc.GenerateInsights(ctx)
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func TestAddTransactionWithInitialStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddTransaction(ctx, models.Transaction{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddTransaction(ctx, models.Transaction{PropertyAddress: "2 Elm", Status: "funded"})
	assert.ErrorIs(t, err, engine.ErrUnknownStage)

	tx, err := svc.AddTransaction(ctx, models.Transaction{PropertyAddress: "2 Elm", Status: models.StageContingent})
	require.NoError(t, err)
	assert.Equal(t, models.StageContingent, tx.Status)
	require.Len(t, tx.StatusHistory, 2)
	assert.Equal(t, models.StagePending, tx.StatusHistory[0].Status)
}

func TestSnapshotPropagatesLoadError(t *testing.T) {
	excl := &mockExclusions{}
	excl.On("LoadExclusions", mock.Anything, "agent-1").Return(models.ExclusionState{}, errors.New("kv unavailable"))

	stores := newMemStore().stores()
	stores.Exclusions = excl
	svc := New("agent-1", stores)

	_, err := svc.GenerateInsights(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kv unavailable")
}

// ABOUTME: Tests for the lead, task, transaction, exclusion, and sync repositories
// ABOUTME: Runs against a temp-dir SQLite file with migrations applied
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadengine/models"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestLeadRepositoryRoundTrip(t *testing.T) {
	repo := NewLeadRepository(setupTestDB(t))
	ctx := context.Background()

	prio := 2
	contact := fixedNow.AddDate(0, 0, -3)
	lead := models.Lead{
		ID: uuid.New(), OwnerID: "owner", Name: "Ana", Email: "Ana@Example.com",
		Status: models.LeadStatusHot, Type: models.LeadTypeBuyer, Notes: "likes lofts",
		Priority: &prio, LastContact: &contact, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	require.NoError(t, repo.SaveLead(ctx, lead))

	got, err := repo.GetLead(ctx, "owner", lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)
	require.NotNil(t, got.Priority)
	assert.Equal(t, 2, *got.Priority)
	require.NotNil(t, got.LastContact)
	assert.True(t, contact.Equal(*got.LastContact))

	_, err = repo.GetLead(ctx, "someone-else", lead.ID)
	assert.ErrorIs(t, err, models.ErrLeadNotFound)

	got.Notes = "under contract"
	got.LastContact = nil
	require.NoError(t, repo.SaveLead(ctx, got))

	leads, err := repo.ListLeads(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "under contract", leads[0].Notes)
	assert.Nil(t, leads[0].LastContact)

	found, err := repo.FindLeadsByEmail(ctx, "owner", "ana@example.COM")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	leadID := uuid.New()
	task := models.Task{
		ID: uuid.New(), OwnerID: "owner", Title: "Call back", DueDate: fixedNow,
		Priority: models.TaskPriorityHigh, Status: models.TaskStatusPending,
		LeadID: &leadID, SourceInsightID: "hot-" + leadID.String(), CreatedAt: fixedNow,
	}
	require.NoError(t, repo.SaveTask(ctx, task))

	task.Complete(fixedNow.Add(time.Hour))
	require.NoError(t, repo.SaveTask(ctx, task))

	got, err := repo.GetTask(ctx, "owner", task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted())
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.LeadID)
	assert.Equal(t, leadID, *got.LeadID)
	assert.Equal(t, task.SourceInsightID, got.SourceInsightID)

	require.NoError(t, repo.DeleteTask(ctx, "owner", task.ID))
	_, err = repo.GetTask(ctx, "owner", task.ID)
	assert.ErrorIs(t, err, models.ErrTaskNotFound)
}

func TestTransactionRepositoryAppendsHistory(t *testing.T) {
	repo := NewTransactionRepository(setupTestDB(t))
	ctx := context.Background()

	closing := fixedNow.AddDate(0, 0, 20)
	tx := models.Transaction{
		ID: uuid.New(), OwnerID: "owner", PropertyAddress: "1 Main St", Status: models.StagePending,
		SalePrice: 45000000, CommissionRate: 2.5, ClosingDate: &closing,
		StatusHistory: []models.StatusChange{{Status: models.StagePending, Timestamp: fixedNow}},
		CreatedAt:     fixedNow, UpdatedAt: fixedNow,
	}
	require.NoError(t, repo.SaveTransaction(ctx, tx))

	tx.Status = models.StageUnderContract
	tx.StatusHistory = append(tx.StatusHistory, models.StatusChange{Status: models.StageUnderContract, Timestamp: fixedNow.Add(time.Hour)})
	require.NoError(t, repo.SaveTransaction(ctx, tx))

	got, err := repo.GetTransaction(ctx, "owner", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageUnderContract, got.Status)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, models.StagePending, got.StatusHistory[0].Status)
	assert.Equal(t, models.StageUnderContract, got.StatusHistory[1].Status)
	assert.Equal(t, int64(1125000), got.Commission())

	tx.StatusHistory = tx.StatusHistory[:1]
	err = repo.SaveTransaction(ctx, tx)
	assert.ErrorIs(t, err, ErrHistoryRewrite)

	all, err := repo.ListTransactions(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].StatusHistory, 2)

	_, err = repo.GetTransaction(ctx, "owner", uuid.New())
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestTransactionRepositoryDeleteDropsHistory(t *testing.T) {
	database := setupTestDB(t)
	repo := NewTransactionRepository(database)
	ctx := context.Background()

	tx := models.Transaction{
		ID: uuid.New(), OwnerID: "owner", PropertyAddress: "3 Birch Rd", Status: models.StagePending,
		StatusHistory: []models.StatusChange{{Status: models.StagePending, Timestamp: fixedNow}},
		CreatedAt:     fixedNow, UpdatedAt: fixedNow,
	}
	require.NoError(t, repo.SaveTransaction(ctx, tx))

	require.NoError(t, repo.DeleteTransaction(ctx, "someone-else", tx.ID))
	_, err := repo.GetTransaction(ctx, "owner", tx.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTransaction(ctx, "owner", tx.ID))
	_, err = repo.GetTransaction(ctx, "owner", tx.ID)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)

	var rows int
	require.NoError(t, database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transaction_status_history WHERE transaction_id = ?`, tx.ID.String()).Scan(&rows))
	assert.Zero(t, rows)
}

func TestExclusionRepositoryReplacesState(t *testing.T) {
	repo := NewExclusionRepository(setupTestDB(t))
	ctx := context.Background()

	empty, err := repo.LoadExclusions(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, empty.Dismissed)

	state := models.NewExclusionState()
	state.Dismissed["cold-a"] = struct{}{}
	state.Accepted["hot-b"] = struct{}{}
	state.DismissedAdvisories["b-inspection"] = struct{}{}
	require.NoError(t, repo.SaveExclusions(ctx, "owner", state))

	delete(state.Dismissed, "cold-a")
	require.NoError(t, repo.SaveExclusions(ctx, "owner", state))

	got, err := repo.LoadExclusions(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, got.Dismissed)
	assert.True(t, got.Accepted.Has("hot-b"))
	assert.True(t, got.DismissedAdvisories.Has("b-inspection"))

	other, err := repo.LoadExclusions(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other.Accepted)
}

func TestSyncStateAndLog(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	state, err := GetSyncState(ctx, database, "gmail")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, UpdateSyncStatus(ctx, database, "gmail", SyncStatusSyncing, nil))
	require.NoError(t, CompleteSync(ctx, database, "gmail", "12345", fixedNow))

	state, err = GetSyncState(ctx, database, "gmail")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, SyncStatusIdle, state.Status)
	require.NotNil(t, state.LastSyncToken)
	assert.Equal(t, "12345", *state.LastSyncToken)

	leadID := uuid.New()
	seen, err := SyncLogExists(ctx, database, "gmail", "msg-1", leadID)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, RecordSyncLog(ctx, database, "gmail", "msg-1", leadID))
	require.NoError(t, RecordSyncLog(ctx, database, "gmail", "msg-1", leadID))

	seen, err = SyncLogExists(ctx, database, "gmail", "msg-1", leadID)
	require.NoError(t, err)
	assert.True(t, seen)

	other := uuid.New()
	seen, err = SyncLogExists(ctx, database, "gmail", "msg-1", other)
	require.NoError(t, err)
	assert.False(t, seen)
	require.NoError(t, RecordSyncLog(ctx, database, "gmail", "msg-1", other))

	var rows int
	require.NoError(t, database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_log WHERE source_id = 'msg-1'`).Scan(&rows))
	assert.Equal(t, 2, rows)
}

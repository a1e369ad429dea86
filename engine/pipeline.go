// ABOUTME: Transaction status state machine over the closing pipeline
// ABOUTME: Orders stages by step and appends every status change to the history
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadengine/models"
)

var ErrUnknownStage = errors.New("unknown transaction stage")

// Stage describes one pipeline position.
type Stage struct {
	Name  string
	Label string
	Step  int
}

var pipeline = []Stage{
	{models.StagePending, "Pending", 1},
	{models.StageUnderContract, "Under Contract", 2},
	{models.StageContingent, "Contingent", 3},
	{models.StageInspection, "Inspection", 4},
	{models.StageAppraisal, "Appraisal", 5},
	{models.StageClearToClose, "Clear to Close", 6},
	{models.StageClosed, "Closed", 7},
	{models.StageCancelled, "Cancelled", 0},
}

var stepByName = func() map[string]int {
	m := make(map[string]int, len(pipeline))
	for _, s := range pipeline {
		m[s.Name] = s.Step
	}
	return m
}()

// Stages returns the pipeline in display order, cancelled last.
func Stages() []Stage {
	out := make([]Stage, len(pipeline))
	copy(out, pipeline)
	return out
}

// Step returns the ordering value of a stage. Unknown stages report false.
func Step(stage string) (int, bool) {
	s, ok := stepByName[stage]
	return s, ok
}

// IsValidStage reports whether stage is part of the pipeline.
func IsValidStage(stage string) bool {
	_, ok := stepByName[stage]
	return ok
}

// IsTerminal reports whether a transaction in this stage can no longer move
// forward through the pipeline.
func IsTerminal(stage string) bool {
	return stage == models.StageClosed || stage == models.StageCancelled
}

// NewTransaction returns a transaction at pending with its first history entry.
func NewTransaction(ownerID string, now time.Time) models.Transaction {
	return models.Transaction{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Status:  models.StagePending,
		StatusHistory: []models.StatusChange{
			{Status: models.StagePending, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransactionFromLead starts a pending transaction for a lead with no deal yet.
// The stage always starts at pending; the agent confirms later stages.
func TransactionFromLead(lead models.Lead, now time.Time) models.Transaction {
	tx := NewTransaction(lead.OwnerID, now)
	leadID := lead.ID
	tx.LeadID = &leadID
	tx.ClientName = lead.Name
	tx.ClientType = lead.Type
	return tx
}

// SetStatus moves a transaction to any known stage, forward or backward, and
// appends the change to its history. Setting the current stage is a no-op.
func SetStatus(tx models.Transaction, status string, now time.Time) (models.Transaction, error) {
	if !IsValidStage(status) {
		return tx, fmt.Errorf("%w: %q", ErrUnknownStage, status)
	}

	tx = NormalizeHistory(tx)
	if tx.Status == status {
		return tx, nil
	}

	history := make([]models.StatusChange, len(tx.StatusHistory), len(tx.StatusHistory)+1)
	copy(history, tx.StatusHistory)
	tx.StatusHistory = append(history, models.StatusChange{Status: status, Timestamp: now})
	tx.Status = status
	tx.UpdatedAt = now
	return tx, nil
}

// NormalizeHistory seeds an empty history from the current status so loaded
// records always end their history on the current stage.
func NormalizeHistory(tx models.Transaction) models.Transaction {
	if tx.Status == "" {
		tx.Status = models.StagePending
	}
	n := len(tx.StatusHistory)
	if n > 0 && tx.StatusHistory[n-1].Status == tx.Status {
		return tx
	}
	ts := tx.UpdatedAt
	if n == 0 {
		ts = tx.CreatedAt
	}
	history := make([]models.StatusChange, n, n+1)
	copy(history, tx.StatusHistory)
	tx.StatusHistory = append(history, models.StatusChange{Status: tx.Status, Timestamp: ts})
	return tx
}

// StageLabel returns the human label for a stage name.
func StageLabel(stage string) string {
	for _, s := range pipeline {
		if s.Name == stage {
			return s.Label
		}
	}
	return stage
}

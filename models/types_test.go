// ABOUTME: Tests for CRM data models
// ABOUTME: Validates lead activity, task overdue logic, commission, and IDSet helpers
package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLeadIsActive(t *testing.T) {
	cases := map[string]bool{
		LeadStatusNew:     true,
		LeadStatusHot:     true,
		"nurture":         true,
		LeadStatusClosed:  false,
		LeadStatusLost:    false,
		"Closed":          false,
		LeadStatusWaiting: true,
	}
	for status, want := range cases {
		l := &Lead{Status: status}
		assert.Equal(t, want, l.IsActive(), "status %q", status)
	}
}

func TestTaskIsOverdue(t *testing.T) {
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	task := &Task{Status: TaskStatusPending, DueDate: today.AddDate(0, 0, -1)}
	assert.True(t, task.IsOverdue(today))

	task.DueDate = today
	assert.False(t, task.IsOverdue(today), "due today is not overdue")

	task.DueDate = today.AddDate(0, 0, -3)
	task.Complete(today)
	assert.False(t, task.IsOverdue(today))
	assert.NotNil(t, task.CompletedAt)
}

func TestTaskCompleteKeepsFirstTimestamp(t *testing.T) {
	first := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	task := &Task{Status: TaskStatusPending}
	task.Complete(first)
	task.Complete(first.Add(time.Hour))
	assert.Equal(t, first, *task.CompletedAt)
}

func TestTransactionCommission(t *testing.T) {
	tx := &Transaction{SalePrice: 50000000, CommissionRate: 3}
	assert.Equal(t, int64(1500000), tx.Commission())
}

func TestTransactionLinkedTo(t *testing.T) {
	leadID := uuid.New()
	tx := &Transaction{}
	assert.False(t, tx.LinkedTo(leadID))
	tx.LeadID = &leadID
	assert.True(t, tx.LinkedTo(leadID))
	assert.False(t, tx.LinkedTo(uuid.New()))
}

func TestIDSetSliceIsSorted(t *testing.T) {
	s := NewIDSet("b", "c", "a", "b")
	assert.Equal(t, []string{"a", "b", "c"}, s.Slice())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("z"))
}

func TestExclusionStateCloneIsIndependent(t *testing.T) {
	s := NewExclusionState()
	s.Dismissed["x"] = struct{}{}
	c := s.Clone()
	c.Dismissed["y"] = struct{}{}
	assert.False(t, s.Dismissed.Has("y"))
	assert.True(t, c.Dismissed.Has("x"))
}

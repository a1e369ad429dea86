// ABOUTME: Data models for the real-estate CRM engine
// ABOUTME: Defines Lead, Task, and the status/type vocabularies they use
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound        = errors.New("lead not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsightNotFound     = errors.New("insight not found")
	ErrAdvisoryNotFound    = errors.New("advisory not found")
)

type Lead struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Status      string     `json:"status"`
	Type        string     `json:"type,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Priority    *int       `json:"priority,omitempty"` // 1 hottest .. 10 coldest
	LastContact *time.Time `json:"last_contact,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Lead statuses. The set is open: unknown values are stored as-is and
// treated as active.
const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusQualified   = "qualified"
	LeadStatusNegotiating = "negotiating"
	LeadStatusHot         = "hot"
	LeadStatusWarm        = "warm"
	LeadStatusCold        = "cold"
	LeadStatusWaiting     = "waiting"
	LeadStatusClosed      = "closed"
	LeadStatusLost        = "lost"
)

// Lead types.
const (
	LeadTypeBuyer    = "buyer"
	LeadTypeSeller   = "seller"
	LeadTypeInvestor = "investor"
	LeadTypeRenter   = "renter"
	LeadTypeBoth     = "both"
)

// IsActive reports whether the lead is still being worked.
func (l *Lead) IsActive() bool {
	switch strings.ToLower(l.Status) {
	case LeadStatusClosed, LeadStatusLost:
		return false
	}
	return true
}

type Task struct {
	ID              uuid.UUID  `json:"id"`
	OwnerID         string     `json:"owner_id"`
	Title           string     `json:"title"`
	DueDate         time.Time  `json:"due_date"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	LeadID          *uuid.UUID `json:"lead_id,omitempty"`
	SourceInsightID string     `json:"source_insight_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Task statuses.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// IsCompleted reports whether the task has been marked done.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// Complete marks the task done at the given time.
func (t *Task) Complete(at time.Time) {
	if t.IsCompleted() {
		return
	}
	t.Status = TaskStatusCompleted
	t.CompletedAt = &at
}

// IsOverdue returns true if the task is due before the given day and not completed.
func (t *Task) IsOverdue(today time.Time) bool {
	if t.IsCompleted() || t.DueDate.IsZero() {
		return false
	}
	return t.DueDate.Before(today)
}

// IsValidTaskPriority reports whether p is one of the known task priorities.
func IsValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

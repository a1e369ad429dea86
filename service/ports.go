// ABOUTME: Storage and clock interfaces the service reads and writes through
// ABOUTME: SQLite repositories and the Charm KV store satisfy these
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadengine/models"
)

type LeadStore interface {
	ListLeads(ctx context.Context, ownerID string) ([]models.Lead, error)
	GetLead(ctx context.Context, ownerID string, id uuid.UUID) (models.Lead, error)
	SaveLead(ctx context.Context, lead models.Lead) error
}

type TaskStore interface {
	ListTasks(ctx context.Context, ownerID string) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID string, id uuid.UUID) (models.Task, error)
	SaveTask(ctx context.Context, task models.Task) error
	DeleteTask(ctx context.Context, ownerID string, id uuid.UUID) error
}

type TransactionStore interface {
	ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, ownerID string, id uuid.UUID) (models.Transaction, error)
	SaveTransaction(ctx context.Context, tx models.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID string, id uuid.UUID) error
}

// ExclusionStore persists the handled-id sets for an owner. Loading an owner
// with nothing saved returns an empty state, not an error.
type ExclusionStore interface {
	LoadExclusions(ctx context.Context, ownerID string) (models.ExclusionState, error)
	SaveExclusions(ctx context.Context, ownerID string, state models.ExclusionState) error
}

// Stores groups the collaborators a Service needs.
type Stores struct {
	Leads        LeadStore
	Tasks        TaskStore
	Transactions TransactionStore
	Exclusions   ExclusionStore
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

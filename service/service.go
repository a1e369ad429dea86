// ABOUTME: Owner-scoped service that loads a snapshot, runs the engine, and writes back
// ABOUTME: Exclusion state is saved only after it is fully computed; failures keep the old state
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	owner   string
	stores  Stores
	clock   Clock
	logger  *log.Logger
	catalog engine.Catalog
	advisor engine.Advisor
}

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCatalog swaps the rule table, mostly for tests.
func WithCatalog(c engine.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

func WithAdvisor(a engine.Advisor) Option {
	return func(s *Service) { s.advisor = a }
}

func New(ownerID string, stores Stores, opts ...Option) *Service {
	s := &Service{
		owner:   ownerID,
		stores:  stores,
		clock:   SystemClock{},
		logger:  log.New(io.Discard),
		catalog: engine.DefaultCatalog,
		advisor: engine.DefaultAdvisor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) OwnerID() string {
	return s.owner
}

func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Snapshot reads every record set plus the exclusion state for the owner.
// The four reads run concurrently and are merged before returning.
func (s *Service) Snapshot(ctx context.Context) (engine.Snapshot, models.ExclusionState, error) {
	var (
		snap  engine.Snapshot
		state models.ExclusionState
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		leads, err := s.stores.Leads.ListLeads(gctx, s.owner)
		if err != nil {
			return fmt.Errorf("list leads: %w", err)
		}
		snap.Leads = leads
		return nil
	})
	g.Go(func() error {
		tasks, err := s.stores.Tasks.ListTasks(gctx, s.owner)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		snap.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		txs, err := s.stores.Transactions.ListTransactions(gctx, s.owner)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		st, err := s.loadExclusions(gctx)
		if err != nil {
			return err
		}
		state = st
		return nil
	})

	if err := g.Wait(); err != nil {
		return engine.Snapshot{}, models.ExclusionState{}, err
	}
	return snap, state, nil
}

func (s *Service) loadExclusions(ctx context.Context) (models.ExclusionState, error) {
	state, err := s.stores.Exclusions.LoadExclusions(ctx, s.owner)
	if err != nil {
		return models.ExclusionState{}, fmt.Errorf("load exclusions: %w", err)
	}
	if state.Dismissed == nil || state.Accepted == nil || state.DismissedAdvisories == nil {
		fresh := models.NewExclusionState()
		for id := range state.Dismissed {
			fresh.Dismissed[id] = struct{}{}
		}
		for id := range state.Accepted {
			fresh.Accepted[id] = struct{}{}
		}
		for id := range state.DismissedAdvisories {
			fresh.DismissedAdvisories[id] = struct{}{}
		}
		state = fresh
	}
	return state, nil
}

// saveExclusions writes next. On failure it hands back prev so the caller
// can keep showing what is actually stored.
func (s *Service) saveExclusions(ctx context.Context, prev, next models.ExclusionState) (models.ExclusionState, error) {
	if err := s.stores.Exclusions.SaveExclusions(ctx, s.owner, next); err != nil {
		s.logger.Warn("exclusion write failed", "owner", s.owner, "err", err)
		return prev, fmt.Errorf("save exclusions: %w", err)
	}
	return next, nil
}

// GenerateInsights returns the live insight list for the owner.
func (s *Service) GenerateInsights(ctx context.Context) ([]models.Insight, error) {
	snap, state, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	insights := s.catalog.Generate(snap, state, s.clock.Now())
	s.logger.Debug("generated insights", "owner", s.owner, "count", len(insights))
	return insights, nil
}

// GenerateAllInsights includes dismissed insights, flagged.
func (s *Service) GenerateAllInsights(ctx context.Context) ([]models.Insight, error) {
	snap, state, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.catalog.GenerateWithDismissed(snap, state, s.clock.Now()), nil
}

// AcceptInsight turns a live insight into a pending task. If the exclusion
// write fails the task is removed again.
func (s *Service) AcceptInsight(ctx context.Context, id string) (models.Task, error) {
	snap, state, err := s.Snapshot(ctx)
	if err != nil {
		return models.Task{}, err
	}
	now := s.clock.Now()

	in, ok := engine.FindInsight(s.catalog.Generate(snap, state, now), id)
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %s", models.ErrInsightNotFound, id)
	}

	next, task := engine.Accept(state, s.owner, in, now)
	if err := s.stores.Tasks.SaveTask(ctx, task); err != nil {
		return models.Task{}, fmt.Errorf("save task: %w", err)
	}
	if _, err := s.saveExclusions(ctx, state, next); err != nil {
		if rollbackErr := s.stores.Tasks.DeleteTask(ctx, s.owner, task.ID); rollbackErr != nil {
			return models.Task{}, fmt.Errorf("accept insight and roll back task: %w", errors.Join(err, rollbackErr))
		}
		return models.Task{}, err
	}

	s.logger.Info("accepted insight", "id", id, "task", task.ID)
	return task, nil
}

// DismissInsight hides an insight id. The returned state is the one now in
// storage: the new state on success, the previous one on failure.
func (s *Service) DismissInsight(ctx context.Context, id string) (models.ExclusionState, error) {
	state, err := s.loadExclusions(ctx)
	if err != nil {
		return models.ExclusionState{}, err
	}
	next, changed := engine.Dismiss(state, id)
	if !changed {
		return state, nil
	}
	return s.saveExclusions(ctx, state, next)
}

func (s *Service) RestoreInsight(ctx context.Context, id string) (models.ExclusionState, error) {
	state, err := s.loadExclusions(ctx)
	if err != nil {
		return models.ExclusionState{}, err
	}
	next, changed := engine.Restore(state, id)
	if !changed {
		return state, nil
	}
	return s.saveExclusions(ctx, state, next)
}

// SetTransactionStatus moves a transaction to status and persists it.
func (s *Service) SetTransactionStatus(ctx context.Context, txID uuid.UUID, status string) (models.Transaction, error) {
	tx, err := s.stores.Transactions.GetTransaction(ctx, s.owner, txID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	updated, err := engine.SetStatus(tx, status, s.clock.Now())
	if err != nil {
		return tx, err
	}
	if len(updated.StatusHistory) == len(tx.StatusHistory) && updated.Status == tx.Status {
		return updated, nil
	}
	if err := s.stores.Transactions.SaveTransaction(ctx, updated); err != nil {
		return tx, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.Info("transaction status changed", "id", txID, "from", tx.Status, "to", status)
	return updated, nil
}

// ScanAdvisories reads every lead's notes for stage language.
func (s *Service) ScanAdvisories(ctx context.Context) ([]models.StatusAdvisory, error) {
	snap, state, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	advisories := s.advisor.Scan(snap.Leads, snap.Transactions, state.DismissedAdvisories, s.clock.Now())
	s.logger.Debug("scanned advisories", "owner", s.owner, "count", len(advisories))
	return advisories, nil
}

// ApplyAdvisory carries out an advisory. A linked advisory moves its
// transaction; an unlinked one creates a pending transaction for the lead.
// Either way the advisory key is dismissed, and a failed write on either side
// leaves storage as it was.
func (s *Service) ApplyAdvisory(ctx context.Context, id string) (models.Transaction, error) {
	snap, state, err := s.Snapshot(ctx)
	if err != nil {
		return models.Transaction{}, err
	}
	now := s.clock.Now()

	adv, ok := engine.FindAdvisory(s.advisor.Scan(snap.Leads, snap.Transactions, state.DismissedAdvisories, now), id)
	if !ok {
		return models.Transaction{}, fmt.Errorf("%w: %s", models.ErrAdvisoryNotFound, id)
	}

	updated, _, err := engine.Apply(adv, snap.Transactions, now)
	if err != nil {
		return models.Transaction{}, err
	}
	next, _ := engine.DismissAdvisory(state, adv.ID)

	var tx models.Transaction
	if updated != nil {
		tx, err = s.advanceLinked(ctx, state, next, *updated)
	} else {
		tx, err = s.createFromAdvisory(ctx, state, next, adv, now)
	}
	if err != nil {
		return models.Transaction{}, err
	}

	s.logger.Info("applied advisory", "id", id, "action", adv.Action, "transaction", tx.ID)
	return tx, nil
}

// advanceLinked dismisses the key before moving the transaction. Stored
// history cannot be taken back, so the dismissal is what gets undone.
func (s *Service) advanceLinked(ctx context.Context, prev, next models.ExclusionState, tx models.Transaction) (models.Transaction, error) {
	if _, err := s.saveExclusions(ctx, prev, next); err != nil {
		return models.Transaction{}, err
	}
	if err := s.stores.Transactions.SaveTransaction(ctx, tx); err != nil {
		err = fmt.Errorf("save transaction: %w", err)
		if _, rollbackErr := s.saveExclusions(ctx, next, prev); rollbackErr != nil {
			return models.Transaction{}, fmt.Errorf("apply advisory and roll back dismissal: %w", errors.Join(err, rollbackErr))
		}
		return models.Transaction{}, err
	}
	return tx, nil
}

// createFromAdvisory stores a new pending transaction for the lead and
// removes it again if the dismissal cannot be written.
func (s *Service) createFromAdvisory(ctx context.Context, prev, next models.ExclusionState, adv models.StatusAdvisory, now time.Time) (models.Transaction, error) {
	lead, err := s.stores.Leads.GetLead(ctx, s.owner, adv.LeadID)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("get lead: %w", err)
	}
	tx := engine.TransactionFromLead(lead, now)
	tx.OwnerID = s.owner

	if err := s.stores.Transactions.SaveTransaction(ctx, tx); err != nil {
		return models.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	if _, err := s.saveExclusions(ctx, prev, next); err != nil {
		if rollbackErr := s.stores.Transactions.DeleteTransaction(ctx, s.owner, tx.ID); rollbackErr != nil {
			return models.Transaction{}, fmt.Errorf("apply advisory and roll back transaction: %w", errors.Join(err, rollbackErr))
		}
		return models.Transaction{}, err
	}
	return tx, nil
}

func (s *Service) DismissAdvisory(ctx context.Context, id string) (models.ExclusionState, error) {
	state, err := s.loadExclusions(ctx)
	if err != nil {
		return models.ExclusionState{}, err
	}
	next, changed := engine.DismissAdvisory(state, id)
	if !changed {
		return state, nil
	}
	return s.saveExclusions(ctx, state, next)
}

// ABOUTME: Record operations for leads, tasks, and transactions
// ABOUTME: Fills ids, owner, and timestamps before handing records to storage
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
)

// AddLead stores a new lead. Name is required; status defaults to new.
func (s *Service) AddLead(ctx context.Context, lead models.Lead) (models.Lead, error) {
	lead.Name = strings.TrimSpace(lead.Name)
	if lead.Name == "" {
		return models.Lead{}, fmt.Errorf("%w: lead name is required", ErrInvalidInput)
	}
	if lead.Priority != nil && (*lead.Priority < 1 || *lead.Priority > 10) {
		return models.Lead{}, fmt.Errorf("%w: priority must be between 1 and 10", ErrInvalidInput)
	}

	now := s.clock.Now()
	lead.ID = uuid.New()
	lead.OwnerID = s.owner
	lead.Status = strings.ToLower(strings.TrimSpace(lead.Status))
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	lead.Type = strings.ToLower(strings.TrimSpace(lead.Type))
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if err := s.stores.Leads.SaveLead(ctx, lead); err != nil {
		return models.Lead{}, fmt.Errorf("save lead: %w", err)
	}
	s.logger.Info("added lead", "id", lead.ID, "name", lead.Name)
	return lead, nil
}

func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (models.Lead, error) {
	return s.stores.Leads.GetLead(ctx, s.owner, id)
}

func (s *Service) ListLeads(ctx context.Context) ([]models.Lead, error) {
	return s.stores.Leads.ListLeads(ctx, s.owner)
}

// UpdateLeadNotes replaces a lead's notes and returns the advisories the new
// notes raise for that lead.
func (s *Service) UpdateLeadNotes(ctx context.Context, id uuid.UUID, notes string) (models.Lead, []models.StatusAdvisory, error) {
	lead, err := s.stores.Leads.GetLead(ctx, s.owner, id)
	if err != nil {
		return models.Lead{}, nil, fmt.Errorf("get lead: %w", err)
	}
	lead.Notes = notes
	lead.UpdatedAt = s.clock.Now()
	if err := s.stores.Leads.SaveLead(ctx, lead); err != nil {
		return models.Lead{}, nil, fmt.Errorf("save lead: %w", err)
	}

	all, err := s.ScanAdvisories(ctx)
	if err != nil {
		return lead, nil, err
	}
	var mine []models.StatusAdvisory
	for _, a := range all {
		if a.LeadID == lead.ID {
			mine = append(mine, a)
		}
	}
	return lead, mine, nil
}

// LogContact records a touch with the lead. A zero time means now. Touches
// older than the one on record are ignored.
func (s *Service) LogContact(ctx context.Context, id uuid.UUID, at time.Time) (models.Lead, error) {
	lead, err := s.stores.Leads.GetLead(ctx, s.owner, id)
	if err != nil {
		return models.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	now := s.clock.Now()
	if at.IsZero() {
		at = now
	}
	if lead.LastContact != nil && !at.After(*lead.LastContact) {
		return lead, nil
	}
	lead.LastContact = &at
	lead.UpdatedAt = now
	if err := s.stores.Leads.SaveLead(ctx, lead); err != nil {
		return models.Lead{}, fmt.Errorf("save lead: %w", err)
	}
	s.logger.Debug("logged contact", "lead", lead.ID, "at", at)
	return lead, nil
}

// AddTask stores a pending task. A linked lead must exist; due defaults to
// today and priority to medium.
func (s *Service) AddTask(ctx context.Context, task models.Task) (models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return models.Task{}, fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	if !models.IsValidTaskPriority(task.Priority) {
		return models.Task{}, fmt.Errorf("%w: unknown task priority %q", ErrInvalidInput, task.Priority)
	}
	if task.LeadID != nil {
		if _, err := s.stores.Leads.GetLead(ctx, s.owner, *task.LeadID); err != nil {
			return models.Task{}, fmt.Errorf("get lead: %w", err)
		}
	}

	now := s.clock.Now()
	task.ID = uuid.New()
	task.OwnerID = s.owner
	task.Status = models.TaskStatusPending
	task.CompletedAt = nil
	task.CreatedAt = now
	if task.DueDate.IsZero() {
		task.DueDate = engine.StartOfDay(now)
	}

	if err := s.stores.Tasks.SaveTask(ctx, task); err != nil {
		return models.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.stores.Tasks.ListTasks(ctx, s.owner)
}

// CompleteTask marks a task done. Completing twice keeps the first time.
func (s *Service) CompleteTask(ctx context.Context, id uuid.UUID) (models.Task, error) {
	task, err := s.stores.Tasks.GetTask(ctx, s.owner, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	if task.IsCompleted() {
		return task, nil
	}
	task.Complete(s.clock.Now())
	if err := s.stores.Tasks.SaveTask(ctx, task); err != nil {
		return models.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// AddTransaction stores a new transaction starting at pending. A non-pending
// status in the input is applied as the first move so the history records it.
func (s *Service) AddTransaction(ctx context.Context, in models.Transaction) (models.Transaction, error) {
	in.PropertyAddress = strings.TrimSpace(in.PropertyAddress)
	if in.PropertyAddress == "" {
		return models.Transaction{}, fmt.Errorf("%w: property address is required", ErrInvalidInput)
	}
	if in.CommissionRate < 0 || in.SalePrice < 0 {
		return models.Transaction{}, fmt.Errorf("%w: price and commission must not be negative", ErrInvalidInput)
	}

	now := s.clock.Now()
	tx := engine.NewTransaction(s.owner, now)
	tx.PropertyAddress = in.PropertyAddress
	tx.ClientName = in.ClientName
	tx.ClientType = in.ClientType
	tx.SalePrice = in.SalePrice
	tx.CommissionRate = in.CommissionRate
	tx.ContractDate = in.ContractDate
	tx.ClosingDate = in.ClosingDate
	tx.Notes = in.Notes

	if in.LeadID != nil {
		lead, err := s.stores.Leads.GetLead(ctx, s.owner, *in.LeadID)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("get lead: %w", err)
		}
		leadID := lead.ID
		tx.LeadID = &leadID
		if tx.ClientName == "" {
			tx.ClientName = lead.Name
		}
		if tx.ClientType == "" {
			tx.ClientType = lead.Type
		}
	}

	if in.Status != "" {
		var err error
		if tx, err = engine.SetStatus(tx, in.Status, now); err != nil {
			return models.Transaction{}, err
		}
	}

	if err := s.stores.Transactions.SaveTransaction(ctx, tx); err != nil {
		return models.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.logger.Info("added transaction", "id", tx.ID, "address", tx.PropertyAddress)
	return tx, nil
}

func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (models.Transaction, error) {
	tx, err := s.stores.Transactions.GetTransaction(ctx, s.owner, id)
	if err != nil {
		return models.Transaction{}, err
	}
	return engine.NormalizeHistory(tx), nil
}

func (s *Service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.stores.Transactions.ListTransactions(ctx, s.owner)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i] = engine.NormalizeHistory(txs[i])
	}
	return txs, nil
}

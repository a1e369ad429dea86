// ABOUTME: Lead repository over the leads table
// ABOUTME: Upserts leads and lists them per owner in creation order
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/leadengine/models"
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = `id, owner_id, name, email, phone, status, type, notes, priority, last_contact, created_at, updated_at`

func (r *LeadRepository) SaveLead(ctx context.Context, lead models.Lead) error {
	var priority sql.NullInt64
	if lead.Priority != nil {
		priority = sql.NullInt64{Int64: int64(*lead.Priority), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			status = excluded.status,
			type = excluded.type,
			notes = excluded.notes,
			priority = excluded.priority,
			last_contact = excluded.last_contact,
			updated_at = excluded.updated_at
	`, lead.ID.String(), lead.OwnerID, lead.Name, lead.Email, lead.Phone, lead.Status, lead.Type, lead.Notes,
		priority, nullTime(lead.LastContact), lead.CreatedAt, lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) GetLead(ctx context.Context, ownerID string, id uuid.UUID) (models.Lead, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE owner_id = ? AND id = ?
	`, ownerID, id.String())

	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Lead{}, fmt.Errorf("%w: %s", models.ErrLeadNotFound, id)
	}
	return lead, err
}

func (r *LeadRepository) ListLeads(ctx context.Context, ownerID string) ([]models.Lead, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE owner_id = ? ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// FindLeadsByEmail matches case-insensitively on the stored address.
func (r *LeadRepository) FindLeadsByEmail(ctx context.Context, ownerID, email string) ([]models.Lead, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE owner_id = ? AND lower(email) = lower(?) ORDER BY created_at, id
	`, ownerID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads by email: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(s scanner) (models.Lead, error) {
	var (
		lead        models.Lead
		priority    sql.NullInt64
		lastContact sql.NullTime
	)
	err := s.Scan(&lead.ID, &lead.OwnerID, &lead.Name, &lead.Email, &lead.Phone, &lead.Status, &lead.Type,
		&lead.Notes, &priority, &lastContact, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return models.Lead{}, err
	}
	if priority.Valid {
		p := int(priority.Int64)
		lead.Priority = &p
	}
	if lastContact.Valid {
		ts := lastContact.Time
		lead.LastContact = &ts
	}
	return lead, nil
}

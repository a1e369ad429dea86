// ABOUTME: SQLite-backed exclusion sets for dismissed, accepted, and advisory ids
// ABOUTME: Saving replaces an owner's rows in one transaction
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/leadengine/models"
)

const (
	exclusionDismissed = "dismissed"
	exclusionAccepted  = "accepted"
	exclusionAdvisory  = "advisory"
)

type ExclusionRepository struct {
	db *sql.DB
}

func NewExclusionRepository(db *sql.DB) *ExclusionRepository {
	return &ExclusionRepository{db: db}
}

func (r *ExclusionRepository) LoadExclusions(ctx context.Context, ownerID string) (models.ExclusionState, error) {
	state := models.NewExclusionState()

	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, item_id FROM exclusions WHERE owner_id = ?
	`, ownerID)
	if err != nil {
		return state, fmt.Errorf("failed to query exclusions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return state, err
		}
		switch kind {
		case exclusionDismissed:
			state.Dismissed[id] = struct{}{}
		case exclusionAccepted:
			state.Accepted[id] = struct{}{}
		case exclusionAdvisory:
			state.DismissedAdvisories[id] = struct{}{}
		}
	}
	return state, rows.Err()
}

func (r *ExclusionRepository) SaveExclusions(ctx context.Context, ownerID string, state models.ExclusionState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM exclusions WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to clear exclusions: %w", err)
	}

	sets := []struct {
		kind string
		ids  models.IDSet
	}{
		{exclusionDismissed, state.Dismissed},
		{exclusionAccepted, state.Accepted},
		{exclusionAdvisory, state.DismissedAdvisories},
	}
	for _, set := range sets {
		for _, id := range set.ids.Slice() {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO exclusions (owner_id, kind, item_id) VALUES (?, ?, ?)
			`, ownerID, set.kind, id)
			if err != nil {
				return fmt.Errorf("failed to save exclusion: %w", err)
			}
		}
	}

	return tx.Commit()
}

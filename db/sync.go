// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks importer status and which external messages already touched a lead
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sync statuses.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// SyncState represents the sync state for a service.
type SyncState struct {
	Service       string
	LastSyncTime  *time.Time
	LastSyncToken *string
	Status        string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GetSyncState returns nil when the service has never synced.
func GetSyncState(ctx context.Context, db *sql.DB, service string) (*SyncState, error) {
	var (
		state         SyncState
		lastSyncTime  sql.NullTime
		lastSyncToken sql.NullString
		errorMessage  sql.NullString
	)

	err := db.QueryRowContext(ctx, `
		SELECT service, last_sync_time, last_sync_token, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&lastSyncToken,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if lastSyncToken.Valid {
		state.LastSyncToken = &lastSyncToken.String
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}
	return &state, nil
}

// UpdateSyncStatus records the status for a service, creating the row if needed.
func UpdateSyncStatus(ctx context.Context, db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// CompleteSync stores the cursor of a finished run and resets the status to idle.
func CompleteSync(ctx context.Context, db *sql.DB, service, token string, at time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (service, last_sync_time, last_sync_token, status, created_at, updated_at)
		VALUES (?, ?, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			last_sync_token = excluded.last_sync_token,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, at, token)
	if err != nil {
		return fmt.Errorf("failed to complete sync: %w", err)
	}
	return nil
}

// SyncLogExists reports whether a source item was already applied to a lead.
func SyncLogExists(ctx context.Context, db *sql.DB, sourceService, sourceID string, leadID uuid.UUID) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_log WHERE source_service = ? AND source_id = ? AND lead_id = ?
	`, sourceService, sourceID, leadID.String()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sync log: %w", err)
	}
	return count > 0, nil
}

// RecordSyncLog marks a source item as applied to a lead. Recording the same
// pair twice is a no-op; one item may be applied to several leads.
func RecordSyncLog(ctx context.Context, db *sql.DB, sourceService, sourceID string, leadID uuid.UUID) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sync_log (source_service, source_id, lead_id, imported_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, sourceService, sourceID, leadID.String())
	if err != nil {
		return fmt.Errorf("failed to record sync log: %w", err)
	}
	return nil
}

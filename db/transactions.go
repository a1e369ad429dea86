// ABOUTME: Transaction repository with the append-only status history table
// ABOUTME: Saving inserts only history entries not yet stored; stored entries are never changed
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/leadengine/models"
)

var ErrHistoryRewrite = errors.New("status history would lose stored entries")

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, owner_id, property_address, client_name, client_type, status, sale_price,
	commission_rate, contract_date, closing_date, notes, lead_id, created_at, updated_at`

func (r *TransactionRepository) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = dbtx.Rollback() }()

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			property_address = excluded.property_address,
			client_name = excluded.client_name,
			client_type = excluded.client_type,
			status = excluded.status,
			sale_price = excluded.sale_price,
			commission_rate = excluded.commission_rate,
			contract_date = excluded.contract_date,
			closing_date = excluded.closing_date,
			notes = excluded.notes,
			lead_id = excluded.lead_id,
			updated_at = excluded.updated_at
	`, tx.ID.String(), tx.OwnerID, tx.PropertyAddress, tx.ClientName, tx.ClientType, tx.Status, tx.SalePrice,
		tx.CommissionRate, nullTime(tx.ContractDate), nullTime(tx.ClosingDate), tx.Notes, nullUUID(tx.LeadID),
		tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	var stored int
	err = dbtx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transaction_status_history WHERE transaction_id = ?
	`, tx.ID.String()).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to count status history: %w", err)
	}
	if stored > len(tx.StatusHistory) {
		return fmt.Errorf("%w: %d stored, %d given", ErrHistoryRewrite, stored, len(tx.StatusHistory))
	}

	for seq := stored; seq < len(tx.StatusHistory); seq++ {
		change := tx.StatusHistory[seq]
		_, err := dbtx.ExecContext(ctx, `
			INSERT INTO transaction_status_history (transaction_id, seq, status, changed_at)
			VALUES (?, ?, ?, ?)
		`, tx.ID.String(), seq, change.Status, change.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}
	}

	return dbtx.Commit()
}

// DeleteTransaction removes a transaction; its history goes with it.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, ownerID string, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE owner_id = ? AND id = ?`, ownerID, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetTransaction(ctx context.Context, ownerID string, id uuid.UUID) (models.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? AND id = ?
	`, ownerID, id.String())

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("%w: %s", models.ErrTransactionNotFound, id)
	}
	if err != nil {
		return models.Transaction{}, err
	}

	history, err := r.history(ctx, []string{tx.ID.String()})
	if err != nil {
		return models.Transaction{}, err
	}
	tx.StatusHistory = history[tx.ID.String()]
	return tx, nil
}

func (r *TransactionRepository) ListTransactions(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? ORDER BY created_at, id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	var (
		txs []models.Transaction
		ids []string
	)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		txs = append(txs, tx)
		ids = append(ids, tx.ID.String())
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Close before the next query; the pool holds a single connection.
	_ = rows.Close()

	if len(txs) == 0 {
		return txs, nil
	}
	history, err := r.history(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].StatusHistory = history[txs[i].ID.String()]
	}
	return txs, nil
}

func (r *TransactionRepository) history(ctx context.Context, ids []string) (map[string][]models.StatusChange, error) {
	out := make(map[string][]models.StatusChange, len(ids))
	for _, id := range ids {
		rows, err := r.db.QueryContext(ctx, `
			SELECT status, changed_at FROM transaction_status_history
			WHERE transaction_id = ? ORDER BY seq
		`, id)
		if err != nil {
			return nil, fmt.Errorf("failed to query status history: %w", err)
		}
		for rows.Next() {
			var c models.StatusChange
			if err := rows.Scan(&c.Status, &c.Timestamp); err != nil {
				_ = rows.Close()
				return nil, err
			}
			out[id] = append(out[id], c)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanTransaction(s scanner) (models.Transaction, error) {
	var (
		tx           models.Transaction
		contractDate sql.NullTime
		closingDate  sql.NullTime
		leadID       sql.NullString
	)
	err := s.Scan(&tx.ID, &tx.OwnerID, &tx.PropertyAddress, &tx.ClientName, &tx.ClientType, &tx.Status,
		&tx.SalePrice, &tx.CommissionRate, &contractDate, &closingDate, &tx.Notes, &leadID,
		&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	if contractDate.Valid {
		ts := contractDate.Time
		tx.ContractDate = &ts
	}
	if closingDate.Valid {
		ts := closingDate.Time
		tx.ClosingDate = &ts
	}
	tx.LeadID = parseNullUUID(leadID)
	return tx, nil
}

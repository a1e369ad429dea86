// ABOUTME: Transaction model for the closing pipeline
// ABOUTME: Defines Transaction, its append-only status history, and stage names
package models

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline stages, in forward order. Cancelled sits outside the order.
const (
	StagePending       = "pending"
	StageUnderContract = "under-contract"
	StageContingent    = "contingent"
	StageInspection    = "inspection"
	StageAppraisal     = "appraisal"
	StageClearToClose  = "clear-to-close"
	StageClosed        = "closed"
	StageCancelled     = "cancelled"
)

type StatusChange struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type Transaction struct {
	ID              uuid.UUID      `json:"id"`
	OwnerID         string         `json:"owner_id"`
	PropertyAddress string         `json:"property_address"`
	ClientName      string         `json:"client_name"`
	ClientType      string         `json:"client_type,omitempty"`
	Status          string         `json:"status"`
	SalePrice       int64          `json:"sale_price,omitempty"` // in cents
	CommissionRate  float64        `json:"commission_rate,omitempty"`
	ContractDate    *time.Time     `json:"contract_date,omitempty"`
	ClosingDate     *time.Time     `json:"closing_date,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	LeadID          *uuid.UUID     `json:"lead_id,omitempty"`
	StatusHistory   []StatusChange `json:"status_history"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Commission returns the agent commission in cents for the sale price.
func (t *Transaction) Commission() int64 {
	return int64(float64(t.SalePrice) * t.CommissionRate / 100)
}

// LinkedTo reports whether the transaction references the given lead.
func (t *Transaction) LinkedTo(leadID uuid.UUID) bool {
	return t.LeadID != nil && *t.LeadID == leadID
}

// ABOUTME: MCP tool handlers for transactions
// ABOUTME: Creates transactions and moves them through the pipeline stages
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadengine/models"
	"github.com/harperreed/leadengine/service"
)

type TransactionHandlers struct {
	svc *service.Service
}

func NewTransactionHandlers(svc *service.Service) *TransactionHandlers {
	return &TransactionHandlers{svc: svc}
}

type AddTransactionInput struct {
	PropertyAddress string  `json:"property_address" jsonschema:"Property address (required)"`
	ClientName      string  `json:"client_name,omitempty" jsonschema:"Client name (defaults to the linked lead)"`
	ClientType      string  `json:"client_type,omitempty" jsonschema:"buyer or seller"`
	SalePrice       float64 `json:"sale_price,omitempty" jsonschema:"Sale price in dollars"`
	CommissionRate  float64 `json:"commission_rate,omitempty" jsonschema:"Commission rate in percent"`
	Status          string  `json:"status,omitempty" jsonschema:"Starting stage (defaults to pending)"`
	ClosingDate     string  `json:"closing_date,omitempty" jsonschema:"Expected closing date YYYY-MM-DD"`
	LeadID          string  `json:"lead_id,omitempty" jsonschema:"Lead this transaction belongs to"`
	Notes           string  `json:"notes,omitempty" jsonschema:"Notes"`
}

type StatusChangeOutput struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type TransactionOutput struct {
	ID              string               `json:"id"`
	PropertyAddress string               `json:"property_address"`
	ClientName      string               `json:"client_name"`
	ClientType      string               `json:"client_type,omitempty"`
	Status          string               `json:"status"`
	SalePrice       float64              `json:"sale_price,omitempty"`
	CommissionRate  float64              `json:"commission_rate,omitempty"`
	Commission      float64              `json:"commission,omitempty"`
	ClosingDate     *string              `json:"closing_date,omitempty"`
	LeadID          *string              `json:"lead_id,omitempty"`
	StatusHistory   []StatusChangeOutput `json:"status_history"`
}

func (h *TransactionHandlers) AddTransaction(ctx context.Context, _ *mcp.CallToolRequest, input AddTransactionInput) (*mcp.CallToolResult, TransactionOutput, error) {
	if input.PropertyAddress == "" {
		return nil, TransactionOutput{}, fmt.Errorf("property_address is required")
	}

	tx := models.Transaction{
		PropertyAddress: input.PropertyAddress,
		ClientName:      input.ClientName,
		ClientType:      input.ClientType,
		SalePrice:       int64(input.SalePrice * 100),
		CommissionRate:  input.CommissionRate,
		Status:          input.Status,
		Notes:           input.Notes,
	}
	if input.ClosingDate != "" {
		d, err := time.ParseInLocation("2006-01-02", input.ClosingDate, h.svc.Now().Location())
		if err != nil {
			return nil, TransactionOutput{}, fmt.Errorf("invalid closing_date: %w", err)
		}
		tx.ClosingDate = &d
	}
	if input.LeadID != "" {
		id, err := uuid.Parse(input.LeadID)
		if err != nil {
			return nil, TransactionOutput{}, fmt.Errorf("invalid lead_id: %w", err)
		}
		tx.LeadID = &id
	}

	saved, err := h.svc.AddTransaction(ctx, tx)
	if err != nil {
		return nil, TransactionOutput{}, fmt.Errorf("failed to add transaction: %w", err)
	}
	return nil, transactionToOutput(saved), nil
}

type SetTransactionStatusInput struct {
	TransactionID string `json:"transaction_id" jsonschema:"Transaction ID (required)"`
	Status        string `json:"status" jsonschema:"New stage: pending, under-contract, contingent, inspection, appraisal, clear-to-close, closed, or cancelled"`
}

func (h *TransactionHandlers) SetTransactionStatus(ctx context.Context, _ *mcp.CallToolRequest, input SetTransactionStatusInput) (*mcp.CallToolResult, TransactionOutput, error) {
	id, err := uuid.Parse(input.TransactionID)
	if err != nil {
		return nil, TransactionOutput{}, fmt.Errorf("invalid transaction_id: %w", err)
	}
	if input.Status == "" {
		return nil, TransactionOutput{}, fmt.Errorf("status is required")
	}

	tx, err := h.svc.SetTransactionStatus(ctx, id, input.Status)
	if err != nil {
		return nil, TransactionOutput{}, fmt.Errorf("failed to set status: %w", err)
	}
	return nil, transactionToOutput(tx), nil
}

func transactionToOutput(tx models.Transaction) TransactionOutput {
	out := TransactionOutput{
		ID:              tx.ID.String(),
		PropertyAddress: tx.PropertyAddress,
		ClientName:      tx.ClientName,
		ClientType:      tx.ClientType,
		Status:          tx.Status,
		SalePrice:       float64(tx.SalePrice) / 100,
		CommissionRate:  tx.CommissionRate,
		Commission:      float64(tx.Commission()) / 100,
		StatusHistory:   make([]StatusChangeOutput, 0, len(tx.StatusHistory)),
	}
	if tx.ClosingDate != nil {
		s := tx.ClosingDate.Format("2006-01-02")
		out.ClosingDate = &s
	}
	if tx.LeadID != nil {
		s := tx.LeadID.String()
		out.LeadID = &s
	}
	for _, c := range tx.StatusHistory {
		out.StatusHistory = append(out.StatusHistory, StatusChangeOutput{
			Status:    c.Status,
			Timestamp: c.Timestamp.Format(time.RFC3339),
		})
	}
	return out
}

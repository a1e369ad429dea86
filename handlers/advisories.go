// ABOUTME: MCP tool handlers for status advisories
// ABOUTME: Scans lead notes for stage language and applies or dismisses the result
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadengine/models"
	"github.com/harperreed/leadengine/service"
)

type AdvisoryHandlers struct {
	svc *service.Service
}

func NewAdvisoryHandlers(svc *service.Service) *AdvisoryHandlers {
	return &AdvisoryHandlers{svc: svc}
}

type AdvisoryOutput struct {
	ID              string `json:"id"`
	LeadID          string `json:"lead_id"`
	LeadName        string `json:"lead_name"`
	TransactionID   string `json:"transaction_id,omitempty"`
	MatchedPhrase   string `json:"matched_phrase"`
	SuggestedStatus string `json:"suggested_status"`
	Action          string `json:"action"`
	CreatedAt       string `json:"created_at"`
}

type ScanAdvisoriesInput struct{}

type ScanAdvisoriesOutput struct {
	Advisories []AdvisoryOutput `json:"advisories"`
}

func (h *AdvisoryHandlers) ScanAdvisories(ctx context.Context, _ *mcp.CallToolRequest, _ ScanAdvisoriesInput) (*mcp.CallToolResult, ScanAdvisoriesOutput, error) {
	advisories, err := h.svc.ScanAdvisories(ctx)
	if err != nil {
		return nil, ScanAdvisoriesOutput{}, fmt.Errorf("failed to scan advisories: %w", err)
	}
	out := ScanAdvisoriesOutput{Advisories: make([]AdvisoryOutput, 0, len(advisories))}
	for _, a := range advisories {
		out.Advisories = append(out.Advisories, advisoryToOutput(a))
	}
	return nil, out, nil
}

type AdvisoryIDInput struct {
	AdvisoryID string `json:"advisory_id" jsonschema:"Advisory ID from scan_advisories (required)"`
}

func (h *AdvisoryHandlers) ApplyAdvisory(ctx context.Context, _ *mcp.CallToolRequest, input AdvisoryIDInput) (*mcp.CallToolResult, TransactionOutput, error) {
	if input.AdvisoryID == "" {
		return nil, TransactionOutput{}, fmt.Errorf("advisory_id is required")
	}
	tx, err := h.svc.ApplyAdvisory(ctx, input.AdvisoryID)
	if err != nil {
		return nil, TransactionOutput{}, fmt.Errorf("failed to apply advisory: %w", err)
	}
	return nil, transactionToOutput(tx), nil
}

func (h *AdvisoryHandlers) DismissAdvisory(ctx context.Context, _ *mcp.CallToolRequest, input AdvisoryIDInput) (*mcp.CallToolResult, ExclusionOutput, error) {
	if input.AdvisoryID == "" {
		return nil, ExclusionOutput{}, fmt.Errorf("advisory_id is required")
	}
	state, err := h.svc.DismissAdvisory(ctx, input.AdvisoryID)
	if err != nil {
		return nil, ExclusionOutput{}, fmt.Errorf("failed to dismiss advisory: %w", err)
	}
	return nil, exclusionsToOutput(state), nil
}

func advisoryToOutput(a models.StatusAdvisory) AdvisoryOutput {
	out := AdvisoryOutput{
		ID:              a.ID,
		LeadID:          a.LeadID.String(),
		LeadName:        a.LeadName,
		MatchedPhrase:   a.MatchedPhrase,
		SuggestedStatus: a.SuggestedStatus,
		Action:          a.Action,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.TransactionID != nil {
		out.TransactionID = a.TransactionID.String()
	}
	return out
}

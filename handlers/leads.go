// ABOUTME: MCP tool handlers for lead records
// ABOUTME: Adds leads, replaces notes, and logs contact touches
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/models"
	"github.com/harperreed/leadengine/service"
)

type LeadHandlers struct {
	svc *service.Service
}

func NewLeadHandlers(svc *service.Service) *LeadHandlers {
	return &LeadHandlers{svc: svc}
}

type AddLeadInput struct {
	Name     string `json:"name" jsonschema:"Lead name (required)"`
	Email    string `json:"email,omitempty" jsonschema:"Email address"`
	Phone    string `json:"phone,omitempty" jsonschema:"Phone number"`
	Status   string `json:"status,omitempty" jsonschema:"Lead status (new, contacted, qualified, hot, warm, cold, negotiating, closed, lost)"`
	Type     string `json:"type,omitempty" jsonschema:"Lead type (buyer, seller, both)"`
	Priority int    `json:"priority,omitempty" jsonschema:"Priority from 1 (hottest) to 10"`
	Notes    string `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type LeadOutput struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Status      string  `json:"status"`
	Type        string  `json:"type,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	LastContact *string `json:"last_contact,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func (h *LeadHandlers) AddLead(ctx context.Context, _ *mcp.CallToolRequest, input AddLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.Name == "" {
		return nil, LeadOutput{}, fmt.Errorf("name is required")
	}

	lead := models.Lead{
		Name:   input.Name,
		Email:  input.Email,
		Phone:  input.Phone,
		Status: input.Status,
		Type:   input.Type,
		Notes:  input.Notes,
	}
	if input.Priority != 0 {
		p := input.Priority
		lead.Priority = &p
	}

	saved, err := h.svc.AddLead(ctx, lead)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to add lead: %w", err)
	}
	return nil, leadToOutput(saved), nil
}

type UpdateLeadNotesInput struct {
	LeadID string `json:"lead_id" jsonschema:"Lead ID (required)"`
	Notes  string `json:"notes" jsonschema:"Replacement notes text"`
}

type UpdateLeadNotesOutput struct {
	Lead       LeadOutput       `json:"lead"`
	Advisories []AdvisoryOutput `json:"advisories"`
}

// UpdateLeadNotes saves the notes and reports any stage language they contain.
func (h *LeadHandlers) UpdateLeadNotes(ctx context.Context, _ *mcp.CallToolRequest, input UpdateLeadNotesInput) (*mcp.CallToolResult, UpdateLeadNotesOutput, error) {
	id, err := uuid.Parse(input.LeadID)
	if err != nil {
		return nil, UpdateLeadNotesOutput{}, fmt.Errorf("invalid lead_id: %w", err)
	}

	lead, advisories, err := h.svc.UpdateLeadNotes(ctx, id, input.Notes)
	if err != nil {
		return nil, UpdateLeadNotesOutput{}, fmt.Errorf("failed to update notes: %w", err)
	}

	out := UpdateLeadNotesOutput{Lead: leadToOutput(lead), Advisories: []AdvisoryOutput{}}
	for _, a := range advisories {
		out.Advisories = append(out.Advisories, advisoryToOutput(a))
	}
	return nil, out, nil
}

type LogLeadContactInput struct {
	LeadID string `json:"lead_id" jsonschema:"Lead ID (required)"`
	At     string `json:"at,omitempty" jsonschema:"When the contact happened, RFC3339 or YYYY-MM-DD (defaults to now)"`
}

func (h *LeadHandlers) LogLeadContact(ctx context.Context, _ *mcp.CallToolRequest, input LogLeadContactInput) (*mcp.CallToolResult, LeadOutput, error) {
	id, err := uuid.Parse(input.LeadID)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("invalid lead_id: %w", err)
	}

	var at time.Time
	if input.At != "" {
		ts := engine.ParseTimestamp(input.At)
		if ts == nil {
			return nil, LeadOutput{}, fmt.Errorf("invalid at timestamp %q", input.At)
		}
		at = *ts
	}

	lead, err := h.svc.LogContact(ctx, id, at)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to log contact: %w", err)
	}
	return nil, leadToOutput(lead), nil
}

type ListLeadsInput struct{}

type ListLeadsOutput struct {
	Leads []LeadOutput `json:"leads"`
}

func (h *LeadHandlers) ListLeads(ctx context.Context, _ *mcp.CallToolRequest, _ ListLeadsInput) (*mcp.CallToolResult, ListLeadsOutput, error) {
	leads, err := h.svc.ListLeads(ctx)
	if err != nil {
		return nil, ListLeadsOutput{}, fmt.Errorf("failed to list leads: %w", err)
	}
	out := ListLeadsOutput{Leads: make([]LeadOutput, 0, len(leads))}
	for _, l := range leads {
		out.Leads = append(out.Leads, leadToOutput(l))
	}
	return nil, out, nil
}

func leadToOutput(lead models.Lead) LeadOutput {
	out := LeadOutput{
		ID:        lead.ID.String(),
		Name:      lead.Name,
		Email:     lead.Email,
		Phone:     lead.Phone,
		Status:    lead.Status,
		Type:      lead.Type,
		Priority:  lead.Priority,
		Notes:     lead.Notes,
		CreatedAt: lead.CreatedAt.Format(time.RFC3339),
	}
	if lead.LastContact != nil {
		s := lead.LastContact.Format(time.RFC3339)
		out.LastContact = &s
	}
	return out
}

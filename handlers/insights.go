// ABOUTME: MCP tool handlers for engagement insights
// ABOUTME: Generates the insight list and records accept, dismiss, and restore
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadengine/models"
	"github.com/harperreed/leadengine/service"
)

type InsightHandlers struct {
	svc *service.Service
}

func NewInsightHandlers(svc *service.Service) *InsightHandlers {
	return &InsightHandlers{svc: svc}
}

type GenerateInsightsInput struct {
	IncludeDismissed bool `json:"include_dismissed,omitempty" jsonschema:"Also return dismissed insights, flagged as dismissed"`
}

type InsightOutput struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ActionLabel  string `json:"action_label,omitempty"`
	ActionTarget string `json:"action_target,omitempty"`
	LeadID       string `json:"lead_id,omitempty"`
	LeadName     string `json:"lead_name,omitempty"`
	Priority     int    `json:"priority"`
	DueInDays    int    `json:"due_in_days"`
	Dismissed    bool   `json:"dismissed,omitempty"`
}

type GenerateInsightsOutput struct {
	Insights []InsightOutput `json:"insights"`
}

func (h *InsightHandlers) GenerateInsights(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInsightsInput) (*mcp.CallToolResult, GenerateInsightsOutput, error) {
	var (
		insights []models.Insight
		err      error
	)
	if input.IncludeDismissed {
		insights, err = h.svc.GenerateAllInsights(ctx)
	} else {
		insights, err = h.svc.GenerateInsights(ctx)
	}
	if err != nil {
		return nil, GenerateInsightsOutput{}, fmt.Errorf("failed to generate insights: %w", err)
	}

	out := GenerateInsightsOutput{Insights: make([]InsightOutput, 0, len(insights))}
	for _, in := range insights {
		out.Insights = append(out.Insights, insightToOutput(in))
	}
	return nil, out, nil
}

type InsightIDInput struct {
	InsightID string `json:"insight_id" jsonschema:"Insight ID from generate_insights (required)"`
}

func (h *InsightHandlers) AcceptInsight(ctx context.Context, _ *mcp.CallToolRequest, input InsightIDInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.InsightID == "" {
		return nil, TaskOutput{}, fmt.Errorf("insight_id is required")
	}
	task, err := h.svc.AcceptInsight(ctx, input.InsightID)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to accept insight: %w", err)
	}
	return nil, taskToOutput(task), nil
}

type ExclusionOutput struct {
	Dismissed           []string `json:"dismissed"`
	Accepted            []string `json:"accepted"`
	DismissedAdvisories []string `json:"dismissed_advisories"`
}

func (h *InsightHandlers) DismissInsight(ctx context.Context, _ *mcp.CallToolRequest, input InsightIDInput) (*mcp.CallToolResult, ExclusionOutput, error) {
	if input.InsightID == "" {
		return nil, ExclusionOutput{}, fmt.Errorf("insight_id is required")
	}
	state, err := h.svc.DismissInsight(ctx, input.InsightID)
	if err != nil {
		return nil, ExclusionOutput{}, fmt.Errorf("failed to dismiss insight: %w", err)
	}
	return nil, exclusionsToOutput(state), nil
}

func (h *InsightHandlers) RestoreInsight(ctx context.Context, _ *mcp.CallToolRequest, input InsightIDInput) (*mcp.CallToolResult, ExclusionOutput, error) {
	if input.InsightID == "" {
		return nil, ExclusionOutput{}, fmt.Errorf("insight_id is required")
	}
	state, err := h.svc.RestoreInsight(ctx, input.InsightID)
	if err != nil {
		return nil, ExclusionOutput{}, fmt.Errorf("failed to restore insight: %w", err)
	}
	return nil, exclusionsToOutput(state), nil
}

func insightToOutput(in models.Insight) InsightOutput {
	out := InsightOutput{
		ID:           in.ID,
		Kind:         in.Kind,
		Title:        in.Title,
		Description:  in.Description,
		ActionLabel:  in.ActionLabel,
		ActionTarget: in.ActionTarget,
		LeadName:     in.LeadName,
		Priority:     in.Priority,
		DueInDays:    in.DueInDays,
		Dismissed:    in.Dismissed,
	}
	if in.LeadID != nil {
		out.LeadID = in.LeadID.String()
	}
	return out
}

func exclusionsToOutput(state models.ExclusionState) ExclusionOutput {
	return ExclusionOutput{
		Dismissed:           state.Dismissed.Slice(),
		Accepted:            state.Accepted.Slice(),
		DismissedAdvisories: state.DismissedAdvisories.Slice(),
	}
}

// ABOUTME: MCP resource handlers for read-only engine views
// ABOUTME: Serves the insight list, advisories, and pipeline as JSON documents
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/leadengine/engine"
	"github.com/harperreed/leadengine/service"
)

const resourceScheme = "leadengine://"

type ResourceHandlers struct {
	svc *service.Service
}

func NewResourceHandlers(svc *service.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// Resources lists the URIs ReadResource understands.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: resourceScheme + "insights", Name: "insights", Description: "Live engagement insights", MIMEType: "application/json"},
		{URI: resourceScheme + "advisories", Name: "advisories", Description: "Pending status advisories", MIMEType: "application/json"},
		{URI: resourceScheme + "pipeline", Name: "pipeline", Description: "Transactions grouped by stage", MIMEType: "application/json"},
	}
}

func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	var payload any
	switch strings.TrimPrefix(uri, resourceScheme) {
	case "insights":
		insights, err := h.svc.GenerateInsights(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate insights: %w", err)
		}
		out := make([]InsightOutput, 0, len(insights))
		for _, in := range insights {
			out = append(out, insightToOutput(in))
		}
		payload = out

	case "advisories":
		advisories, err := h.svc.ScanAdvisories(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advisories: %w", err)
		}
		out := make([]AdvisoryOutput, 0, len(advisories))
		for _, a := range advisories {
			out = append(out, advisoryToOutput(a))
		}
		payload = out

	case "pipeline":
		txs, err := h.svc.ListTransactions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}
		byStage := make(map[string][]TransactionOutput)
		for _, stage := range engine.Stages() {
			byStage[stage.Name] = []TransactionOutput{}
		}
		for _, tx := range txs {
			byStage[tx.Status] = append(byStage[tx.Status], transactionToOutput(tx))
		}
		payload = byStage

	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

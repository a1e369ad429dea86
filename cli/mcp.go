// ABOUTME: MCP server subcommand
// ABOUTME: Serves the engine's tools and resources to MCP clients over stdio
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/leadengine/handlers"
	"github.com/harperreed/leadengine/service"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			a.logger.Info("starting MCP server", "owner", a.svc.OwnerID())
			server := NewMCPServer(a.svc)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

// NewMCPServer registers every tool and resource against svc.
func NewMCPServer(svc *service.Service) *mcp.Server {
	leadHandlers := handlers.NewLeadHandlers(svc)
	taskHandlers := handlers.NewTaskHandlers(svc)
	txHandlers := handlers.NewTransactionHandlers(svc)
	insightHandlers := handlers.NewInsightHandlers(svc)
	advisoryHandlers := handlers.NewAdvisoryHandlers(svc)
	resourceHandlers := handlers.NewResourceHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "leadengine",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_lead",
		Description: "Add a new lead with optional status, type, priority, and notes",
	}, leadHandlers.AddLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_leads",
		Description: "List every lead for this owner",
	}, leadHandlers.ListLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_lead_notes",
		Description: "Replace a lead's notes and return any stage advisories the notes raise",
	}, leadHandlers.UpdateLeadNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_lead_contact",
		Description: "Record a contact with a lead, updating its last contact time",
	}, leadHandlers.LogLeadContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task",
		Description: "Add a follow-up task, optionally linked to a lead",
	}, taskHandlers.AddTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task complete",
	}, taskHandlers.CompleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_transaction",
		Description: "Add a real-estate transaction, optionally linked to a lead",
	}, txHandlers.AddTransaction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_transaction_status",
		Description: "Move a transaction to a pipeline stage and record the change in its history",
	}, txHandlers.SetTransactionStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_insights",
		Description: "Generate the prioritized list of alerts and suggested tasks",
	}, insightHandlers.GenerateInsights)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "accept_insight",
		Description: "Turn an insight into a pending task",
	}, insightHandlers.AcceptInsight)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dismiss_insight",
		Description: "Hide an insight from future lists",
	}, insightHandlers.DismissInsight)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "restore_insight",
		Description: "Bring back a dismissed insight",
	}, insightHandlers.RestoreInsight)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_advisories",
		Description: "Scan lead notes for language implying a transaction stage change",
	}, advisoryHandlers.ScanAdvisories)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_advisory",
		Description: "Apply an advisory: advance the linked transaction or create one for the lead",
	}, advisoryHandlers.ApplyAdvisory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dismiss_advisory",
		Description: "Ignore an advisory so it is not suggested again",
	}, advisoryHandlers.DismissAdvisory)

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}

	return server
}

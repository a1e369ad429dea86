// ABOUTME: MCP tool handlers for tasks
// ABOUTME: Adds follow-up tasks and marks them complete
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

type TaskHandlers struct {
	svc *service.Service
}

func NewTaskHandlers(svc *service.Service) *TaskHandlers {
	return &TaskHandlers{svc: svc}
}

type AddTaskInput struct {
	Title    string `json:"title" jsonschema:"Task title (required)"`
	DueDate  string `json:"due_date,omitempty" jsonschema:"Due date YYYY-MM-DD (defaults to today)"`
	Priority string `json:"priority,omitempty" jsonschema:"Priority: high, medium, or low"`
	LeadID   string `json:"lead_id,omitempty" jsonschema:"Lead this task belongs to"`
}

type TaskOutput struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	DueDate         string  `json:"due_date"`
	Priority        string  `json:"priority"`
	Status          string  `json:"status"`
	LeadID          *string `json:"lead_id,omitempty"`
	SourceInsightID string  `json:"source_insight_id,omitempty"`
	CompletedAt     *string `json:"completed_at,omitempty"`
}

func (h *TaskHandlers) AddTask(ctx context.Context, _ *mcp.CallToolRequest, input AddTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.Title == "" {
		return nil, TaskOutput{}, fmt.Errorf("title is required")
	}

	task := models.Task{Title: input.Title, Priority: input.Priority}
	if input.DueDate != "" {
		due, err := time.ParseInLocation("2006-01-02", input.DueDate, h.svc.Now().Location())
		if err != nil {
			return nil, TaskOutput{}, fmt.Errorf("invalid due_date: %w", err)
		}
		task.DueDate = due
	}
	if input.LeadID != "" {
		id, err := uuid.Parse(input.LeadID)
		if err != nil {
			return nil, TaskOutput{}, fmt.Errorf("invalid lead_id: %w", err)
		}
		task.LeadID = &id
	}

	saved, err := h.svc.AddTask(ctx, task)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to add task: %w", err)
	}
	return nil, taskToOutput(saved), nil
}

type CompleteTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"Task ID (required)"`
}

func (h *TaskHandlers) CompleteTask(ctx context.Context, _ *mcp.CallToolRequest, input CompleteTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	id, err := uuid.Parse(input.TaskID)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("invalid task_id: %w", err)
	}
	task, err := h.svc.CompleteTask(ctx, id)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("failed to complete task: %w", err)
	}
	return nil, taskToOutput(task), nil
}

func taskToOutput(task models.Task) TaskOutput {
	out := TaskOutput{
		ID:              task.ID.String(),
		Title:           task.Title,
		DueDate:         task.DueDate.Format("2006-01-02"),
		Priority:        task.Priority,
		Status:          task.Status,
		SourceInsightID: task.SourceInsightID,
	}
	if task.LeadID != nil {
		s := task.LeadID.String()
		out.LeadID = &s
	}
	if task.CompletedAt != nil {
		s := task.CompletedAt.Format(time.RFC3339)
		out.CompletedAt = &s
	}
	return out
}
